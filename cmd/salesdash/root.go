package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/nao1215/salesdash"
	"github.com/nao1215/salesdash/domain/model"
	"github.com/nao1215/salesdash/internal/config"
	"github.com/nao1215/salesdash/internal/logging"
	"github.com/spf13/cobra"
)

// app is the state shared by the subcommands once the config is loaded.
type app struct {
	configFile string
	dataFile   string
	cfg        config.Config
	logger     *slog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}
	rootCmd := &cobra.Command{
		Use:          "salesdash",
		Short:        "Interactive sales dashboard",
		Long:         "Load order files, explore sales by region, state, customer and month, and export the filtered orders.",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init(cmd)
		},
	}

	rootCmd.PersistentFlags().StringVar(&a.configFile, "config", "", "Config file path (default ./configs/salesdash.yaml or ./salesdash.yaml)")
	rootCmd.PersistentFlags().StringVarP(&a.dataFile, "file", "f", "", "Order file to load (default: data.path, or the bundled sample)")

	rootCmd.AddCommand(
		newServeCmd(a),
		newReportCmd(a),
		newExportCmd(a),
		newQueryCmd(a),
	)
	return rootCmd
}

// Execute runs the command line and logs a failure before returning it.
func Execute(ctx context.Context, args []string) error {
	if ctx == nil {
		return errors.New("context is required")
	}

	rootCmd := newRootCmd()
	rootCmd.SetArgs(args)

	logger := slog.New(slog.NewTextHandler(rootCmd.ErrOrStderr(), &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	ctx = logging.WithLogger(ctx, logger)
	ctx = logging.WithAttrs(ctx, slog.String("app", "salesdash"))

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		logging.Error(ctx, "command execution failed", slog.Any("err", err))
		return fmt.Errorf("execute root command: %w", err)
	}
	return nil
}

// init loads the config and replaces the bootstrap logger with the configured one.
func (a *app) init(cmd *cobra.Command) error {
	ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

	cfg, err := config.Load(ctx, a.configFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if a.dataFile != "" {
		cfg.Data.Path = a.dataFile
	}
	a.cfg = cfg

	logger, err := logging.New(cmd.ErrOrStderr(), cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	a.logger = logger.With(slog.String("app", "salesdash"))
	cmd.SetContext(logging.WithLogger(ctx, logger))
	return nil
}

// loadTable loads data.path, or the bundled sample when it is empty.
func (a *app) loadTable(ctx context.Context) (*salesdash.Table, error) {
	loader := salesdash.NewLoader(salesdash.WithLoaderLogger(a.logger))
	if a.cfg.Data.Path == "" {
		return loader.LoadDefault(ctx)
	}
	return loader.Load(ctx, a.cfg.Data.Path)
}

// dataFormat names the format of the startup file for load metrics.
func (a *app) dataFormat() string {
	if a.cfg.Data.Path == "" {
		return salesdash.FileTypeCSV.String()
	}
	return model.DetectFileType(a.cfg.Data.Path).String()
}

// newResolver builds the geocoding chain selected by geocoder.provider.
// The returned closer releases the persistent store, if any.
func (a *app) newResolver(ctx context.Context, observer salesdash.GeocodeObserver) (salesdash.LocationResolver, func() error, error) {
	noop := func() error { return nil }
	gc := a.cfg.Geocoder

	var geocoder salesdash.Geocoder
	switch gc.Provider {
	case config.ProviderNone:
		return nil, noop, nil
	case config.ProviderStatic:
		geocoder = salesdash.NewStaticGeocoder()
	default:
		geocoder = salesdash.NewNominatimGeocoder(
			salesdash.WithEndpoint(gc.Endpoint),
			salesdash.WithUserAgent(gc.UserAgent),
			salesdash.WithTimeout(gc.Timeout),
			salesdash.WithMaxRetries(gc.MaxRetries),
		)
	}

	opts := []salesdash.ResolverOption{salesdash.WithResolverLogger(a.logger)}
	if observer != nil {
		opts = append(opts, salesdash.WithGeocodeObserver(observer))
	}
	closer := noop
	if gc.CachePath != "" {
		store, err := salesdash.NewSQLiteGeocodeStore(ctx, gc.CachePath)
		if err != nil {
			return nil, nil, fmt.Errorf("open geocode cache: %w", err)
		}
		opts = append(opts, salesdash.WithGeocodeStore(store))
		closer = store.Close
	}
	return salesdash.NewCachedResolver(geocoder, opts...), closer, nil
}

func (a *app) dashboardOptions() []salesdash.DashboardOption {
	return []salesdash.DashboardOption{
		salesdash.WithTopCustomers(a.cfg.Dashboard.TopCustomers),
		salesdash.WithAgeBins(a.cfg.Dashboard.AgeBins),
	}
}

// closeQuietly runs closer and logs a failure.
func closeQuietly(ctx context.Context, what string, closer func() error) {
	if err := closer(); err != nil {
		logging.Warn(ctx, "close failed", slog.String("resource", what), slog.Any("err", err))
	}
}
