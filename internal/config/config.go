// Package config loads salesdash settings from a YAML file, SALESDASH_*
// environment variables and built-in defaults, in that order of precedence
// (environment first).
package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/nao1215/salesdash"
	"github.com/nao1215/salesdash/internal/logging"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable, e.g. SALESDASH_SERVER_ADDR.
const EnvPrefix = "SALESDASH"

// Geocoder providers
const (
	ProviderNominatim = "nominatim"
	ProviderStatic    = "static"
	ProviderNone      = "none"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Data      DataConfig      `mapstructure:"data"`
	Geocoder  GeocoderConfig  `mapstructure:"geocoder"`
	Log       LogConfig       `mapstructure:"log"`
	Dashboard DashboardConfig `mapstructure:"dashboard"`
}

type ServerConfig struct {
	Addr           string        `mapstructure:"addr"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	MaxUploadBytes int64         `mapstructure:"max_upload_bytes"`
}

// DataConfig names the order file loaded at startup. Empty means the bundled sample.
type DataConfig struct {
	Path string `mapstructure:"path"`
}

type GeocoderConfig struct {
	Provider   string        `mapstructure:"provider"`
	Endpoint   string        `mapstructure:"endpoint"`
	UserAgent  string        `mapstructure:"user_agent"`
	Timeout    time.Duration `mapstructure:"timeout"`
	MaxRetries uint          `mapstructure:"max_retries"`
	// CachePath is a SQLite file keeping answers across restarts. Empty disables it.
	CachePath string `mapstructure:"cache_path"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type DashboardConfig struct {
	TopCustomers int `mapstructure:"top_customers"`
	AgeBins      int `mapstructure:"age_bins"`
}

// Load reads configFile, or ./configs/salesdash.yaml and ./salesdash.yaml when
// configFile is empty. A missing default file is not an error.
func Load(ctx context.Context, configFile string) (Config, error) {
	if ctx == nil {
		return Config{}, errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return Config{}, fmt.Errorf("check context: %w", err)
	}

	logCtx := logging.WithAttrs(ctx, slog.String("component", "config"))

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("salesdash")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile == "" && errors.As(err, &notFound) {
			logging.Info(logCtx, "config file not found, using defaults and env")
		} else {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	} else {
		logging.Info(logCtx, "using config file", slog.String("path", v.ConfigFileUsed()))
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Default returns the built-in configuration.
func Default() Config {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	_ = v.Unmarshal(&cfg) // defaults always decode
	return cfg
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	switch c.Geocoder.Provider {
	case ProviderNominatim, ProviderStatic, ProviderNone:
	default:
		return fmt.Errorf("geocoder.provider must be one of %s, %s, %s: got %q",
			ProviderNominatim, ProviderStatic, ProviderNone, c.Geocoder.Provider)
	}
	if c.Geocoder.Timeout <= 0 {
		return errors.New("geocoder.timeout must be positive")
	}
	if c.Dashboard.TopCustomers <= 0 {
		return errors.New("dashboard.top_customers must be positive")
	}
	if c.Dashboard.AgeBins <= 0 {
		return errors.New("dashboard.age_bins must be positive")
	}
	if c.Server.MaxUploadBytes <= 0 {
		return errors.New("server.max_upload_bytes must be positive")
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	switch strings.ToLower(c.Log.Format) {
	case logging.FormatText, logging.FormatJSON:
	default:
		return fmt.Errorf("log.format must be %s or %s: got %q", logging.FormatText, logging.FormatJSON, c.Log.Format)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8050")
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.max_upload_bytes", 32<<20)
	v.SetDefault("data.path", "")
	v.SetDefault("geocoder.provider", ProviderNominatim)
	v.SetDefault("geocoder.endpoint", salesdash.DefaultNominatimEndpoint)
	v.SetDefault("geocoder.user_agent", salesdash.DefaultGeocodeUserAgent)
	v.SetDefault("geocoder.timeout", salesdash.DefaultGeocodeTimeout)
	v.SetDefault("geocoder.max_retries", 2)
	v.SetDefault("geocoder.cache_path", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", logging.FormatText)
	v.SetDefault("dashboard.top_customers", salesdash.DefaultTopCustomers)
	v.SetDefault("dashboard.age_bins", salesdash.DefaultAgeBins)
}
