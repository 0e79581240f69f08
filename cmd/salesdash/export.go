package main

import (
	"fmt"

	"github.com/nao1215/salesdash"
	"github.com/nao1215/salesdash/domain/model"
	"github.com/spf13/cobra"
)

func newExportCmd(a *app) *cobra.Command {
	var (
		sel         selectionFlags
		format      string
		compression string
		outDir      string
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the filtered orders to a file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			selection, err := sel.selection()
			if err != nil {
				return err
			}
			fileType := model.ParseFileType(format)
			if fileType == model.FileTypeUnsupported {
				return fmt.Errorf("%w: %q", salesdash.ErrUnsupportedFormat, format)
			}
			codec, ok := model.ParseCompressionType(compression)
			if !ok {
				return fmt.Errorf("%w: compression %q", salesdash.ErrUnsupportedFormat, compression)
			}

			table, err := a.loadTable(ctx)
			if err != nil {
				return fmt.Errorf("load orders: %w", err)
			}
			view := salesdash.Apply(table, selection)

			opts := salesdash.NewExportOptions().WithFormat(fileType).WithCompression(codec)
			path, err := salesdash.ExportFile(ctx, view, outDir, opts)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "exported %d orders to %s\n", view.Len(), path)
			return err
		},
	}
	sel.register(cmd)
	cmd.Flags().StringVar(&format, "format", "csv", "Output format: csv, tsv, ltsv, xlsx, parquet")
	cmd.Flags().StringVar(&compression, "compression", "none", "Compression: none, gz, xz, zstd")
	cmd.Flags().StringVarP(&outDir, "out", "o", ".", "Output directory")
	return cmd
}
