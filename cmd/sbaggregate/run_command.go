package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/dgallion1/sbaggregate/internal/decode"
	"github.com/dgallion1/sbaggregate/internal/output"
	"github.com/dgallion1/sbaggregate/internal/parser"
	"github.com/dgallion1/sbaggregate/internal/vocab"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	var outDir string
	var workflows []string
	var sqlitePath string
	var reportPath string

	cmd := &cobra.Command{
		Use:   "run [classifications.csv]",
		Short: "Decode a classification export into CSV tables",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			log := ctx.logger(cmd.ErrOrStderr())
			reg, err := ctx.registry()
			if err != nil {
				return err
			}
			selected, err := reg.Select(workflows)
			if err != nil {
				return err
			}
			keys := make([]vocab.Key, len(selected))
			for i, wf := range selected {
				keys[i] = wf.Key
			}

			input := inputPath(args)
			rows, err := parser.ParseFile(input)
			if err != nil {
				return err
			}
			log.Debug("read export", "path", input, "classifications", len(rows))

			results, stats, err := decode.Run(cmd.Context(), reg, keys, rows, log)
			if err != nil {
				return err
			}

			if err := os.MkdirAll(outDir, 0o755); err != nil {
				return fmt.Errorf("create output dir: %w", err)
			}
			written, err := output.WriteCSV(outDir, results)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if sqlitePath != "" {
				runID := uuid.NewString()
				if err := saveSQLite(cmd, sqlitePath, runID, input, results); err != nil {
					return err
				}
				fmt.Fprintf(out, "Saved run %s to %s\n", runID, sqlitePath)
			}
			if reportPath != "" {
				page, err := output.ReportHTML(filepath.Base(input), output.ReportMarkdown(filepath.Base(input), results, stats))
				if err != nil {
					return err
				}
				if err := os.WriteFile(reportPath, page, 0o644); err != nil {
					return fmt.Errorf("write report: %w", err)
				}
				fmt.Fprintf(out, "Wrote report %s\n", reportPath)
			}

			fmt.Fprintln(out, output.RenderSummary(results, consoleStyle(out)))
			fmt.Fprintf(out, "%d classifications, %d decoded, %d ignored; wrote %d files to %s in %s\n",
				stats.Classifications, stats.Decoded, stats.Ignored, len(written), outDir, stats.Elapsed.Round(time.Millisecond))
			return nil
		},
	}

	cmd.Flags().StringVarP(&outDir, "out", "o", ".", "Directory for CSV tables")
	cmd.Flags().StringArrayVarP(&workflows, "workflow", "w", nil, "Workflow to decode as NAME[@VERSION] (repeatable; default all)")
	cmd.Flags().StringVar(&sqlitePath, "sqlite", "", "Also store the tables in this SQLite database")
	cmd.Flags().StringVar(&reportPath, "report", "", "Write an HTML run report to this file")

	return cmd
}

func saveSQLite(cmd *cobra.Command, path, runID, input string, results []*decode.Result) error {
	store, err := output.OpenSQLite(path)
	if err != nil {
		return err
	}
	defer store.Close()
	return store.Save(cmd.Context(), runID, input, results)
}
