package main

import (
	"io"
	"log/slog"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/dgallion1/sbaggregate/internal/output"
	"github.com/dgallion1/sbaggregate/internal/vocab"
)

// defaultInput is the export name the project downloads from Zooniverse.
const defaultInput = "scarlets-and-blues-classifications.csv"

type commandContext struct {
	workflowsFile string
	verbose       bool
}

func newRootCommand() *cobra.Command {
	ctx := &commandContext{}

	rootCmd := &cobra.Command{
		Use:           "sbaggregate",
		Short:         "Aggregate Scarlets and Blues transcriptions into tables",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVar(&ctx.workflowsFile, "workflows", "", "Workflow vocabulary TOML file (default: built-in)")
	rootCmd.PersistentFlags().BoolVarP(&ctx.verbose, "verbose", "v", false, "Log decoder warnings and debug output")

	rootCmd.AddCommand(newRunCommand(ctx))
	rootCmd.AddCommand(newWorkflowsCommand(ctx))
	rootCmd.AddCommand(newDumpCommand(ctx))

	return rootCmd
}

func (c *commandContext) registry() (*vocab.Registry, error) {
	if c.workflowsFile == "" {
		return vocab.Default()
	}
	return vocab.LoadRegistryFile(c.workflowsFile)
}

func (c *commandContext) logger(w io.Writer) *slog.Logger {
	level := slog.LevelInfo
	if c.verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func inputPath(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return defaultInput
}

// consoleStyle draws rounded tables only on a terminal.
func consoleStyle(w io.Writer) output.Style {
	file, ok := w.(*os.File)
	if !ok {
		return output.StylePlain
	}
	fd := file.Fd()
	if isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd) {
		return output.StyleRounded
	}
	return output.StylePlain
}
