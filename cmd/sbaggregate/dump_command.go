package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dgallion1/sbaggregate/internal/decode"
	"github.com/dgallion1/sbaggregate/internal/parser"
)

func newDumpCommand(ctx *commandContext) *cobra.Command {
	var workflow string

	cmd := &cobra.Command{
		Use:   "dump [classifications.csv]",
		Short: "Print the raw pages of one workflow as JSON",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := ctx.registry()
			if err != nil {
				return err
			}
			selected, err := reg.Select([]string{workflow})
			if err != nil {
				return err
			}
			if len(selected) != 1 {
				return fmt.Errorf("workflow %q matches %d versions; use NAME@VERSION", workflow, len(selected))
			}

			rows, err := parser.ParseFile(inputPath(args))
			if err != nil {
				return err
			}
			pages, err := decode.Dump(rows, selected[0].Key)
			if err != nil {
				return err
			}
			if pages == nil {
				pages = []decode.DumpPage{}
			}
			data, err := json.MarshalIndent(pages, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		},
	}

	cmd.Flags().StringVarP(&workflow, "workflow", "w", "", "Workflow to dump as NAME@VERSION")
	cmd.MarkFlagRequired("workflow")

	return cmd
}
