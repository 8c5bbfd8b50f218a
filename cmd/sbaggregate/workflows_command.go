package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dgallion1/sbaggregate/internal/output"
)

func newWorkflowsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "workflows",
		Short: "List the workflow vocabularies",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := ctx.registry()
			if err != nil {
				return err
			}
			headers := []string{"name", "id", "version", "control", "tasks", "answers"}
			var rows [][]string
			for _, wf := range reg.Workflows() {
				rows = append(rows, []string{
					wf.Name,
					strconv.Itoa(wf.Key.ID),
					wf.Key.Version.String(),
					wf.ControlTask,
					strconv.Itoa(wf.TaskCount()),
					strings.Join(wf.ControlAnswers(), ", "),
				})
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, output.RenderTable(headers, rows, consoleStyle(out)))
			return nil
		},
	}
}
