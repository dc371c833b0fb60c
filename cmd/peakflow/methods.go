package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/alexisbeaulieu97/peakflow/internal/domain/workflow"
)

func newMethodsCmd(app *appContext) *cobra.Command {
	return &cobra.Command{
		Use:   "methods",
		Short: "List the available methods and their parameters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), methodsTable(app.Registry.List()))
			return nil
		},
	}
}

func methodsTable(list []workflow.Method) string {
	var rows [][]string
	for _, m := range list {
		schema := m.Schema()
		if len(schema) == 0 {
			rows = append(rows, []string{m.Name(), m.Kind().String(), "-", "", "", ""})
			continue
		}
		for i, p := range schema {
			name, kind := "", ""
			if i == 0 {
				name, kind = m.Name(), m.Kind().String()
			}
			rows = append(rows, []string{name, kind, p.Name, p.Type.String(), p.Default.Quote(), p.Description})
		}
	}
	return renderTable([]string{"Method", "Kind", "Parameter", "Type", "Default", "Description"}, rows, nil)
}
