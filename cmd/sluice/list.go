package main

import (
	"github.com/spf13/cobra"

	"github.com/ajitpratap0/sluice/pkg/connector/registry"
)

func newListCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List available connectors",
		RunE: func(cmd *cobra.Command, args []string) error {
			return renderConnectors(cmd.OutOrStdout(), registry.ListConnectorInfo(), output)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", outputTable, "Output format (table, json, yaml)")
	return cmd
}
