package main

import (
	"github.com/spf13/cobra"

	"github.com/ajitpratap0/sluice/pkg/env"
	"github.com/ajitpratap0/sluice/pkg/orchestrator"
)

func newDebugCmd() *cobra.Command {
	var name, tag, output string

	cmd := &cobra.Command{
		Use:   "debug",
		Short: "Check that jobs can be built and their connectors reached",
		Long: `Build the selected jobs and run the connectivity check of each source and
target. No data is read or written. Job specs without a name are always listed.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			report, err := orchestrator.Debug(cmd.Context(), orchestrator.Options{Env: env.Resolve()}, name, tag)
			if err != nil {
				return err
			}
			return renderDebugReport(cmd.OutOrStdout(), report, output)
		},
	}

	cmd.Flags().StringVarP(&name, "job", "j", "", "Check the job with this name")
	cmd.Flags().StringVarP(&tag, "tag", "t", "", "Check every job carrying this tag")
	cmd.Flags().StringVarP(&output, "output", "o", outputTable, "Report format (table, json, yaml)")
	return cmd
}
