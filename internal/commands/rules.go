package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/simonhull/heron/pkg/diag"
	"github.com/simonhull/heron/pkg/output"
)

// RulesCmd creates the 'rules' command, which lists the issue catalog.
func RulesCmd() *cobra.Command {
	var severity string

	cmd := &cobra.Command{
		Use:   "rules",
		Short: "List the issues heron can report",
		Long: `Lists every issue kind with its severity, estimated fix time and
description.

Example:
  heron rules
  heron rules --severity defect`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			floor := diag.SeverityInfo
			if severity != "" {
				s, err := diag.ParseSeverity(severity)
				if err != nil {
					return err
				}
				floor = s
			}

			for _, kind := range diag.Kinds() {
				issue := kind.Issue()
				if issue.Severity < floor {
					continue
				}
				output.Info(fmt.Sprintf("%s (%s, %s)", kind, issue.Severity, issue.Debt))
				output.Step(issue.Description)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&severity, "severity", "", "Only list issues at or above this severity: info, maintainability or defect")

	return cmd
}
