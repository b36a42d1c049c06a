package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/simonhull/heron"
	"github.com/simonhull/heron/pkg/output"
)

// RootCmd creates the heron command tree.
func RootCmd() *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:   "heron",
		Short: "Check Go models against a Swagger document",
		Long: `Heron checks that Go types annotated with swagger:model and swagger:enum
match the definitions of a Swagger v2 or OpenAPI v3 document:

• every schema property is mapped, and every field is in the schema
• nullability and primitive types/formats agree
• enum constants match the schema's enumerations
• every referenced definition is itself checked

Example:
  heron init --schema https://api.example.com/swagger.json
  heron check ./...`,
		Version:       heron.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			output.SetOutput(cmd.OutOrStdout())
			output.SetVerbose(verbose)
		},
	}

	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output for debugging")

	cmd.AddCommand(CheckCmd())
	cmd.AddCommand(InitCmd())
	cmd.AddCommand(RulesCmd())
	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "heron v%s\n", heron.Version)
		},
	})

	return cmd
}
