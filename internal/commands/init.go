package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/simonhull/heron/pkg/config"
	"github.com/simonhull/heron/pkg/output"
)

// InitCmd creates the 'init' command, which writes a starter heron.yml.
func InitCmd() *cobra.Command {
	var (
		schema  string
		version int
		path    string
		force   bool
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a " + config.FileName + " in the current directory",
		Long: `Writes a configuration file with default settings.

Example:
  heron init --schema https://api.example.com/swagger.json
  heron init --schema openapi.yaml --schema-version 3`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			}

			cfg := config.Default()
			cfg.Swagger.URL = schema
			cfg.Swagger.Version = version

			if err := config.Save(path, cfg); err != nil {
				return err
			}

			output.Success(fmt.Sprintf("Created %s", path))
			if schema == "" {
				output.Info("Next steps:")
				output.Step("set swagger.url in " + path)
				output.Step("heron check")
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&schema, "schema", "s", "", "Swagger document path or URL")
	cmd.Flags().IntVar(&version, "schema-version", 2, "Schema version, 2 or 3")
	cmd.Flags().StringVarP(&path, "output", "o", config.FileName, "Where to write the configuration")
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing file")

	return cmd
}
