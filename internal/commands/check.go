package commands

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/simonhull/heron/pkg/batch"
	"github.com/simonhull/heron/pkg/config"
	"github.com/simonhull/heron/pkg/diag"
	"github.com/simonhull/heron/pkg/fetch"
	"github.com/simonhull/heron/pkg/logger"
	"github.com/simonhull/heron/pkg/output"
)

// ErrCheckFailed is returned when findings exceed the fail threshold.
var ErrCheckFailed = errors.New("conformance check failed")

type checkOptions struct {
	configPath    string
	schema        string
	schemaVersion int
	workers       int
	format        string
	failOn        string
}

// report is the JSON document written by --format json.
type report struct {
	Diagnostics []diag.Diagnostic `json:"diagnostics"`
	Summary     *batch.Summary    `json:"summary"`
	Failed      bool              `json:"failed"`
}

// CheckCmd creates the 'check' command.
func CheckCmd() *cobra.Command {
	opts := &checkOptions{}

	cmd := &cobra.Command{
		Use:   "check [path]",
		Short: "Check Go models against the Swagger document",
		Long: `Walks every Go package under path (default: the current directory),
checks swagger:model structs and swagger:enum types against the configured
schema, and reports every mismatch.

Exit status is 1 when findings reach the fail threshold (check.fail_on) or
when a referenced definition or enum was never checked.

Example:
  heron check
  heron check ./internal/api --schema swagger.yaml
  heron check --schema https://api.example.com/openapi.json --schema-version 3 --format json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root := "."
			if len(args) > 0 {
				root = strings.TrimSuffix(args[0], "/...")
			}
			return runCheck(cmd, opts, root)
		},
	}

	cmd.Flags().StringVarP(&opts.configPath, "config", "c", "", "Path to configuration file (default: ./"+config.FileName+")")
	cmd.Flags().StringVarP(&opts.schema, "schema", "s", "", "Swagger document path or URL (overrides swagger.url)")
	cmd.Flags().IntVar(&opts.schemaVersion, "schema-version", 0, "Schema version, 2 or 3 (overrides swagger.version)")
	cmd.Flags().IntVarP(&opts.workers, "workers", "w", 0, "Parallel workers, 0 for one per CPU (overrides check.workers)")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "text", "Output format: text or json")
	cmd.Flags().StringVar(&opts.failOn, "fail-on", "", "Fail threshold: defect, maintainability or unresolved (overrides check.fail_on)")

	return cmd
}

func runCheck(cmd *cobra.Command, opts *checkOptions, root string) error {
	if opts.format != "text" && opts.format != "json" {
		return fmt.Errorf("unknown format %q (want text or json)", opts.format)
	}

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	if flags.Changed("schema") {
		cfg.Swagger.URL = opts.schema
	}
	if flags.Changed("schema-version") {
		cfg.Swagger.Version = opts.schemaVersion
	}
	if flags.Changed("workers") {
		cfg.Check.Workers = opts.workers
	}
	if flags.Changed("fail-on") {
		cfg.Check.FailOn = opts.failOn
	}
	if verbose, _ := flags.GetBool("verbose"); verbose {
		cfg.Log.Level = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	threshold, err := batch.ParseThreshold(cfg.Check.FailOn)
	if err != nil {
		return err
	}
	level, err := logger.ParseLevel(cfg.Log.Level)
	if err != nil {
		return err
	}
	log := logger.NewLogger(level, cmd.ErrOrStderr())
	logger.SetDefault(log)

	provider, err := fetch.New(fetch.Options{
		Source:   cfg.Swagger.URL,
		Version:  cfg.Swagger.Version,
		CacheDir: cfg.Swagger.CacheDir,
		Logger:   log,
	})
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	provider.Start(ctx)

	output.Verbose(fmt.Sprintf("Loading swagger from %s", provider.Source()))
	err = output.Spin("Loading swagger", func() error {
		_, err := provider.Await(ctx)
		return err
	})
	if err != nil {
		return fmt.Errorf("loading swagger: %w", err)
	}

	collector := &batch.Collector{}
	driver, err := batch.New(batch.Options{
		Provider:   provider,
		Sink:       collector,
		Logger:     log,
		Workers:    cfg.Check.Workers,
		IgnoreDirs: cfg.Check.IgnoreDirs,
	})
	if err != nil {
		return err
	}

	summary, err := driver.Run(ctx, root)
	if err != nil {
		return err
	}

	diags := collector.Diagnostics()
	failed := summary.Failed(threshold)

	if opts.format == "json" {
		if diags == nil {
			diags = []diag.Diagnostic{}
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		if err := enc.Encode(report{Diagnostics: diags, Summary: summary, Failed: failed}); err != nil {
			return fmt.Errorf("encoding report: %w", err)
		}
	} else {
		printReport(diags, summary, failed)
	}

	if failed {
		return fmt.Errorf("%w: %d defects, %d maintainability, %d unresolved",
			ErrCheckFailed, summary.Counts.Defect, summary.Counts.Maintainability, summary.Unresolved)
	}
	return nil
}

func printReport(diags []diag.Diagnostic, summary *batch.Summary, failed bool) {
	for _, d := range diags {
		output.Diagnostic(d)
	}
	if len(diags) > 0 {
		output.Step("")
	}

	output.Info(fmt.Sprintf("Checked %d packages in %s", summary.Packages, summary.Duration.Round(time.Millisecond)))
	output.Step(fmt.Sprintf("declarations found: %d models, %d enums", summary.Models, summary.Enums))
	output.Step(fmt.Sprintf("swagger models validated: %d", summary.Declarations))
	output.Step(fmt.Sprintf("swagger enums validated: %d", summary.ValidatedEnums))
	output.Step(fmt.Sprintf("enum reconciliations: %d", summary.Reconciliations))
	if summary.SkippedPackages > 0 {
		output.Warn(fmt.Sprintf("%d packages could not be read and were skipped", summary.SkippedPackages))
	}
	if summary.SkippedFiles > 0 {
		output.Warn(fmt.Sprintf("%d files could not be parsed and were skipped", summary.SkippedFiles))
	}

	if len(summary.Unchecked) > 0 {
		output.Info(fmt.Sprintf("%d fields with unchecked element types", len(summary.Unchecked)))
		for _, u := range summary.Unchecked {
			output.Verbose(fmt.Sprintf("%s %s.%s: %s", u.Location, u.Model, u.Field, u.Reason))
		}
	}

	counts := summary.Counts
	msg := fmt.Sprintf("%d defects, %d maintainability issues, %d unresolved references (estimated debt %s)",
		counts.Defect, counts.Maintainability, summary.Unresolved, summary.Debt)
	switch {
	case failed:
		output.Error(msg)
	case counts.Total() > 0:
		output.Warn(msg)
	default:
		output.Success("All models conform to swagger")
	}
}
