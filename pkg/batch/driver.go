// Package batch runs one conformance check over a source tree: it waits for
// the schema, fans package directories out to parallel workers, checks every
// declaration, and finally reports whatever cross references stayed
// unresolved.
package batch

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/simonhull/heron/pkg/checker"
	"github.com/simonhull/heron/pkg/diag"
	"github.com/simonhull/heron/pkg/extractor"
	"github.com/simonhull/heron/pkg/logger"
	"github.com/simonhull/heron/pkg/tracker"
)

// Options configures a Driver.
type Options struct {
	Provider   SchemaProvider
	Extractor  Extractor // defaults to extractor.New(Logger)
	Sink       DiagnosticSink
	Tracker    *tracker.Tracker // defaults to tracker.New()
	Logger     logger.Logger
	Workers    int      // <= 0 means runtime.NumCPU()
	IgnoreDirs []string // directory names skipped during discovery
}

// Driver owns the lifecycle of a batch. A Driver may run several batches in
// sequence; each Run starts from a reset tracker.
type Driver struct {
	opts Options
}

// New validates opts and returns a driver.
func New(opts Options) (*Driver, error) {
	if opts.Provider == nil {
		return nil, fmt.Errorf("batch: schema provider is required")
	}
	if opts.Sink == nil {
		return nil, fmt.Errorf("batch: diagnostic sink is required")
	}
	if opts.Logger == nil {
		opts.Logger = logger.Default()
	}
	if opts.Extractor == nil {
		opts.Extractor = extractor.New(opts.Logger)
	}
	if opts.Tracker == nil {
		opts.Tracker = tracker.New()
	}
	if opts.Workers <= 0 {
		opts.Workers = runtime.NumCPU()
	}
	return &Driver{opts: opts}, nil
}

// unitResult is what a worker sends back for one package directory.
type unitResult struct {
	dir       string
	models    int
	enums     int
	skipped   int
	unchecked []checker.Unchecked
	diags     []diag.Diagnostic
	err       error
}

// Run checks every package under root.
func (d *Driver) Run(ctx context.Context, root string) (*Summary, error) {
	dirs, err := extractor.Packages(root, extractor.WalkOptions{IgnoreDirs: d.opts.IgnoreDirs})
	if err != nil {
		return nil, err
	}
	return d.RunDirs(ctx, dirs)
}

// RunDirs checks the given package directories as one batch.
func (d *Driver) RunDirs(ctx context.Context, dirs []string) (*Summary, error) {
	log := d.opts.Logger
	start := time.Now()

	d.opts.Tracker.Reset()

	schema, err := d.opts.Provider.Await(ctx)
	if err != nil {
		return nil, err
	}

	log.Info("Starting conformance check",
		logger.F("packages", len(dirs)),
		logger.F("definitions", len(schema.Definitions)),
		logger.F("workers", d.opts.Workers))

	chk := checker.New(schema, d.opts.Tracker)

	jobs := make(chan string, len(dirs))
	results := make(chan unitResult, len(dirs))
	var wg sync.WaitGroup

	for i := 0; i < d.opts.Workers; i++ {
		wg.Add(1)
		go d.worker(ctx, chk, jobs, results, &wg)
	}

	go func() {
		defer close(jobs)
		for _, dir := range dirs {
			select {
			case <-ctx.Done():
				return
			case jobs <- dir:
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	summary := &Summary{}
	var all []diag.Diagnostic
	for result := range results {
		if result.err != nil {
			log.Warn("Failed to extract package",
				logger.F("dir", result.dir),
				logger.F("error", result.err))
			summary.SkippedPackages++
			continue
		}

		summary.Packages++
		summary.Models += result.models
		summary.Enums += result.enums
		summary.SkippedFiles += result.skipped
		summary.Unchecked = append(summary.Unchecked, result.unchecked...)
		all = append(all, result.diags...)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	unresolved := d.opts.Tracker.DrainUnresolved()
	for _, diagnostic := range unresolved {
		d.opts.Sink.Report(diagnostic)
	}
	all = append(all, unresolved...)

	counters := d.opts.Tracker.Counters()
	summary.Declarations = counters.Declarations
	summary.ValidatedEnums = counters.Enums
	summary.Reconciliations = counters.Reconciliations
	summary.Unresolved = len(unresolved)
	summary.Counts = diag.Count(all)
	summary.Debt = diag.Debt(all)
	summary.Duration = time.Since(start)
	sortUnchecked(summary.Unchecked)

	log.Info("Conformance check complete",
		logger.F("declarations", summary.Declarations),
		logger.F("enums", summary.ValidatedEnums),
		logger.F("diagnostics", summary.Counts.Total()),
		logger.F("unresolved", summary.Unresolved),
		logger.F("duration", summary.Duration.Round(time.Millisecond)))

	return summary, nil
}

// worker extracts and checks package directories until jobs is closed.
func (d *Driver) worker(ctx context.Context, chk *checker.Checker, jobs <-chan string, results chan<- unitResult, wg *sync.WaitGroup) {
	defer wg.Done()

	for dir := range jobs {
		select {
		case <-ctx.Done():
			return
		default:
		}

		unit, err := d.opts.Extractor.Extract(ctx, dir)
		if err != nil {
			results <- unitResult{dir: dir, err: err}
			continue
		}

		result := unitResult{
			dir:     dir,
			models:  len(unit.Models),
			enums:   len(unit.Enums),
			skipped: len(unit.Skipped),
		}
		report := func(diags []diag.Diagnostic) {
			for _, diagnostic := range diags {
				d.opts.Sink.Report(diagnostic)
			}
			result.diags = append(result.diags, diags...)
		}

		for _, enum := range unit.Enums {
			report(d.opts.Tracker.MarkEnumValidated(enum.Name, enum.Values))
		}
		for i := range unit.Models {
			res := chk.Check(&unit.Models[i])
			report(res.Diagnostics)
			result.unchecked = append(result.unchecked, res.Unchecked...)
		}

		d.opts.Logger.Debug("Checked package",
			logger.F("dir", dir),
			logger.F("models", result.models),
			logger.F("enums", result.enums))

		results <- result
	}
}

func sortUnchecked(u []checker.Unchecked) {
	sort.SliceStable(u, func(i, j int) bool {
		if u[i].Location != u[j].Location {
			return u[i].Location.Less(u[j].Location)
		}
		return u[i].Field < u[j].Field
	})
}
