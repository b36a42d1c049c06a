package batch

import (
	"context"
	"sync"

	"github.com/simonhull/heron/pkg/diag"
	"github.com/simonhull/heron/pkg/extractor"
	"github.com/simonhull/heron/pkg/swagger"
)

// SchemaProvider supplies the schema model. Await blocks until the model is
// available and returns the same result to every caller.
type SchemaProvider interface {
	Await(ctx context.Context) (*swagger.Model, error)
}

// DiagnosticSink receives diagnostics as they are produced. Report is called
// from multiple goroutines.
type DiagnosticSink interface {
	Report(d diag.Diagnostic)
}

// Extractor turns one package directory into declarations.
type Extractor interface {
	Extract(ctx context.Context, dir string) (*extractor.Unit, error)
}

// StaticProvider serves an already parsed model.
type StaticProvider struct {
	Model *swagger.Model
}

func (p StaticProvider) Await(ctx context.Context) (*swagger.Model, error) {
	return p.Model, nil
}

// Collector is a DiagnosticSink that keeps everything it receives.
type Collector struct {
	mu    sync.Mutex
	diags []diag.Diagnostic
}

func (c *Collector) Report(d diag.Diagnostic) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.diags = append(c.diags, d)
}

// Diagnostics returns a sorted copy of the collected diagnostics.
func (c *Collector) Diagnostics() []diag.Diagnostic {
	c.mu.Lock()
	out := append([]diag.Diagnostic(nil), c.diags...)
	c.mu.Unlock()

	diag.Sort(out)
	return out
}
