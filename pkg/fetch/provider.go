// Package fetch loads the schema document a batch is checked against.
//
// The document comes from a local file or an HTTP(S) URL. Successful HTTP
// responses are cached on disk so a later run can proceed when the server
// is unreachable. Loading happens at most once per Provider; every caller of
// Await shares the same result.
package fetch

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/spf13/afero"

	"github.com/simonhull/heron/pkg/logger"
	"github.com/simonhull/heron/pkg/swagger"
)

// MaxCachedBody is the largest response body written to the cache.
const MaxCachedBody = 10 << 20

// ErrNoSource is returned when no schema location was configured.
var ErrNoSource = errors.New("no swagger source configured")

// Options configures a Provider.
type Options struct {
	Source   string        // file path or http(s) URL
	Version  int           // schema version, 2 when zero
	CacheDir string        // response cache directory; "" disables caching
	Client   *http.Client  // defaults to a client with Timeout
	Timeout  time.Duration // defaults to 30s
	Fs       afero.Fs      // local sources and the response cache; defaults to the OS filesystem
	Logger   logger.Logger
}

// Provider resolves the schema model once and memoizes the outcome.
type Provider struct {
	opts   Options
	parser swagger.Parser

	once  sync.Once
	done  chan struct{}
	model *swagger.Model
	err   error
}

// New validates opts and returns a provider. Nothing is fetched until
// Start or Await is called.
func New(opts Options) (*Provider, error) {
	if strings.TrimSpace(opts.Source) == "" {
		return nil, ErrNoSource
	}
	if opts.Version == 0 {
		opts.Version = 2
	}
	if opts.Logger == nil {
		opts.Logger = logger.Default()
	}
	if opts.Timeout == 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.Client == nil {
		opts.Client = &http.Client{Timeout: opts.Timeout}
	}
	if opts.Fs == nil {
		opts.Fs = afero.NewOsFs()
	}

	parser, err := swagger.ParserFor(opts.Version, opts.Logger)
	if err != nil {
		return nil, err
	}

	return &Provider{
		opts:   opts,
		parser: parser,
		done:   make(chan struct{}),
	}, nil
}

// Start begins loading in the background. Only the first call has an
// effect; ctx bounds the fetch itself.
func (p *Provider) Start(ctx context.Context) {
	p.once.Do(func() {
		go func() {
			defer close(p.done)
			p.model, p.err = p.load(ctx)
		}()
	})
}

// Await starts loading if needed and blocks until the model is available
// or ctx is done. Cancelling ctx only stops this caller's wait.
func (p *Provider) Await(ctx context.Context) (*swagger.Model, error) {
	p.Start(context.WithoutCancel(ctx))

	select {
	case <-p.done:
		return p.model, p.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Source returns the configured schema location.
func (p *Provider) Source() string {
	return p.opts.Source
}

func (p *Provider) load(ctx context.Context) (*swagger.Model, error) {
	log := p.opts.Logger.WithFields(logger.F("source", p.opts.Source))
	start := time.Now()

	var (
		data []byte
		err  error
	)
	if isURL(p.opts.Source) {
		data, err = p.download(ctx, log)
	} else {
		data, err = afero.ReadFile(p.opts.Fs, p.opts.Source)
		if err != nil {
			err = fmt.Errorf("reading swagger file: %w", err)
		}
	}
	if err != nil {
		return nil, err
	}

	m, err := p.parser.Parse(data)
	if err != nil {
		return nil, err
	}

	log.Debug("swagger loaded",
		logger.F("definitions", len(m.Definitions)),
		logger.F("warnings", len(m.Warnings)),
		logger.F("duration", time.Since(start).Round(time.Millisecond)))
	return m, nil
}

// download fetches the document, falling back to the cached copy on any
// transport failure or non-2xx status.
func (p *Provider) download(ctx context.Context, log logger.Logger) ([]byte, error) {
	body, err := p.get(ctx)
	if err == nil {
		p.store(body, log)
		return body, nil
	}

	cached, cacheErr := p.cached()
	if cacheErr != nil {
		return nil, fmt.Errorf("downloading swagger from %s: %w", p.opts.Source, err)
	}
	log.Warn("using cached swagger", logger.F("reason", err.Error()))
	return cached, nil
}

func (p *Provider) get(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.opts.Source, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json, application/yaml;q=0.9, */*;q=0.8")

	resp, err := p.opts.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("server returned %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	return body, nil
}

func (p *Provider) cachePath() string {
	sum := sha256.Sum256([]byte(p.opts.Source))
	return filepath.Join(p.opts.CacheDir, hex.EncodeToString(sum[:])+".swagger")
}

func (p *Provider) store(body []byte, log logger.Logger) {
	if p.opts.CacheDir == "" {
		return
	}
	if len(body) > MaxCachedBody {
		log.Debug("swagger too large to cache", logger.F("bytes", len(body)))
		return
	}
	if err := p.opts.Fs.MkdirAll(p.opts.CacheDir, 0755); err != nil {
		log.Warn("creating swagger cache", logger.F("error", err))
		return
	}
	if err := afero.WriteFile(p.opts.Fs, p.cachePath(), body, 0644); err != nil {
		log.Warn("writing swagger cache", logger.F("error", err))
	}
}

func (p *Provider) cached() ([]byte, error) {
	if p.opts.CacheDir == "" {
		return nil, os.ErrNotExist
	}
	return afero.ReadFile(p.opts.Fs, p.cachePath())
}

func isURL(source string) bool {
	return strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://")
}
