// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"io"

	"github.com/pdiddy/research-intel/internal/archive"
	"github.com/pdiddy/research-intel/internal/cache"
	"github.com/pdiddy/research-intel/internal/classify"
	"github.com/pdiddy/research-intel/internal/explore"
	"github.com/pdiddy/research-intel/internal/gaps"
	"github.com/pdiddy/research-intel/internal/layout"
	"github.com/pdiddy/research-intel/internal/llm"
	"github.com/pdiddy/research-intel/internal/logging"
	"github.com/pdiddy/research-intel/internal/metrics"
	"github.com/pdiddy/research-intel/internal/search"
	"github.com/pdiddy/research-intel/internal/summarize"
	"github.com/pdiddy/research-intel/pkg/types"
)

// app wires configured services for one CLI invocation.
type app struct {
	cfg     types.Config
	log     logging.Logger
	metrics *metrics.Metrics
	out     io.Writer

	cache   cache.Cache
	closers []io.Closer
}

func newApp(cfg types.Config, log logging.Logger, out io.Writer) *app {
	return &app{cfg: cfg, log: log, out: out}
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			a.log.Warn("closing resource", logging.Err(err))
		}
	}
	a.closers = nil
	_ = a.log.Sync()
}

// withMetrics enables Prometheus collection; only long-running commands
// expose it.
func (a *app) withMetrics() *metrics.Metrics {
	if a.metrics == nil {
		a.metrics = metrics.New(true)
	}
	return a.metrics
}

func (a *app) backend() *search.Federation {
	backends := []search.Backend{search.NewOpenAlex(a.cfg.Search, a.log)}
	if a.cfg.Search.EnableSemanticScholar {
		backends = append(backends, search.NewSemanticScholar(a.cfg.Search, a.log))
	}
	return search.NewFederation(backends, a.metrics, a.log)
}

// lookup fetches single papers by id from OpenAlex.
func (a *app) lookup() *search.OpenAlexBackend {
	return search.NewOpenAlex(a.cfg.Search, a.log)
}

// generator returns the configured chain. offline returns nil so every
// AI step takes its deterministic fallback.
func (a *app) generator(offline bool) (llm.Generator, error) {
	if offline {
		a.log.Info("offline mode: AI generation disabled")
		return nil, nil
	}
	chain, err := llm.FromConfig(a.cfg.AI, a.metrics, a.log)
	if err != nil {
		return nil, fmt.Errorf("%w (set GROQ/GEMINI keys in .secrets/ or pass --offline)", err)
	}
	return chain, nil
}

func (a *app) resultCache() (cache.Cache, error) {
	if a.cache != nil {
		return a.cache, nil
	}
	c, err := cache.New(a.cfg.Cache, a.log)
	if err != nil {
		return nil, err
	}
	if c != nil {
		a.cache = c
		a.closers = append(a.closers, c)
	}
	return c, nil
}

func (a *app) branches(override []string, file string) ([]types.Branch, error) {
	if len(override) > 0 {
		return classify.BranchesFromNames(override), nil
	}
	if file == "" {
		file = a.cfg.Classifier.BranchesFile
	}
	if file != "" {
		return classify.LoadBranches(file)
	}
	return classify.DefaultBranches(), nil
}

func (a *app) classifier(gen llm.Generator) (*classify.Classifier, error) {
	opts := []classify.Option{classify.WithMetrics(a.metrics), classify.WithLogger(a.log)}
	c, err := a.resultCache()
	if err != nil {
		return nil, err
	}
	if c != nil {
		opts = append(opts, classify.WithCache(c, a.cfg.Cache.TTL))
	}
	return classify.New(gen, a.cfg.Classifier, opts...), nil
}

func (a *app) explorer(gen llm.Generator, branches []types.Branch) (*explore.Service, error) {
	c, err := a.classifier(gen)
	if err != nil {
		return nil, err
	}
	return explore.New(a.backend(), c, layout.New(a.cfg.Layout), branches, a.cfg.Search, a.cfg.Explore, a.log), nil
}

func (a *app) gapPipeline(gen llm.Generator) (*gaps.Pipeline, error) {
	opts := []gaps.Option{gaps.WithMetrics(a.metrics), gaps.WithLogger(a.log)}
	c, err := a.resultCache()
	if err != nil {
		return nil, err
	}
	if c != nil {
		opts = append(opts, gaps.WithCache(c, a.cfg.Cache.TTL))
	}
	return gaps.New(a.backend(), gen, a.cfg.Gaps, opts...), nil
}

func (a *app) summarizer(gen llm.Generator) (*summarize.Summarizer, error) {
	opts := []summarize.Option{summarize.WithMetrics(a.metrics), summarize.WithLogger(a.log)}
	c, err := a.resultCache()
	if err != nil {
		return nil, err
	}
	if c != nil {
		opts = append(opts, summarize.WithCache(c, a.cfg.Summary.CacheTTL))
	}
	return summarize.New(gen, a.cfg.Summary, opts...), nil
}

func (a *app) archive() (*archive.Store, error) {
	s, err := archive.Open(a.cfg.Archive)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, s)
	return s, nil
}
