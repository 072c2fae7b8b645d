// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package gaps finds research gaps around one paper. The pipeline
// collects related papers through several independent searches,
// deduplicates them, asks the generator for future-work directions and
// then for gap candidates, and finally re-queries search with each
// candidate to see whether recent work already covers it.
//
// Per-query, per-generation and per-validation failures are absorbed;
// the analysis fails only for an unusable base record or when the caller's
// context ends.
package gaps

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/research-intel/internal/cache"
	"github.com/pdiddy/research-intel/internal/llm"
	"github.com/pdiddy/research-intel/internal/logging"
	"github.com/pdiddy/research-intel/internal/metrics"
	"github.com/pdiddy/research-intel/internal/relevance"
	"github.com/pdiddy/research-intel/internal/search"
	"github.com/pdiddy/research-intel/pkg/types"
)

const (
	maxGaps            = 5
	maxRelatedIDs      = 3
	validationLimit    = 10
	defaultPerQuery    = 20
	defaultMaxRelated  = 50
	defaultDirections  = 10
	defaultCoverageYrs = 2020
)

// Validation outcomes recorded in metrics.
const (
	statusCovered   = "covered"
	statusOpen      = "open"
	statusUnchecked = "unchecked"
)

// Pipeline runs gap analyses. It is safe for concurrent use.
type Pipeline struct {
	search   search.Backend
	gen      llm.Generator
	cfg      types.GapConfig
	cache    cache.Cache
	cacheTTL time.Duration
	metrics  *metrics.Metrics
	log      logging.Logger
	now      func() time.Time
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithCache stores reports with related papers for ttl, keyed by paper id.
func WithCache(c cache.Cache, ttl time.Duration) Option {
	return func(p *Pipeline) { p.cache, p.cacheTTL = c, ttl }
}

// WithMetrics records analyses and validation outcomes.
func WithMetrics(m *metrics.Metrics) Option {
	return func(p *Pipeline) { p.metrics = m }
}

// WithLogger sets the logger.
func WithLogger(l logging.Logger) Option {
	return func(p *Pipeline) { p.log = logging.OrNop(l).Named("gaps") }
}

// WithClock sets the source of AnalysisDate.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) { p.now = now }
}

// New returns a pipeline searching with s and generating with gen. A nil
// gen skips direction extraction and leaves synthesis to the fallbacks.
func New(s search.Backend, gen llm.Generator, cfg types.GapConfig, opts ...Option) *Pipeline {
	if cfg.PerQueryLimit <= 0 {
		cfg.PerQueryLimit = defaultPerQuery
	}
	if cfg.MaxRelated <= 0 {
		cfg.MaxRelated = defaultMaxRelated
	}
	if cfg.MaxDirections <= 0 {
		cfg.MaxDirections = defaultDirections
	}
	if cfg.CoverageYear <= 0 {
		cfg.CoverageYear = defaultCoverageYrs
	}
	p := &Pipeline{
		search: s,
		gen:    gen,
		cfg:    cfg,
		log:    logging.NewNop(),
		now:    time.Now,
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Analyze runs the full pipeline for base. It returns
// types.ErrInvalidRecord when base yields no related-paper query. When
// the configured timeout or ctx expires the partial report is discarded
// and the context error returned.
func (p *Pipeline) Analyze(ctx context.Context, base types.Record) (types.GapReport, error) {
	queries := RelatedQueries(base)
	if len(queries) == 0 {
		return types.GapReport{}, fmt.Errorf("%w: base paper has no title keywords, author or venue", types.ErrInvalidRecord)
	}
	if p.search == nil {
		return types.GapReport{}, errors.New("gap analysis: no search backend configured")
	}

	if p.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.cfg.Timeout)
		defer cancel()
	}

	key := ""
	if p.cache != nil && base.ID != "" {
		key = cache.Key("gaps", base.ID)
		var hit types.GapReport
		if err := p.cache.Get(ctx, key, &hit); err == nil {
			p.metrics.ObserveCache("gaps", true)
			return hit, nil
		}
		p.metrics.ObserveCache("gaps", false)
	}

	report, err := p.run(ctx, base, queries)
	if err == nil {
		err = ctx.Err()
	}
	p.metrics.ObserveGapAnalysis(err)
	if err != nil {
		return types.GapReport{}, err
	}

	if key != "" && report.TotalRelatedPapers > 0 {
		if err := p.cache.Set(ctx, key, report, p.cacheTTL); err != nil {
			p.log.Warn("caching gap report", logging.String("paper_id", base.ID), logging.Err(err))
		}
	}
	return report, nil
}

func (p *Pipeline) run(ctx context.Context, base types.Record, queries []string) (types.GapReport, error) {
	report := types.GapReport{
		BasePaper:        base,
		Gaps:             []types.ResearchGap{},
		FutureDirections: []string{},
		Queries:          queries,
		AnalysisDate:     p.now().UTC(),
	}

	related, queryErrors := p.collect(ctx, queries)
	report.QueryErrors = queryErrors
	related = dedupRelated(related, base.ID, p.cfg.MaxRelated)
	report.TotalRelatedPapers = len(related)
	if err := ctx.Err(); err != nil {
		return types.GapReport{}, err
	}
	if len(related) == 0 {
		p.log.Info("no related papers", logging.String("paper_id", base.ID), logging.Int("queries", len(queries)))
		return report, nil
	}

	report.FutureDirections = p.directions(ctx, base, related)
	candidates := p.synthesize(ctx, base, related, report.FutureDirections)
	if err := ctx.Err(); err != nil {
		return types.GapReport{}, err
	}
	report.Gaps = p.validate(ctx, candidates)
	return report, nil
}

// collect issues every query concurrently. Results keep query order;
// failed queries contribute nothing and are reported as strings.
func (p *Pipeline) collect(ctx context.Context, queries []string) ([]types.Record, []string) {
	results := make([][]types.Record, len(queries))
	errs := make([]error, len(queries))

	var g errgroup.Group
	for i, q := range queries {
		g.Go(func() error {
			recs, err := p.search.Search(ctx, search.Query{
				Text:  q,
				Limit: p.cfg.PerQueryLimit,
				Sort:  types.SortCitations,
			})
			if err != nil {
				errs[i] = err
				return nil
			}
			if len(recs) > p.cfg.PerQueryLimit {
				recs = recs[:p.cfg.PerQueryLimit]
			}
			results[i] = recs
			return nil
		})
	}
	_ = g.Wait()

	var all []types.Record
	var failures []string
	for i, q := range queries {
		if errs[i] != nil {
			p.log.Warn("related-paper query failed", logging.String("query", q), logging.Err(errs[i]))
			failures = append(failures, fmt.Sprintf("%s: %v", q, errs[i]))
			continue
		}
		all = append(all, results[i]...)
	}
	return all, failures
}

func (p *Pipeline) directions(ctx context.Context, base types.Record, related []types.Record) []string {
	if p.gen == nil {
		return []string{}
	}
	text, err := p.gen.Generate(ctx, llm.Prompt(directionsSystem, directionsPrompt(related)))
	if err != nil {
		p.log.Warn("future-work extraction failed", logging.String("paper_id", base.ID), logging.Err(err))
		return []string{}
	}
	return ParseDirections(text, p.cfg.MaxDirections)
}

// synthesize produces at most maxGaps candidates sorted by confidence,
// each with an id and the related papers most relevant to it.
func (p *Pipeline) synthesize(ctx context.Context, base types.Record, related []types.Record, directions []string) []types.ResearchGap {
	var text string
	if p.gen != nil {
		var err error
		text, err = p.gen.Generate(ctx, llm.Prompt(gapsSystem, gapsPrompt(base, len(related), directions, related)))
		if err != nil {
			p.log.Warn("gap synthesis failed", logging.String("paper_id", base.ID), logging.Err(err))
		}
	}

	candidates := ParseGaps(text)
	if len(candidates) == 0 {
		p.log.Info("using generic gap", logging.String("paper_id", base.ID))
		candidates = []types.ResearchGap{genericGap(base)}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Confidence > candidates[j].Confidence
	})
	if len(candidates) > maxGaps {
		candidates = candidates[:maxGaps]
	}
	for i := range candidates {
		candidates[i].ID = uuid.NewString()
		candidates[i].RelatedPaperIDs = relatedIDs(related, candidates[i].Title+" "+candidates[i].Description)
	}
	return candidates
}

// relatedIDs returns up to maxRelatedIDs ids of related papers that match
// query on some field, most relevant first.
func relatedIDs(related []types.Record, query string) []string {
	ids := []string{}
	for _, r := range relevance.Rank(related, query) {
		if len(ids) == maxRelatedIDs {
			break
		}
		if relevance.Match(r, query) > 0 {
			ids = append(ids, r.ID)
		}
	}
	return ids
}

// validate re-queries search with every candidate title concurrently.
func (p *Pipeline) validate(ctx context.Context, candidates []types.ResearchGap) []types.ResearchGap {
	out := make([]types.ResearchGap, len(candidates))
	var g errgroup.Group
	for i, gap := range candidates {
		g.Go(func() error {
			out[i] = p.validateOne(ctx, gap)
			return nil
		})
	}
	_ = g.Wait()
	return out
}

func (p *Pipeline) validateOne(ctx context.Context, gap types.ResearchGap) types.ResearchGap {
	recs, err := p.search.Search(ctx, search.Query{Text: gap.Title, Limit: validationLimit})
	if err != nil {
		p.log.Warn("validation query failed", logging.String("gap", gap.Title), logging.Err(err))
		p.metrics.ObserveValidation(statusUnchecked)
		gap.IsValidated = false
		return gap
	}

	var existing []types.Record
	for _, r := range recs {
		if r.Year < p.cfg.CoverageYear {
			continue
		}
		if titleSimilarity(gap.Title, r.Title) < p.cfg.MinTitleSimilarity {
			continue
		}
		existing = append(existing, r)
	}
	gap.IsValidated = true
	gap.ExistingWork = existing
	if len(existing) > 0 {
		p.metrics.ObserveValidation(statusCovered)
	} else {
		p.metrics.ObserveValidation(statusOpen)
	}
	return gap
}

// Summary renders a short plain-text digest of a report.
func Summary(r types.GapReport) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %d related papers, %d directions, %d gaps", r.BasePaper.Title, r.TotalRelatedPapers, len(r.FutureDirections), len(r.Gaps))
	covered := 0
	for _, g := range r.Gaps {
		if g.Covered() {
			covered++
		}
	}
	if covered > 0 {
		fmt.Fprintf(&b, " (%d with recent coverage)", covered)
	}
	return b.String()
}
