// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package summarize writes short digests of papers. The generator is
// asked for a three to four sentence summary; when it is missing, fails
// or answers with nothing, the leading sentences of the abstract stand in.
package summarize

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/research-intel/internal/cache"
	"github.com/pdiddy/research-intel/internal/llm"
	"github.com/pdiddy/research-intel/internal/logging"
	"github.com/pdiddy/research-intel/internal/metrics"
	"github.com/pdiddy/research-intel/pkg/types"
)

const (
	defaultConcurrency  = 4
	defaultMaxSentences = 3
	minSentenceChars    = 20
)

var (
	sentenceRE = regexp.MustCompile(`[^.!?]+[.!?]*`)
	labelRE    = regexp.MustCompile(`(?i)^\s*summary\s*:\s*`)
)

// Summarizer produces paper summaries. It is safe for concurrent use.
type Summarizer struct {
	gen      llm.Generator
	cfg      types.SummaryConfig
	cache    cache.Cache
	cacheTTL time.Duration
	metrics  *metrics.Metrics
	log      logging.Logger
}

// Option configures a Summarizer.
type Option func(*Summarizer)

// WithCache stores generated summaries for ttl, keyed by paper id.
func WithCache(c cache.Cache, ttl time.Duration) Option {
	return func(s *Summarizer) { s.cache, s.cacheTTL = c, ttl }
}

// WithMetrics counts summaries by method.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Summarizer) { s.metrics = m }
}

// WithLogger sets the logger.
func WithLogger(l logging.Logger) Option {
	return func(s *Summarizer) { s.log = logging.OrNop(l).Named("summarize") }
}

// New returns a summarizer generating with gen. A nil gen makes every
// summary extractive.
func New(gen llm.Generator, cfg types.SummaryConfig, opts ...Option) *Summarizer {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = defaultConcurrency
	}
	if cfg.MaxSentences <= 0 {
		cfg.MaxSentences = defaultMaxSentences
	}
	s := &Summarizer{gen: gen, cfg: cfg, log: logging.NewNop()}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Summarize digests r. The only error is types.ErrInvalidRecord for a
// record without a title, returned before any generator call.
func (s *Summarizer) Summarize(ctx context.Context, r types.Record) (types.Summary, error) {
	title := strings.TrimSpace(r.Title)
	if title == "" {
		return types.Summary{}, fmt.Errorf("%w: paper has no title to summarize", types.ErrInvalidRecord)
	}

	key := ""
	if s.cache != nil && r.ID != "" {
		key = cache.Key("summary", r.ID)
		var hit types.Summary
		if err := s.cache.Get(ctx, key, &hit); err == nil {
			s.metrics.ObserveCache("summary", true)
			s.metrics.ObserveSummary("cache")
			return hit, nil
		}
		s.metrics.ObserveCache("summary", false)
	}

	if s.gen != nil {
		text, err := s.generate(ctx, r)
		if err == nil {
			sum := types.Summary{PaperID: r.ID, Title: title, Text: text, Method: types.SummaryGenerated}
			s.metrics.ObserveSummary(types.SummaryGenerated)
			if key != "" {
				if err := s.cache.Set(ctx, key, sum, s.cacheTTL); err != nil {
					s.log.Warn("caching summary", logging.String("paper_id", r.ID), logging.Err(err))
				}
			}
			return sum, nil
		}
		s.log.Warn("summary generation failed", logging.String("paper_id", r.ID), logging.Err(err))
	}

	s.metrics.ObserveSummary(types.SummaryExtractive)
	return types.Summary{
		PaperID: r.ID,
		Title:   title,
		Text:    Extractive(r, s.cfg.MaxSentences),
		Method:  types.SummaryExtractive,
	}, nil
}

func (s *Summarizer) generate(ctx context.Context, r types.Record) (string, error) {
	prompt, err := renderPrompt(r)
	if err != nil {
		return "", err
	}
	req := llm.Prompt(systemPrompt, prompt)
	req.Temperature = s.cfg.Temperature
	req.MaxTokens = s.cfg.MaxTokens

	text, err := s.gen.Generate(ctx, req)
	if err != nil {
		return "", err
	}
	text = clean(text)
	if text == "" {
		return "", fmt.Errorf("%s returned an empty summary", s.gen.Name())
	}
	return text, nil
}

// SummarizeAll summarizes records with bounded concurrency and returns
// the summaries in input order. Every record is checked before any
// generator call.
func (s *Summarizer) SummarizeAll(ctx context.Context, records []types.Record) ([]types.Summary, error) {
	for i, r := range records {
		if strings.TrimSpace(r.Title) == "" {
			return nil, fmt.Errorf("%w: paper %d has no title to summarize", types.ErrInvalidRecord, i+1)
		}
	}

	out := make([]types.Summary, len(records))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Concurrency)
	for i, r := range records {
		g.Go(func() error {
			sum, err := s.Summarize(gctx, r)
			if err != nil {
				return err
			}
			out[i] = sum
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// Extractive returns up to n leading sentences of the abstract, skipping
// fragments shorter than 20 characters.
func Extractive(r types.Record, n int) string {
	abstract := strings.Join(strings.Fields(r.Abstract), " ")
	if abstract == "" {
		return fmt.Sprintf("No abstract available for %q.", strings.TrimSpace(r.Title))
	}
	var picked []string
	for _, sent := range sentenceRE.FindAllString(abstract, -1) {
		sent = strings.TrimSpace(sent)
		if len(sent) < minSentenceChars {
			continue
		}
		picked = append(picked, sent)
		if len(picked) == n {
			break
		}
	}
	if len(picked) == 0 {
		return abstract
	}
	return strings.Join(picked, " ")
}

// clean drops a leading "Summary:" label and collapses whitespace.
func clean(text string) string {
	text = labelRE.ReplaceAllString(strings.TrimSpace(text), "")
	return strings.Join(strings.Fields(text), " ")
}
