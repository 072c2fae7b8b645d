// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package classify assigns records to one branch of a closed taxonomy.
// An AI generator proposes the branch; its output is validated against
// the allowed set and retried with backoff, and when attempts run out a
// deterministic keyword fallback answers. Classify therefore never fails
// once its arguments are valid.
package classify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/research-intel/internal/cache"
	"github.com/pdiddy/research-intel/internal/llm"
	"github.com/pdiddy/research-intel/internal/logging"
	"github.com/pdiddy/research-intel/internal/metrics"
	"github.com/pdiddy/research-intel/pkg/types"
)

const (
	defaultMaxRetries  = 3
	defaultConcurrency = 4
	defaultConfidence  = 0.5

	minSubclusterLen = 2
	maxSubclusterLen = 100

	// FallbackSubcluster labels every keyword fallback result.
	FallbackSubcluster = "General Research"
)

// backoffBase is the unit of the 2^attempt backoff between attempts.
// Tests override this to avoid real sleeps.
var backoffBase = time.Second

// errValidation marks generator output rejected by validation.
var errValidation = errors.New("invalid classification")

// Classifier runs the attempt, validate, retry, fallback loop.
type Classifier struct {
	gen         llm.Generator
	maxRetries  int
	concurrency int
	cache       cache.Cache
	cacheTTL    time.Duration
	metrics     *metrics.Metrics
	log         logging.Logger
}

// Option configures a Classifier.
type Option func(*Classifier)

// WithCache stores successful AI classifications for ttl.
func WithCache(c cache.Cache, ttl time.Duration) Option {
	return func(cl *Classifier) { cl.cache, cl.cacheTTL = c, ttl }
}

// WithMetrics records classification methods and retries.
func WithMetrics(m *metrics.Metrics) Option {
	return func(cl *Classifier) { cl.metrics = m }
}

// WithLogger sets the logger.
func WithLogger(l logging.Logger) Option {
	return func(cl *Classifier) { cl.log = logging.OrNop(l).Named("classify") }
}

// New returns a classifier over gen. A nil gen behaves like a generator
// that always fails, so every record takes the keyword fallback.
func New(gen llm.Generator, cfg types.ClassifierConfig, opts ...Option) *Classifier {
	c := &Classifier{
		gen:         gen,
		maxRetries:  cfg.MaxRetries,
		concurrency: cfg.Concurrency,
		log:         logging.NewNop(),
	}
	if c.maxRetries <= 0 {
		c.maxRetries = defaultMaxRetries
	}
	if c.concurrency <= 0 {
		c.concurrency = defaultConcurrency
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

type state int

const (
	stateAttempt state = iota
	stateRetry
	stateFallback
)

// Classify assigns r to one of branches. The only error is
// types.ErrNoBranches, returned before any generator call.
func (c *Classifier) Classify(ctx context.Context, r types.Record, branches []types.Branch) (types.ClassificationResult, error) {
	branches = usable(branches)
	if len(branches) == 0 {
		return types.ClassificationResult{}, types.ErrNoBranches
	}

	key := ""
	if c.cache != nil && r.ID != "" {
		key = cache.Key("classification", r.ID, TaxonomyHash(branches))
		var hit types.ClassificationResult
		if err := c.cache.Get(ctx, key, &hit); err == nil {
			c.metrics.ObserveCache("classification", true)
			c.metrics.ObserveClassification("cache")
			return hit, nil
		}
		c.metrics.ObserveCache("classification", false)
	}

	prompt, err := renderPrompt(r, branches)
	if err != nil {
		c.log.Error("rendering prompt", logging.String("paper_id", r.ID), logging.Err(err))
		return c.fallback(r, branches), nil
	}
	req := llm.Prompt(systemPrompt, prompt)

	attempt := 0
	st := stateAttempt
	for {
		switch st {
		case stateAttempt:
			res, err := c.attempt(ctx, req, branches)
			if err == nil {
				c.metrics.ObserveClassification("ai")
				if key != "" {
					if err := c.cache.Set(ctx, key, res, c.cacheTTL); err != nil {
						c.log.Warn("caching classification", logging.String("paper_id", r.ID), logging.Err(err))
					}
				}
				return res, nil
			}
			c.log.Warn("classification attempt failed",
				logging.String("paper_id", r.ID),
				logging.Int("attempt", attempt+1),
				logging.Err(err))
			if attempt+1 >= c.maxRetries {
				st = stateFallback
			} else {
				st = stateRetry
			}

		case stateRetry:
			attempt++
			c.metrics.ObserveRetry()
			if !sleep(ctx, backoff(attempt)) {
				st = stateFallback
				continue
			}
			st = stateAttempt

		case stateFallback:
			return c.fallback(r, branches), nil
		}
	}
}

func (c *Classifier) fallback(r types.Record, branches []types.Branch) types.ClassificationResult {
	res := Fallback(r, branches)
	c.metrics.ObserveClassification("fallback")
	c.log.Info("keyword fallback",
		logging.String("paper_id", r.ID),
		logging.String("branch", res.Branch),
		logging.Float64("confidence", res.Confidence))
	return res
}

func (c *Classifier) attempt(ctx context.Context, req llm.Request, branches []types.Branch) (types.ClassificationResult, error) {
	if c.gen == nil {
		return types.ClassificationResult{}, fmt.Errorf("no generator configured")
	}
	text, err := c.gen.Generate(ctx, req)
	if err != nil {
		return types.ClassificationResult{}, err
	}
	return ParseResult(text, branches)
}

// backoff returns 2^attempt units.
func backoff(attempt int) time.Duration {
	return time.Duration(math.Pow(2, float64(attempt))) * backoffBase
}

// sleep waits d and reports whether ctx is still live.
func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

type rawResult struct {
	Branch     *string         `json:"branch"`
	Subcluster *string         `json:"subcluster"`
	Confidence json.RawMessage `json:"confidence"`
	Reasoning  string          `json:"reasoning"`
}

// ParseResult validates a generator completion. The first balanced JSON
// object is decoded; branch must match an allowed name case-insensitively
// and is returned in its declared spelling; subcluster must be 2 to 100
// characters; confidence is clamped into [0,1] and defaults to 0.5.
func ParseResult(text string, branches []types.Branch) (types.ClassificationResult, error) {
	var raw rawResult
	if err := llm.DecodeObject(text, &raw); err != nil {
		return types.ClassificationResult{}, fmt.Errorf("%w: %v", errValidation, err)
	}
	if raw.Branch == nil || strings.TrimSpace(*raw.Branch) == "" {
		return types.ClassificationResult{}, fmt.Errorf("%w: missing branch", errValidation)
	}
	if raw.Subcluster == nil {
		return types.ClassificationResult{}, fmt.Errorf("%w: missing subcluster", errValidation)
	}

	branch, ok := canonicalBranch(*raw.Branch, branches)
	if !ok {
		return types.ClassificationResult{}, fmt.Errorf("%w: branch %q not allowed", errValidation, *raw.Branch)
	}

	sub := strings.TrimSpace(*raw.Subcluster)
	if n := utf8.RuneCountInString(sub); n < minSubclusterLen || n > maxSubclusterLen {
		return types.ClassificationResult{}, fmt.Errorf("%w: subcluster length %d outside [%d,%d]", errValidation, n, minSubclusterLen, maxSubclusterLen)
	}

	return types.ClassificationResult{
		Branch:     branch,
		Subcluster: sub,
		Confidence: parseConfidence(raw.Confidence),
		Reasoning:  strings.TrimSpace(raw.Reasoning),
	}, nil
}

func canonicalBranch(name string, branches []types.Branch) (string, bool) {
	name = strings.TrimSpace(name)
	for _, b := range branches {
		if strings.EqualFold(name, strings.TrimSpace(b.Name)) {
			return b.Name, true
		}
	}
	return "", false
}

// parseConfidence accepts a JSON number or numeric string.
func parseConfidence(raw json.RawMessage) float64 {
	if len(raw) == 0 {
		return defaultConfidence
	}
	var v float64
	if err := json.Unmarshal(raw, &v); err != nil {
		var s string
		if json.Unmarshal(raw, &s) != nil {
			return defaultConfidence
		}
		parsed, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return defaultConfidence
		}
		v = parsed
	}
	if math.IsNaN(v) {
		return defaultConfidence
	}
	return math.Max(0, math.Min(1, v))
}

// Fallback picks the branch whose keywords occur most often in the
// lowercased title, abstract, and concept names. Ties go to the branch
// declared first. It performs no I/O and always returns a result.
func Fallback(r types.Record, branches []types.Branch) types.ClassificationResult {
	text := strings.ToLower(r.Title + " " + r.Abstract + " " + strings.Join(r.ConceptNames(0), " "))

	best, bestScore := 0, -1
	for i, b := range branches {
		score := 0
		for _, kw := range keywordsFor(b) {
			score += strings.Count(text, kw)
		}
		if score > bestScore {
			best, bestScore = i, score
		}
	}

	name := ""
	if len(branches) > 0 {
		name = branches[best].Name
	}
	return types.ClassificationResult{
		Branch:     name,
		Subcluster: FallbackSubcluster,
		Confidence: math.Min(0.7, 0.1*float64(bestScore)+0.3),
		Reasoning:  fmt.Sprintf("fallback: keyword match score %d for %s", bestScore, name),
		Fallback:   true,
	}
}

// usable drops branches with blank names.
func usable(branches []types.Branch) []types.Branch {
	out := make([]types.Branch, 0, len(branches))
	for _, b := range branches {
		if strings.TrimSpace(b.Name) != "" {
			out = append(out, b)
		}
	}
	return out
}

// ClassifyAll classifies records with bounded concurrency and returns
// them in input order.
func (c *Classifier) ClassifyAll(ctx context.Context, records []types.Record, branches []types.Branch) ([]types.ClassifiedRecord, error) {
	if len(usable(branches)) == 0 {
		return nil, types.ErrNoBranches
	}
	out := make([]types.ClassifiedRecord, len(records))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)
	for i, r := range records {
		g.Go(func() error {
			res, err := c.Classify(gctx, r, branches)
			if err != nil {
				return err
			}
			out[i] = types.ClassifiedRecord{Record: r, Classification: res}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
