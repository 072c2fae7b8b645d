// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package explore answers a free-text query with a classified, clustered
// and laid-out view of the matching literature.
package explore

import (
	"context"
	"fmt"
	"strings"

	"github.com/pdiddy/research-intel/internal/classify"
	"github.com/pdiddy/research-intel/internal/cluster"
	"github.com/pdiddy/research-intel/internal/layout"
	"github.com/pdiddy/research-intel/internal/logging"
	"github.com/pdiddy/research-intel/internal/search"
	"github.com/pdiddy/research-intel/pkg/types"
)

// Options adjusts a single exploration.
type Options struct {
	// Limit caps the number of records searched (0 keeps the configured cap).
	Limit int

	// Branches replaces the service taxonomy when non-empty.
	Branches []types.Branch
}

// Service runs search, classification, clustering and layout in order.
type Service struct {
	search     search.Backend
	classifier *classify.Classifier
	layout     *layout.Engine
	branches   []types.Branch
	searchCfg  types.SearchConfig
	cfg        types.ExploreConfig
	log        logging.Logger
}

// New returns a Service. branches is the default taxonomy.
func New(s search.Backend, c *classify.Classifier, l *layout.Engine, branches []types.Branch, searchCfg types.SearchConfig, cfg types.ExploreConfig, log logging.Logger) *Service {
	return &Service{
		search:     s,
		classifier: c,
		layout:     l,
		branches:   branches,
		searchCfg:  searchCfg,
		cfg:        cfg,
		log:        logging.OrNop(log).Named("explore"),
	}
}

// Branches returns the default taxonomy.
func (s *Service) Branches() []types.Branch { return s.branches }

// Explore searches for query, classifies every hit, builds the cluster
// tree rooted at the trimmed query and lays out its papers. An empty
// query or taxonomy fails before any I/O. A failed search still yields a
// valid empty result with the failure in Warnings.
func (s *Service) Explore(ctx context.Context, query string, opts Options) (types.ExploreResult, error) {
	query = strings.Join(strings.Fields(query), " ")
	if query == "" {
		return types.ExploreResult{}, types.ErrEmptyQuery
	}
	branches := s.branches
	if len(opts.Branches) > 0 {
		branches = opts.Branches
	}
	if len(branches) == 0 {
		return types.ExploreResult{}, types.ErrNoBranches
	}

	if s.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.Timeout)
		defer cancel()
	}

	res := types.ExploreResult{
		Query:     query,
		Papers:    []types.ClassifiedRecord{},
		Positions: []types.PaperPosition{},
	}

	q := search.NewQuery(query, s.searchCfg)
	if opts.Limit > 0 {
		q.Limit = opts.Limit
	}
	records, err := s.search.Search(ctx, q)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return types.ExploreResult{}, ctxErr
		}
		s.log.Warn("search failed", logging.String("query", query), logging.Err(err))
		res.Warnings = append(res.Warnings, fmt.Sprintf("search: %v", err))
		res.Tree = cluster.Build(query, nil)
		return res, nil
	}

	classified, err := s.classifier.ClassifyAll(ctx, records, branches)
	if err != nil {
		return types.ExploreResult{}, err
	}
	if err := ctx.Err(); err != nil {
		return types.ExploreResult{}, err
	}

	fallbacks := 0
	for _, c := range classified {
		if c.Classification.Fallback {
			fallbacks++
		}
	}
	if fallbacks > 0 {
		res.Warnings = append(res.Warnings, fmt.Sprintf("%d of %d papers classified by keyword fallback", fallbacks, len(classified)))
	}

	res.Papers = classified
	res.Tree = cluster.Build(query, classified)
	res.Positions = s.layout.Layout(res.Tree, query)
	s.log.Info("explored",
		logging.String("query", query),
		logging.Int("papers", len(classified)),
		logging.Int("nodes", len(res.Tree.Nodes)),
		logging.Int("fallbacks", fallbacks))
	return res, nil
}
