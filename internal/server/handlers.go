// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/pdiddy/research-intel/internal/classify"
	"github.com/pdiddy/research-intel/internal/explore"
	"github.com/pdiddy/research-intel/internal/logging"
	"github.com/pdiddy/research-intel/internal/normalize"
	"github.com/pdiddy/research-intel/pkg/types"
)

// maxSummaryBatch caps papers per summarize request.
const maxSummaryBatch = 50

// ExploreRequest is the body of POST /api/v1/explore.
type ExploreRequest struct {
	Query string `json:"query"`
	Limit int    `json:"limit,omitempty"`
	// Branches overrides the default taxonomy by name.
	Branches []string `json:"branches,omitempty"`
}

// ClassifyRequest is the body of POST /api/v1/classify.
type ClassifyRequest struct {
	Paper    types.Record `json:"paper"`
	Branches []string     `json:"branches,omitempty"`
}

// ClassifyResponse echoes the paper id with its classification.
type ClassifyResponse struct {
	PaperID        string                     `json:"paper_id"`
	Classification types.ClassificationResult `json:"classification"`
}

// GapsRequest is the body of POST /api/v1/gaps.
type GapsRequest struct {
	Paper types.Record `json:"paper"`
	// Save archives the report when an archive is configured.
	Save bool `json:"save,omitempty"`
}

// GapsResponse wraps a report with its archive id, if saved.
type GapsResponse struct {
	Report   types.GapReport `json:"report"`
	ReportID string          `json:"report_id,omitempty"`
}

// SummarizeRequest is the body of POST /api/v1/summarize. Exactly one of
// Paper and Papers is used; Papers wins when both are set.
type SummarizeRequest struct {
	Paper  *types.Record  `json:"paper,omitempty"`
	Papers []types.Record `json:"papers,omitempty"`
}

// SummarizeResponse carries one summary per requested paper, in order.
type SummarizeResponse struct {
	Summaries []types.Summary `json:"summaries"`
}

// AbstractRequest is the body of POST /api/v1/abstract. The index is kept
// raw so a malformed one reconstructs to "" instead of failing the bind.
type AbstractRequest struct {
	InvertedIndex json.RawMessage `json:"inverted_index"`
}

// AbstractResponse carries the reconstructed text.
type AbstractResponse struct {
	Abstract string `json:"abstract"`
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"explore":   s.deps.Explorer != nil,
		"classify":  s.deps.Classifier != nil,
		"gaps":      s.deps.Gaps != nil,
		"summarize": s.deps.Summarizer != nil,
		"papers":    s.deps.Papers != nil,
		"archive":   s.deps.Archive != nil,
	})
}

func (s *Server) explore(c *gin.Context) {
	if s.deps.Explorer == nil {
		writeError(c, http.StatusServiceUnavailable, errUnavailable)
		return
	}
	var req ExploreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, fmt.Errorf("decoding request: %w", err))
		return
	}

	res, err := s.deps.Explorer.Explore(c.Request.Context(), req.Query, explore.Options{
		Limit:    req.Limit,
		Branches: classify.BranchesFromNames(req.Branches),
	})
	if err != nil {
		s.fail(c, "explore", err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (s *Server) classify(c *gin.Context) {
	if s.deps.Classifier == nil {
		writeError(c, http.StatusServiceUnavailable, errUnavailable)
		return
	}
	var req ClassifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, fmt.Errorf("decoding request: %w", err))
		return
	}

	branches := s.deps.Branches
	if len(req.Branches) > 0 {
		branches = classify.BranchesFromNames(req.Branches)
	}
	res, err := s.deps.Classifier.Classify(c.Request.Context(), req.Paper, branches)
	if err != nil {
		s.fail(c, "classify", err)
		return
	}
	c.JSON(http.StatusOK, ClassifyResponse{PaperID: req.Paper.ID, Classification: res})
}

func (s *Server) gaps(c *gin.Context) {
	if s.deps.Gaps == nil {
		writeError(c, http.StatusServiceUnavailable, errUnavailable)
		return
	}
	var req GapsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, fmt.Errorf("decoding request: %w", err))
		return
	}

	report, err := s.deps.Gaps.Analyze(c.Request.Context(), req.Paper)
	if err != nil {
		s.fail(c, "gaps", err)
		return
	}

	resp := GapsResponse{Report: report}
	if req.Save && s.deps.Archive != nil {
		id, err := s.deps.Archive.Save(c.Request.Context(), report)
		if err != nil {
			// A failed save still returns the report.
			s.log.Warn("archiving report", logging.String("paper_id", req.Paper.ID), logging.Err(err))
		} else {
			resp.ReportID = id
		}
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) summarize(c *gin.Context) {
	if s.deps.Summarizer == nil {
		writeError(c, http.StatusServiceUnavailable, errUnavailable)
		return
	}
	var req SummarizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, fmt.Errorf("decoding request: %w", err))
		return
	}

	records := req.Papers
	if len(records) == 0 && req.Paper != nil {
		records = []types.Record{*req.Paper}
	}
	if len(records) == 0 {
		writeError(c, http.StatusBadRequest, errors.New("paper or papers is required"))
		return
	}
	if len(records) > maxSummaryBatch {
		writeError(c, http.StatusBadRequest, fmt.Errorf("at most %d papers per request", maxSummaryBatch))
		return
	}

	summaries, err := s.deps.Summarizer.SummarizeAll(c.Request.Context(), records)
	if err != nil {
		s.fail(c, "summarize", err)
		return
	}
	c.JSON(http.StatusOK, SummarizeResponse{Summaries: summaries})
}

// paper serves GET /api/v1/papers/*id. The wildcard keeps DOIs with
// slashes intact.
func (s *Server) paper(c *gin.Context) {
	if s.deps.Papers == nil {
		writeError(c, http.StatusServiceUnavailable, errUnavailable)
		return
	}
	id := strings.TrimPrefix(c.Param("id"), "/")
	if strings.TrimSpace(id) == "" {
		writeError(c, http.StatusBadRequest, errors.New("paper id is required"))
		return
	}
	r, err := s.deps.Papers.Get(c.Request.Context(), id)
	if err != nil {
		s.fail(c, "paper", err)
		return
	}
	c.JSON(http.StatusOK, r)
}

func (s *Server) abstract(c *gin.Context) {
	var req AbstractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, fmt.Errorf("decoding request: %w", err))
		return
	}
	c.JSON(http.StatusOK, AbstractResponse{Abstract: normalize.AbstractFromIndex(req.InvertedIndex)})
}
