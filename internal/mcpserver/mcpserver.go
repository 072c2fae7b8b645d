// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package mcpserver exposes research-intel operations as Model Context
// Protocol tools so agent clients can explore topics, classify papers,
// find research gaps, summarize and look up papers, and rebuild abstracts
// over stdio.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/pdiddy/research-intel/internal/classify"
	"github.com/pdiddy/research-intel/internal/explore"
	"github.com/pdiddy/research-intel/internal/logging"
	"github.com/pdiddy/research-intel/internal/normalize"
	"github.com/pdiddy/research-intel/pkg/types"
)

const maxExploreLimit = 200

// Explorer answers exploration queries.
type Explorer interface {
	Explore(ctx context.Context, query string, opts explore.Options) (types.ExploreResult, error)
}

// Classifier assigns one record to a branch.
type Classifier interface {
	Classify(ctx context.Context, r types.Record, branches []types.Branch) (types.ClassificationResult, error)
}

// GapAnalyzer runs the research gap pipeline for one record.
type GapAnalyzer interface {
	Analyze(ctx context.Context, base types.Record) (types.GapReport, error)
}

// Summarizer digests one paper.
type Summarizer interface {
	Summarize(ctx context.Context, r types.Record) (types.Summary, error)
}

// PaperLookup fetches one paper by id.
type PaperLookup interface {
	Get(ctx context.Context, id string) (types.Record, error)
}

// ReportSaver persists finished gap reports.
type ReportSaver interface {
	Save(ctx context.Context, report types.GapReport) (string, error)
}

// Config holds the services behind the tools. Tools whose service is nil
// are not registered; reconstruct_abstract is always available.
type Config struct {
	Version string

	Explorer   Explorer
	Classifier Classifier
	Gaps       GapAnalyzer
	Summarizer Summarizer
	Papers     PaperLookup
	Archive    ReportSaver

	// Branches is the taxonomy used when a call names none.
	Branches []types.Branch

	Log logging.Logger
}

// New creates an MCP server with every configured tool.
func New(cfg Config) *server.MCPServer {
	ver := cfg.Version
	if ver == "" {
		ver = "dev"
	}
	log := logging.OrNop(cfg.Log).Named("mcp")

	s := server.NewMCPServer(
		"research-intel",
		ver,
		server.WithToolCapabilities(false),
		server.WithRecovery(),
	)

	if cfg.Explorer != nil {
		registerExploreTool(s, cfg.Explorer)
	}
	if cfg.Classifier != nil {
		registerClassifyTool(s, cfg.Classifier, cfg.Branches)
	}
	if cfg.Gaps != nil {
		registerGapsTool(s, cfg.Gaps, cfg.Archive, log)
	}
	if cfg.Summarizer != nil {
		registerSummarizeTool(s, cfg.Summarizer)
	}
	if cfg.Papers != nil {
		registerPaperTool(s, cfg.Papers)
	}
	registerAbstractTool(s)

	return s
}

// Serve runs s over stdin/stdout until the client disconnects.
func Serve(s *server.MCPServer) error {
	return server.ServeStdio(s)
}

// --- Tools ---

func registerExploreTool(s *server.MCPServer, e Explorer) {
	tool := mcp.NewTool("explore_topic",
		mcp.WithDescription("Search the literature for a topic, classify every paper into a branch and sub-cluster, and return the cluster tree with canvas positions."),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Free-text topic, e.g. 'graph neural networks for traffic'"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Maximum papers to search (default: 50, max: 200)"),
		),
		mcp.WithArray("branches",
			mcp.Description("Branch names to classify into; empty uses the configured taxonomy"),
			mcp.Items(map[string]any{"type": "string"}),
		),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		query, err := req.RequireString("query")
		if err != nil {
			return mcp.NewToolResultError("query is required"), nil
		}

		opts := explore.Options{
			Limit:    min(req.GetInt("limit", 0), maxExploreLimit),
			Branches: classify.BranchesFromNames(req.GetStringSlice("branches", nil)),
		}
		res, err := e.Explore(ctx, query, opts)
		if err != nil {
			return toolError("explore", err), nil
		}
		return jsonResult(res)
	})
}

func registerClassifyTool(s *server.MCPServer, c Classifier, defaults []types.Branch) {
	tool := mcp.NewTool("classify_paper",
		mcp.WithDescription("Assign one paper to exactly one allowed branch with a sub-cluster label. Falls back to keyword scoring when no AI generator answers."),
		mcp.WithReadOnlyHintAnnotation(true),
		withPaperParams(),
		mcp.WithArray("branches",
			mcp.Description("Allowed branch names; empty uses the configured taxonomy"),
			mcp.Items(map[string]any{"type": "string"}),
		),
	)
	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		paper, err := paperFromRequest(req)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		branches := defaults
		if names := req.GetStringSlice("branches", nil); len(names) > 0 {
			branches = classify.BranchesFromNames(names)
		}
		res, err := c.Classify(ctx, paper, branches)
		if err != nil {
			return toolError("classify", err), nil
		}
		return jsonResult(res)
	})
}

func registerGapsTool(s *server.MCPServer, g GapAnalyzer, archive ReportSaver, log logging.Logger) {
	tool := mcp.NewTool("find_research_gaps",
		mcp.WithDescription("Collect papers related to a base paper, extract future-work directions, propose research gaps and check each against recent literature."),
		mcp.WithReadOnlyHintAnnotation(archive == nil),
		withPaperParams(),
		mcp.WithBoolean("save",
			mcp.Description("Archive the report locally (default: false)"),
		),
	)
	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		paper, err := paperFromRequest(req)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		report, err := g.Analyze(ctx, paper)
		if err != nil {
			return toolError("gap analysis", err), nil
		}

		out := struct {
			Report   types.GapReport `json:"report"`
			ReportID string          `json:"report_id,omitempty"`
		}{Report: report}
		if req.GetBool("save", false) && archive != nil {
			id, err := archive.Save(ctx, report)
			if err != nil {
				log.Warn("archiving report", logging.String("paper_id", paper.ID), logging.Err(err))
			} else {
				out.ReportID = id
			}
		}
		return jsonResult(out)
	})
}

func registerSummarizeTool(s *server.MCPServer, sum Summarizer) {
	tool := mcp.NewTool("summarize_paper",
		mcp.WithDescription("Write a three to four sentence summary of one paper. Falls back to the leading sentences of the abstract when no AI generator answers."),
		mcp.WithReadOnlyHintAnnotation(true),
		withPaperParams(),
	)
	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		paper, err := paperFromRequest(req)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		res, err := sum.Summarize(ctx, paper)
		if err != nil {
			return toolError("summarize", err), nil
		}
		return jsonResult(res)
	})
}

func registerPaperTool(s *server.MCPServer, papers PaperLookup) {
	tool := mcp.NewTool("get_paper",
		mcp.WithDescription("Fetch one paper's details from OpenAlex by work id or DOI."),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithString("id",
			mcp.Required(),
			mcp.Description("OpenAlex work id (W2741809807), its https://openalex.org/ URL, or a DOI"),
		),
	)
	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := req.RequireString("id")
		if err != nil || strings.TrimSpace(id) == "" {
			return mcp.NewToolResultError("id is required"), nil
		}
		r, err := papers.Get(ctx, id)
		if err != nil {
			return toolError("paper lookup", err), nil
		}
		return jsonResult(r)
	})
}

func registerAbstractTool(s *server.MCPServer) {
	tool := mcp.NewTool("reconstruct_abstract",
		mcp.WithDescription("Rebuild plain abstract text from an inverted index mapping each word to its zero-based positions."),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithObject("inverted_index",
			mcp.Required(),
			mcp.Description(`Word to positions, e.g. {"Deep": [0], "learning": [1]}`),
		),
	)
	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		raw, ok := req.GetArguments()["inverted_index"]
		if !ok {
			return mcp.NewToolResultError("inverted_index is required"), nil
		}

		var data []byte
		if str, isString := raw.(string); isString {
			data = []byte(str)
		} else {
			var err error
			if data, err = json.Marshal(raw); err != nil {
				return mcp.NewToolResultError(fmt.Sprintf("encoding inverted_index: %v", err)), nil
			}
		}
		return mcp.NewToolResultText(normalize.AbstractFromIndex(data)), nil
	})
}

// --- helpers ---

func withPaperParams() mcp.ToolOption {
	return func(t *mcp.Tool) {
		for _, opt := range []mcp.ToolOption{
			mcp.WithString("title", mcp.Required(), mcp.Description("Paper title")),
			mcp.WithString("id", mcp.Description("Stable paper id, e.g. an OpenAlex work id")),
			mcp.WithString("abstract", mcp.Description("Plain-text abstract")),
			mcp.WithArray("authors", mcp.Description("Author names in order"), mcp.Items(map[string]any{"type": "string"})),
			mcp.WithNumber("year", mcp.Description("Publication year")),
			mcp.WithString("venue", mcp.Description("Journal or conference")),
			mcp.WithString("doi", mcp.Description("DOI without the resolver prefix")),
		} {
			opt(t)
		}
	}
}

func paperFromRequest(req mcp.CallToolRequest) (types.Record, error) {
	title, err := req.RequireString("title")
	if err != nil || strings.TrimSpace(title) == "" {
		return types.Record{}, errors.New("title is required")
	}

	r := types.Record{
		ID:       strings.TrimSpace(req.GetString("id", "")),
		Title:    strings.TrimSpace(title),
		Abstract: req.GetString("abstract", ""),
		Year:     req.GetInt("year", 0),
		Venue:    req.GetString("venue", ""),
		DOI:      req.GetString("doi", ""),
	}
	for _, name := range req.GetStringSlice("authors", nil) {
		if name = strings.TrimSpace(name); name != "" {
			r.Authors = append(r.Authors, types.Author{Name: name})
		}
	}
	if r.ID == "" {
		r.ID = "mcp:" + normalizedID(r.Title)
	}
	return r, nil
}

func normalizedID(title string) string {
	return strings.ReplaceAll(strings.ToLower(strings.Join(strings.Fields(title), " ")), " ", "-")
}

// toolError reports caller mistakes verbatim and hides everything else.
func toolError(op string, err error) *mcp.CallToolResult {
	switch {
	case errors.Is(err, types.ErrEmptyQuery),
		errors.Is(err, types.ErrNoBranches),
		errors.Is(err, types.ErrInvalidRecord),
		errors.Is(err, types.ErrPaperNotFound),
		errors.Is(err, context.DeadlineExceeded):
		return mcp.NewToolResultError(fmt.Sprintf("%s: %v", op, err))
	default:
		return mcp.NewToolResultError(op + " failed")
	}
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding result: %w", err)
	}
	return mcp.NewToolResultText(string(data)), nil
}
