// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/research-intel/internal/cluster"
	"github.com/pdiddy/research-intel/pkg/types"
)

// encode writes v as JSON or YAML. It reports false for any other format
// so callers can fall back to their table rendering.
func encode(w io.Writer, format string, v any) (bool, error) {
	switch strings.ToLower(format) {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return true, enc.Encode(v)
	case "yaml":
		enc := yaml.NewEncoder(w)
		defer enc.Close()
		return true, enc.Encode(v)
	case "", "table", "text":
		return false, nil
	default:
		return true, fmt.Errorf("unknown format %q: use table, json, or yaml", format)
	}
}

// printTree writes the cluster tree as an indented outline. Leaves are
// listed only when showPapers is set.
func printTree(w io.Writer, t types.ClusterTree, showPapers bool) {
	if len(t.Nodes) == 0 {
		fmt.Fprintln(w, "No papers found.")
		return
	}
	var walk func(n types.ClusterNode, depth int)
	walk = func(n types.ClusterNode, depth int) {
		if n.Level == types.LevelLeaf && !showPapers {
			return
		}
		indent := strings.Repeat("  ", depth)
		count := subtreePapers(t, n)
		if n.Level == types.LevelLeaf {
			fmt.Fprintf(w, "%s- %s\n", indent, truncateRunes(n.Label, 80))
		} else {
			fmt.Fprintf(w, "%s%s (%d)\n", indent, n.Label, count)
		}
		for _, c := range cluster.ChildrenOf(t, n.ID) {
			walk(c, depth+1)
		}
	}
	for _, r := range cluster.RootsOf(t) {
		walk(r, 0)
	}
}

func subtreePapers(t types.ClusterTree, n types.ClusterNode) int {
	total := n.PaperCount
	for _, c := range cluster.ChildrenOf(t, n.ID) {
		total += subtreePapers(t, c)
	}
	return total
}

func printClassification(w io.Writer, r types.Record, c types.ClassificationResult) {
	fmt.Fprintf(w, "Paper:       %s\n", r.Title)
	fmt.Fprintf(w, "Branch:      %s\n", c.Branch)
	fmt.Fprintf(w, "Subcluster:  %s\n", c.Subcluster)
	fmt.Fprintf(w, "Confidence:  %.2f\n", c.Confidence)
	if c.Fallback {
		fmt.Fprintln(w, "Method:      keyword fallback")
	}
	if c.Reasoning != "" {
		fmt.Fprintf(w, "Reasoning:   %s\n", c.Reasoning)
	}
}

func printGapReport(w io.Writer, r types.GapReport) {
	fmt.Fprintf(w, "Base paper: %s", r.BasePaper.Title)
	if r.BasePaper.Year > 0 {
		fmt.Fprintf(w, " (%d)", r.BasePaper.Year)
	}
	fmt.Fprintf(w, "\nRelated papers: %d\n", r.TotalRelatedPapers)

	if len(r.FutureDirections) > 0 {
		fmt.Fprintln(w, "\nFuture directions:")
		for _, d := range r.FutureDirections {
			fmt.Fprintf(w, "  - %s\n", d)
		}
	}

	if len(r.Gaps) == 0 {
		fmt.Fprintln(w, "\nNo research gaps identified.")
	} else {
		fmt.Fprintln(w, "\nResearch gaps:")
		for i, g := range r.Gaps {
			fmt.Fprintf(w, "\n%d. %s [%s, %.2f] %s\n", i+1, g.Title, g.Category, g.Confidence, gapStatus(g))
			if g.Description != "" {
				fmt.Fprintf(w, "   %s\n", g.Description)
			}
			for _, e := range g.ExistingWork {
				fmt.Fprintf(w, "   existing: %s (%d)\n", truncateRunes(e.Title, 70), e.Year)
			}
		}
	}

	for _, e := range r.QueryErrors {
		fmt.Fprintf(w, "warning: %s\n", e)
	}
}

func printSummaries(w io.Writer, summaries []types.Summary) {
	for i, s := range summaries {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintf(w, "%s\n", s.Title)
		if s.Method == types.SummaryExtractive {
			fmt.Fprintln(w, "(from abstract)")
		}
		fmt.Fprintf(w, "  %s\n", s.Text)
	}
}

func printPaper(w io.Writer, r types.Record) {
	fmt.Fprintf(w, "ID:        %s\n", r.ID)
	fmt.Fprintf(w, "Title:     %s\n", r.Title)
	if names := r.AuthorNames(); len(names) > 0 {
		fmt.Fprintf(w, "Authors:   %s\n", strings.Join(names, ", "))
	}
	if r.Year > 0 {
		fmt.Fprintf(w, "Year:      %d\n", r.Year)
	}
	if r.Venue != "" {
		fmt.Fprintf(w, "Venue:     %s\n", r.Venue)
	}
	if r.DOI != "" {
		fmt.Fprintf(w, "DOI:       %s\n", r.DOI)
	}
	fmt.Fprintf(w, "Citations: %d\n", r.CitationCount)
	if r.Abstract != "" {
		fmt.Fprintf(w, "\n%s\n", r.Abstract)
	}
}

func gapStatus(g types.ResearchGap) string {
	switch {
	case !g.IsValidated:
		return "unchecked"
	case g.Covered():
		return "covered"
	default:
		return "open"
	}
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
