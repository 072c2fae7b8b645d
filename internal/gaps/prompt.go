// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package gaps

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pdiddy/research-intel/pkg/types"
)

const (
	directionsSystem = "You are a research analyst who reads related work and identifies where a field is heading. Respond with a JSON array of strings and nothing else."
	gapsSystem       = "You are a research analyst identifying gaps in academic literature. Respond with a JSON array of objects and nothing else."

	maxPromptPapers   = 25
	maxPromptAbstract = 300
	maxRecentTitles   = 5
)

func directionsPrompt(related []types.Record) string {
	var b strings.Builder
	b.WriteString("Here are related papers (title, year, abstract excerpt):\n\n")
	for i, r := range related {
		if i == maxPromptPapers {
			break
		}
		year := "n.d."
		if r.Year > 0 {
			year = fmt.Sprint(r.Year)
		}
		fmt.Fprintf(&b, "%d. %s (%s)\n", i+1, r.Title, year)
		if r.Abstract != "" {
			fmt.Fprintf(&b, "   %s\n", shorten(r.Abstract, maxPromptAbstract))
		}
	}
	b.WriteString("\nList the distinct future research directions these papers point to, such as stated future work, open problems and limitations.\n")
	b.WriteString(`Respond with JSON only: ["direction one", "direction two", ...]`)
	return b.String()
}

func gapsPrompt(base types.Record, relatedCount int, directions []string, related []types.Record) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Base paper: %s\n", base.Title)
	if base.Year > 0 {
		fmt.Fprintf(&b, "Year: %d\n", base.Year)
	}
	if base.Abstract != "" {
		fmt.Fprintf(&b, "Abstract: %s\n", shorten(base.Abstract, 1000))
	}
	fmt.Fprintf(&b, "\nRelated papers found: %d\n", relatedCount)

	if len(directions) > 0 {
		b.WriteString("\nFuture directions mentioned in related work:\n")
		for _, d := range directions {
			fmt.Fprintf(&b, "- %s\n", d)
		}
	}
	if recent := recentTitles(related, maxRecentTitles); len(recent) > 0 {
		b.WriteString("\nRecent related papers:\n")
		for _, t := range recent {
			fmt.Fprintf(&b, "- %s\n", t)
		}
	}

	b.WriteString("\nIdentify 3 to 5 specific research gaps: questions the base paper and its related work leave open.\n")
	b.WriteString(`Respond with JSON only: [{"title": "...", "description": "...", "justification": "...", "confidence": 0.0-1.0, "category": "methodology|application|theory|data|evaluation"}]`)
	return b.String()
}

// recentTitles returns up to n titles, newest first.
func recentTitles(related []types.Record, n int) []string {
	sorted := append([]types.Record(nil), related...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Year > sorted[j].Year })
	var out []string
	for _, r := range sorted {
		if len(out) == n {
			break
		}
		out = append(out, r.Title)
	}
	return out
}
