// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package gaps

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/pdiddy/research-intel/internal/llm"
	"github.com/pdiddy/research-intel/pkg/types"
)

// Sentence-fallback bounds and confidences.
const (
	minSentence = 20
	maxSentence = 300

	maxSentenceGaps    = 3
	sentenceConfidence = 0.6
	genericConfidence  = 0.5
	defaultConfidence  = 0.5

	generalCategory = "general"
)

// listMarkers are stripped from the front of list lines.
const listMarkers = "0123456789.-*) •"

var (
	listLine   = regexp.MustCompile(`^\s*(?:\d+[.)]|[-*•])\s+\S`)
	quoted     = regexp.MustCompile(`["“]([^"”]{10,})["”]`)
	sentenceRE = regexp.MustCompile(`[^.!?\n]+[.!?]?`)
)

// ParseDirections extracts future-work directions from generator text.
// A JSON array of strings (or of objects carrying a string field) is
// preferred; otherwise bullet or numbered lines are used, and failing
// those, quoted phrases. Duplicates are dropped and at most limit kept.
func ParseDirections(text string, limit int) []string {
	var raw []json.RawMessage
	var found []string
	if err := llm.DecodeArray(text, &raw); err == nil {
		for _, item := range raw {
			if s := directionText(item); s != "" {
				found = append(found, s)
			}
		}
	}
	if len(found) == 0 {
		found = listLines(text)
	}
	if len(found) == 0 {
		for _, m := range quoted.FindAllStringSubmatch(text, -1) {
			found = append(found, m[1])
		}
	}
	return distinct(found, limit)
}

func directionText(item json.RawMessage) string {
	var s string
	if err := json.Unmarshal(item, &s); err == nil {
		return strings.TrimSpace(s)
	}
	var obj map[string]any
	if err := json.Unmarshal(item, &obj); err != nil {
		return ""
	}
	for _, k := range []string{"direction", "title", "text", "description"} {
		if v, ok := obj[k].(string); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

func listLines(text string) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		if !listLine.MatchString(line) {
			continue
		}
		if s := strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(line), listMarkers)); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func distinct(items []string, limit int) []string {
	seen := make(map[string]bool)
	out := make([]string, 0, len(items))
	for _, s := range items {
		key := strings.ToLower(strings.Join(strings.Fields(s), " "))
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, s)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}

type rawGap struct {
	Title         string          `json:"title"`
	Description   string          `json:"description"`
	Justification string          `json:"justification"`
	Confidence    json.RawMessage `json:"confidence"`
	Category      string          `json:"category"`
}

// ParseGaps turns generator text into gap candidates without ids or
// related papers. A JSON array of gap objects is preferred; otherwise up
// to three sentences of 20 to 300 characters become general gaps. An
// empty result means neither worked.
func ParseGaps(text string) []types.ResearchGap {
	var raws []rawGap
	if err := llm.DecodeArray(text, &raws); err == nil {
		var out []types.ResearchGap
		for _, r := range raws {
			title := strings.TrimSpace(r.Title)
			if title == "" {
				continue
			}
			category := strings.ToLower(strings.TrimSpace(r.Category))
			if category == "" {
				category = generalCategory
			}
			out = append(out, types.ResearchGap{
				Title:         title,
				Description:   strings.TrimSpace(r.Description),
				Justification: strings.TrimSpace(r.Justification),
				Confidence:    parseConfidence(r.Confidence),
				Category:      category,
			})
		}
		if len(out) > 0 {
			return out
		}
	}
	return sentenceGaps(text)
}

func sentenceGaps(text string) []types.ResearchGap {
	var out []types.ResearchGap
	for _, s := range sentenceRE.FindAllString(text, -1) {
		s = strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(s), listMarkers))
		n := len([]rune(s))
		if n < minSentence || n > maxSentence {
			continue
		}
		out = append(out, types.ResearchGap{
			Title:       shorten(s, 100),
			Description: s,
			Confidence:  sentenceConfidence,
			Category:    generalCategory,
		})
		if len(out) == maxSentenceGaps {
			break
		}
	}
	return out
}

// genericGap is the single candidate emitted when synthesis yields nothing.
func genericGap(base types.Record) types.ResearchGap {
	return types.ResearchGap{
		Title:         fmt.Sprintf("Open questions beyond %q", shorten(base.Title, 80)),
		Description:   "Further empirical and methodological work extending " + base.Title + " remains to be identified.",
		Justification: "No specific gaps could be derived from the related literature.",
		Confidence:    genericConfidence,
		Category:      generalCategory,
	}
}

func parseConfidence(raw json.RawMessage) float64 {
	if len(raw) == 0 || string(raw) == "null" {
		return defaultConfidence
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err != nil {
		var s string
		if json.Unmarshal(raw, &s) != nil {
			return defaultConfidence
		}
		if f, err = strconv.ParseFloat(strings.TrimSpace(s), 64); err != nil {
			return defaultConfidence
		}
	}
	if math.IsNaN(f) {
		return defaultConfidence
	}
	return min(max(f, 0), 1)
}

func shorten(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return strings.TrimSpace(string(r[:n-3])) + "..."
}
