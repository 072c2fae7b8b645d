// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package gaps

import (
	"strings"
	"unicode"

	"github.com/pdiddy/research-intel/internal/search"
	"github.com/pdiddy/research-intel/pkg/types"
)

// maxTitleKeywords is the number of title words in the keyword query.
const maxTitleKeywords = 3

var stopwords = map[string]bool{
	"a": true, "an": true, "and": true, "are": true, "as": true, "at": true,
	"based": true, "be": true, "between": true, "by": true, "for": true,
	"from": true, "how": true, "in": true, "into": true, "is": true,
	"its": true, "new": true, "novel": true, "of": true, "on": true,
	"or": true, "our": true, "over": true, "study": true, "the": true,
	"their": true, "this": true, "to": true, "towards": true, "toward": true,
	"under": true, "using": true, "via": true, "what": true, "when": true,
	"with": true, "within": true, "without": true, "approach": true,
	"analysis": true,
}

// TitleKeywords returns up to n distinct title words, in title order,
// skipping stopwords and words shorter than three characters.
func TitleKeywords(title string, n int) []string {
	words := strings.FieldsFunc(strings.ToLower(title), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '-'
	})
	seen := make(map[string]bool)
	var out []string
	for _, w := range words {
		w = strings.Trim(w, "-")
		if len([]rune(w)) < 3 || stopwords[w] || seen[w] {
			continue
		}
		seen[w] = true
		out = append(out, w)
		if len(out) == n {
			break
		}
	}
	return out
}

// RelatedQueries returns the related-paper queries for base: its title
// keywords, its first author, and its venue. Empty and repeated queries
// are skipped.
func RelatedQueries(base types.Record) []string {
	candidates := []string{
		strings.Join(TitleKeywords(base.Title, maxTitleKeywords), " "),
		base.FirstAuthor(),
		strings.TrimSpace(base.Venue),
	}
	seen := make(map[string]bool)
	var out []string
	for _, q := range candidates {
		key := strings.ToLower(q)
		if q == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, q)
	}
	return out
}

// dedupRelated drops later records whose normalized title repeats an
// earlier one and the base paper itself, then caps the set at limit.
func dedupRelated(records []types.Record, baseID string, limit int) []types.Record {
	seen := make(map[string]bool)
	out := make([]types.Record, 0, min(len(records), limit))
	for _, r := range records {
		if len(out) == limit {
			break
		}
		if baseID != "" && r.ID == baseID {
			continue
		}
		key := search.NormalizeTitle(r.Title)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, r)
	}
	return out
}

// titleSimilarity is the Jaccard overlap of the normalized title tokens.
func titleSimilarity(a, b string) float64 {
	ta := tokenSet(a)
	tb := tokenSet(b)
	if len(ta) == 0 || len(tb) == 0 {
		return 0
	}
	inter := 0
	for t := range ta {
		if tb[t] {
			inter++
		}
	}
	return float64(inter) / float64(len(ta)+len(tb)-inter)
}

func tokenSet(s string) map[string]bool {
	set := make(map[string]bool)
	for _, t := range strings.Fields(search.NormalizeTitle(s)) {
		set[t] = true
	}
	return set
}
