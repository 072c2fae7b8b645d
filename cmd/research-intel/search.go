// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/research-intel/internal/logging"
	"github.com/pdiddy/research-intel/internal/search"
	"github.com/pdiddy/research-intel/pkg/types"
)

var searchCmd = &cobra.Command{
	Use:   "search [query...]",
	Short: "Search bibliographic services for papers",
	Long: `Search queries OpenAlex (and Semantic Scholar when enabled) for papers
matching a free-text query. Results are deduplicated across sources by DOI
and normalized title.

Use --save to write the query and results to a YAML file that classify and
gaps can read back with --from.`,
	RunE: runSearch,
}

func init() {
	addSearchFilterFlags(searchCmd)
	searchCmd.Flags().String("format", "table", "output format: table, json, yaml, csl")
	searchCmd.Flags().String("save", "", "write query and results to this YAML file")

	rootCmd.AddCommand(searchCmd)
}

func addSearchFilterFlags(cmd *cobra.Command) {
	cmd.Flags().Int("limit", 0, "maximum number of records (default from config, 50)")
	cmd.Flags().Int("year-from", 0, "earliest publication year")
	cmd.Flags().Int("year-to", 0, "latest publication year")
	cmd.Flags().Bool("open-access", false, "only open-access works")
	cmd.Flags().Int("min-citations", 0, "minimum citation count")
	cmd.Flags().String("sort", "", "sort order: citations, relevance, recent")
	cmd.Flags().Bool("semantic-scholar", false, "also query Semantic Scholar")
}

// applySearchFlags overlays filter flags the user set onto cfg.
func applySearchFlags(cmd *cobra.Command, cfg *types.SearchConfig) error {
	f := cmd.Flags()
	if f.Changed("limit") {
		cfg.MaxResults, _ = f.GetInt("limit")
	}
	if f.Changed("year-from") {
		cfg.YearFrom, _ = f.GetInt("year-from")
	}
	if f.Changed("year-to") {
		cfg.YearTo, _ = f.GetInt("year-to")
	}
	if f.Changed("open-access") {
		cfg.OpenAccessOnly, _ = f.GetBool("open-access")
	}
	if f.Changed("min-citations") {
		cfg.MinCitations, _ = f.GetInt("min-citations")
	}
	if f.Changed("semantic-scholar") {
		cfg.EnableSemanticScholar, _ = f.GetBool("semantic-scholar")
	}
	if f.Changed("sort") {
		name, _ := f.GetString("sort")
		key, err := sortKey(name)
		if err != nil {
			return err
		}
		cfg.Sort = key
	}
	if cfg.YearFrom > 0 && cfg.YearTo > 0 && cfg.YearFrom > cfg.YearTo {
		return fmt.Errorf("--year-from %d is after --year-to %d", cfg.YearFrom, cfg.YearTo)
	}
	return nil
}

func sortKey(name string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "citations", "cited":
		return types.SortCitations, nil
	case "relevance":
		return types.SortRelevance, nil
	case "recent", "date":
		return types.SortRecent, nil
	default:
		return "", fmt.Errorf("unknown sort %q: use citations, relevance, or recent", name)
	}
}

func runSearch(cmd *cobra.Command, args []string) error {
	if err := applySearchFlags(cmd, &state.cfg.Search); err != nil {
		return err
	}
	q := search.NewQuery(strings.Join(args, " "), state.cfg.Search)
	if q.IsEmpty() {
		return fmt.Errorf("provide a search query: %w", types.ErrEmptyQuery)
	}

	out, err := state.backend().Run(cmd.Context(), q)
	if err != nil {
		return err
	}

	if path, _ := cmd.Flags().GetString("save"); path != "" {
		if err := search.WriteQueryFile(path, q, out); err != nil {
			return err
		}
		state.log.Info("saved query file", logging.String("path", path), logging.Int("records", len(out.Records)))
	}

	format, _ := cmd.Flags().GetString("format")
	return writeSearchOutput(state.out, out, format)
}

func writeSearchOutput(w io.Writer, out search.Output, format string) error {
	switch strings.ToLower(format) {
	case "", "table":
		search.FormatTable(out, w)
		return nil
	case "json":
		return search.FormatJSON(out, w)
	case "yaml":
		return search.FormatYAML(out, w)
	case "csl":
		return search.FormatCSL(out, w)
	default:
		return fmt.Errorf("unknown format %q: use table, json, yaml, or csl", format)
	}
}
