// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/research-intel/internal/search"
	"github.com/pdiddy/research-intel/pkg/types"
)

// paperLookup fetches one paper by id.
type paperLookup interface {
	Get(ctx context.Context, id string) (types.Record, error)
}

func addRecordFlags(cmd *cobra.Command) {
	cmd.Flags().String("from", "", "saved query file (from search --save)")
	cmd.Flags().Int("index", 1, "1-based result index within --from")
	cmd.Flags().String("id", "", "paper id; with no title, the paper is fetched from OpenAlex (W… id or DOI)")
	cmd.Flags().String("abstract", "", "paper abstract")
	cmd.Flags().StringSlice("author", nil, "author name (repeatable, in order)")
	cmd.Flags().Int("year", 0, "publication year")
	cmd.Flags().String("venue", "", "journal or conference")
}

// recordFromFlags reads the target paper from a saved query file, fetches
// it by --id, or builds it from the title in args and the paper flags.
func recordFromFlags(cmd *cobra.Command, args []string) (types.Record, error) {
	return resolveRecord(cmd, args, state.lookup())
}

func resolveRecord(cmd *cobra.Command, args []string, lookup paperLookup) (types.Record, error) {
	f := cmd.Flags()
	if from, _ := f.GetString("from"); from != "" {
		qf, err := search.ReadQueryFile(from)
		if err != nil {
			return types.Record{}, err
		}
		n, _ := f.GetInt("index")
		return qf.Record(n)
	}

	r := types.Record{Title: strings.TrimSpace(strings.Join(args, " "))}
	r.ID, _ = f.GetString("id")
	r.ID = strings.TrimSpace(r.ID)
	r.Abstract, _ = f.GetString("abstract")
	r.Year, _ = f.GetInt("year")
	r.Venue, _ = f.GetString("venue")
	authors, _ := f.GetStringSlice("author")
	for _, a := range authors {
		if a = strings.TrimSpace(a); a != "" {
			r.Authors = append(r.Authors, types.Author{Name: a})
		}
	}

	if r.Title == "" && len(r.Authors) == 0 && r.Venue == "" {
		if r.ID == "" {
			return types.Record{}, errors.New("provide a paper title, --id, --author/--venue, or --from a saved query file")
		}
		fetched, err := lookup.Get(cmd.Context(), r.ID)
		if err != nil {
			return types.Record{}, fmt.Errorf("fetching paper %s: %w", r.ID, err)
		}
		return fetched, nil
	}
	if r.ID == "" {
		r.ID = "cli:" + strings.ReplaceAll(strings.ToLower(strings.Join(strings.Fields(r.Title), " ")), " ", "-")
	}
	return r, nil
}
