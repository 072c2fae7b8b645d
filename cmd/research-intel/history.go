// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/research-intel/internal/archive"
)

var historyCmd = &cobra.Command{
	Use:   "history [text]",
	Short: "List and search archived gap reports",
	Long: `History browses gap reports saved with gaps --save. Without arguments it
lists recent reports. With text (or --paper) it searches archived gaps by
title and description substring.

Use --show with a report id to print the full report, or --export to dump
every report as YAML.`,
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().Int("limit", 20, "maximum entries")
	historyCmd.Flags().String("paper", "", "only gaps for this paper id")
	historyCmd.Flags().Bool("open", false, "only gaps without recent coverage")
	historyCmd.Flags().String("show", "", "print the archived report with this id")
	historyCmd.Flags().Bool("export", false, "write every archived report as YAML")
	historyCmd.Flags().String("format", "table", "output format: table, json, yaml")

	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	store, err := state.archive()
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	f := cmd.Flags()
	format, _ := f.GetString("format")

	if export, _ := f.GetBool("export"); export {
		return store.ExportYAML(ctx, state.out)
	}

	if id, _ := f.GetString("show"); id != "" {
		report, err := store.Get(ctx, id)
		if err != nil {
			return err
		}
		if done, err := encode(state.out, format, report); done {
			return err
		}
		printGapReport(state.out, report)
		return nil
	}

	limit, _ := f.GetInt("limit")
	paper, _ := f.GetString("paper")
	open, _ := f.GetBool("open")
	text := strings.Join(args, " ")

	if text == "" && paper == "" && !open {
		entries, err := store.List(ctx, limit)
		if err != nil {
			return err
		}
		if done, err := encode(state.out, format, entries); done {
			return err
		}
		printEntries(state, entries)
		return nil
	}

	hits, err := store.Search(ctx, archive.SearchOptions{Text: text, PaperID: paper, OpenOnly: open, Limit: limit})
	if err != nil {
		return err
	}
	if done, err := encode(state.out, format, hits); done {
		return err
	}
	printHits(state, hits)
	return nil
}

func printEntries(a *app, entries []archive.Entry) {
	if len(entries) == 0 {
		fmt.Fprintln(a.out, "No archived reports.")
		return
	}
	fmt.Fprintf(a.out, "%-36s  %-16s  %-50s  %-4s  %s\n", "ID", "Date", "Paper", "Gaps", "Related")
	fmt.Fprintln(a.out, strings.Repeat("-", 120))
	for _, e := range entries {
		fmt.Fprintf(a.out, "%-36s  %-16s  %-50s  %-4d  %d\n",
			e.ID, e.AnalysisDate.Local().Format("2006-01-02 15:04"), truncateRunes(e.PaperTitle, 50), e.GapCount, e.RelatedCount)
	}
}

func printHits(a *app, hits []archive.GapHit) {
	if len(hits) == 0 {
		fmt.Fprintln(a.out, "No matching gaps.")
		return
	}
	fmt.Fprintf(a.out, "%-50s  %-9s  %-4s  %-40s  %s\n", "Gap", "Status", "Conf", "Paper", "Report")
	fmt.Fprintln(a.out, strings.Repeat("-", 130))
	for _, h := range hits {
		status := "open"
		switch {
		case !h.Validated:
			status = "unchecked"
		case h.Covered:
			status = "covered"
		}
		fmt.Fprintf(a.out, "%-50s  %-9s  %.2f  %-40s  %s\n",
			truncateRunes(h.Title, 50), status, h.Confidence, truncateRunes(h.PaperTitle, 40), h.ReportID)
	}
}
