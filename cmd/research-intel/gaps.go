// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pdiddy/research-intel/internal/gaps"
	"github.com/pdiddy/research-intel/internal/logging"
)

var gapsCmd = &cobra.Command{
	Use:   "gaps [title...]",
	Short: "Find open research gaps around a base paper",
	Long: `Gaps collects papers related to a base paper (by title keywords, first
author, and venue), extracts future-work directions, proposes up to five
research gaps, and checks each against recent literature. A gap with recent
matching work is reported as covered.

Use --save to keep the report in the local archive (see history).`,
	RunE: runGaps,
}

func init() {
	addRecordFlags(gapsCmd)
	gapsCmd.Flags().Bool("offline", false, "skip AI generation and use deterministic fallbacks")
	gapsCmd.Flags().Bool("save", false, "store the report in the local archive")
	gapsCmd.Flags().Int("coverage-year", 0, "earliest year counted as existing work (default 2020)")
	gapsCmd.Flags().String("format", "table", "output format: table, json, yaml")

	rootCmd.AddCommand(gapsCmd)
}

func runGaps(cmd *cobra.Command, args []string) error {
	base, err := recordFromFlags(cmd, args)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("coverage-year") {
		state.cfg.Gaps.CoverageYear, _ = cmd.Flags().GetInt("coverage-year")
	}
	gen, err := generatorFromFlags(cmd)
	if err != nil {
		return err
	}
	p, err := state.gapPipeline(gen)
	if err != nil {
		return err
	}

	report, err := p.Analyze(cmd.Context(), base)
	if err != nil {
		return err
	}
	state.log.Info(gaps.Summary(report))

	if save, _ := cmd.Flags().GetBool("save"); save {
		store, err := state.archive()
		if err != nil {
			return err
		}
		id, err := store.Save(cmd.Context(), report)
		if err != nil {
			return err
		}
		state.log.Info("archived report", logging.String("id", id), logging.String("path", store.Path()))
	}

	format, _ := cmd.Flags().GetString("format")
	if done, err := encode(state.out, format, report); done {
		return err
	}
	printGapReport(state.out, report)
	fmt.Fprintln(state.out)
	return nil
}
