// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/pdiddy/research-intel/internal/search"
	"github.com/pdiddy/research-intel/pkg/types"
)

var summarizeCmd = &cobra.Command{
	Use:   "summarize [title...]",
	Short: "Write a short summary of one or more papers",
	Long: `Summarize asks the AI generator for a three to four sentence digest of a
paper. Without a generator (--offline) or when generation fails, the leading
sentences of the abstract are used instead. Generated summaries are cached.

With --from and --all every result of a saved search is summarized.`,
	RunE: runSummarize,
}

func init() {
	addRecordFlags(summarizeCmd)
	summarizeCmd.Flags().Bool("offline", false, "skip AI generation and use the abstract")
	summarizeCmd.Flags().Bool("all", false, "summarize every result in --from")
	summarizeCmd.Flags().String("format", "table", "output format: table, json, yaml")

	rootCmd.AddCommand(summarizeCmd)
}

func runSummarize(cmd *cobra.Command, args []string) error {
	records, err := summaryTargets(cmd, args)
	if err != nil {
		return err
	}
	gen, err := generatorFromFlags(cmd)
	if err != nil {
		return err
	}
	s, err := state.summarizer(gen)
	if err != nil {
		return err
	}

	summaries, err := s.SummarizeAll(cmd.Context(), records)
	if err != nil {
		return err
	}

	format, _ := cmd.Flags().GetString("format")
	var v any = summaries
	if len(summaries) == 1 {
		v = summaries[0]
	}
	if done, err := encode(state.out, format, v); done {
		return err
	}
	printSummaries(state.out, summaries)
	return nil
}

func summaryTargets(cmd *cobra.Command, args []string) ([]types.Record, error) {
	all, _ := cmd.Flags().GetBool("all")
	if !all {
		r, err := recordFromFlags(cmd, args)
		if err != nil {
			return nil, err
		}
		return []types.Record{r}, nil
	}
	from, _ := cmd.Flags().GetString("from")
	if from == "" {
		return nil, errors.New("--all requires --from")
	}
	qf, err := search.ReadQueryFile(from)
	if err != nil {
		return nil, err
	}
	if len(qf.Results) == 0 {
		return nil, errors.New(from + " has no results")
	}
	return qf.Results, nil
}
