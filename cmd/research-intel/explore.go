// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/research-intel/internal/explore"
	"github.com/pdiddy/research-intel/internal/llm"
	"github.com/pdiddy/research-intel/pkg/types"
)

var exploreCmd = &cobra.Command{
	Use:   "explore [query...]",
	Short: "Classify and cluster the papers matching a query",
	Long: `Explore searches for a query, classifies every paper into a branch and
sub-cluster, builds the cluster tree rooted at the query, and lays the
papers out on a canvas by relevance.

Without AI credentials use --offline: classification then uses keyword
scoring only.`,
	RunE: runExplore,
}

func init() {
	addSearchFilterFlags(exploreCmd)
	addAIFlags(exploreCmd)
	exploreCmd.Flags().String("format", "table", "output format: table, json, yaml")
	exploreCmd.Flags().Bool("papers", false, "list paper titles in the table outline")

	rootCmd.AddCommand(exploreCmd)
}

func runExplore(cmd *cobra.Command, args []string) error {
	if err := applySearchFlags(cmd, &state.cfg.Search); err != nil {
		return err
	}
	branches, err := branchesFromFlags(cmd)
	if err != nil {
		return err
	}
	gen, err := generatorFromFlags(cmd)
	if err != nil {
		return err
	}
	svc, err := state.explorer(gen, branches)
	if err != nil {
		return err
	}

	res, err := svc.Explore(cmd.Context(), strings.Join(args, " "), explore.Options{})
	if err != nil {
		return err
	}

	format, _ := cmd.Flags().GetString("format")
	if done, err := encode(state.out, format, res); done {
		return err
	}

	showPapers, _ := cmd.Flags().GetBool("papers")
	printTree(state.out, res.Tree, showPapers)
	fmt.Fprintf(state.out, "\n%d papers\n", len(res.Papers))
	for _, w := range res.Warnings {
		fmt.Fprintf(state.out, "warning: %s\n", w)
	}
	return nil
}

func addAIFlags(cmd *cobra.Command) {
	cmd.Flags().Bool("offline", false, "skip AI generation and use deterministic fallbacks")
	cmd.Flags().StringSlice("branches", nil, "allowed branch names (default: built-in taxonomy)")
	cmd.Flags().String("branches-file", "", "YAML branch taxonomy")
}

func branchesFromFlags(cmd *cobra.Command) ([]types.Branch, error) {
	names, _ := cmd.Flags().GetStringSlice("branches")
	file, _ := cmd.Flags().GetString("branches-file")
	return state.branches(names, file)
}

func generatorFromFlags(cmd *cobra.Command) (llm.Generator, error) {
	offline, _ := cmd.Flags().GetBool("offline")
	return state.generator(offline)
}
