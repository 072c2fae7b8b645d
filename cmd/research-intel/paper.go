// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"github.com/spf13/cobra"
)

var paperCmd = &cobra.Command{
	Use:   "paper <id>",
	Short: "Show one paper fetched from OpenAlex",
	Long: `Paper fetches a single work by OpenAlex id (W2741809807 or its
https://openalex.org/ URL) or by DOI and prints its details.`,
	Args: cobra.ExactArgs(1),
	RunE: runPaper,
}

func init() {
	paperCmd.Flags().String("format", "table", "output format: table, json, yaml")
	rootCmd.AddCommand(paperCmd)
}

func runPaper(cmd *cobra.Command, args []string) error {
	r, err := state.lookup().Get(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	format, _ := cmd.Flags().GetString("format")
	if done, err := encode(state.out, format, r); done {
		return err
	}
	printPaper(state.out, r)
	return nil
}
