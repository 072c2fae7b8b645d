// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"github.com/spf13/cobra"

	"github.com/pdiddy/research-intel/internal/mcpserver"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run as an MCP tool server over stdio",
	Long: `MCP serves the explore_topic, classify_paper, find_research_gaps,
summarize_paper, get_paper and reconstruct_abstract tools to Model Context
Protocol clients over stdin/stdout. Logs go to stderr so they never corrupt the protocol stream.`,
	RunE: runMCP,
}

func init() {
	mcpCmd.Flags().Bool("offline", false, "skip AI generation and use deterministic fallbacks")

	rootCmd.AddCommand(mcpCmd)
}

func runMCP(cmd *cobra.Command, args []string) error {
	svc, err := buildServices(cmd)
	if err != nil {
		return err
	}
	s := mcpserver.New(mcpserver.Config{
		Version:    version,
		Explorer:   svc.Explorer,
		Classifier: svc.Classifier,
		Gaps:       svc.Gaps,
		Summarizer: svc.Summarizer,
		Papers:     svc.Papers,
		Archive:    svc.Archive,
		Branches:   svc.Branches,
		Log:        state.log,
	})
	return mcpserver.Serve(s)
}
