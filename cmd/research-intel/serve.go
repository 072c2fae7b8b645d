// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/pdiddy/research-intel/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the JSON HTTP API",
	Long: `Serve exposes explore, classify, gaps, summarize, paper lookup and abstract
reconstruction under /api/v1, with /healthz for liveness and /metrics for
Prometheus.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().String("addr", "", "listen address (default :8080)")
	serveCmd.Flags().Bool("offline", false, "skip AI generation and use deterministic fallbacks")
	bindFlag("server.addr", serveCmd.Flags().Lookup("addr"))

	rootCmd.AddCommand(serveCmd)
}

// buildServices wires every service shared by serve and mcp.
func buildServices(cmd *cobra.Command) (server.Deps, error) {
	m := state.withMetrics()
	branches, err := state.branches(nil, "")
	if err != nil {
		return server.Deps{}, err
	}
	gen, err := generatorFromFlags(cmd)
	if err != nil {
		return server.Deps{}, err
	}
	c, err := state.classifier(gen)
	if err != nil {
		return server.Deps{}, err
	}
	ex, err := state.explorer(gen, branches)
	if err != nil {
		return server.Deps{}, err
	}
	gp, err := state.gapPipeline(gen)
	if err != nil {
		return server.Deps{}, err
	}
	sum, err := state.summarizer(gen)
	if err != nil {
		return server.Deps{}, err
	}
	store, err := state.archive()
	if err != nil {
		return server.Deps{}, err
	}
	return server.Deps{
		Explorer:   ex,
		Classifier: c,
		Gaps:       gp,
		Summarizer: sum,
		Papers:     state.lookup(),
		Archive:    store,
		Branches:   branches,
		Metrics:    m,
		Log:        state.log,
	}, nil
}

func runServe(cmd *cobra.Command, args []string) error {
	deps, err := buildServices(cmd)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return server.New(state.cfg.Server, deps).Run(ctx)
}

