// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the research-intel CLI.
package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/research-intel/internal/logging"
	"github.com/pdiddy/research-intel/internal/secrets"
)

// version is set at build time via ldflags.
var version = "dev"

// state is built once in PersistentPreRunE and shared by subcommands.
var state *app

// rootCmd is the base command for the research-intel CLI.
var rootCmd = &cobra.Command{
	Use:   "research-intel",
	Short: "Explore research literature and find open research gaps",
	Long: `research-intel searches bibliographic services, classifies papers into a
branch taxonomy, clusters them into a navigable tree with a density layout,
and analyses a base paper for open research gaps.

Queries run directly from the CLI, over an HTTP API (serve), or as MCP tools
for agent clients (mcp).`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("loading .env: %w", err)
		}

		cfgFile, _ := cmd.Flags().GetString("config")
		cfg, used, err := loadConfig(viper.GetViper(), cfgFile)
		if err != nil {
			return err
		}

		log, err := logging.New(cfg.Log)
		if err != nil {
			return err
		}
		if used != "" {
			log.Debug("using config file", logging.String("path", used))
		}

		secretsDir, _ := cmd.Flags().GetString("secrets-dir")
		s, err := secrets.Load(secretsDir, log)
		if err != nil {
			return err
		}
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			log.Debug("loaded secrets", logging.Strings("keys", keys))
		}
		secrets.Apply(&cfg, s)

		state = newApp(cfg, log, cmd.OutOrStdout())
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if state != nil {
			state.close()
		}
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "config file (default: ./research-intel.yaml or ~/.config/research-intel/research-intel.yaml)")
	pf.String("secrets-dir", ".secrets/", "directory of credential files")
	pf.String("log-level", "", "log level: debug, info, warn, error")
	pf.String("log-format", "", "log format: console or json")
	pf.String("cache", "", "result cache: none, memory, redis")

	bindFlag("log.level", pf.Lookup("log-level"))
	bindFlag("log.format", pf.Lookup("log-format"))
	bindFlag("cache.backend", pf.Lookup("cache"))
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
