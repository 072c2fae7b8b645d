// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/research-intel/pkg/types"
)

const envPrefix = "RESEARCH_INTEL"

// bindFlag lets a flag override key. Unset flags fall through to env,
// config file and defaults.
func bindFlag(key string, f *pflag.Flag) {
	if f == nil {
		return
	}
	if err := viper.BindPFlag(key, f); err != nil {
		panic(fmt.Sprintf("binding flag %s: %v", f.Name, err))
	}
}

// loadConfig layers defaults, the config file, RESEARCH_INTEL_* variables
// and bound flags into one Config. It returns the config file used, if any.
func loadConfig(v *viper.Viper, cfgFile string) (types.Config, string, error) {
	defaults, err := yaml.Marshal(types.DefaultConfig())
	if err != nil {
		return types.Config{}, "", fmt.Errorf("encoding defaults: %w", err)
	}
	v.SetConfigType("yaml")
	if err := v.MergeConfig(bytes.NewReader(defaults)); err != nil {
		return types.Config{}, "", fmt.Errorf("loading defaults: %w", err)
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("research-intel")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "research-intel"))
		}
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	used := ""
	if err := v.MergeInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) || cfgFile != "" {
			return types.Config{}, "", fmt.Errorf("reading config: %w", err)
		}
	} else {
		used = v.ConfigFileUsed()
	}

	var cfg types.Config
	if err := v.Unmarshal(&cfg); err != nil {
		return types.Config{}, "", fmt.Errorf("decoding config: %w", err)
	}
	return cfg, used, nil
}
