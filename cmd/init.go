package main

import (
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/panacea-health/trials-etl/internal/config"
	"github.com/panacea-health/trials-etl/internal/store"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a starter config.yaml in the current directory",
	RunE: func(cmd *cobra.Command, args []string) error {
		const path = "config.yaml"
		if !initForce {
			if _, err := os.Stat(path); err == nil {
				return eris.Errorf("%s already exists, use --force to overwrite", path)
			}
		}

		starter := config.Config{
			Store: config.StoreConfig{
				Driver:      "sqlite",
				DatabaseURL: "trials.db",
				Pool:        store.PoolConfig{MaxConns: 10, MinConns: 2},
			},
			Registry: config.RegistryConfig{
				BaseURL:           "https://clinicaltrials.gov/api/v2",
				UserAgent:         "trials-etl/1.0",
				TimeoutSecs:       30,
				RequestsPerSecond: 3,
			},
			Anthropic: config.AnthropicConfig{
				HaikuModel: "claude-haiku-4-5-20251001",
			},
			Viz: config.VizConfig{Concurrency: 4},
			Log: config.LogConfig{Level: "info", Format: "json"},
		}

		data, err := yaml.Marshal(starter)
		if err != nil {
			return eris.Wrap(err, "marshal starter config")
		}
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return eris.Wrap(err, "write starter config")
		}

		zap.L().Info("starter config written", zap.String("path", path))
		return nil
	},
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "overwrite an existing config.yaml")
	rootCmd.AddCommand(initCmd)
}
