package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/panacea-health/trials-etl/internal/config"
	"github.com/panacea-health/trials-etl/internal/model"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "trials-etl",
	Short: "Clinical trial ETL pipeline",
	Long:  "Discovers studies on ClinicalTrials.gov, reconciles their result documents into a relational schema, and builds narrated visualization documents.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

// printRun writes the run summary JSON to stdout.
func printRun(run *model.Run) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(run)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
