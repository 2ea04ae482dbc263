package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/panacea-health/trials-etl/internal/etl"
	"github.com/panacea-health/trials-etl/internal/registry"
)

var (
	discoverCondition string
	discoverTerm      string
	discoverStatus    string
)

var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "Search the registry and seed the study queue",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := openStore(ctx, "discover")
		if err != nil {
			return err
		}
		defer st.Close()

		runner := etl.NewRunner(st, initRegistry(), nil)
		run, err := runner.Discover(ctx, registry.SearchQuery{
			Condition:     discoverCondition,
			Term:          discoverTerm,
			OverallStatus: discoverStatus,
		})
		if err != nil {
			return eris.Wrap(err, "discover")
		}

		zap.L().Info("discover run recorded", zap.String("run_id", run.ID))
		return printRun(run)
	},
}

func init() {
	discoverCmd.Flags().StringVar(&discoverCondition, "condition", "", "condition to search for (e.g. \"type 2 diabetes\")")
	discoverCmd.Flags().StringVar(&discoverTerm, "term", "", "free-text search term")
	discoverCmd.Flags().StringVar(&discoverStatus, "status", "", "filter by overall status (e.g. COMPLETED)")
	rootCmd.AddCommand(discoverCmd)
}
