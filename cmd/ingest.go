package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/panacea-health/trials-etl/internal/etl"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Fetch and reconcile every pending study",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := openStore(ctx, "ingest")
		if err != nil {
			return err
		}
		defer st.Close()

		runner := etl.NewRunner(st, initRegistry(), initProcessor(st))
		run, err := runner.Ingest(ctx)
		if err != nil {
			return eris.Wrap(err, "ingest")
		}

		zap.L().Info("ingest run recorded", zap.String("run_id", run.ID))
		return printRun(run)
	},
}

func init() {
	rootCmd.AddCommand(ingestCmd)
}
