package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/panacea-health/trials-etl/internal/viz"
	anthropicpkg "github.com/panacea-health/trials-etl/pkg/anthropic"
)

var visualizeCmd = &cobra.Command{
	Use:   "visualize",
	Short: "Rebuild visualization documents for processed studies",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := openStore(ctx, "visualize")
		if err != nil {
			return err
		}
		defer st.Close()

		llm := anthropicpkg.NewClient(cfg.Anthropic.Key)
		narrator := viz.NewClaudeNarrator(llm, cfg.Anthropic.HaikuModel)

		run, err := viz.NewBuilder(st, narrator, cfg.Viz.Concurrency).Run(ctx)
		if err != nil {
			return eris.Wrap(err, "visualize")
		}

		zap.L().Info("visualize run recorded", zap.String("run_id", run.ID))
		return printRun(run)
	},
}

func init() {
	rootCmd.AddCommand(visualizeCmd)
}
