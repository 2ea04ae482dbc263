package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/panacea-health/trials-etl/internal/export"
)

var exportOut string

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the study queue to an XLSX workbook",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := openStore(ctx, "export")
		if err != nil {
			return err
		}
		defer st.Close()

		if err := export.NewExporter(st).WriteWorkbook(ctx, exportOut); err != nil {
			return eris.Wrap(err, "export")
		}

		zap.L().Info("workbook written", zap.String("path", exportOut))
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportOut, "out", "studies.xlsx", "output workbook path")
	rootCmd.AddCommand(exportCmd)
}
