package main

import (
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show study queue counts",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := openStore(ctx, "status")
		if err != nil {
			return err
		}
		defer st.Close()

		total, processed, err := st.CountStudies(ctx)
		if err != nil {
			return err
		}

		p := message.NewPrinter(language.English)
		p.Fprintf(os.Stdout, "Studies:   %d\n", total)
		p.Fprintf(os.Stdout, "Processed: %d\n", processed)
		p.Fprintf(os.Stdout, "Pending:   %d\n", total-processed)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
