package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"gofinances/internal/cli"
	"gofinances/internal/core"
)

func newSummaryCmd() *cobra.Command {
	var (
		userID string
		month  string
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Print highlights and the category breakdown for a month",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cli.LoadAndValidateConfig()
			if err != nil {
				return err
			}
			logger := cli.SetupLogger(cfg, cmd.ErrOrStderr())

			app, err := cli.Bootstrap(cmd.Context(), cfg, logger, cli.Options{})
			if err != nil {
				return err
			}
			defer app.Close()

			id, err := app.ResolveUser(userID)
			if err != nil {
				return err
			}
			ref, err := cli.ParseMonth(month, time.Now(), cfg.Location())
			if err != nil {
				return err
			}
			summary, err := app.Transactions.Summary(cmd.Context(), id, ref)
			if err != nil {
				return err
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(summary)
			}
			return printSummary(cmd.OutOrStdout(), summary)
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "user id (defaults to the signed-in user)")
	cmd.Flags().StringVar(&month, "month", "", "month as YYYY-MM (defaults to the current month)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the summary as JSON")
	return cmd
}

func printSummary(out io.Writer, s core.Summary) error {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	h := s.Highlights
	fmt.Fprintf(w, "Entradas\t%s\t%s\n", h.Entries.Amount, h.Entries.LastTransaction)
	fmt.Fprintf(w, "Saídas\t%s\t%s\n", h.Expenses.Amount, h.Expenses.LastTransaction)
	fmt.Fprintf(w, "Total\t%s\t%s\n", h.Total.Amount, h.Total.LastTransaction)
	fmt.Fprintf(w, "\n%s\n", s.Overview.Label)
	for _, c := range s.Overview.Categories {
		fmt.Fprintf(w, "%s\t%s\t%s\n", c.Name, c.TotalFormatted, c.Percent)
	}
	if s.Overview.Uncategorized.IsPositive() {
		fmt.Fprintf(w, "Sem categoria\t%s\t\n", s.Overview.Uncategorized.StringFixed(2))
	}
	return w.Flush()
}
