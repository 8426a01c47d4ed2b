package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"gofinances/internal/cli"
	"gofinances/internal/core"
)

func newAddCmd() *cobra.Command {
	var (
		userID string
		tx     core.Transaction
		txType string
	)
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Record a transaction",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cli.LoadAndValidateConfig()
			if err != nil {
				return err
			}
			logger := cli.SetupLogger(cfg, cmd.ErrOrStderr())

			app, err := cli.Bootstrap(cmd.Context(), cfg, logger, cli.Options{WithAMQP: true})
			if err != nil {
				return err
			}
			defer app.Close()

			id, err := app.ResolveUser(userID)
			if err != nil {
				return err
			}
			tx.Type = core.TransactionType(txType)
			saved, err := app.Transactions.Create(cmd.Context(), id, tx)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), saved.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "user id (defaults to the signed-in user)")
	cmd.Flags().StringVar(&tx.Name, "name", "", "description")
	cmd.Flags().StringVar(&tx.Amount, "amount", "", "positive amount, e.g. 12.50")
	cmd.Flags().StringVar(&txType, "type", string(core.Negative), "positive (entry) or negative (expense)")
	cmd.Flags().StringVar(&tx.Category, "category", "", "category key")
	cmd.Flags().StringVar(&tx.Date, "date", "", "YYYY-MM-DD or RFC 3339 (defaults to now)")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("amount")
	_ = cmd.MarkFlagRequired("category")
	return cmd
}
