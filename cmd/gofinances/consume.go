package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"gofinances/internal/amqp"
	"gofinances/internal/cli"
	applog "gofinances/internal/log"
)

func newConsumeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "consume",
		Short: "Log transaction.recorded messages with the user's updated balance",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cli.LoadAndValidateConfig()
			if err != nil {
				return err
			}
			if cfg.AMQPURL == "" {
				return fmt.Errorf("AMQP_URL is required")
			}
			logger := cli.SetupLogger(cfg, cmd.OutOrStdout())

			ctx, cancel := cli.SignalContext(cmd.Context(), logger)
			defer cancel()

			app, err := cli.Bootstrap(ctx, cfg, logger, cli.Options{WithAMQP: true})
			if err != nil {
				return err
			}
			defer app.Close()
			if app.AMQP == nil {
				return fmt.Errorf("cannot connect to AMQP broker")
			}

			log := logger.WithComponent(applog.ComponentAMQP)
			err = app.AMQP.ConsumeTransactionRecorded(ctx, func(ctx context.Context, msg *amqp.TransactionRecordedMessage) error {
				summary, err := app.Transactions.Summary(ctx, msg.UserID, time.Now())
				if err != nil {
					return err
				}
				log.InfoContext(ctx, "Transaction recorded",
					applog.FieldUserID, msg.UserID,
					applog.FieldTxID, msg.ID,
					applog.FieldTxType, msg.Type,
					applog.FieldCategory, msg.Category,
					"balance", summary.Highlights.Total.Amount)
				return nil
			})
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}
}
