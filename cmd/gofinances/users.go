package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"gofinances/internal/cli"
	"gofinances/internal/storage"
)

func newUsersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "users",
		Short: "List users with stored transactions",
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

			kl, ok := app.Store.(storage.KeyLister)
			if !ok {
				return fmt.Errorf("%s backend cannot list keys", cfg.DataBackend)
			}
			ids, err := storage.UserIDs(cmd.Context(), kl)
			if err != nil {
				return err
			}
			for _, id := range ids {
				fmt.Fprintln(cmd.OutOrStdout(), id)
			}
			return nil
		},
	}
}
