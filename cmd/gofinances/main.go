package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "gofinances",
		Short: "Personal finance dashboard backend",
		Long: `gofinances records entries and expenses per user and summarises them
into highlights and a monthly per-category breakdown.`,
		SilenceUsage: true,
	}
	root.AddCommand(
		newServeCmd(),
		newSummaryCmd(),
		newAddCmd(),
		newConsumeCmd(),
		newUsersCmd(),
	)
	return root
}
