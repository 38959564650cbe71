package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/startupbase/fundmatch/internal/catalog"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Show catalog contents per domain",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := cfg.Validate("match"); err != nil {
			return err
		}

		store, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer store.Close()

		counts, err := store.Counts(ctx)
		if err != nil {
			return err
		}

		fmt.Printf("%-10s %10s %10s\n", "DOMAIN", "ENTITIES", "RECORDS")
		for _, domain := range []catalog.Domain{catalog.DomainSchemes, catalog.DomainBanks} {
			c := counts[domain]
			fmt.Printf("%-10s %10d %10d\n", domain, c.Entities, c.Records)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(catalogCmd)
}
