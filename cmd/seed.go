package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/startupbase/fundmatch/internal/catalog"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load a catalog YAML file into the store",
	Long: `Reads a catalog file holding scheme and bank program definitions and
upserts it into the configured store. Records may reference their entity by
ID, name, or abbreviation.

Example:
  fundmatch seed --file catalog.yaml`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := cfg.Validate("seed"); err != nil {
			return err
		}

		path, _ := cmd.Flags().GetString("file")
		if path == "" {
			return eris.New("seed: --file is required")
		}

		seed, err := catalog.LoadSeedFile(path)
		if err != nil {
			return err
		}

		store, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer store.Close()

		if err := seed.Apply(ctx, store); err != nil {
			return err
		}

		fmt.Println("Seed complete.")
		return nil
	},
}

func init() {
	seedCmd.Flags().String("file", "", "path to the catalog YAML file")
	rootCmd.AddCommand(seedCmd)
}
