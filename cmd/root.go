package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/startupbase/fundmatch/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "fundmatch",
	Short: "Funding match and ranking engine for startups",
	Long:  "Scores government funding schemes and bank programs against a startup profile, producing explainable 0-100 rankings per state or sponsoring institution.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
