package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/site-scout/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "site-scout",
	Short: "Retail location scoring engine",
	Long:  "Scores candidate retail locations by extracting point-of-interest features around a coordinate, normalizing them against per-city percentile baselines, and aggregating weighted attractiveness, competition, accessibility, and suitability metrics.",
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
