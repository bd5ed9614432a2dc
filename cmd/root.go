package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/clipforge/broll-cli/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "broll-cli",
	Short: "B-roll clip selection pipeline",
	Long:  "Scores stock-footage candidates against script scenes, verifies them through transcripts and frame embeddings, and selects a diverse clip pool per scene.",
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
