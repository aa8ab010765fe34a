package main

import (
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/sandevgo/lensbot/internal/config"
	"github.com/sandevgo/lensbot/internal/providers/llm"
	"github.com/spf13/cobra"
)

var modelsFilter string

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List models available on OpenRouter",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		var flushLog func()
		ctx, flushLog = setupLogger(ctx)
		defer flushLog()

		if err := initEnv(ctx); err != nil {
			return err
		}

		orCfg := config.NewOpenRouterConfig(ctx)
		provider := llm.NewOpenRouter(orCfg.APIKey, orCfg.Model)

		models, err := provider.Models(ctx)
		if err != nil {
			return err
		}

		for _, m := range models {
			if modelsFilter != "" && !strings.Contains(strings.ToLower(m.ID), strings.ToLower(modelsFilter)) {
				continue
			}
			fmt.Printf("%-50s ctx=%d\n", m.ID, m.ContextLength)
		}
		return nil
	},
}

func init() {
	modelsCmd.Flags().StringVar(&modelsFilter, "filter", "", "only show models whose id contains this substring")
	rootCmd.AddCommand(modelsCmd)
}
