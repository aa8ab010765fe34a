package main

import (
	"context"
	"errors"
	"os"
	"os/signal"

	"github.com/sandevgo/lensbot/pkg/log"
	"github.com/sandevgo/lensbot/pkg/srv"
	"github.com/spf13/cobra"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive chat with tool calling",
	Long: `Opens a readline chat session against the configured OpenRouter model.
Tools from configured MCP servers and the built-in fetch/encode tools are
offered to the model; '/image <path>' attaches a local image to the next message.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		var flushLog func()
		ctx, flushLog = setupLogger(ctx)
		defer flushLog()

		logger := log.FromCtx(ctx)

		if err := initEnv(ctx); err != nil {
			return err
		}

		console, background, err := newChatServices(ctx)
		if err != nil {
			return err
		}

		srv.StartServices(ctx, background)
		defer srv.StopServices(ctx, background)
		defer console.Shutdown(ctx)

		logger.Info().Msg("starting chat session")

		if err := console.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}

		logger.Info().Msg("chat session ended")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(chatCmd)
}
