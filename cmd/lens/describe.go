package main

import (
	"fmt"
	"os"
	"os/signal"

	"github.com/sandevgo/lensbot/internal/config"
	"github.com/sandevgo/lensbot/internal/providers/llm"
	"github.com/sandevgo/lensbot/internal/service/vision"
	"github.com/spf13/cobra"
)

var (
	describeQuestion string
	describeVia      string
)

var describeCmd = &cobra.Command{
	Use:   "describe <image-path>",
	Short: "Send an image to a vision model and print its answer",
	Long: `Encodes a local image as a data URI and asks the configured vision model
about it. Three transport paths are available:

  direct  the built-in chat-completions client (default)
  sdk     the OpenAI SDK pointed at the OpenRouter base URL
  file    treat <image-path> as a saved data-URI file ('lens encode -o')`,
	Args: cobra.ExactArgs(1),
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
		provider := llm.NewOpenRouter(orCfg.APIKey, orCfg.VisionModel)
		describer := vision.NewDescriber(provider, orCfg.APIKey, llm.OpenRouterBaseURL, orCfg.VisionModel)

		var answer string
		var err error
		switch describeVia {
		case "direct":
			answer, err = describer.Direct(ctx, args[0], describeQuestion)
		case "sdk":
			answer, err = describer.ViaSDK(ctx, args[0], describeQuestion)
		case "file":
			answer, err = describer.FromURIFile(ctx, args[0], describeQuestion)
		default:
			return fmt.Errorf("unknown transport %q (want direct, sdk or file)", describeVia)
		}
		if err != nil {
			return err
		}

		fmt.Println(answer)
		return nil
	},
}

func init() {
	describeCmd.Flags().StringVarP(&describeQuestion, "question", "q", vision.DefaultQuestion, "question to ask about the image")
	describeCmd.Flags().StringVar(&describeVia, "via", "direct", "transport path: direct, sdk or file")
	rootCmd.AddCommand(describeCmd)
}
