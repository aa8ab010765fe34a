package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/chzyer/readline"
	"github.com/sandevgo/lensbot/internal/config"
	"github.com/sandevgo/lensbot/internal/core"
	"github.com/sandevgo/lensbot/internal/service/chat"
	"github.com/sandevgo/lensbot/internal/service/ui"
	"github.com/sandevgo/lensbot/pkg/dataurl"
	"github.com/sandevgo/lensbot/pkg/log"
)

const defaultSessionID = "cli-local"

// Console runs the interactive chat loop. `/image <path>` attaches an
// encoded image to the next message; `exit` or EOF ends the session.
type Console struct {
	cfg     *config.AppConfig
	session *chat.Session
	rl      *readline.Instance

	// images queued for the next user message
	pending []core.ContentPart
}

func NewConsole(session *chat.Session, cfg *config.AppConfig) (*Console, error) {
	if err := os.MkdirAll(cfg.RuntimePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create runtime directory: %w", err)
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          ">>> ",
		HistoryFile:     cfg.GetInputHistoryPath(),
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return nil, err
	}

	return &Console{
		cfg:     cfg,
		session: session,
		rl:      rl,
	}, nil
}

func (c *Console) Start(ctx context.Context) error {
	logger := log.FromCtx(ctx)
	logger.Info().Msg("chat started. Type 'exit' to quit, '/image <path>' to attach an image.")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		line, err := c.rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt {
				if len(line) == 0 {
					return nil
				}
				continue
			} else if err == io.EOF {
				return nil
			}
			return err
		}

		line = strings.TrimSpace(line)
		switch {
		case line == "exit":
			return nil
		case line == "":
			continue
		case strings.HasPrefix(line, "/image "):
			c.attachImage(strings.TrimSpace(strings.TrimPrefix(line, "/image ")))
			continue
		}

		parts := c.pending
		c.pending = nil

		_, err = c.session.Ask(ctx, defaultSessionID, line, parts, func(msg core.Message) {
			if msg.Reasoning != "" {
				fmt.Fprintf(c.rl.Stdout(), "%s\n", ui.FaintStyle.Render("[Thinking]\n"+msg.Reasoning))
			}

			if msg.Content != "" {
				fmt.Fprintf(c.rl.Stdout(), "%s\n", msg.Content)
			}

			if len(msg.ToolCalls) > 0 {
				fmt.Fprintf(c.rl.Stdout(), "[System] Processing %d tool call(s)...\n", len(msg.ToolCalls))
				for _, tc := range msg.ToolCalls {
					fmt.Fprintf(c.rl.Stdout(), "  > Calling %s %s...\n", tc.Function.Name, tc.Function.Arguments)
				}
			}
		})

		if err != nil {
			logger.Error().Err(err).Msg("chat turn failed")
			fmt.Fprintf(c.rl.Stdout(), "Error: %v\n", err)
		}
	}
}

func (c *Console) attachImage(path string) {
	res, err := dataurl.Encode(path)
	if err != nil {
		fmt.Fprintf(c.rl.Stdout(), "Error: %v\n", err)
		return
	}

	c.pending = append(c.pending, core.ImagePart(res.URI()))
	fmt.Fprintf(c.rl.Stdout(), "Attached %s (%s, %d bytes encoded); it will ride along with your next message.\n",
		path, res.MediaType, len(res.Payload))
}

func (c *Console) Shutdown(ctx context.Context) error {
	if c.rl != nil {
		return c.rl.Close()
	}
	return nil
}
