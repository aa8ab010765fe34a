package chat

import (
	"context"
	"fmt"
	"os"

	"github.com/sandevgo/lensbot/internal/config"
	"github.com/sandevgo/lensbot/internal/core"
	"github.com/sandevgo/lensbot/pkg/log"
)

// Session drives one tool-calling conversation: user input goes out with the
// available tool definitions, returned tool calls are executed and fed back,
// and the loop repeats until the model answers in plain text.
type Session struct {
	cfg   *config.AppConfig
	ai    core.AIProvider
	tools core.ToolSource
	repo  core.MessagesRepository
}

func NewSession(cfg *config.AppConfig, ai core.AIProvider, tools core.ToolSource, repo core.MessagesRepository) *Session {
	return &Session{
		cfg:   cfg,
		ai:    ai,
		tools: tools,
		repo:  repo,
	}
}

// Ask processes one user turn. Attached image parts ride along with the text.
// onUpdate fires for every assistant message, including intermediate
// tool-calling ones.
func (s *Session) Ask(ctx context.Context, sessionID, input string, parts []core.ContentPart, onUpdate func(core.Message)) (string, error) {
	logger := log.FromCtx(ctx)

	userMsg := core.Message{Role: core.RoleUser, Content: input, Parts: parts}
	if err := s.repo.AddMessage(ctx, sessionID, userMsg); err != nil {
		return "", fmt.Errorf("failed to save user message: %w", err)
	}

	var finalContent string

	for {
		tools, err := s.tools.GetTools(ctx)
		if err != nil {
			return "", fmt.Errorf("failed to get tools: %w", err)
		}

		history, err := s.repo.GetMessages(ctx, sessionID, s.cfg.ContextWindowSize)
		if err != nil {
			return "", fmt.Errorf("failed to fetch history: %w", err)
		}
		messages := append(s.systemPrompt(), history...)

		responseMsg, err := s.ai.Chat(ctx, messages, tools)
		if err != nil {
			return "", fmt.Errorf("ai chat error: %w", err)
		}

		if err := s.repo.AddMessage(ctx, sessionID, responseMsg); err != nil {
			logger.Error().Err(err).Msg("failed to save assistant message")
		}

		if onUpdate != nil {
			onUpdate(responseMsg)
		}

		if responseMsg.Content != "" {
			finalContent = responseMsg.Content
		}

		if len(responseMsg.ToolCalls) == 0 {
			break
		}

		for _, tc := range responseMsg.ToolCalls {
			logger.Info().Str("tool", tc.Function.Name).Msg("executing tool")

			result, err := s.tools.CallTool(ctx, tc.Function.Name, tc.Function.Arguments)
			if err != nil {
				result = fmt.Sprintf("Error executing tool: %v", err)
			}

			toolMsg := core.Message{
				Role:       core.RoleTool,
				Content:    result,
				ToolCallID: tc.ID,
			}
			if err := s.repo.AddMessage(ctx, sessionID, toolMsg); err != nil {
				logger.Error().Err(err).Msg("failed to save tool message")
			}
		}
	}

	return finalContent, nil
}

func (s *Session) systemPrompt() []core.Message {
	content, err := os.ReadFile(s.cfg.GetSystemPromptPath())
	if err != nil || len(content) == 0 {
		return nil
	}
	return []core.Message{{Role: core.RoleSystem, Content: string(content)}}
}
