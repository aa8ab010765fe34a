package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/sandevgo/lensbot/internal/core"
	"github.com/sandevgo/lensbot/pkg/log"
)

type MessagesRepo struct {
	db *sql.DB
}

func NewMessagesRepo(db *sql.DB) *MessagesRepo {
	return &MessagesRepo{db: db}
}

// marshalOrEmpty keeps the column blank when the slice is empty so rows
// without tool calls or attachments stay small.
func marshalOrEmpty(v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	if string(data) == "null" {
		return "", nil
	}
	return string(data), nil
}

func (r *MessagesRepo) AddMessage(ctx context.Context, sessionID string, msg core.Message) error {
	toolCalls, err := marshalOrEmpty(msg.ToolCalls)
	if err != nil {
		return fmt.Errorf("failed to marshal tool calls: %w", err)
	}

	// Parts carry data URIs for attached images; persisting them keeps
	// multimodal turns replayable from history.
	parts, err := marshalOrEmpty(msg.Parts)
	if err != nil {
		return fmt.Errorf("failed to marshal content parts: %w", err)
	}

	query := `INSERT INTO messages (session_id, role, content, parts, tool_calls, tool_call_id) VALUES (?, ?, ?, ?, ?, ?)`
	_, err = r.db.ExecContext(ctx, query, sessionID, msg.Role, msg.Content, parts, toolCalls, msg.ToolCallID)
	if err != nil {
		return fmt.Errorf("failed to insert message: %w", err)
	}
	return nil
}

func (r *MessagesRepo) GetMessages(ctx context.Context, sessionID string, limit int) ([]core.Message, error) {
	// Fetch the LAST 'limit' messages by ordering DESC
	query := `SELECT role, content, parts, tool_calls, tool_call_id FROM messages WHERE session_id = ? ORDER BY id DESC LIMIT ?`

	rows, err := r.db.QueryContext(ctx, query, sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	defer rows.Close()

	var messages []core.Message
	for rows.Next() {
		var msg core.Message
		var content, partsStr, toolCallsStr, toolCallID sql.NullString

		if err := rows.Scan(&msg.Role, &content, &partsStr, &toolCallsStr, &toolCallID); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}

		msg.Content = content.String
		msg.ToolCallID = toolCallID.String

		if partsStr.Valid && partsStr.String != "" {
			if err := json.Unmarshal([]byte(partsStr.String), &msg.Parts); err != nil {
				return nil, fmt.Errorf("failed to unmarshal content parts: %w", err)
			}
		}
		if toolCallsStr.Valid && toolCallsStr.String != "" {
			if err := json.Unmarshal([]byte(toolCallsStr.String), &msg.ToolCalls); err != nil {
				return nil, fmt.Errorf("failed to unmarshal tool calls: %w", err)
			}
		}

		messages = append(messages, msg)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Rows arrived newest-first; the LLM needs chronological order.
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}

	log.FromCtx(ctx).Debug().Int("count", len(messages)).Msg("loaded history messages")
	return messages, nil
}
