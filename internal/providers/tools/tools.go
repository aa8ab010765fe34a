// Package tools holds in-process tool implementations exposed to the model
// alongside tools discovered from MCP servers.
package tools

import (
	"context"
	"encoding/json"
)

// Definition describes one callable tool: what the model sees plus the
// handler that executes it.
type Definition struct {
	Description string
	Schema      string
	Handler     func(context.Context, json.RawMessage) (string, error)
}

// Toolset is implemented by every tool provider in this package.
type Toolset interface {
	GetDefinitions() map[string]Definition
}
