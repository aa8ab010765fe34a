package main

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/sandevgo/lensbot/internal/config"
	"github.com/sandevgo/lensbot/internal/providers/llm"
	"github.com/sandevgo/lensbot/internal/providers/mcp"
	"github.com/sandevgo/lensbot/internal/providers/tools"
	"github.com/sandevgo/lensbot/internal/service/chat"
	"github.com/sandevgo/lensbot/internal/storage/sqlite"
	"github.com/sandevgo/lensbot/internal/transport/cli"
	"github.com/sandevgo/lensbot/pkg/log"
	"github.com/sandevgo/lensbot/pkg/srv"
)

// newChatServices wires storage, provider, MCP tools and the console for the
// chat command. The returned services are background dependencies that must
// start before the console loop and stop after it.
func newChatServices(ctx context.Context) (*cli.Console, []srv.Service, error) {
	appCfg := config.NewAppConfig(ctx)
	orCfg := config.NewOpenRouterConfig(ctx)

	if err := os.MkdirAll(appCfg.RuntimePath, 0755); err != nil {
		return nil, nil, err
	}

	db, err := sqlite.NewDB(ctx, appCfg.GetDatabasePath())
	if err != nil {
		return nil, nil, err
	}
	repo := sqlite.NewMessagesRepo(db)

	provider := llm.NewOpenRouter(orCfg.APIKey, orCfg.Model)

	mgr, err := mcp.NewManager(ctx, appCfg.GetMCPConfigPath())
	if err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	registerToolsets(mgr, tools.NewFetch(), tools.NewEncoder())

	session := chat.NewSession(appCfg, provider, mgr, repo)

	console, err := cli.NewConsole(session, appCfg)
	if err != nil {
		_ = db.Close()
		return nil, nil, err
	}

	background := []srv.Service{
		srv.NewCleanup(db.Close),
		mgr,
	}
	return console, background, nil
}

func registerToolsets(mgr *mcp.Manager, sets ...tools.Toolset) {
	for _, ts := range sets {
		for name, def := range ts.GetDefinitions() {
			mgr.RegisterNativeTool(name, def.Description, json.RawMessage(def.Schema), def.Handler)
		}
	}
}

// initEnv loads a .env file from the working directory when present.
func initEnv(ctx context.Context) error {
	logger := log.FromCtx(ctx)
	envFile := ".env"

	if _, err := os.Stat(envFile); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	if err := godotenv.Load(envFile); err != nil {
		logger.Warn().Err(err).Str("path", envFile).Msg("failed to load .env file")
		return err
	}

	abs, _ := filepath.Abs(envFile)
	logger.Debug().Str("path", abs).Msg("loaded .env file")
	return nil
}
