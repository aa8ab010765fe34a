package srv

import (
	"context"

	"github.com/sandevgo/lensbot/pkg/log"
)

type Service interface {
	Start(ctx context.Context) error
	Shutdown(ctx context.Context) error
}

// StartServices starts each service and fails hard if any cannot come up.
// Services here are background dependencies (MCP connections, storage), not
// long-running loops.
func StartServices(ctx context.Context, services []Service) {
	logger := log.FromCtx(ctx)
	for _, service := range services {
		if err := service.Start(ctx); err != nil {
			logger.Fatal().Err(err).Msgf("%T failed to start", service)
		}
	}
}

// StopServices shuts services down in reverse start order.
func StopServices(ctx context.Context, services []Service) {
	for i := len(services) - 1; i >= 0; i-- {
		if err := services[i].Shutdown(ctx); err != nil {
			log.FromCtx(ctx).Error().Err(err).Msgf("%T failed to shutdown", services[i])
		}
	}
}
