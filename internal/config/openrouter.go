package config

import (
	"context"

	"github.com/caarlos0/env/v11"
	"github.com/sandevgo/lensbot/pkg/log"
)

type OpenRouterConfig struct {
	APIKey string `env:"OPENROUTER_API_KEY,required,notEmpty"`
	Model  string `env:"OPENROUTER_MODEL" envDefault:"anthropic/claude-3-5-sonnet"`

	// Model used for image description; must be vision-capable
	VisionModel string `env:"OPENROUTER_VISION_MODEL" envDefault:"qwen/qwen2.5-vl-32b-instruct:free"`
}

func NewOpenRouterConfig(ctx context.Context) *OpenRouterConfig {
	c := &OpenRouterConfig{}
	if err := env.Parse(c); err != nil {
		log.FromCtx(ctx).Fatal().Err(err).Msg("failed to parse OpenRouter config")
	}
	return c
}
