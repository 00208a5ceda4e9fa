package config

import (
	"context"

	"github.com/caarlos0/env/v11"
	"github.com/haeyeon/festabot/pkg/log"
)

// UpstageConfig covers both capabilities of the Solar API: chat
// completions and embeddings. Query and document embeddings use
// different models because the two are calibrated separately.
type UpstageConfig struct {
	APIKey  string `env:"SOLAR_API_KEY,required,notEmpty"`
	BaseURL string `env:"SOLAR_BASE_URL" envDefault:"https://api.upstage.ai/v1"`

	ChatModel     string `env:"SOLAR_LLM_MODEL" envDefault:"solar-1-mini-chat"`
	QueryModel    string `env:"SOLAR_EMBEDDING_QUERY" envDefault:"solar-embedding-1-large-query"`
	DocumentModel string `env:"SOLAR_EMBEDDING_PASSAGE" envDefault:"solar-embedding-1-large-passage"`
}

func NewUpstageConfig(ctx context.Context) *UpstageConfig {
	c := &UpstageConfig{}
	if err := env.Parse(c); err != nil {
		log.FromCtx(ctx).Fatal().Err(err).Msg("failed to parse Upstage config")
	}
	return c
}
