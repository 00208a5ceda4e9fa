package config

import (
	"context"
	"path/filepath"

	"github.com/caarlos0/env/v11"
	"github.com/haeyeon/festabot/pkg/log"
)

type AppConfig struct {
	RuntimePath string `env:"FESTABOT_RUNTIME_PATH" envDefault:".festabot"`
	HTTPAddr    string `env:"FESTABOT_HTTP_ADDR" envDefault:":8000"`

	// Retrieval
	SimilarTopK   int `env:"SIMILAR_TOP_K" envDefault:"5"`
	DateFetchCap  int `env:"DATE_FETCH_CAP" envDefault:"50"`
	ContextTokens int `env:"CONTEXT_TOKEN_BUDGET" envDefault:"3000"`
}

func NewAppConfig(ctx context.Context) *AppConfig {
	c := &AppConfig{}
	if err := env.Parse(c); err != nil {
		log.FromCtx(ctx).Fatal().Err(err).Msg("failed to parse App config")
	}
	return c
}

func (c AppConfig) GetDatabasePath() string {
	return filepath.Join(c.RuntimePath, "festabot.db")
}
