package config

import (
	"context"

	"github.com/caarlos0/env/v11"
	"github.com/haeyeon/festabot/pkg/log"
)

// SeoulConfig points at the Seoul open-data cultural event feed the
// ingestion job polls.
type SeoulConfig struct {
	BaseURL  string `env:"SEOUL_EVENT_BASE_URL,required,notEmpty"`
	APIKey   string `env:"SEOUL_EVENT_API_KEY,required,notEmpty"`
	Service  string `env:"SEOUL_EVENT_SERVICE" envDefault:"culturalEventInfo"`
	PageSize int    `env:"SEOUL_EVENT_PAGE_SIZE" envDefault:"1000"`
}

func NewSeoulConfig(ctx context.Context) *SeoulConfig {
	c := &SeoulConfig{}
	if err := env.Parse(c); err != nil {
		log.FromCtx(ctx).Fatal().Err(err).Msg("failed to parse Seoul config")
	}
	return c
}
