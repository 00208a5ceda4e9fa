package config

import (
	"context"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/haeyeon/festabot/pkg/log"
)

type AuthConfig struct {
	JWTSecret string        `env:"JWT_SECRET,required,notEmpty"`
	TokenTTL  time.Duration `env:"TOKEN_TTL" envDefault:"24h"`
}

func NewAuthConfig(ctx context.Context) *AuthConfig {
	c := &AuthConfig{}
	if err := env.Parse(c); err != nil {
		log.FromCtx(ctx).Fatal().Err(err).Msg("failed to parse Auth config")
	}
	return c
}
