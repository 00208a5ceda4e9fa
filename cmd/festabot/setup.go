package main

import (
	"context"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"

	"github.com/haeyeon/festabot/internal/config"
	"github.com/haeyeon/festabot/internal/providers/embedding"
	"github.com/haeyeon/festabot/internal/providers/llm"
	"github.com/haeyeon/festabot/internal/service/auth"
	"github.com/haeyeon/festabot/internal/service/chat"
	"github.com/haeyeon/festabot/internal/service/embedjob"
	"github.com/haeyeon/festabot/internal/service/ingest"
	"github.com/haeyeon/festabot/internal/storage/sqlite"
	"github.com/haeyeon/festabot/internal/transport/httpapi"
	"github.com/haeyeon/festabot/pkg/log"
	"github.com/haeyeon/festabot/pkg/srv"
)

func NewServices(ctx context.Context) []srv.Service {
	logger := log.FromCtx(ctx)
	services := make([]srv.Service, 0)

	// init env
	if err := initEnv(ctx); err != nil {
		logger.Fatal().Err(err).Msg("failed to init env")
	}

	// 1. Configuration
	appCfg := config.NewAppConfig(ctx)
	upstageCfg := config.NewUpstageConfig(ctx)
	seoulCfg := config.NewSeoulConfig(ctx)
	authCfg := config.NewAuthConfig(ctx)

	// 2. Storage
	if err := os.MkdirAll(appCfg.RuntimePath, 0o755); err != nil {
		logger.Fatal().Err(err).Msg("failed to create runtime dir")
	}
	db, err := sqlite.NewDB(ctx, appCfg.GetDatabasePath())
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize storage")
	}
	services = append(services, srv.NewCleanup(db.Close))

	convsRepo := sqlite.NewConversationsRepo(db)
	eventsRepo := sqlite.NewEventsRepo(db)
	usersRepo := sqlite.NewUsersRepo(db)

	// 3. Providers
	llmProvider := llm.NewUpstage(upstageCfg)
	embedder := embedding.NewClient(upstageCfg)

	// 4. Chat pipeline
	pipeline := chat.NewPipeline(appCfg, llmProvider, embedder, convsRepo, eventsRepo)

	// 5. Background workers
	services = append(services, ingest.NewCollector(seoulCfg, eventsRepo))
	services = append(services, embedjob.NewWorker(eventsRepo, embedder))

	// 6. Auth and transport
	authSvc := auth.NewService(authCfg, usersRepo)
	services = append(services, httpapi.NewServer(ctx, appCfg.HTTPAddr, pipeline, authSvc, eventsRepo, usersRepo))

	return services
}

func initEnv(ctx context.Context) error {
	logger := log.FromCtx(ctx)

	runtimePath := os.Getenv("FESTABOT_RUNTIME_PATH")
	if runtimePath == "" {
		runtimePath = ".festabot"
	}
	envFile := filepath.Join(runtimePath, ".env")

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

	logger.Debug().Str("path", envFile).Msg("loaded .env file")
	return nil
}
