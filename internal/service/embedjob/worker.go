package embedjob

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/haeyeon/festabot/internal/core"
	"github.com/haeyeon/festabot/internal/providers/embedding"
	"github.com/haeyeon/festabot/pkg/log"
)

const (
	batchSize    = 50
	pollInterval = 15 * time.Second
	concurrency  = 4
)

type EventStore interface {
	FindUnembedded(ctx context.Context, limit int) ([]core.Event, error)
	SetEmbedding(ctx context.Context, id int64, embedding []float32) error
}

type Embedder interface {
	Embed(ctx context.Context, text string, purpose embedding.Purpose) ([]float32, error)
}

// Worker backfills vector embeddings for events the collector stored
// without one. Failures on individual events are logged and retried on
// the next poll; the worker itself never stops on them.
type Worker struct {
	store    EventStore
	embedder Embedder

	interval  time.Duration
	batchSize int
}

func NewWorker(store EventStore, embedder Embedder) *Worker {
	return &Worker{
		store:     store,
		embedder:  embedder,
		interval:  pollInterval,
		batchSize: batchSize,
	}
}

func (w *Worker) Start(ctx context.Context) error {
	logger := log.FromCtx(ctx).With().Str("component", "embed_worker").Logger()
	logger.Info().Msg("starting embedding worker")

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info().Msg("shutting down embedding worker")
			return nil
		case <-ticker.C:
			if err := w.processBatch(ctx); err != nil {
				logger.Error().Err(err).Msg("embedding batch failed")
			}
		}
	}
}

func (w *Worker) Shutdown(ctx context.Context) error {
	return nil
}

func (w *Worker) processBatch(ctx context.Context) error {
	logger := log.FromCtx(ctx)

	events, err := w.store.FindUnembedded(ctx, w.batchSize)
	if err != nil {
		return err
	}
	if len(events) == 0 {
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for _, ev := range events {
		ev := ev
		g.Go(func() error {
			vec, err := w.embedder.Embed(gctx, ev.EmbeddingText(), embedding.PurposeDocument)
			if err != nil {
				logger.Warn().Err(err).Int64("event_id", ev.ID).Msg("failed to embed event")
				return nil
			}
			if err := w.store.SetEmbedding(gctx, ev.ID, vec); err != nil {
				logger.Error().Err(err).Int64("event_id", ev.ID).Msg("failed to save embedding")
			}
			return nil
		})
	}
	return g.Wait()
}
