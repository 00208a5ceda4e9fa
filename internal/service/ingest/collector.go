package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/haeyeon/festabot/internal/config"
	"github.com/haeyeon/festabot/internal/core"
	"github.com/haeyeon/festabot/pkg/log"
)

const syncInterval = 24 * time.Hour

type EventStore interface {
	Upsert(ctx context.Context, ev core.Event) (bool, error)
}

// Collector periodically pulls the Seoul cultural event feed and
// stores records it has not seen before. Existing records are left
// untouched so their embeddings survive re-syncs.
type Collector struct {
	cfg    *config.SeoulConfig
	store  EventStore
	client *http.Client
}

func NewCollector(cfg *config.SeoulConfig, store EventStore) *Collector {
	return &Collector{
		cfg:    cfg,
		store:  store,
		client: &http.Client{Timeout: 60 * time.Second},
	}
}

func (c *Collector) Start(ctx context.Context) error {
	logger := log.FromCtx(ctx).With().Str("component", "event_collector").Logger()
	logger.Info().Msg("starting event collector")

	if err := c.sync(ctx); err != nil {
		logger.Error().Err(err).Msg("initial feed sync failed")
	}

	ticker := time.NewTicker(syncInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info().Msg("shutting down event collector")
			return nil
		case <-ticker.C:
			if err := c.sync(ctx); err != nil {
				logger.Error().Err(err).Msg("feed sync failed")
			}
		}
	}
}

func (c *Collector) Shutdown(ctx context.Context) error {
	return nil
}

// sync walks the feed page by page until a short page signals the end.
func (c *Collector) sync(ctx context.Context) error {
	logger := log.FromCtx(ctx)
	inserted, seen := 0, 0

	for start := 1; ; start += c.cfg.PageSize {
		rows, err := c.fetchPage(ctx, start, start+c.cfg.PageSize-1)
		if err != nil {
			return fmt.Errorf("fetch page at %d: %w", start, err)
		}

		for _, row := range rows {
			ev := rowToEvent(row)
			if ev.Title == "" {
				continue
			}
			ok, err := c.store.Upsert(ctx, ev)
			if err != nil {
				return fmt.Errorf("upsert %q: %w", ev.Title, err)
			}
			if ok {
				inserted++
			}
			seen++
		}

		if len(rows) < c.cfg.PageSize {
			break
		}
	}

	logger.Info().Int("seen", seen).Int("inserted", inserted).Msg("feed sync complete")
	return nil
}

type feedPage struct {
	TotalCount int `json:"list_total_count"`
	Result     struct {
		Code    string `json:"CODE"`
		Message string `json:"MESSAGE"`
	} `json:"RESULT"`
	Rows []eventRow `json:"row"`
}

func (c *Collector) fetchPage(ctx context.Context, start, end int) ([]eventRow, error) {
	url := fmt.Sprintf("%s/%s/json/%s/%d/%d/", c.cfg.BaseURL, c.cfg.APIKey, c.cfg.Service, start, end)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("feed returned status %d", resp.StatusCode)
	}

	// The payload is wrapped in a single key named after the service.
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("decode envelope: %w", err)
	}

	raw, ok := envelope[c.cfg.Service]
	if !ok {
		// Error responses put RESULT at the top level instead.
		var top struct {
			Result struct {
				Code    string `json:"CODE"`
				Message string `json:"MESSAGE"`
			} `json:"RESULT"`
		}
		if err := json.Unmarshal(body, &top); err == nil && top.Result.Code != "" {
			return nil, fmt.Errorf("feed error %s: %s", top.Result.Code, top.Result.Message)
		}
		return nil, fmt.Errorf("feed response missing %q", c.cfg.Service)
	}

	var page feedPage
	if err := json.Unmarshal(raw, &page); err != nil {
		return nil, fmt.Errorf("decode page: %w", err)
	}
	return page.Rows, nil
}
