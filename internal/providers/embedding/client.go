package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/haeyeon/festabot/internal/config"
	"github.com/haeyeon/festabot/pkg/retry"
)

// ErrUnavailable reports that the embedding service exhausted its
// retries or returned malformed data. Callers degrade to retrieval
// strategies that do not need a query vector.
var ErrUnavailable = errors.New("embedding service unavailable")

// Purpose selects the underlying model. Query and document embeddings
// are calibrated separately and must not be mixed.
type Purpose string

const (
	PurposeQuery    Purpose = "query"
	PurposeDocument Purpose = "document"
)

// Client embeds text through the Solar embedding endpoint. It holds
// no mutable state and is safe for concurrent use.
type Client struct {
	httpClient    *http.Client
	baseURL       string
	apiKey        string
	queryModel    string
	documentModel string
	retrier       *retry.Retrier
}

func NewClient(cfg *config.UpstageConfig) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		baseURL:       cfg.BaseURL,
		apiKey:        cfg.APIKey,
		queryModel:    cfg.QueryModel,
		documentModel: cfg.DocumentModel,
		// Rate limits only: 3 attempts, 3s then 6s between them.
		retrier: retry.NewRetrier(&retry.Config{
			MaxRetries:    2,
			BackoffFactor: 2,
			InitialDelay:  3 * time.Second,
			MaxDelay:      10 * time.Second,
			Jitter:        200 * time.Millisecond,
		}),
	}
}

// Embed returns the fixed-dimension vector for text. Rate-limit
// responses are retried; every other failure maps to ErrUnavailable.
func (c *Client) Embed(ctx context.Context, text string, purpose Purpose) ([]float32, error) {
	model := c.queryModel
	if purpose == PurposeDocument {
		model = c.documentModel
	}

	var vector []float32
	err := c.retrier.Do(ctx, func() error {
		v, err := c.embedOnce(ctx, text, model, string(purpose))
		if err != nil {
			return err
		}
		vector = v
		return nil
	})
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %s", ErrUnavailable, err)
	}
	return vector, nil
}

func (c *Client) embedOnce(ctx context.Context, text, model, inputType string) ([]float32, error) {
	payload := map[string]any{
		"model":      model,
		"input":      []string{text},
		"input_type": inputType,
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, retry.Permanent(fmt.Errorf("marshal: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/embeddings", bytes.NewReader(data))
	if err != nil {
		return nil, retry.Permanent(fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, retry.Permanent(fmt.Errorf("request: %w", err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, retry.Permanent(fmt.Errorf("read body: %w", err))
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, fmt.Errorf("rate limited: %s", string(body))
	}
	if resp.StatusCode != http.StatusOK {
		return nil, retry.Permanent(fmt.Errorf("http %d: %s", resp.StatusCode, string(body)))
	}

	var result struct {
		Data []struct {
			Embedding []float32 `json:"embedding"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, retry.Permanent(fmt.Errorf("decode: %w", err))
	}
	if len(result.Data) == 0 || len(result.Data[0].Embedding) == 0 {
		return nil, retry.Permanent(fmt.Errorf("no embedding in response"))
	}
	return result.Data[0].Embedding, nil
}
