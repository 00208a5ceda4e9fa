package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/haeyeon/festabot/internal/config"
)

// Upstage talks to the Solar chat completion endpoint through its
// OpenAI-compatible surface. No retry here: the chat pipeline treats
// any completion failure as a soft signal and degrades.
type Upstage struct {
	baseProvider
}

func NewUpstage(cfg *config.UpstageConfig) *Upstage {
	return &Upstage{
		baseProvider: newBaseProvider(cfg.BaseURL, cfg.APIKey, cfg.ChatModel),
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

func (u *Upstage) Complete(ctx context.Context, system, user string) (string, error) {
	payload := map[string]any{
		"model": u.model,
		"messages": []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
	}

	resp, err := u.doRequest(ctx, http.MethodPost, "/chat/completions", payload)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	return parseCompletion(resp)
}

func parseCompletion(resp *http.Response) (string, error) {
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("http %d: %s", resp.StatusCode, string(data))
	}

	var result struct {
		Choices []struct {
			Message chatMessage `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(data, &result); err != nil {
		return "", fmt.Errorf("decode: %w", err)
	}
	if len(result.Choices) == 0 {
		return "", fmt.Errorf("empty choices: %s", string(data))
	}
	return result.Choices[0].Message.Content, nil
}
