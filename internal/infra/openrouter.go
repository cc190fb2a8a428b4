package infra

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/scribenote/scribenote/internal/models"
	"github.com/scribenote/scribenote/internal/pipeline"
)

type OpenRouterClient struct {
	BaseURL string

	apiKey string
	client *http.Client
}

func NewOpenRouterClient(apiKey string) *OpenRouterClient {
	return &OpenRouterClient{
		BaseURL: "https://openrouter.ai",
		apiKey:  apiKey,
		client:  &http.Client{},
	}
}

// sanitize: strip invalid UTF-8 before it reaches the JSON encoder
func sanitize(s string) string {
	return strings.ToValidUTF8(s, "")
}

type orMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type orRequest struct {
	Model    string      `json:"model"`
	Messages []orMessage `json:"messages"`
}

type orResponse struct {
	Choices []struct {
		Message orMessage `json:"message"`
	} `json:"choices"`
}

func (c *OpenRouterClient) Structure(ctx context.Context, transcript string, mode models.Mode) (string, error) {
	spec, err := promptFor(mode)
	if err != nil {
		return "", &pipeline.StructuringError{Kind: pipeline.KindUnknown, Err: err}
	}

	body := orRequest{
		Model: spec.model,
		Messages: []orMessage{
			{Role: "system", Content: spec.system},
			{Role: "user", Content: spec.render(sanitize(transcript))},
		},
	}

	j, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("marshal structuring request: %w", err)
	}

	url := c.BaseURL + "/api/v1/chat/completions"
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(j))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("X-Title", "scribenote")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", &pipeline.StructuringError{Kind: pipeline.KindServiceUnavailable, Err: fmt.Errorf("openrouter request: %w", err)}
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return "", &pipeline.StructuringError{
			Kind: pipeline.KindFromStatus(resp.StatusCode),
			Err:  fmt.Errorf("openrouter http %d: %s", resp.StatusCode, strings.TrimSpace(string(raw))),
		}
	}

	var out orResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", &pipeline.StructuringError{Kind: pipeline.KindUnknown, Err: fmt.Errorf("decode openrouter response: %w", err)}
	}

	if len(out.Choices) == 0 {
		return "", &pipeline.StructuringError{Kind: pipeline.KindUnknown, Err: fmt.Errorf("response contained no choices")}
	}

	text := strings.TrimSpace(out.Choices[0].Message.Content)
	if text == "" {
		return "", &pipeline.StructuringError{Kind: pipeline.KindUnknown, Err: fmt.Errorf("response contained empty text")}
	}

	return text, nil
}
