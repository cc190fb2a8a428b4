package infra

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/scribenote/scribenote/internal/pipeline"
)

const whisperModel = "whisper-1"

// WhisperClient calls the hosted speech-recognition API.
type WhisperClient struct {
	BaseURL string

	apiKey string
	client *http.Client
}

func NewWhisperClient(apiKey string) *WhisperClient {
	return &WhisperClient{
		BaseURL: "https://api.openai.com",
		apiKey:  apiKey,
		client:  &http.Client{},
	}
}

func (c *WhisperClient) Transcribe(ctx context.Context, audioPath, languageHint string) (string, error) {
	f, err := os.Open(audioPath)
	if err != nil {
		return "", &pipeline.TranscriptionError{Kind: pipeline.KindInvalidAudio, Err: fmt.Errorf("open audio: %w", err)}
	}
	defer f.Close()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	part, err := mw.CreateFormFile("file", filepath.Base(audioPath))
	if err != nil {
		return "", fmt.Errorf("multipart file field: %w", err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return "", fmt.Errorf("copy audio into request: %w", err)
	}

	_ = mw.WriteField("model", whisperModel)
	_ = mw.WriteField("response_format", "text")
	if languageHint != "" {
		_ = mw.WriteField("language", languageHint)
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("finish multipart body: %w", err)
	}

	url := c.BaseURL + "/v1/audio/transcriptions"
	req, err := http.NewRequestWithContext(ctx, "POST", url, &body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.client.Do(req)
	if err != nil {
		return "", &pipeline.TranscriptionError{Kind: pipeline.KindServiceUnavailable, Err: fmt.Errorf("whisper request: %w", err)}
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return "", &pipeline.TranscriptionError{
			Kind: pipeline.KindFromStatus(resp.StatusCode),
			Err:  fmt.Errorf("whisper http %d: %s", resp.StatusCode, strings.TrimSpace(string(raw))),
		}
	}

	text := strings.TrimSpace(string(raw))
	if text == "" {
		return "", &pipeline.TranscriptionError{
			Kind: pipeline.KindInvalidAudio,
			Err:  fmt.Errorf("transcription returned empty result"),
		}
	}

	return text, nil
}
