package infra

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/Vovarama1992/go-utils/logger"
	"github.com/gorilla/websocket"
	"github.com/scribenote/scribenote/internal/models"
)

// Gateway is the messaging-platform client. Inbound updates arrive over a
// websocket stream; outbound calls go through the platform's HTTP API.
type Gateway struct {
	token      string
	gatewayURL string
	apiBase    string

	client  *http.Client
	updates chan models.Update
	log     *logger.ZapLogger
}

func NewGateway(token, gatewayURL, apiBase string, zl *logger.ZapLogger) *Gateway {
	return &Gateway{
		token:      token,
		gatewayURL: gatewayURL,
		apiBase:    strings.TrimRight(apiBase, "/"),
		client:     &http.Client{Timeout: 60 * time.Second},
		updates:    make(chan models.Update, 100),
		log:        zl,
	}
}

func (g *Gateway) Updates() <-chan models.Update { return g.updates }

// Run maintains the update stream until ctx is cancelled, reconnecting with
// capped backoff.
func (g *Gateway) Run(ctx context.Context) {
	backoff := time.Second
	const maxBackoff = 30 * time.Second

	for {
		if ctx.Err() != nil {
			close(g.updates)
			return
		}

		err := g.readStream(ctx)
		if ctx.Err() != nil {
			close(g.updates)
			return
		}

		g.log.Log(logger.LogEntry{
			Level:   "warn",
			Message: "gateway stream lost, reconnecting",
			Error:   err,
			Fields:  map[string]any{"backoff": backoff.String()},
		})

		select {
		case <-ctx.Done():
			close(g.updates)
			return
		case <-time.After(backoff):
		}

		backoff *= 2
		if backoff > maxBackoff {
			backoff = maxBackoff
		}
	}
}

func (g *Gateway) readStream(ctx context.Context) error {
	url := g.gatewayURL + "?token=" + g.token

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return fmt.Errorf("dial gateway: %w", err)
	}
	defer conn.Close()

	go func() {
		<-ctx.Done()
		_ = conn.Close()
	}()

	g.log.Log(logger.LogEntry{Level: "info", Message: "gateway connected"})

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("read update frame: %w", err)
		}

		upd, err := decodeUpdate(raw)
		if err != nil {
			g.log.Log(logger.LogEntry{Level: "warn", Message: "bad update frame", Error: err})
			continue
		}
		if upd == nil {
			continue
		}

		select {
		case g.updates <- *upd:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// ---- inbound wire format ----

type wireVoice struct {
	UserID   int64  `json:"user_id"`
	ChatID   int64  `json:"chat_id"`
	FileID   string `json:"file_id"`
	Duration int    `json:"duration"`
	Language string `json:"language"`
}

type wireCallback struct {
	ID        string `json:"id"`
	UserID    int64  `json:"user_id"`
	ChatID    int64  `json:"chat_id"`
	MessageID int    `json:"message_id"`
	Data      string `json:"data"`
}

type wireCommand struct {
	UserID int64  `json:"user_id"`
	ChatID int64  `json:"chat_id"`
	Text   string `json:"text"`
}

type wireUpdate struct {
	UpdateID int64         `json:"update_id"`
	Voice    *wireVoice    `json:"voice"`
	Callback *wireCallback `json:"callback"`
	Command  *wireCommand  `json:"command"`
}

func decodeUpdate(raw []byte) (*models.Update, error) {
	var w wireUpdate
	if err := json.Unmarshal(raw, &w); err != nil {
		return nil, fmt.Errorf("unmarshal update: %w", err)
	}

	upd := models.Update{ID: w.UpdateID}

	switch {
	case w.Voice != nil:
		upd.Voice = &models.VoiceEvent{
			UserID:          w.Voice.UserID,
			ChatID:          w.Voice.ChatID,
			FileRef:         w.Voice.FileID,
			ReportedSeconds: w.Voice.Duration,
			LanguageHint:    w.Voice.Language,
		}
	case w.Callback != nil:
		jobID, mode, err := parseModeCallback(w.Callback.Data)
		if err != nil {
			return nil, err
		}
		upd.ModeSelect = &models.ModeSelectEvent{
			UserID:     w.Callback.UserID,
			ChatID:     w.Callback.ChatID,
			MessageID:  w.Callback.MessageID,
			CallbackID: w.Callback.ID,
			JobID:      jobID,
			Mode:       mode,
		}
	case w.Command != nil:
		name, args := splitCommand(w.Command.Text)
		if name == "" {
			return nil, nil
		}
		upd.Command = &models.CommandEvent{
			UserID: w.Command.UserID,
			ChatID: w.Command.ChatID,
			Name:   name,
			Args:   args,
		}
	default:
		return nil, nil
	}

	return &upd, nil
}

// parseModeCallback reverses the "mode:<jobID>:<mode>" tags attached by
// SendModeKeyboard.
func parseModeCallback(data string) (string, models.Mode, error) {
	parts := strings.SplitN(data, ":", 3)
	if len(parts) != 3 || parts[0] != "mode" {
		return "", "", fmt.Errorf("unexpected callback data %q", data)
	}
	mode := models.Mode(parts[2])
	if !mode.Valid() {
		return "", "", fmt.Errorf("unknown mode in callback data %q", data)
	}
	return parts[1], mode, nil
}

func splitCommand(text string) (string, []string) {
	fields := strings.Fields(text)
	if len(fields) == 0 || !strings.HasPrefix(fields[0], "/") {
		return "", nil
	}
	return strings.TrimPrefix(fields[0], "/"), fields[1:]
}

// ---- outbound HTTP API ----

type apiResponse struct {
	OK          bool            `json:"ok"`
	Result      json.RawMessage `json:"result"`
	Description string          `json:"description"`
}

func (g *Gateway) call(ctx context.Context, method string, payload any, out any) error {
	j, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s payload: %w", method, err)
	}

	url := fmt.Sprintf("%s/bot%s/%s", g.apiBase, g.token, method)
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(j))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s request: %w", method, err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)

	var parsed apiResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return fmt.Errorf("%s: decode response: %w", method, err)
	}
	if !parsed.OK {
		return fmt.Errorf("%s: platform error: %s", method, parsed.Description)
	}
	if out != nil && len(parsed.Result) > 0 {
		if err := json.Unmarshal(parsed.Result, out); err != nil {
			return fmt.Errorf("%s: decode result: %w", method, err)
		}
	}
	return nil
}

type sentMessage struct {
	MessageID int `json:"message_id"`
}

func (g *Gateway) SendMessage(ctx context.Context, chatID int64, text string) (int, error) {
	var sent sentMessage
	err := g.call(ctx, "sendMessage", map[string]any{
		"chat_id":    chatID,
		"text":       text,
		"parse_mode": "Markdown",
	}, &sent)
	if err != nil {
		return 0, err
	}
	return sent.MessageID, nil
}

func (g *Gateway) EditMessage(ctx context.Context, chatID int64, messageID int, text string) error {
	return g.call(ctx, "editMessageText", map[string]any{
		"chat_id":    chatID,
		"message_id": messageID,
		"text":       text,
		"parse_mode": "Markdown",
	}, nil)
}

func (g *Gateway) DeleteMessage(ctx context.Context, chatID int64, messageID int) error {
	return g.call(ctx, "deleteMessage", map[string]any{
		"chat_id":    chatID,
		"message_id": messageID,
	}, nil)
}

func (g *Gateway) SendModeKeyboard(ctx context.Context, chatID int64, text, jobID string) (int, error) {
	keyboard := map[string]any{
		"inline_keyboard": [][]map[string]string{{
			{"text": "✍️ Basic", "callback_data": "mode:" + jobID + ":" + string(models.ModeBasic)},
			{"text": "📝 Summarize", "callback_data": "mode:" + jobID + ":" + string(models.ModeSummarize)},
			{"text": "🌐 Translate", "callback_data": "mode:" + jobID + ":" + string(models.ModeTranslate)},
		}},
	}

	var sent sentMessage
	err := g.call(ctx, "sendMessage", map[string]any{
		"chat_id":      chatID,
		"text":         text,
		"reply_markup": keyboard,
	}, &sent)
	if err != nil {
		return 0, err
	}
	return sent.MessageID, nil
}

func (g *Gateway) AnswerCallback(ctx context.Context, callbackID, text string) error {
	return g.call(ctx, "answerCallbackQuery", map[string]any{
		"callback_query_id": callbackID,
		"text":              text,
	}, nil)
}

func (g *Gateway) DownloadFile(ctx context.Context, fileRef, dstPath string) error {
	url := fmt.Sprintf("%s/file/bot%s/%s", g.apiBase, g.token, fileRef)

	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return err
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return fmt.Errorf("download file: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download file: http %d", resp.StatusCode)
	}

	f, err := os.Create(dstPath)
	if err != nil {
		return fmt.Errorf("create artifact file: %w", err)
	}

	if _, err := io.Copy(f, resp.Body); err != nil {
		f.Close()
		_ = os.Remove(dstPath)
		return fmt.Errorf("write artifact file: %w", err)
	}
	return f.Close()
}
