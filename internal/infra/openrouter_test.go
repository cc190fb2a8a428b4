package infra

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/scribenote/scribenote/internal/models"
	"github.com/scribenote/scribenote/internal/pipeline"
	"github.com/stretchr/testify/require"
)

func newOpenRouterForTest(t *testing.T, handler http.HandlerFunc) *OpenRouterClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c := NewOpenRouterClient("test-key")
	c.BaseURL = srv.URL
	return c
}

func completionResponse(content string) string {
	return `{"choices":[{"message":{"role":"assistant","content":"` + content + `"}}]}`
}

func TestStructurePicksModelTierPerMode(t *testing.T) {
	t.Parallel()

	cases := []struct {
		mode      models.Mode
		wantModel string
	}{
		{models.ModeBasic, fastModel},
		{models.ModeTranslate, fastModel},
		{models.ModeSummarize, smartModel},
	}

	for _, tc := range cases {
		var got orRequest
		c := newOpenRouterForTest(t, func(w http.ResponseWriter, r *http.Request) {
			require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
			w.Write([]byte(completionResponse("done")))
		})

		text, err := c.Structure(context.Background(), "some transcript", tc.mode)
		require.NoError(t, err, "mode=%s", tc.mode)
		require.Equal(t, "done", text)
		require.Equal(t, tc.wantModel, got.Model, "mode=%s", tc.mode)

		require.Len(t, got.Messages, 2)
		require.Equal(t, "system", got.Messages[0].Role)
		require.Contains(t, got.Messages[1].Content, "some transcript")
	}
}

func TestStructureClassifiesHTTPStatuses(t *testing.T) {
	t.Parallel()

	cases := []struct {
		status int
		want   pipeline.Kind
	}{
		{http.StatusTooManyRequests, pipeline.KindRateLimited},
		{http.StatusBadGateway, pipeline.KindServiceUnavailable},
	}

	for _, tc := range cases {
		c := newOpenRouterForTest(t, func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "nope", tc.status)
		})

		_, err := c.Structure(context.Background(), "text", models.ModeBasic)
		var serr *pipeline.StructuringError
		require.True(t, errors.As(err, &serr), "status=%d", tc.status)
		require.Equal(t, tc.want, serr.Kind, "status=%d", tc.status)
	}
}

func TestStructureEmptyChoicesIsUnknown(t *testing.T) {
	t.Parallel()

	c := newOpenRouterForTest(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices":[]}`))
	})

	_, err := c.Structure(context.Background(), "text", models.ModeBasic)
	var serr *pipeline.StructuringError
	require.True(t, errors.As(err, &serr))
	require.Equal(t, pipeline.KindUnknown, serr.Kind)
}

func TestStructureRejectsUnknownMode(t *testing.T) {
	t.Parallel()

	c := NewOpenRouterClient("test-key")
	_, err := c.Structure(context.Background(), "text", models.Mode("haiku"))
	require.Error(t, err)
}

func TestPromptTemplatesRenderTranscript(t *testing.T) {
	t.Parallel()

	for _, mode := range []models.Mode{models.ModeBasic, models.ModeSummarize, models.ModeTranslate} {
		spec, err := promptFor(mode)
		require.NoError(t, err)

		rendered := spec.render("  the transcript body  ")
		require.Contains(t, rendered, "the transcript body")
		require.NotContains(t, rendered, "%s")
	}
}
