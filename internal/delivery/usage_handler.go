package delivery

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/Vovarama1992/go-utils/logger"
	"github.com/go-chi/chi/v5"
	"github.com/scribenote/scribenote/internal/models"
)

type UsageReader interface {
	UsageSummary(ctx context.Context, userID int64) (models.UsageSummary, error)
	CapSeconds() int
}

type UsageHandler struct {
	quota UsageReader
	log   *logger.ZapLogger
}

func NewUsageHandler(quota UsageReader, log *logger.ZapLogger) *UsageHandler {
	return &UsageHandler{
		quota: quota,
		log:   log,
	}
}

// GET /api/users/{id}/usage
func (h *UsageHandler) GetUsage(w http.ResponseWriter, r *http.Request) {
	idStr := chi.URLParam(r, "id")

	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		http.Error(w, "invalid user id", http.StatusBadRequest)
		return
	}

	sum, err := h.quota.UsageSummary(r.Context(), id)
	if err != nil {
		http.Error(w, "failed get usage: "+err.Error(), http.StatusInternalServerError)
		return
	}

	remaining := h.quota.CapSeconds() - sum.ConsumedToday
	if remaining < 0 {
		remaining = 0
	}

	h.log.Log(logger.LogEntry{
		Level:   "info",
		Message: "usage summary fetched",
		Fields: map[string]any{
			"userID":   id,
			"consumed": sum.ConsumedToday,
		},
	})

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"userId":        sum.UserID,
		"consumedToday": sum.ConsumedToday,
		"remaining":     remaining,
		"totalSeconds":  sum.TotalSeconds,
		"unlimited":     sum.IsPrivileged,
	})
}
