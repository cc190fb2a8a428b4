package delivery

import (
	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, hUsage *UsageHandler) {

	// read-only view for external tooling
	r.Get("/api/users/{id}/usage", hUsage.GetUsage)
}
