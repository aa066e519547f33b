package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/jwebster45206/q3a-report/internal/storage"
)

type HealthResponse struct {
	Status     string            `json:"status"`
	Timestamp  time.Time         `json:"timestamp"`
	Service    string            `json:"service"`
	RunID      string            `json:"run_id"`
	Components map[string]string `json:"components"`
}

type HealthHandler struct {
	store  storage.ReportStore
	runID  uuid.UUID
	logger *slog.Logger
}

// NewHealthHandler reports on the run and its store. store may be nil when
// reports are only printed.
func NewHealthHandler(store storage.ReportStore, runID uuid.UUID, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{
		store:  store,
		runID:  runID,
		logger: logger,
	}
}

func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	h.logger.Debug("Health check requested",
		"method", r.Method,
		"path", r.URL.Path,
		"remote_addr", r.RemoteAddr)

	components := make(map[string]string)
	overallStatus := "healthy"

	if h.store == nil {
		components["store"] = "disabled"
	} else {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := h.store.Ping(ctx); err != nil {
			h.logger.Warn("Store health check failed", "error", err)
			components["store"] = "unhealthy"
			overallStatus = "degraded"
		} else {
			components["store"] = "healthy"
		}
	}

	response := HealthResponse{
		Status:     overallStatus,
		Timestamp:  time.Now(),
		Service:    "q3a-report",
		RunID:      h.runID.String(),
		Components: components,
	}

	statusCode := http.StatusOK
	if overallStatus != "healthy" {
		statusCode = http.StatusServiceUnavailable
	}

	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(response); err != nil {
		h.logger.Error("Error encoding health response",
			"error", err,
			"method", r.Method,
			"path", r.URL.Path)
	}
}
