package handlers

import (
	"log/slog"
	"net/http"

	"sleeper-players-service/internal/http/requestutil"
	"sleeper-players-service/internal/logging"
)

// AdminHandler exposes admin-only cache endpoints.
type AdminHandler struct {
	registry Registry
	token    string
	logger   *slog.Logger
}

// NewAdminHandler constructs an AdminHandler. An empty token disables every admin route.
func NewAdminHandler(registry Registry, token string, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{
		registry: registry,
		token:    token,
		logger:   logger,
	}
}

// Refresh forces an upstream fetch for a sport and repopulates the cache tiers.
func (h *AdminHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost, h.logger) || !h.authorize(w, r) {
		return
	}
	svc, ok := lookupService(w, r, h.registry, h.logger)
	if !ok {
		return
	}

	logger := loggerFromContext(r, h.logger)
	if err := svc.Refresh(r.Context()); err != nil {
		logging.Warn(logger, "admin refresh failed",
			slog.String(logging.FieldPartition, svc.Partition()),
			slog.Any("err", err),
		)
		writeError(w, r, http.StatusBadGateway, "failed to refresh players", logger)
		return
	}

	status := svc.Status()
	writeJSON(w, http.StatusOK, map[string]any{
		"sport":  svc.Partition(),
		"count":  status.Count,
		"status": "ok",
	}, logger)
	logging.Info(logger, "admin refresh complete",
		slog.String(logging.FieldPartition, svc.Partition()),
		slog.Int(logging.FieldCount, status.Count),
	)
}

// Invalidate clears both cache tiers for a sport. The in-memory dictionary keeps serving.
func (h *AdminHandler) Invalidate(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodDelete, h.logger) || !h.authorize(w, r) {
		return
	}
	svc, ok := lookupService(w, r, h.registry, h.logger)
	if !ok {
		return
	}
	svc.Invalidate(r.Context())
	writeJSON(w, http.StatusOK, map[string]string{
		"sport":  svc.Partition(),
		"status": "invalidated",
	}, h.logger)
}

func (h *AdminHandler) authorize(w http.ResponseWriter, r *http.Request) bool {
	if requestutil.TokenMatches(h.token, requestutil.BearerToken(r)) {
		return true
	}
	logging.Warn(h.logger, "admin unauthorized",
		slog.String(logging.FieldPath, r.URL.Path),
		slog.String("client_ip", requestutil.ClientIP(r)),
	)
	writeError(w, r, http.StatusUnauthorized, "unauthorized", h.logger)
	return false
}
