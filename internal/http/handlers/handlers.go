package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	appplayers "sleeper-players-service/internal/app/players"
	"sleeper-players-service/internal/domain/players"
	"sleeper-players-service/internal/logging"
)

// Registry resolves the per-sport player services.
type Registry interface {
	Service(sport string) (*appplayers.Service, bool)
	Sports() []string
	Statuses() map[string]appplayers.Status
	Ready() bool
	NotReady() []string
}

// Handler wires HTTP routes to the player services.
type Handler struct {
	registry Registry
	logger   *slog.Logger
}

// NewHandler constructs a Handler.
func NewHandler(registry Registry, logger *slog.Logger) *Handler {
	return &Handler{
		registry: registry,
		logger:   logger,
	}
}

type playersResponse struct {
	Sport    string `json:"sport"`
	Position string `json:"position,omitempty"`
	Count    int    `json:"count"`
	Players  any    `json:"players"`
}

type nameResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type positionResponse struct {
	ID       string `json:"id"`
	Position string `json:"position"`
}

// Health reports the service health.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet, h.logger) {
		return
	}
	if err := r.Context().Err(); err != nil {
		writeError(w, r, http.StatusServiceUnavailable, "shutting down", h.logger)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"}, h.logger)
}

// Ready reports readiness for traffic: every configured sport holds a dictionary.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet, h.logger) {
		return
	}
	if h.registry == nil {
		writeError(w, r, http.StatusServiceUnavailable, "not ready", h.logger)
		return
	}
	if h.registry.Ready() {
		writeJSON(w, http.StatusOK, map[string]any{
			"status": "ready",
			"sports": h.registry.Statuses(),
		}, h.logger)
		return
	}
	msg := "not ready"
	if pending := h.registry.NotReady(); len(pending) > 0 {
		msg = "not ready: " + strings.Join(pending, ",")
	}
	writeError(w, r, http.StatusServiceUnavailable, msg, h.logger)
}

// Players returns the whole dictionary, or the players at ?position= ordered by name.
func (h *Handler) Players(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet, h.logger) {
		return
	}
	svc, ok := h.service(w, r)
	if !ok || !h.ensureLoaded(w, r, svc) {
		return
	}

	resp := playersResponse{Sport: svc.Partition()}
	if raw := strings.TrimSpace(r.URL.Query().Get("position")); raw != "" {
		list := svc.PlayersByPosition(raw)
		resp.Position = players.NormalizePosition(raw)
		resp.Count = len(list)
		resp.Players = list
	} else {
		dict := svc.Players()
		if dict == nil {
			dict = players.Dictionary{}
		}
		resp.Count = len(dict)
		resp.Players = dict
	}

	logging.Info(loggerFromContext(r, h.logger), "served players",
		slog.String(logging.FieldPartition, svc.Partition()),
		slog.Int(logging.FieldCount, resp.Count),
	)
	writeJSON(w, http.StatusOK, resp, h.logger)
}

// Status returns the orchestrator state for a sport without triggering a load.
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet, h.logger) {
		return
	}
	svc, ok := h.service(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, svc.Status(), h.logger)
}

// Player returns one player record.
func (h *Handler) Player(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet, h.logger) {
		return
	}
	svc, ok := h.service(w, r)
	if !ok || !h.ensureLoaded(w, r, svc) {
		return
	}
	id, ok := playerID(w, r, h.logger)
	if !ok {
		return
	}
	p, found := svc.Player(id)
	if !found {
		writeError(w, r, http.StatusNotFound, "player not found", h.logger)
		return
	}
	writeJSON(w, http.StatusOK, p, h.logger)
}

// PlayerName always answers, falling back to the placeholder name.
func (h *Handler) PlayerName(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet, h.logger) {
		return
	}
	svc, ok := h.service(w, r)
	if !ok {
		return
	}
	id, ok := playerID(w, r, h.logger)
	if !ok {
		return
	}
	h.tryLoad(r, svc)
	writeJSON(w, http.StatusOK, nameResponse{ID: id, Name: svc.PlayerName(id)}, h.logger)
}

// PlayerPosition answers with the normalized position, empty when unknown.
func (h *Handler) PlayerPosition(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet, h.logger) {
		return
	}
	svc, ok := h.service(w, r)
	if !ok {
		return
	}
	id, ok := playerID(w, r, h.logger)
	if !ok {
		return
	}
	h.tryLoad(r, svc)
	writeJSON(w, http.StatusOK, positionResponse{ID: id, Position: svc.PlayerPosition(id)}, h.logger)
}

func (h *Handler) service(w http.ResponseWriter, r *http.Request) (*appplayers.Service, bool) {
	return lookupService(w, r, h.registry, h.logger)
}

func lookupService(w http.ResponseWriter, r *http.Request, registry Registry, logger *slog.Logger) (*appplayers.Service, bool) {
	if registry != nil {
		if svc, ok := registry.Service(mux.Vars(r)["sport"]); ok {
			return svc, true
		}
	}
	writeError(w, r, http.StatusNotFound, "unknown sport", logger)
	return nil, false
}

// ensureLoaded runs a read-through load when nothing is held yet.
func (h *Handler) ensureLoaded(w http.ResponseWriter, r *http.Request, svc *appplayers.Service) bool {
	if svc.IsReady() {
		return true
	}
	err := svc.Load(r.Context())
	if err == nil && svc.IsReady() {
		return true
	}
	logger := loggerFromContext(r, h.logger)
	logging.Warn(logger, "player dictionary unavailable",
		slog.String(logging.FieldPartition, svc.Partition()),
		"error", err,
	)
	msg := "player dictionary unavailable"
	if errors.Is(err, appplayers.ErrNoData) {
		msg = err.Error()
	}
	writeError(w, r, http.StatusServiceUnavailable, msg, h.logger)
	return false
}

func (h *Handler) tryLoad(r *http.Request, svc *appplayers.Service) {
	if svc.IsReady() {
		return
	}
	if err := svc.Load(r.Context()); err != nil {
		logging.Warn(loggerFromContext(r, h.logger), "lookup served without dictionary",
			slog.String(logging.FieldPartition, svc.Partition()),
			"error", err,
		)
	}
}

func playerID(w http.ResponseWriter, r *http.Request, logger *slog.Logger) (string, bool) {
	id := strings.TrimSpace(mux.Vars(r)["id"])
	if id == "" || strings.ContainsAny(id, " \t/") {
		writeError(w, r, http.StatusBadRequest, "invalid player id", logger)
		return "", false
	}
	return id, true
}
