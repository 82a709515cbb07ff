package notify

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/quietloop/orchestrator/internal/audit"
	"github.com/quietloop/orchestrator/internal/httpserver"
)

// ChannelHandler provides HTTP handlers for the notification channel admin API.
type ChannelHandler struct {
	logger  *slog.Logger
	audit   *audit.Writer
	manager *ChannelManager
}

// NewChannelHandler creates a ChannelHandler.
func NewChannelHandler(logger *slog.Logger, audit *audit.Writer, manager *ChannelManager) *ChannelHandler {
	return &ChannelHandler{logger: logger, audit: audit, manager: manager}
}

// Routes returns a chi.Router with all channel routes mounted.
func (h *ChannelHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.handleCreate)
	r.Get("/", h.handleList)
	r.Get("/{id}", h.handleGet)
	r.Put("/{id}", h.handleUpdate)
	r.Delete("/{id}", h.handleDelete)
	return r
}

func (h *ChannelHandler) parseID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpserver.RespondError(w, http.StatusBadRequest, "bad_request", "invalid channel ID")
		return uuid.Nil, false
	}
	return id, true
}

func (h *ChannelHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req CreateChannelRequest
	if !httpserver.DecodeAndValidate(w, r, &req) {
		return
	}

	c, err := h.manager.Create(r.Context(), req)
	if err != nil {
		h.logger.Error("creating notification channel", "error", err)
		httpserver.RespondError(w, http.StatusInternalServerError, "internal_error", "failed to create channel")
		return
	}

	if h.audit != nil {
		detail, _ := json.Marshal(map[string]string{"name": c.Name, "type": string(c.Type)})
		h.audit.LogFromRequest(r, "create", "notification_channel", uuid.MustParse(c.ID), detail)
	}

	httpserver.Respond(w, http.StatusCreated, ToChannelResponse(c))
}

func (h *ChannelHandler) handleList(w http.ResponseWriter, r *http.Request) {
	channels, err := h.manager.List(r.Context())
	if err != nil {
		h.logger.Error("listing notification channels", "error", err)
		httpserver.RespondError(w, http.StatusInternalServerError, "internal_error", "failed to list channels")
		return
	}

	items := make([]ChannelResponse, 0, len(channels))
	for _, c := range channels {
		items = append(items, ToChannelResponse(c))
	}
	httpserver.Respond(w, http.StatusOK, map[string]any{
		"channels": items,
		"count":    len(items),
	})
}

func (h *ChannelHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}

	c, err := h.manager.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			httpserver.RespondError(w, http.StatusNotFound, "not_found", "channel not found")
			return
		}
		h.logger.Error("getting notification channel", "error", err, "id", id)
		httpserver.RespondError(w, http.StatusInternalServerError, "internal_error", "failed to get channel")
		return
	}

	httpserver.Respond(w, http.StatusOK, ToChannelResponse(c))
}

func (h *ChannelHandler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}

	var req UpdateChannelRequest
	if !httpserver.DecodeAndValidate(w, r, &req) {
		return
	}

	c, err := h.manager.Update(r.Context(), id, req)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			httpserver.RespondError(w, http.StatusNotFound, "not_found", "channel not found")
			return
		}
		h.logger.Error("updating notification channel", "error", err, "id", id)
		httpserver.RespondError(w, http.StatusInternalServerError, "internal_error", "failed to update channel")
		return
	}

	if h.audit != nil {
		h.audit.LogFromRequest(r, "update", "notification_channel", id, nil)
	}

	httpserver.Respond(w, http.StatusOK, ToChannelResponse(c))
}

func (h *ChannelHandler) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}

	if err := h.manager.Delete(r.Context(), id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			httpserver.RespondError(w, http.StatusNotFound, "not_found", "channel not found")
			return
		}
		h.logger.Error("deleting notification channel", "error", err, "id", id)
		httpserver.RespondError(w, http.StatusInternalServerError, "internal_error", "failed to delete channel")
		return
	}

	if h.audit != nil {
		h.audit.LogFromRequest(r, "delete", "notification_channel", id, nil)
	}

	httpserver.Respond(w, http.StatusNoContent, nil)
}
