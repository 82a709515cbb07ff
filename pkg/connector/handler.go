package connector

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

// Handler provides HTTP handlers for the connector admin API.
type Handler struct {
	logger  *slog.Logger
	audit   *audit.Writer
	service *Service
}

// NewHandler creates a connector Handler.
func NewHandler(logger *slog.Logger, audit *audit.Writer, service *Service) *Handler {
	return &Handler{logger: logger, audit: audit, service: service}
}

// Routes returns a chi.Router with all connector routes mounted.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.handleCreate)
	r.Get("/", h.handleList)
	r.Get("/{id}", h.handleGet)
	r.Put("/{id}", h.handleUpdate)
	r.Delete("/{id}", h.handleDelete)
	r.Post("/{id}/pause", h.handlePause)
	r.Post("/{id}/resume", h.handleResume)
	return r
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req CreateRequest
	if !httpserver.DecodeAndValidate(w, r, &req) {
		return
	}

	c, err := h.service.Create(r.Context(), req)
	if err != nil {
		h.logger.Error("creating connector", "error", err)
		httpserver.RespondError(w, http.StatusInternalServerError, "internal_error", "failed to create connector")
		return
	}

	if h.audit != nil {
		detail, _ := json.Marshal(map[string]string{"name": c.Name, "type": string(c.Type)})
		h.audit.LogFromRequest(r, "create", "connector", uuid.MustParse(c.ID), detail)
	}

	httpserver.Respond(w, http.StatusCreated, ToResponse(c))
}

// HandleListPublic is the same connector listing, exported for mounting
// under the scoped external API-key router.
func (h *Handler) HandleListPublic(w http.ResponseWriter, r *http.Request) {
	h.handleList(w, r)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	connectors, err := h.service.List(r.Context())
	if err != nil {
		h.logger.Error("listing connectors", "error", err)
		httpserver.RespondError(w, http.StatusInternalServerError, "internal_error", "failed to list connectors")
		return
	}

	items := make([]Response, 0, len(connectors))
	for _, c := range connectors {
		items = append(items, ToResponse(c))
	}
	httpserver.Respond(w, http.StatusOK, map[string]any{
		"connectors": items,
		"count":      len(items),
	})
}

func (h *Handler) parseID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpserver.RespondError(w, http.StatusBadRequest, "bad_request", "invalid connector ID")
		return uuid.Nil, false
	}
	return id, true
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}

	c, err := h.service.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			httpserver.RespondError(w, http.StatusNotFound, "not_found", "connector not found")
			return
		}
		h.logger.Error("getting connector", "error", err, "id", id)
		httpserver.RespondError(w, http.StatusInternalServerError, "internal_error", "failed to get connector")
		return
	}

	httpserver.Respond(w, http.StatusOK, ToResponse(c))
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}

	var req UpdateRequest
	if !httpserver.DecodeAndValidate(w, r, &req) {
		return
	}

	c, err := h.service.Update(r.Context(), id, req)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			httpserver.RespondError(w, http.StatusNotFound, "not_found", "connector not found")
			return
		}
		h.logger.Error("updating connector", "error", err, "id", id)
		httpserver.RespondError(w, http.StatusInternalServerError, "internal_error", "failed to update connector")
		return
	}

	if h.audit != nil {
		h.audit.LogFromRequest(r, "update", "connector", id, nil)
	}

	httpserver.Respond(w, http.StatusOK, ToResponse(c))
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			httpserver.RespondError(w, http.StatusNotFound, "not_found", "connector not found")
			return
		}
		h.logger.Error("deleting connector", "error", err, "id", id)
		httpserver.RespondError(w, http.StatusInternalServerError, "internal_error", "failed to delete connector")
		return
	}

	if h.audit != nil {
		h.audit.LogFromRequest(r, "delete", "connector", id, nil)
	}

	httpserver.Respond(w, http.StatusNoContent, nil)
}

func (h *Handler) handlePause(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}
	if err := h.service.PauseQueue(r.Context(), id); err != nil {
		h.logger.Error("pausing connector queue", "error", err, "id", id)
		httpserver.RespondError(w, http.StatusInternalServerError, "internal_error", "failed to pause connector queue")
		return
	}
	if h.audit != nil {
		h.audit.LogFromRequest(r, "pause_queue", "connector", id, nil)
	}
	httpserver.Respond(w, http.StatusOK, map[string]string{"status": "paused"})
}

func (h *Handler) handleResume(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}
	if err := h.service.ResumeQueue(r.Context(), id); err != nil {
		h.logger.Error("resuming connector queue", "error", err, "id", id)
		httpserver.RespondError(w, http.StatusInternalServerError, "internal_error", "failed to resume connector queue")
		return
	}
	if h.audit != nil {
		h.audit.LogFromRequest(r, "resume_queue", "connector", id, nil)
	}
	httpserver.Respond(w, http.StatusOK, map[string]string{"status": "resumed"})
}
