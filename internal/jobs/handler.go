package jobs

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/quietloop/orchestrator/internal/httpserver"
)

// Handler exposes a manual-tick admin endpoint that synchronously runs one
// enqueue pass followed by one dequeue+dispatch pass, useful for operators who prefer external cron over
// the runner's own ticker loops.
type Handler struct {
	logger *slog.Logger
	runner *Runner
}

// NewHandler creates a jobs Handler.
func NewHandler(logger *slog.Logger, runner *Runner) *Handler {
	return &Handler{logger: logger, runner: runner}
}

// Routes returns a chi.Router with the manual-tick route mounted.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.handleTick)
	return r
}

func (h *Handler) handleTick(w http.ResponseWriter, r *http.Request) {
	h.runner.EnqueueOnce(r.Context())
	h.runner.DispatchOnce(r.Context())
	httpserver.Respond(w, http.StatusOK, map[string]string{"status": "tick complete"})
}
