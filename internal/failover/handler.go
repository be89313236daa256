package failover

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"hls-failover/internal/platform/metrics"

	"github.com/go-chi/chi/v5"
)

// Handler exposes the controller over HTTP using go-chi.
type Handler struct {
	ctrl    *Controller
	history *MemorySink
	log     *slog.Logger
	metrics *metrics.Metrics
}

// NewHandler returns a Handler over the given controller. history may be nil
// to omit recent events from status responses; metrics may be nil to disable
// metric recording (e.g. in tests).
func NewHandler(ctrl *Controller, history *MemorySink, log *slog.Logger, m *metrics.Metrics) *Handler {
	return &Handler{ctrl: ctrl, history: history, log: log, metrics: m}
}

// Routes returns the player control route tree:
// POST /player/start, POST /player/stop, GET /player/status.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Route("/player", func(r chi.Router) {
		r.Post("/start", h.Start)
		r.Post("/stop", h.Stop)
		r.Get("/status", h.Status)
	})
	return r
}

// statusResponse is the GET /player/status payload.
type statusResponse struct {
	Session   Snapshot      `json:"session"`
	Endpoints []Endpoint    `json:"endpoints"`
	Events    []StatusEvent `json:"events,omitempty"`
}

// Start handles POST /player/start.
func (h *Handler) Start(w http.ResponseWriter, r *http.Request) {
	h.ctrl.Start()
	h.log.Info("start requested")
	if h.metrics != nil {
		h.metrics.IncStarts()
	}
	h.writeJSON(w, http.StatusAccepted, map[string]string{"status": "starting"})
}

// Stop handles POST /player/stop.
func (h *Handler) Stop(w http.ResponseWriter, r *http.Request) {
	h.ctrl.Stop()
	h.log.Info("stop requested")
	if h.metrics != nil {
		h.metrics.IncStops()
	}
	h.writeJSON(w, http.StatusAccepted, map[string]string{"status": "stopped"})
}

// Status handles GET /player/status.
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	resp := statusResponse{
		Session:   h.ctrl.Snapshot(),
		Endpoints: h.ctrl.Endpoints(),
	}
	if h.history != nil {
		resp.Events = h.history.Recent()
	}
	h.writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.log.Error("write response failed", slog.String("error", err.Error()))
	}
}
