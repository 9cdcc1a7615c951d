package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/nidhogg/cogito/internal/cognition"
	"github.com/nidhogg/cogito/internal/episodic"
	"github.com/nidhogg/cogito/internal/task"
	"github.com/nidhogg/cogito/internal/text"
)

// Handler holds dependencies for HTTP handlers.
type Handler struct {
	subsystem *cognition.Subsystem
	registry  *prometheus.Registry
	logger    *zap.Logger
}

// NewHandler creates a new API handler. registry may be nil to skip the
// Prometheus endpoint.
func NewHandler(subsystem *cognition.Subsystem, registry *prometheus.Registry, logger *zap.Logger) *Handler {
	return &Handler{
		subsystem: subsystem,
		registry:  registry,
		logger:    logger,
	}
}

// Router builds the chi router with all routes.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", h.healthCheck)
		r.Get("/status", h.getStatus)
		r.Get("/metrics", h.getMetrics)

		r.Post("/tasks", h.submitTask)
		r.Post("/episodes/{id}/feedback", h.supplyFeedback)

		r.Get("/memory/working", h.queryWorkingMemory)
		r.Get("/memory/episodic", h.queryEpisodicMemory)
		r.Post("/memory/consolidate", h.consolidate)
		r.Post("/memory/rehearse", h.rehearse)
	})

	if h.registry != nil {
		r.Handle("/metrics", promhttp.HandlerFor(h.registry, promhttp.HandlerOpts{}))
	}

	return r
}

func (h *Handler) healthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) getStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.subsystem.GetStatus())
}

func (h *Handler) getMetrics(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.subsystem.GetMetrics())
}

func (h *Handler) submitTask(w http.ResponseWriter, r *http.Request) {
	var t task.Task
	if err := json.NewDecoder(r.Body).Decode(&t); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	result, err := h.subsystem.SubmitTask(r.Context(), &t)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, task.ErrInvalidTask) {
			status = http.StatusBadRequest
		}
		writeJSON(w, status, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, result)
}

type feedbackRequest struct {
	Success bool `json:"success"`
}

func (h *Handler) supplyFeedback(w http.ResponseWriter, r *http.Request) {
	episodeID := chi.URLParam(r, "id")
	var req feedbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	if err := h.subsystem.SupplyFeedback(episodeID, req.Success); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, task.ErrNotFound) {
			status = http.StatusNotFound
		}
		writeJSON(w, status, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "feedback recorded"})
}

func (h *Handler) queryWorkingMemory(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "q is required"})
		return
	}
	writeJSON(w, http.StatusOK, h.subsystem.QueryWorkingMemory(query))
}

// queryEpisodicMemory filters by any combination of q (keywords), after and
// before (RFC 3339), band (comma-separated), and repeated context=key:value
// pairs.
func (h *Handler) queryEpisodicMemory(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()
	q := episodic.Query{}

	if raw := params.Get("q"); raw != "" {
		q.Keywords = text.Keywords(raw)
	}
	if raw := params.Get("after"); raw != "" {
		ts, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "after: " + err.Error()})
			return
		}
		q.After = &ts
	}
	if raw := params.Get("before"); raw != "" {
		ts, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "before: " + err.Error()})
			return
		}
		q.Before = &ts
	}
	if raw := params.Get("band"); raw != "" {
		for _, band := range strings.Split(raw, ",") {
			q.Bands = append(q.Bands, episodic.ValenceBand(strings.TrimSpace(band)))
		}
	}
	for _, pair := range params["context"] {
		key, value, ok := strings.Cut(pair, ":")
		if !ok {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "context must be key:value"})
			return
		}
		if q.Context == nil {
			q.Context = make(map[string]string)
		}
		q.Context[key] = value
	}

	writeJSON(w, http.StatusOK, h.subsystem.QueryEpisodicMemory(q))
}

func (h *Handler) consolidate(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":       "consolidated",
		"strengthened": h.subsystem.Consolidate(),
	})
}

func (h *Handler) rehearse(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":     "rehearsed",
		"reinforced": h.subsystem.Rehearse(),
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
