package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	corslib "github.com/rs/cors"
	"github.com/sirupsen/logrus"

	"staff_record_notifier/internal/app"
	idb "staff_record_notifier/internal/infra/database"
)

// Service is the slice of the application the HTTP boundary exposes.
type Service interface {
	RunOnce(ctx context.Context) (*app.RunResult, error)
	Status(ctx context.Context) (*app.StatusReport, error)
}

type Server struct {
	service Service
	logger  *logrus.Logger
}

// NewRouter creates and configures the Chi router with middleware and the
// trigger-boundary routes.
func NewRouter(service Service, logger *logrus.Logger) *chi.Mux {
	s := &Server{service: service, logger: logger}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	c := corslib.New(corslib.Options{
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	})
	r.Use(c.Handler)

	r.Get("/health", s.handleHealth)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/status", s.handleStatus)
		r.Post("/run", s.handleRun)
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	report, err := s.service.Status(r.Context())
	if err != nil {
		if errors.Is(err, idb.ErrNoActivePeriod) {
			respondError(w, http.StatusNotFound, "no active reporting period")
			return
		}
		s.logger.WithError(err).Error("Status request failed")
		respondError(w, http.StatusInternalServerError, "status unavailable")
		return
	}
	respondJSON(w, http.StatusOK, report)
}

// handleRun runs the engine synchronously within the request. Aborted runs
// still return the partial result so callers see the metrics gathered
// before the abort.
func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	res, err := s.service.RunOnce(r.Context())
	if err != nil {
		s.logger.WithError(err).Error("Dispatch run failed")
		if res != nil {
			respondJSON(w, http.StatusInternalServerError, res)
			return
		}
		respondError(w, http.StatusInternalServerError, "run failed")
		return
	}
	respondJSON(w, http.StatusOK, res)
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, map[string]string{"error": msg})
}
