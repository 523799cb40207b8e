package watch

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	ferrors "git.home.luguber.info/inful/updatesnap/internal/foundation/errors"
	"git.home.luguber.info/inful/updatesnap/internal/metrics"
	"git.home.luguber.info/inful/updatesnap/internal/report"
	"git.home.luguber.info/inful/updatesnap/internal/runner"
)

// Router returns the watch mode HTTP routes.
func (s *Service) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(30 * time.Second))
		r.Get("/health", s.handleHealth)
		r.Get("/status", s.handleStatus)
		r.Get("/report", s.handleReport)
		if s.opts.Registry != nil {
			r.Method(http.MethodGet, "/metrics", metrics.HTTPHandler(s.opts.Registry))
		}
	})
	// A check can outlast the read timeout; it follows the request context.
	r.Post("/check", s.handleCheck)
	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Service) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// lastSummary returns the stored summary, or an error fit for the client.
func (s *Service) lastSummary() (*runner.Summary, error) {
	sum, err := s.Last()
	if sum != nil {
		return sum, nil
	}
	if err != nil {
		return nil, err
	}
	return nil, ferrors.NotFoundError("no check has completed yet").Build()
}

func (s *Service) handleStatus(w http.ResponseWriter, r *http.Request) {
	sum, err := s.lastSummary()
	if err != nil {
		s.errs.WriteErrorResponse(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

func (s *Service) handleReport(w http.ResponseWriter, r *http.Request) {
	sum, err := s.lastSummary()
	if err != nil {
		s.errs.WriteErrorResponse(w, r, err)
		return
	}
	title := "Updates for " + sum.Project
	if r.URL.Query().Get("format") == "markdown" {
		w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
		_, _ = w.Write(report.Markdown(title, sum.Results))
		return
	}
	page, err := report.HTML(title, sum.Results)
	if err != nil {
		s.errs.WriteErrorResponse(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(page)
}

func (s *Service) handleCheck(w http.ResponseWriter, r *http.Request) {
	sum, err := s.RunOnce(r.Context(), TriggerHTTP)
	if err != nil {
		s.errs.WriteErrorResponse(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sum)
}
