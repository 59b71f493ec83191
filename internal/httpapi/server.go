// Package httpapi exposes the checker pipeline and the merchant directory
// over HTTP. The surface is intentionally small: health, one check
// endpoint, and read access to the directory.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/ucpkit/ucpcheck/internal/fetch"
	"github.com/ucpkit/ucpcheck/internal/simulate"
	"github.com/ucpkit/ucpcheck/internal/store"
)

// CheckRunner runs one simulation. Satisfied by *simulate.Runner.
type CheckRunner interface {
	Run(ctx context.Context, domain string, opts simulate.Options) (*simulate.Result, error)
}

// Server ties the runner and the optional directory store to the router.
// A nil store disables the directory endpoints and report persistence.
type Server struct {
	runner CheckRunner
	store  *store.Store
	logger *slog.Logger
}

// New builds a Server. st may be nil.
func New(runner CheckRunner, st *store.Store, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{runner: runner, store: st, logger: logger}
}

// Routes returns the chi router with all endpoints mounted.
func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(2 * time.Minute))

	r.Get("/healthz", s.handleHealthz)
	r.Post("/api/check", s.handleCheck)
	r.Get("/api/directory", s.handleDirectoryList)
	r.Get("/api/directory/{domain}", s.handleDirectoryShow)

	return r
}

type errorResponse struct {
	Error string `json:"error"`
}

// checkRequest is the body of POST /api/check.
type checkRequest struct {
	Domain  string           `json:"domain"`
	Options simulate.Options `json:"options"`
	Save    bool             `json:"save"`
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	if s.store != nil {
		if err := s.store.Ping(r.Context()); err != nil {
			s.writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "store unavailable"})
			return
		}
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": status})
}

func (s *Server) handleCheck(w http.ResponseWriter, r *http.Request) {
	var req checkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return
	}
	if req.Domain == "" {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "domain is required"})
		return
	}

	result, err := s.runner.Run(r.Context(), req.Domain, req.Options)
	if err != nil {
		if errors.Is(err, fetch.ErrInvalidDomain) {
			s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
			return
		}
		s.logger.Error("check failed", "domain", req.Domain, "err", err)
		s.writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
		return
	}

	if req.Save && s.store != nil {
		if _, err := s.store.SaveReport(r.Context(), result, result.ProfileHash); err != nil {
			// The check itself succeeded; log the persistence failure and
			// still return the result.
			s.logger.Error("saving report failed", "domain", result.Domain, "err", err)
		}
	}

	s.writeJSON(w, http.StatusOK, result)
}

// directoryListResponse is the body of GET /api/directory.
type directoryListResponse struct {
	Merchants []store.Merchant `json:"merchants"`
	Total     int              `json:"total"`
	Limit     int              `json:"limit"`
	Offset    int              `json:"offset"`
}

func (s *Server) handleDirectoryList(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		s.writeJSON(w, http.StatusNotFound, errorResponse{Error: "directory not configured"})
		return
	}

	q := r.URL.Query().Get("q")
	limit := queryInt(r, "limit", 50)
	offset := queryInt(r, "offset", 0)

	merchants, err := s.store.ListMerchants(r.Context(), q, limit, offset)
	if err != nil {
		s.logger.Error("listing merchants failed", "err", err)
		s.writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
		return
	}
	total, err := s.store.CountMerchants(r.Context(), q)
	if err != nil {
		s.logger.Error("counting merchants failed", "err", err)
		s.writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
		return
	}

	s.writeJSON(w, http.StatusOK, directoryListResponse{
		Merchants: merchants,
		Total:     total,
		Limit:     limit,
		Offset:    offset,
	})
}

func (s *Server) handleDirectoryShow(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		s.writeJSON(w, http.StatusNotFound, errorResponse{Error: "directory not configured"})
		return
	}

	domain, err := fetch.NormalizeDomain(chi.URLParam(r, "domain"))
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	rep, err := s.store.LatestReport(r.Context(), domain)
	if errors.Is(err, store.ErrNotFound) {
		s.writeJSON(w, http.StatusNotFound, errorResponse{Error: "no report for " + domain})
		return
	}
	if err != nil {
		s.logger.Error("reading report failed", "domain", domain, "err", err)
		s.writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
		return
	}

	s.writeJSON(w, http.StatusOK, rep)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("encoding response failed", "err", err)
	}
}

func queryInt(r *http.Request, name string, def int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return def
	}
	return n
}
