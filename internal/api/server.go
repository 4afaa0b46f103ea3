// Package api exposes the forecast service over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/utakatalp/league-montecarlo/internal/cache"
	"github.com/utakatalp/league-montecarlo/internal/forecast"
	"github.com/utakatalp/league-montecarlo/internal/league"
	"github.com/utakatalp/league-montecarlo/internal/montecarlo"
	"github.com/utakatalp/league-montecarlo/internal/store"
)

// Simulator is the part of forecast.Service the handlers need.
type Simulator interface {
	Simulate(ctx context.Context, req forecast.Request) (*forecast.Forecast, error)
	Actual(ctx context.Context, from, to string) ([]league.Standing, error)
}

type Server struct {
	svc     Simulator
	cache   cache.ForecastCache
	log     logrus.FieldLogger
	router  *mux.Router
	timeout time.Duration
}

// NewServer wires routes. timeout bounds a single simulation request;
// zero leaves it to the client.
func NewServer(svc Simulator, c cache.ForecastCache, timeout time.Duration, log logrus.FieldLogger) *Server {
	if log == nil {
		log = logrus.StandardLogger()
	}
	s := &Server{svc: svc, cache: c, log: log, timeout: timeout}

	r := mux.NewRouter()
	r.HandleFunc("/health", s.GETHealth).Methods(http.MethodGet)
	r.HandleFunc("/standings", s.GETStandings).Methods(http.MethodGet)
	r.HandleFunc("/simulations", s.POSTSimulation).Methods(http.MethodPost)
	r.HandleFunc("/simulations/{id}", s.GETSimulation).Methods(http.MethodGet)
	r.Use(s.logRequests)
	s.router = r
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) GETHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GETStandings returns the actual standings for ?from=&to=.
func (s *Server) GETStandings(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	standings, err := s.svc.Actual(r.Context(), q.Get("from"), q.Get("to"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"from":      q.Get("from"),
		"to":        q.Get("to"),
		"standings": standings,
	})
}

func (s *Server) POSTSimulation(w http.ResponseWriter, r *http.Request) {
	var req forecast.Request
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	f, err := s.svc.Simulate(ctx, req)
	if err != nil && (f == nil || !errors.Is(err, montecarlo.ErrNotConverged)) {
		s.fail(w, r, err)
		return
	}
	if err := s.cache.Put(r.Context(), f); err != nil {
		s.log.WithError(err).WithField("run_id", f.ID).Warn("Failed to cache forecast")
	}

	w.Header().Set("Location", "/simulations/"+f.ID)
	writeJSON(w, http.StatusCreated, f)
}

func (s *Server) GETSimulation(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	f, err := s.cache.Get(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, f)
}

// statusFor maps service errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, montecarlo.ErrInvalidConfig),
		errors.Is(err, montecarlo.ErrTooFewTeams):
		return http.StatusBadRequest
	case errors.Is(err, cache.ErrCacheMiss),
		errors.Is(err, store.ErrNoGames):
		return http.StatusNotFound
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	entry := s.log.WithError(err).WithFields(logrus.Fields{
		"method": r.Method,
		"path":   r.URL.Path,
		"status": status,
	})
	if status >= http.StatusInternalServerError {
		entry.Error("Request failed")
	} else {
		entry.Debug("Request rejected")
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.log.WithFields(logrus.Fields{
			"method":   r.Method,
			"path":     r.URL.Path,
			"duration": time.Since(start),
		}).Debug("Handled request")
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
