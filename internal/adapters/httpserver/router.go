package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/bnema/fasttrack-cli/internal/application"
	"github.com/bnema/fasttrack-cli/internal/domain"
	"github.com/bnema/fasttrack-cli/internal/logfields"
)

type StatusSource interface {
	Status() application.FastStatusView
}

type Reconciler interface {
	Resync(ctx context.Context) application.ReconcileOutcome
}

type HydrationSource interface {
	Today(ctx context.Context) (domain.HydrationStatus, error)
}

// Deps are the read models the local API exposes. Nil members disable their
// routes.
type Deps struct {
	Status     StatusSource
	Reconciler Reconciler
	Hydration  HydrationSource
	Metrics    http.Handler
	Logger     *slog.Logger
}

type zonePayload struct {
	Name        string  `json:"name"`
	StartHour   float64 `json:"start_hour"`
	EndHour     float64 `json:"end_hour"`
	Color       string  `json:"color"`
	Description string  `json:"description"`
}

type hydrationPayload struct {
	Day        string  `json:"day"`
	ConsumedML int     `json:"consumed_ml"`
	GoalML     int     `json:"goal_ml"`
	Fraction   float64 `json:"fraction"`
}

func NewRouter(deps Deps) *mux.Router {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := mux.NewRouter()
	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = fmt.Fprintln(w, "ok")
	}).Methods(http.MethodGet)

	r.HandleFunc("/zones", func(w http.ResponseWriter, _ *http.Request) {
		zones := domain.Zones()
		out := make([]zonePayload, 0, len(zones))
		for _, zone := range zones {
			out = append(out, zonePayload(zone))
		}
		writeJSON(w, logger, http.StatusOK, out)
	}).Methods(http.MethodGet)

	if deps.Status != nil {
		r.HandleFunc("/status", func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, logger, http.StatusOK, deps.Status.Status().Payload())
		}).Methods(http.MethodGet)
	}

	if deps.Reconciler != nil {
		r.HandleFunc("/reconcile", func(w http.ResponseWriter, req *http.Request) {
			outcome := deps.Reconciler.Resync(req.Context())
			writeJSON(w, logger, http.StatusOK, map[string]string{"outcome": string(outcome)})
		}).Methods(http.MethodPost)
	}

	if deps.Hydration != nil {
		r.HandleFunc("/hydration", func(w http.ResponseWriter, req *http.Request) {
			status, err := deps.Hydration.Today(req.Context())
			if err != nil {
				logger.Warn("Read hydration status failed", logfields.Error(err))
				http.Error(w, "hydration status unavailable", http.StatusInternalServerError)
				return
			}
			writeJSON(w, logger, http.StatusOK, hydrationPayload{
				Day:        status.Day.Format(time.DateOnly),
				ConsumedML: status.ConsumedML,
				GoalML:     status.GoalML,
				Fraction:   status.Fraction(),
			})
		}).Methods(http.MethodGet)
	}

	if deps.Metrics != nil {
		r.Handle("/metrics", deps.Metrics).Methods(http.MethodGet)
	}

	return r
}

func writeJSON(w http.ResponseWriter, logger *slog.Logger, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.Debug("Write response failed", logfields.Error(err))
	}
}

// Server runs the router until Shutdown is called.
type Server struct {
	srv    *http.Server
	logger *slog.Logger
}

func NewServer(addr string, handler http.Handler, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		srv: &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadHeaderTimeout: 5 * time.Second,
		},
		logger: logger,
	}
}

// Start binds the listener synchronously so address errors surface to the
// caller, then serves in the background.
func (s *Server) Start() (net.Addr, error) {
	listener, err := net.Listen("tcp", s.srv.Addr)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", s.srv.Addr, err)
	}

	go func() {
		if err := s.srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("Status server stopped", logfields.Error(err))
		}
	}()

	s.logger.Info("Status server listening", logfields.ListenAddr(listener.Addr().String()))
	return listener.Addr(), nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown status server: %w", err)
	}
	return nil
}
