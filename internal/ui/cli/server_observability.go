package cli

import (
	"context"
	"encoding/json"
	"log/slog"
	"net"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mnott/pynalyze/internal/core/app"
	"github.com/mnott/pynalyze/internal/shared/version"
)

// HealthStatus is the /health response body.
type HealthStatus struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	History string `json:"history"`
}

// ObservabilityServer exposes prometheus metrics and a health probe while
// watch mode runs.
type ObservabilityServer struct {
	addr   string
	app    *app.App
	server *http.Server
	ln     net.Listener
}

func NewObservabilityServer(addr string, a *app.App) *ObservabilityServer {
	return &ObservabilityServer{
		addr: addr,
		app:  a,
	}
}

// Addr returns the bound address once Start has succeeded.
func (s *ObservabilityServer) Addr() string {
	if s.ln != nil {
		return s.ln.Addr().String()
	}
	return s.addr
}

func (s *ObservabilityServer) Start(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		status := s.check()
		w.Header().Set("Content-Type", "application/json")
		if status.Status != "up" {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		json.NewEncoder(w).Encode(status)
	})

	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	s.ln = ln
	s.server = &http.Server{
		Handler:     mux,
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	slog.Info("observability server starting", "addr", s.Addr())

	go func() {
		if err := s.server.Serve(ln); err != nil && err != http.ErrServerClosed {
			slog.Error("observability server failed", "error", err)
		}
	}()

	return nil
}

func (s *ObservabilityServer) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

func (s *ObservabilityServer) check() HealthStatus {
	status := HealthStatus{Status: "up", Version: version.Version, History: "disabled"}
	store := s.app.History()
	if store == nil {
		return status
	}
	if _, err := store.RecentRuns("", 1); err != nil {
		slog.Warn("history health check failed", "error", err)
		status.Status = "degraded"
		status.History = "error"
		return status
	}
	status.History = "ok"
	return status
}
