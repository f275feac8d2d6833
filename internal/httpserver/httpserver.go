// Package httpserver runs the two listeners pageshelf exposes: the public
// page-serving surface and a separate admin surface carrying metrics and a
// health check. Both ports are pre-bound before either server starts, so a
// bind failure on either surfaces immediately instead of after a partial
// startup.
package httpserver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server owns the page and admin HTTP listeners.
type Server struct {
	pageSrv  *http.Server
	adminSrv *http.Server
	logger   *slog.Logger
}

// New builds a Server. pageHandler answers every page request; registry
// backs the admin surface's /metrics endpoint.
func New(pageHandler http.Handler, registry *prometheus.Registry, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	adminMux := http.NewServeMux()
	adminMux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	adminMux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	return &Server{
		pageSrv:  &http.Server{Handler: pageHandler},
		adminSrv: &http.Server{Handler: adminMux},
		logger:   logger,
	}
}

// Start pre-binds both listeners, then serves each in its own goroutine. A
// bind failure on either port aborts startup and closes whichever listener
// did succeed.
func (s *Server) Start(ctx context.Context, pagePort, adminPort int) error {
	lc := net.ListenConfig{}

	pageLn, pageErr := lc.Listen(ctx, "tcp", fmt.Sprintf(":%d", pagePort))
	adminLn, adminErr := lc.Listen(ctx, "tcp", fmt.Sprintf(":%d", adminPort))

	if pageErr != nil || adminErr != nil {
		if pageLn != nil {
			_ = pageLn.Close()
		}
		if adminLn != nil {
			_ = adminLn.Close()
		}
		return fmt.Errorf("httpserver: bind failed: %w", errors.Join(pageErr, adminErr))
	}

	go s.serve("page", s.pageSrv, pageLn)
	go s.serve("admin", s.adminSrv, adminLn)

	s.logger.Info("http servers started", "page_port", pagePort, "admin_port", adminPort)
	return nil
}

func (s *Server) serve(kind string, srv *http.Server, ln net.Listener) {
	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		s.logger.Error("http server error", "server", kind, "error", err)
	}
}

// Stop gracefully shuts down both listeners.
func (s *Server) Stop(ctx context.Context) error {
	pageErr := s.pageSrv.Shutdown(ctx)
	adminErr := s.adminSrv.Shutdown(ctx)
	return errors.Join(pageErr, adminErr)
}
