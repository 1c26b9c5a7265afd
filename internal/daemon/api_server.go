package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"voxpost/internal/api"
	"voxpost/internal/logging"
)

type apiServer struct {
	logger   *slog.Logger
	listener net.Listener
	server   *http.Server
}

// startAPI serves the HTTP API on cfg.API.Bind; an empty bind disables it.
func (d *Daemon) startAPI(ctx context.Context) error {
	bind := strings.TrimSpace(d.cfg.API.Bind)
	if bind == "" {
		return nil
	}
	router, err := api.NewRouter(api.Dependencies{
		Articles:     d.articles,
		Jobs:         d.store,
		Enqueuer:     d.Enqueuer(),
		Workflow:     d.workflow,
		Notify:       d.workflow.Notify,
		Logger:       d.root,
		Token:        d.cfg.API.Token,
		Transport:    d.cfg.Queue.Transport,
		StoreBackend: d.cfg.Store.Backend,
		Version:      d.version,
	})
	if err != nil {
		return fmt.Errorf("build api router: %w", err)
	}

	listener, err := net.Listen("tcp", bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	srv := &apiServer{
		logger:   d.logger.With(logging.String(logging.FieldComponent, "api-server")),
		listener: listener,
		server: &http.Server{
			Handler:           router,
			ReadHeaderTimeout: 5 * time.Second,
			// Audio arrives inline as a data URI, so bodies can be large.
			ReadTimeout:  60 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
			BaseContext:  func(net.Listener) context.Context { return ctx },
		},
	}
	go func() {
		if err := srv.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			srv.logger.Error("api server error", logging.Error(err))
		}
	}()

	d.mu.Lock()
	d.api = srv
	d.mu.Unlock()
	srv.logger.Info("api server listening", logging.String("address", listener.Addr().String()))
	return nil
}

func (s *apiServer) stop() {
	if s == nil {
		return
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = s.server.Shutdown(shutdownCtx)
}

func (s *apiServer) address() string {
	if s == nil || s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}
