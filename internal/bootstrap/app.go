package bootstrap

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/yanqian/clearday/internal/infra/config"
)

// App encapsulates the HTTP server lifecycle and the resources behind it.
type App struct {
	cfg       *config.Config
	logger    *slog.Logger
	server    *http.Server
	resources *Resources
}

// NewApp is used by Wire to build the runnable app.
func NewApp(cfg *config.Config, logger *slog.Logger, server *http.Server, resources *Resources) *App {
	return &App{cfg: cfg, logger: logger.With("component", "bootstrap"), server: server, resources: resources}
}

// Run starts the HTTP server and blocks until shutdown. Registered resources are
// released once the server has stopped, whichever way it stopped.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		a.logger.Info("http server starting", "address", a.cfg.HTTP.Address)
		if err := a.server.ListenAndServe(); err != nil {
			errCh <- err
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		a.logger.Info("shutdown signal received")
		runErr = a.server.Shutdown(shutdownCtx)
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			runErr = err
		}
	}

	closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.resources.Close(closeCtx); err != nil {
		a.logger.Error("failed to release resources", "error", err)
	}
	return runErr
}
