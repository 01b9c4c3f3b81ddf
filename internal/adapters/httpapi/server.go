package httpapi

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"
)

const (
	serverShutdownWait   = 5 * time.Second
	serverTimeout        = 300 * time.Second
	serverMaxHeaderBytes = 1 << 20
)

// NewServer wraps handler in an http.Server with the standard timeouts
func NewServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: serverTimeout,
		ReadTimeout:       serverTimeout,
		WriteTimeout:      serverTimeout,
		MaxHeaderBytes:    serverMaxHeaderBytes,
	}
}

// Serve runs srv until ctx is done, then shuts it down gracefully
func Serve(ctx context.Context, srv *http.Server, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server started", "address", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), serverShutdownWait)
	defer cancel()

	logger.Info("shutting down server")
	if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
