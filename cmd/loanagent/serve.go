package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/tbxark/loanagent/server"
)

func runServe(ctx context.Context, a *app, listen string) error {
	gin.SetMode(gin.ReleaseMode)
	srv := &http.Server{
		Addr:              server.Addr(listen),
		Handler:           server.New(a.flow, a.logger).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server listening", "addr", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		a.logger.Info("Shutting down HTTP server")
		return srv.Shutdown(shutdownCtx)
	}
}
