package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/linesmerrill/legal-case-api/api/handlers"
	"github.com/linesmerrill/legal-case-api/config"
)

func main() {
	a := handlers.App{}
	a.Config = *config.New()

	//initialize database and router
	if err := a.Initialize(); err != nil {
		zap.S().Fatalw("failed to initialize", "error", err)
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%v", a.Config.Port),
		Handler:           a.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		zap.S().Infow("legal-case-api is up and running",
			"port", a.Config.Port,
			"url", a.Config.BaseURL,
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zap.S().Fatalw("server stopped", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		zap.S().Errorw("failed to shut down server", "error", err)
	}
	if err := a.Shutdown(ctx); err != nil {
		zap.S().Errorw("failed to disconnect from database", "error", err)
	}
	zap.S().Info("legal-case-api stopped")
}
