package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"repair-shop/internal/config"
	"repair-shop/internal/database"
	"repair-shop/internal/logger"
	"repair-shop/internal/server"

	"github.com/gin-gonic/gin"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		// логгер ещё не настроен
		os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(1)
	}

	if err := logger.Init(cfg.LogLevel, cfg.LogJSON); err != nil {
		os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := database.Init(ctx, cfg); err != nil {
		logger.L().Fatal(ctx, "database init failed", logger.ErrorF(err))
	}
	defer database.Close()

	if !logger.L().Enabled(logger.LevelDebug) {
		gin.SetMode(gin.ReleaseMode)
	}

	srv := &http.Server{
		Addr:    cfg.Addr(),
		Handler: server.NewRouter(cfg),
	}

	go func() {
		logger.Info(ctx, "starting server", logger.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.L().Fatal(ctx, "server error", logger.ErrorF(err))
		}
	}()

	<-ctx.Done()
	logger.Info(context.Background(), "shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error(shutdownCtx, "graceful shutdown failed", logger.ErrorF(err))
	}
}
