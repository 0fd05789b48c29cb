package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/clipstash/clipstash/internal/config"
	"github.com/clipstash/clipstash/internal/server"
	"github.com/clipstash/clipstash/internal/telemetry"
)

func main() {
	logger := newLogger()
	slog.SetDefault(logger)

	ctx := context.Background()

	shutdownTelemetry, err := telemetry.Setup(ctx, "clipstash-api")
	if err != nil {
		logger.Error("telemetry setup failed", slog.String("err", err.Error()))
		os.Exit(1)
	}

	app, err := server.NewApp(ctx, logger)
	if err != nil {
		logger.Error("app setup failed", slog.String("err", err.Error()))
		os.Exit(1)
	}

	srv := server.NewServer(app)

	go func() {
		logger.Info("API server starting", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", slog.String("err", err.Error()))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down API server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", slog.String("err", err.Error()))
	}
	if err := app.Close(); err != nil {
		logger.Error("close error", slog.String("err", err.Error()))
	}
	if err := shutdownTelemetry(shutdownCtx); err != nil {
		logger.Error("telemetry shutdown error", slog.String("err", err.Error()))
	}

	logger.Info("API server exited properly")
}

func newLogger() *slog.Logger {
	level := slog.LevelInfo
	switch os.Getenv(config.ENV_KEY_LOG_LEVEL) {
	case "DEBUG":
		level = slog.LevelDebug
	case "WARN":
		level = slog.LevelWarn
	case "ERROR":
		level = slog.LevelError
	}

	jsonHandler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	})
	return slog.New(telemetry.NewTraceHandler(jsonHandler))
}
