// demoserver is a local stand-in for the attendance backend. It implements
// the REST contract the console speaks, with seeded data and a deterministic
// fake recognizer, so the capture workflow can run end to end on a laptop.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"attendboard/internal/config"
	"attendboard/internal/demo"
)

func main() {
	cfg := config.Load()

	logger := newLogger(cfg.Env)
	defer logger.Sync()

	if cfg.Env == "production" || cfg.Env == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}

	store := demo.NewStore()
	if err := demo.Seed(store); err != nil {
		logger.Fatal("seed failed", zap.Error(err))
	}

	var events *demo.EventLog
	if cfg.DatabaseURL != "" {
		var err error
		events, err = demo.OpenEventLog(cfg.DatabaseURL)
		if err != nil {
			logger.Warn("event log unavailable, continuing in memory only", zap.Error(err))
		} else {
			defer events.Close()
			logger.Info("event log enabled")
		}
	}

	server := demo.NewServer(demo.ServerConfig{
		JWTIssuer:       cfg.JWTIssuer,
		JWTSigningKey:   cfg.JWTSigningKey,
		AccessTTL:       cfg.AccessTTL,
		RateLimitPerMin: cfg.RateLimitPerMin,
	}, store, demo.NewRecognizer(), events, logger)

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      server.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("demo backend listening", zap.String("port", cfg.HTTPPort))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("forced shutdown", zap.Error(err))
	}
}

func newLogger(env string) *zap.Logger {
	if env == "production" || env == "prod" {
		logger, err := zap.NewProduction()
		if err != nil {
			panic(err)
		}
		return logger
	}
	logger, err := zap.NewDevelopment()
	if err != nil {
		panic(err)
	}
	return logger
}
