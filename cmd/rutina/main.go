package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rutina-app/rutina/internal/database"
	"github.com/rutina-app/rutina/internal/logging"
	"github.com/rutina-app/rutina/internal/server"
)

func main() {
	logger := logging.Setup(os.Getenv("RUTINA_LOG_LEVEL"), os.Getenv("RUTINA_LOG_FORMAT"))

	port := os.Getenv("RUTINA_PORT")
	if port == "" {
		port = "8080"
	}

	dbPath := os.Getenv("RUTINA_DB_PATH")
	if dbPath == "" {
		dbPath = "rutina.db"
	}

	db, err := database.Open(dbPath)
	if err != nil {
		logger.Error("failed to open database", "path", dbPath, "error", err)
		os.Exit(1)
	}
	defer db.Close()

	cfg := server.Config{
		SecureCookie: os.Getenv("RUTINA_SECURE_COOKIE") == "true",
	}
	srv := server.New(db, cfg, logger)

	httpServer := &http.Server{
		Addr:         ":" + port,
		Handler:      srv.Router(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	stop := make(chan struct{})
	go cleanupLoop(srv, logger.With("component", "cleanup"), stop)

	go func() {
		logger.Info("rutina listening", "port", port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	close(stop)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error("shutdown error", "error", err)
		os.Exit(1)
	}
}

// cleanupLoop purges expired sessions and stale rate limiter entries
// until stop is closed.
func cleanupLoop(srv *server.Server, logger *slog.Logger, stop <-chan struct{}) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if n, err := srv.SessionStore().DeleteExpired(); err != nil {
				logger.Error("session cleanup failed", "error", err)
			} else if n > 0 {
				logger.Info("expired sessions removed", "count", n)
			}
			srv.RateLimiter().Cleanup()
		case <-stop:
			return
		}
	}
}
