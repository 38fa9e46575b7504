package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/dukerupert/bywater/internal/backup"
	"github.com/dukerupert/bywater/internal/database"
	"github.com/dukerupert/bywater/internal/logging"
	"github.com/dukerupert/bywater/internal/push"
	"github.com/dukerupert/bywater/internal/server"
)

func main() {
	logger := logging.Setup(os.Getenv("BYWATER_LOG_LEVEL"))

	port := envOr("BYWATER_PORT", "8080")
	dbPath := envOr("BYWATER_DB_PATH", "bywater.db")

	db, err := database.Open(dbPath)
	if err != nil {
		logger.Error("open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	cfg := server.Config{
		Backup: backup.Config{
			S3: backup.S3Config{
				Endpoint:  os.Getenv("BYWATER_S3_ENDPOINT"),
				Bucket:    os.Getenv("BYWATER_S3_BUCKET"),
				Region:    envOr("BYWATER_S3_REGION", "auto"),
				AccessKey: os.Getenv("BYWATER_S3_ACCESS_KEY"),
				SecretKey: os.Getenv("BYWATER_S3_SECRET_KEY"),
			},
			Passphrase: os.Getenv("BYWATER_BACKUP_PASSPHRASE"),
			DBPath:     dbPath,
			Hour:       envInt("BYWATER_BACKUP_HOUR", 3),
		},
		Push: push.Config{
			VAPIDPublicKey:  os.Getenv("BYWATER_VAPID_PUBLIC_KEY"),
			VAPIDPrivateKey: os.Getenv("BYWATER_VAPID_PRIVATE_KEY"),
		},
		DigestHour: envInt("BYWATER_DIGEST_HOUR", 7),
	}

	srv := server.New(db, cfg, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	srv.BackupManager().Start(ctx)
	defer srv.BackupManager().Stop()

	if sched := srv.PushScheduler(); sched != nil {
		sched.Start(ctx)
		defer sched.Stop()
	} else {
		logger.Info("push notifications disabled: VAPID keys not configured")
	}

	// Periodic cleanup of expired sessions and stale rate-limit entries
	go func() {
		ticker := time.NewTicker(1 * time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n, err := srv.SessionStore().DeleteExpired(); err != nil {
					logger.Error("session cleanup", "error", err)
				} else if n > 0 {
					logger.Info("session cleanup", "deleted", n)
				}
				srv.RateLimiter().Cleanup()
			}
		}
	}()

	httpServer := &http.Server{
		Addr:         ":" + port,
		Handler:      srv.Router(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		fmt.Printf("Bywater running at http://localhost:%s\n", port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	fmt.Println("\nShutting down...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
