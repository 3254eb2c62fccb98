package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dukerupert/shipshape/internal/database"
	"github.com/dukerupert/shipshape/internal/logging"
	"github.com/dukerupert/shipshape/internal/proof"
	"github.com/dukerupert/shipshape/internal/server"
)

func main() {
	port := os.Getenv("SHIPSHAPE_PORT")
	if port == "" {
		port = "8080"
	}

	dbPath := os.Getenv("SHIPSHAPE_DB_PATH")
	if dbPath == "" {
		dbPath = "shipshape.db"
	}

	logger := logging.Setup(os.Getenv("SHIPSHAPE_LOG_LEVEL"))

	db, err := database.Open(dbPath)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	sweepInterval := 5 * time.Minute
	if v := os.Getenv("SHIPSHAPE_SWEEP_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			log.Fatalf("invalid SHIPSHAPE_SWEEP_INTERVAL: %v", err)
		}
		sweepInterval = d
	}

	cfg := server.Config{
		Proof: proof.Config{
			Endpoint:  os.Getenv("SHIPSHAPE_S3_ENDPOINT"),
			Bucket:    os.Getenv("SHIPSHAPE_S3_BUCKET"),
			Region:    os.Getenv("SHIPSHAPE_S3_REGION"),
			AccessKey: os.Getenv("SHIPSHAPE_S3_ACCESS_KEY"),
			SecretKey: os.Getenv("SHIPSHAPE_S3_SECRET_KEY"),
		},
		SweepInterval: sweepInterval,
	}

	srv := server.New(db, cfg, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	srv.Sweeper().Start(ctx)
	defer srv.Sweeper().Stop()

	// Evict stale rate limiter windows periodically.
	go func() {
		ticker := time.NewTicker(10 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
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
		fmt.Printf("Shipshape running at http://localhost:%s\n", port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	fmt.Println("\nShutting down...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("shutdown error: %v", err)
	}
}
