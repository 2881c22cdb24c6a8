/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the stock ledger server. Handles configuration,
  dependency wiring, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load .env (if present) and parse flags
  2. Open the SQLite store (schema auto-migrates)
  3. Rebuild the item cache BEFORE serving any read
  4. Start the low-stock sweeper
  5. Start the HTTP server with graceful shutdown

CONFIGURATION:
  Flags, with environment fallbacks:
    -port   / PORT            HTTP server port (default: 8080)
    -db     / DB_PATH         SQLite database path (default: warehouse.db)
                              Use ":memory:" for an in-memory database
    -sweep  / SWEEP_INTERVAL  Low-stock sweep interval (default: 20s)

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Stop the sweeper, close the database
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/warp/stock-ledger/api"
	"github.com/warp/stock-ledger/inventory"
	"github.com/warp/stock-ledger/store/sqlite"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	// Load .env without overriding the real environment.
	if err := godotenv.Load(); err != nil {
		logger.Debug("no .env file found, using environment")
	}

	port := flag.Int("port", envInt("PORT", 8080), "HTTP server port")
	dbPath := flag.String("db", envStr("DB_PATH", "warehouse.db"), "SQLite database path")
	sweep := flag.Duration("sweep", envDuration("SWEEP_INTERVAL", 20*time.Second), "low-stock sweep interval")
	flag.Parse()

	store, err := sqlite.New(*dbPath)
	if err != nil {
		logger.WithError(err).Fatal("failed to initialize database")
	}
	defer store.Close()

	engine := inventory.NewEngine(store, logger)
	if err := engine.ReloadCache(context.Background()); err != nil {
		logger.WithError(err).Fatal("failed to load item cache")
	}

	sweeper := api.NewLowStockSweeper(engine, logger, func(items []inventory.Item) {
		for _, it := range items {
			logger.WithFields(logrus.Fields{
				"sku":       it.SKU,
				"name":      it.Name,
				"quantity":  it.Quantity,
				"min_stock": it.MinStock,
			}).Warn("low stock alert")
		}
	})
	sweeper.Interval = *sweep
	sweeper.Start()
	defer sweeper.Stop()

	router := api.NewRouter(api.NewHandler(engine))

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", *port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.WithField("addr", server.Addr).Info("server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Fatal("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.WithError(err).Fatal("server forced to shutdown")
	}

	logger.Info("server stopped")
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		var n int
		if _, err := fmt.Sscanf(v, "%d", &n); err == nil {
			return n
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
