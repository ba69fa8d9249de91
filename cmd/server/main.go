/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the debt engine server. Handles configuration,
  dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load configuration (.env, environment, then flags)
  2. Build the structured logger
  3. Initialize SQLite store
  4. Create the tracking service and API handler
  5. Attach the simulation cache (Redis or in-process)
  6. Optionally load the demo portfolio
  7. Start the refresh scheduler
  8. Start server with graceful shutdown

COMMAND-LINE FLAGS:
  -port    HTTP server port (default: PORT or 8080)
  -db      SQLite database path (default: DB_PATH or debts.db)
           Use ":memory:" for in-memory database
  -demo    Demo portfolio to load on startup (default: first-home when
           LOAD_DEMO=true, otherwise none)

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop the refresh scheduler
  2. Stop accepting new connections
  3. Wait for active requests to complete (30s timeout)
  4. Close database connection

EXAMPLES:
  ./server -db="./data/debts.db"
  ./server -db=":memory:" -demo=credit-line
  LOG_FORMAT=json ./server -port=3000

SEE ALSO:
  - config/config.go: Environment variables
  - api/server.go: Router configuration
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/warp/debt-engine/api"
	"github.com/warp/debt-engine/cache"
	"github.com/warp/debt-engine/config"
	"github.com/warp/debt-engine/store/sqlite"
	"github.com/warp/debt-engine/tracking"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "server: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	defaultDemo := ""
	if cfg.LoadDemo {
		defaultDemo = "first-home"
	}

	// Flags
	port := flag.Int("port", cfg.Port, "HTTP server port")
	dbPath := flag.String("db", cfg.DBPath, "SQLite database path")
	demo := flag.String("demo", defaultDemo, "Demo portfolio to load on startup")
	flag.Parse()
	cfg.Port = *port
	cfg.DBPath = *dbPath
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := cfg.NewLogger(os.Stdout)

	// Initialize store
	store, err := sqlite.New(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("initialize database: %w", err)
	}
	defer store.Close()

	svc := tracking.NewService(store, tracking.SystemClock, logger)

	handler := api.NewHandler(svc, logger)
	handler.DefaultWindow = cfg.DefaultWindow
	handler.Ping = store.Ping
	handler.CacheTTL = cfg.CacheTTL

	switch {
	case cfg.RedisAddr != "":
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		rc, err := cache.NewRedis(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		cancel()
		if err != nil {
			return err
		}
		defer rc.Close()
		handler.Cache = rc
		logger.Info("simulation cache", "backend", "redis", "addr", cfg.RedisAddr)
	case cfg.CacheSize > 0:
		handler.Cache = cache.NewMemory(cfg.CacheSize)
		logger.Info("simulation cache", "backend", "memory", "entries", cfg.CacheSize)
	}

	if *demo != "" {
		accounts, err := api.SeedDemo(context.Background(), svc, *demo, api.DefaultDemoOwner)
		if err != nil {
			return fmt.Errorf("load demo %s: %w", *demo, err)
		}
		logger.Info("demo loaded", "demo_id", *demo, "owner_id", api.DefaultDemoOwner, "accounts", len(accounts))
	}

	scheduler := api.NewRefreshScheduler(svc, logger, cfg.RefreshInterval)
	scheduler.Start()
	defer scheduler.Stop()

	server := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      api.NewRouter(handler, cfg.CORSOrigins, api.NewRateLimiter(cfg.RateLimit, cfg.RateBurst)),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	serverErr := make(chan error, 1)
	go func() {
		logger.Info("server starting", "addr", server.Addr, "db", cfg.DBPath)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-serverErr:
		return fmt.Errorf("server failed: %w", err)
	case sig := <-quit:
		logger.Info("shutting down server", "signal", sig.String())
	}

	scheduler.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	logger.Info("server stopped")
	return nil
}
