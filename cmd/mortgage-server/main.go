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

	"github.com/joho/godotenv"
	"github.com/openlistings/mortgage-engine/internal/cache"
	"github.com/openlistings/mortgage-engine/internal/config"
	"github.com/openlistings/mortgage-engine/internal/history"
	"github.com/openlistings/mortgage-engine/internal/server"
	"github.com/openlistings/mortgage-engine/pkg/constants"
	"go.uber.org/zap"
)

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	// .env is optional; environment variables override config file values.
	_ = godotenv.Load()

	configLocation := flag.String("config", constants.DefaultServerConfigFile, "path to server configuration file")
	address := flag.String("addr", "", "listen address override")
	logLevel := flag.String("log-level", "", "log level override (debug, info, warn, error)")
	flag.Parse()

	cfg, err := server.LoadConfig(*configLocation)
	if err != nil {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to load server configuration\", \"error\": \"%v\"}\n", err)
		return
	}
	if *address != "" {
		cfg.Address = *address
	}
	if env := os.Getenv("REDIS_ADDR"); env != "" {
		cfg.RedisAddress = env
	}
	if env := os.Getenv("HISTORY_DB"); env != "" {
		cfg.HistoryDatabase = env
	}

	logger, err := config.NewLogger(cfg.Logging, *logLevel)
	if err != nil {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to initialize logger\", \"error\": \"%v\"}\n", err)
		return
	}
	defer func() {
		_ = logger.Sync()
	}()

	var responseCache cache.Cache = cache.NewMemory()
	if cfg.RedisAddress != "" {
		redisCache := cache.NewRedis(cfg.RedisAddress)
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err := redisCache.Ping(ctx)
		cancel()
		if err != nil {
			logger.Warn("redis unreachable, falling back to in-memory cache",
				zap.String("op", "main"),
				zap.String("address", cfg.RedisAddress),
				zap.Error(err),
			)
		} else {
			responseCache = redisCache
			defer func() {
				_ = redisCache.Close()
			}()
		}
	}

	var store *history.Store
	if cfg.HistoryDatabase != "" {
		store, err = history.Open(cfg.HistoryDatabase)
		if err != nil {
			logger.Fatal("failed to open history database",
				zap.String("op", "main"),
				zap.Error(err),
			)
		}
		defer func() {
			_ = store.Close()
		}()
	}

	handler := server.NewHandler(logger, server.Options{
		MaxBodySize:    cfg.BodySizeBytes(),
		Version:        version,
		AllowedOrigins: cfg.AllowedOrigins,
		Cache:          responseCache,
		Store:          store,
	})

	srv := &http.Server{
		Addr:              cfg.Address,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("starting calculator API",
			zap.String("op", "main"),
			zap.String("address", cfg.Address),
			zap.String("version", version),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed",
				zap.String("op", "main"),
				zap.Error(err),
			)
		}
	}()

	<-done
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("graceful shutdown failed",
			zap.String("op", "main"),
			zap.Error(err),
		)
	}
	logger.Info("server stopped", zap.String("op", "main"))
}
