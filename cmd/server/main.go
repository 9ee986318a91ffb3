// Package main provides the entry point for the narcosignal server, a
// content suspicion scoring and OSINT identity investigation service.
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

	"github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/lvonguyen/narcosignal/internal/api"
	"github.com/lvonguyen/narcosignal/internal/api/gateway"
	"github.com/lvonguyen/narcosignal/internal/config"
	"github.com/lvonguyen/narcosignal/internal/investigation"
	"github.com/lvonguyen/narcosignal/internal/lexicon"
	"github.com/lvonguyen/narcosignal/internal/osint"
	"github.com/lvonguyen/narcosignal/internal/scoring"
)

// Version information (injected at build time via ldflags)
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildTime = "unknown"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "Path to config file")
	showVersion := flag.Bool("version", false, "Show version information")
	flag.Parse()

	if *showVersion {
		fmt.Printf("narcosignal %s (commit: %s, built: %s)\n", Version, GitCommit, BuildTime)
		os.Exit(0)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	logger, err := buildLogger(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("starting narcosignal",
		zap.String("version", Version),
		zap.String("config", *configPath),
	)

	table, err := lexicon.LoadFile(cfg.Lexicon.Path)
	if err != nil {
		logger.Fatal("loading lexicon", zap.String("path", cfg.Lexicon.Path), zap.Error(err))
	}
	store := lexicon.NewStore(table)
	logger.Info("lexicon loaded",
		zap.String("path", cfg.Lexicon.Path),
		zap.Int("terms", table.Len()),
		zap.Strings("categories", table.Categories()),
	)

	redisClient := newRedisClient(cfg.Redis)
	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		logger.Warn("redis unreachable, caching and rate limiting degraded", zap.Error(err))
	}

	analyzer := scoring.NewAnalyzer(store, cfg.Scoring.Weights, cfg.Scoring.Indicators, logger)

	adapters := buildAdapters(cfg.Intel, logger)
	var aggregator *investigation.Aggregator
	if len(adapters) > 0 {
		cache := investigation.NewCache(redisClient, cfg.Redis.CacheTTL, logger)
		aggregator = investigation.NewAggregator(adapters, cfg.Intel.Investigation, cache, logger)
	} else {
		logger.Warn("no OSINT tools enabled, investigation endpoint disabled")
	}
	logger.Info("intel tools configured", zap.Strings("tools", cfg.EnabledTools()))

	limiter := gateway.NewRateLimiter(redisClient, cfg.RateLimit, logger)

	apiServer := api.NewServer(api.Options{
		Analyzer:    analyzer,
		Aggregator:  aggregator,
		Store:       store,
		LexiconPath: cfg.Lexicon.Path,
		Redis:       redisClient,
		MaxBatch:    cfg.Server.MaxBatchSize,
		Logger:      logger,
	})
	router := apiServer.Router(middleware.Logger, limiter.Middleware())

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan
	logger.Info("shutting down", zap.String("signal", sig.String()))

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", zap.Error(err))
	}
	if err := redisClient.Close(); err != nil {
		logger.Error("redis close error", zap.Error(err))
	}

	logger.Info("server stopped")
}

func buildLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		level = zapcore.InfoLevel
	}

	zapCfg := zap.NewProductionConfig()
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)
	return zapCfg.Build()
}

func newRedisClient(cfg config.RedisConfig) *redis.Client {
	var password string
	if cfg.PasswordEnv != "" {
		password = os.Getenv(cfg.PasswordEnv)
	}
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})
}

// buildAdapters constructs the enabled OSINT adapters. A tool that fails to
// initialize is skipped rather than aborting startup.
func buildAdapters(cfg config.IntelConfig, logger *zap.Logger) []osint.ProfileLookup {
	var adapters []osint.ProfileLookup

	if cfg.Sherlock.Enabled {
		adapter, err := osint.NewSherlockAdapter(cfg.Sherlock, logger)
		if err != nil {
			logger.Warn("sherlock unavailable", zap.Error(err))
		} else {
			adapters = append(adapters, adapter)
		}
	}
	if cfg.Spiderfoot.Enabled {
		adapters = append(adapters, osint.NewSpiderfootAdapter(cfg.Spiderfoot, logger))
	}
	if cfg.URLCheck.Enabled {
		adapters = append(adapters, osint.NewURLCheckAdapter(cfg.URLCheck, logger))
	}
	return adapters
}
