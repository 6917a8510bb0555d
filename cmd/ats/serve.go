package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/muhammadasad149/Applicant-Tracking-System--ATS/internal/config"
	"github.com/muhammadasad149/Applicant-Tracking-System--ATS/internal/db"
	dbRedis "github.com/muhammadasad149/Applicant-Tracking-System--ATS/internal/db/redis"
	"github.com/muhammadasad149/Applicant-Tracking-System--ATS/internal/extract"
	logpkg "github.com/muhammadasad149/Applicant-Tracking-System--ATS/internal/logger"
	"github.com/muhammadasad149/Applicant-Tracking-System--ATS/internal/normalize"
	"github.com/muhammadasad149/Applicant-Tracking-System--ATS/internal/progress"
	"github.com/muhammadasad149/Applicant-Tracking-System--ATS/internal/repository/result"
	"github.com/muhammadasad149/Applicant-Tracking-System--ATS/internal/repository/upload"
	chiTransport "github.com/muhammadasad149/Applicant-Tracking-System--ATS/internal/transport/chi"
	healthuc "github.com/muhammadasad149/Applicant-Tracking-System--ATS/internal/usecase/health"
	jobuc "github.com/muhammadasad149/Applicant-Tracking-System--ATS/internal/usecase/job"
	"github.com/muhammadasad149/Applicant-Tracking-System--ATS/internal/version"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the ranking HTTP API",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return serve(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func serve(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	// Load configuration based on ENV
	env := config.GetEnv()
	cfg, err := loadConfig(env)
	if err != nil {
		return err
	}

	level := cfg.Logging.Level
	if logLevel != "" {
		level = logLevel
	}
	logger, err := logpkg.NewLogger(env, level)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting ATS API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("db_driver", cfg.Database.Driver),
		zap.Strings("db_addrs", cfg.Database.Addrs),
		zap.String("embedding_provider", cfg.Embedding.Vectorizer.Provider),
	)

	store, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	if store != nil {
		defer store.Close()
	}

	// Pass nil interfaces (not typed nil pointers) when running without a database.
	var kv db.KVStore
	var pinger healthuc.DBPinger
	if store != nil {
		kv, pinger = store, store
	}

	emb, err := buildEmbedder(ctx, cfg, kv, logger)
	if err != nil {
		return fmt.Errorf("build embedder: %w", err)
	}
	logger.Info("Embedder created",
		zap.String("provider", cfg.Embedding.Vectorizer.Provider),
		zap.String("model", cfg.Embedding.Vectorizer.Model),
		zap.Int("dimensions", cfg.Embedding.Vectorizer.Dimensions),
	)

	normalizer, err := normalize.NewEnglish(logger)
	if err != nil {
		return fmt.Errorf("create normalizer: %w", err)
	}

	uploads, err := upload.NewStore(cfg.Storage.UploadDir)
	if err != nil {
		return fmt.Errorf("open upload store: %w", err)
	}

	var results jobuc.ResultStore
	if store != nil {
		results = result.NewKVStore(store, cfg.Ranking.ResultTTL())
	} else {
		results = result.NewMemoryStore(cfg.Ranking.ResultTTL(), cfg.Ranking.MaxResults)
	}

	var broker progress.Broker
	switch cfg.Progress.Driver {
	case config.DriverRedis:
		broker = progress.NewRedisBroker(store, cfg.Progress.Buffer, logger)
	default:
		broker = progress.NewMemoryBroker(cfg.Progress.Buffer, logger)
	}

	jobs := jobuc.New(extract.New(), normalizer, emb, results, broker, logger).
		WithMaxConcurrentJobs(cfg.Ranking.MaxConcurrentJobs)

	healthSvc := healthuc.New(pinger, emb).WithStorage(uploads)

	server := chiTransport.NewServer(jobs, uploads, broker, healthSvc, chiTransport.Config{
		MaxUploadBytes:    int64(cfg.HTTP.MaxUploadMB) << 20,
		DefaultTopN:       cfg.Ranking.DefaultTopN,
		MaxCandidates:     cfg.Ranking.MaxCandidates,
		HeartbeatInterval: time.Duration(cfg.HTTP.HeartbeatSec) * time.Second,
	}, logger)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           server.Router(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		// The event stream clears its own write deadline.
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	select {
	case <-quit:
		logger.Info("Received shutdown signal")
	case err := <-serveErr:
		return fmt.Errorf("http server: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}
	waitForJobs(shutdownCtx, jobs, logger)

	logger.Info("Server stopped gracefully")
	return nil
}

// openStore connects to Redis or Valkey. The memory driver runs without a store.
func openStore(ctx context.Context, cfg config.Config, logger *zap.Logger) (*dbRedis.Store, error) {
	switch cfg.Database.Driver {
	case config.DriverMemory:
		logger.Info("Running without database: results and progress stay in memory")
		return nil, nil
	case config.DriverRedis, config.DriverValkey:
		// Valkey speaks the Redis protocol; one client serves both.
		store, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Database.Addrs,
			Password: cfg.Database.Password,
		})
		if err != nil {
			return nil, fmt.Errorf("create database store: %w", err)
		}
		timeout := time.Duration(cfg.Database.ReadinessTimeout) * time.Second
		if err := store.WaitForReady(ctx, timeout); err != nil {
			store.Close()
			return nil, fmt.Errorf("database not ready: %w", err)
		}
		logger.Info("Connected to database")
		return store, nil
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Database.Driver)
	}
}

// waitForJobs lets running jobs store their results until ctx expires.
func waitForJobs(ctx context.Context, jobs *jobuc.Service, logger *zap.Logger) {
	done := make(chan struct{})
	go func() {
		jobs.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		logger.Warn("Shutdown timeout: abandoning running jobs")
	}
}
