package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/nickhighforce/highforce/internal/chunker"
	"github.com/nickhighforce/highforce/internal/config"
	dbRedis "github.com/nickhighforce/highforce/internal/db/redis"
	"github.com/nickhighforce/highforce/internal/domain/doctype"
	logpkg "github.com/nickhighforce/highforce/internal/logger"
	"github.com/nickhighforce/highforce/internal/metrics"
	chunkrepo "github.com/nickhighforce/highforce/internal/repository/chunk"
	documentrepo "github.com/nickhighforce/highforce/internal/repository/document"
	"github.com/nickhighforce/highforce/internal/repository/embcache"
	"github.com/nickhighforce/highforce/internal/retry"
	"github.com/nickhighforce/highforce/internal/transport/httpapi"
	openaiTransport "github.com/nickhighforce/highforce/internal/transport/openai"
	dedupeuc "github.com/nickhighforce/highforce/internal/usecase/dedupe"
	healthuc "github.com/nickhighforce/highforce/internal/usecase/health"
	ingestuc "github.com/nickhighforce/highforce/internal/usecase/ingest"
	queryuc "github.com/nickhighforce/highforce/internal/usecase/query"
	supersedeuc "github.com/nickhighforce/highforce/internal/usecase/supersede"
	temporaluc "github.com/nickhighforce/highforce/internal/usecase/temporal"
	"github.com/nickhighforce/highforce/internal/version"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.New(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting highforce API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.Strings("db_addrs", cfg.Database.Addrs),
	)

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Database.Addrs,
		Username: cfg.Database.Username,
		Password: cfg.Database.Password,
		DB:       cfg.Database.DB,
	})
	if err != nil {
		logger.Fatal("Failed to create database store", zap.Error(err))
	}
	defer store.Close()

	// Wait for database to be ready
	ctx := context.Background()
	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Database not ready", zap.Error(err))
	}
	logger.Info("Connected to database")

	// Register metrics explicitly (no init())
	metrics.RegisterEmbeddingMetrics()
	metrics.RegisterPipelineMetrics()

	// Create repositories and bootstrap indexes
	docRepo := documentrepo.New(store)
	chunkRepo := chunkrepo.New(store, cfg.Embedding.Dimensions)

	if err := docRepo.EnsureIndex(ctx); err != nil {
		logger.Fatal("Failed to create document index", zap.Error(err))
	}
	if err := chunkRepo.EnsureIndex(ctx); err != nil {
		logger.Fatal("Failed to create chunk index", zap.Error(err))
	}
	logger.Info("Indexes ready",
		zap.String("document_index", documentrepo.IndexName),
		zap.String("chunk_index", chunkrepo.IndexName),
	)

	// Build embedder chain — composition root
	base := openaiTransport.NewEmbedder(&openaiTransport.Config{
		APIKey:     cfg.Embedding.APIKey,
		BaseURL:    cfg.Embedding.BaseURL,
		Model:      cfg.Embedding.Model,
		Dimensions: cfg.Embedding.Dimensions,
		Provider:   cfg.Embedding.Provider,
		Logger:     logger,
	})
	embedder := embcache.New(
		base, store,
		time.Duration(cfg.Embedding.CacheTTLSec)*time.Second,
		metrics.EmbeddingCacheTotal, logger,
	)
	logger.Info("Embedder created",
		zap.String("provider", cfg.Embedding.Provider),
		zap.String("model", cfg.Embedding.Model),
		zap.Int("dimensions", cfg.Embedding.Dimensions),
	)

	// The date parser shares the embedder's client and connection pool.
	dateParser := openaiTransport.NewDateParser(base.Client(), cfg.Temporal.Model, logger)

	policy := retry.Policy{
		MaxAttempts: cfg.Retry.MaxAttempts,
		BaseDelay:   time.Duration(cfg.Retry.BaseDelayMs) * time.Millisecond,
		MaxJitter:   time.Duration(cfg.Retry.MaxJitterMs) * time.Millisecond,
	}

	decay := queryuc.DecayTable{
		HalfLives: map[doctype.Type]float64{
			doctype.Conversational: cfg.Decay.ConversationalHalfLifeDays,
			doctype.Reference:      cfg.Decay.ReferenceHalfLifeDays,
		},
		Default: cfg.Decay.DefaultHalfLifeDays,
	}

	// Create use case services
	gate := dedupeuc.New(docRepo, dedupeuc.Scope(cfg.Ingest.DedupScope), logger)
	splitter := chunker.New(cfg.Ingest.SentencesPerChunk, cfg.Ingest.OverlapSentences)
	superseder := supersedeuc.New(docRepo, chunkRepo, logger)
	interpreter := temporaluc.New(
		dateParser,
		time.Duration(cfg.Temporal.DefaultWindowDays)*24*time.Hour,
		time.Duration(cfg.Temporal.TimeoutSec)*time.Second,
		logger,
	)
	ingestSvc := ingestuc.New(gate, splitter, embedder, docRepo, chunkRepo, superseder, policy, logger)
	querySvc := queryuc.New(embedder, chunkRepo, interpreter, decay, cfg.Search.CandidateMultiplier, policy, logger).
		WithDefaultTopK(cfg.Search.TopK)
	healthSvc := healthuc.New(store, base)

	// Create HTTP server
	server := httpapi.NewServer(ingestSvc, querySvc, healthSvc, logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(httpapi.BearerAuthMiddleware(cfg.Auth.APIKeys))
	r.Use(metrics.Middleware())
	server.Register(r)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// jsonRecoverer is a recovery middleware that returns JSON instead of a plain text stacktrace.
func jsonRecoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					logger.Error("panic recovered",
						zap.Any("panic", rvr),
						zap.Stack("stacktrace"),
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(map[string]string{
						"code":    "internal_error",
						"message": "internal error",
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// wideEventMiddleware emits a canonical log line per request and propagates X-Request-ID.
func wideEventMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// chi.middleware.RequestID already placed request_id in context
			requestID := chiMiddleware.GetReqID(r.Context())

			// Set X-Request-ID in response header
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			// Per-request logger with request_id
			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			// Canonical log line — one line per request
			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.Int64("content_length", r.ContentLength),
				zap.String("user_agent", r.UserAgent()),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}
