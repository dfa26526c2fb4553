package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/etepro/etepro-backend/internal/config"
	"github.com/etepro/etepro-backend/internal/database"
	"github.com/etepro/etepro-backend/internal/generation"
	"github.com/etepro/etepro-backend/internal/handler"
	"github.com/etepro/etepro-backend/internal/logger"
	"github.com/etepro/etepro-backend/internal/metrics"
	"github.com/etepro/etepro-backend/internal/repository"
	"github.com/etepro/etepro-backend/internal/router"
	"github.com/etepro/etepro-backend/internal/service"
	"github.com/etepro/etepro-backend/internal/simulado"
	"github.com/etepro/etepro-backend/internal/tutor"
	"github.com/etepro/etepro-backend/internal/validator"
	"github.com/etepro/etepro-backend/internal/worker"
	"github.com/rs/zerolog"
)

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat, cfg.LogFile)
	log.Info().
		Str("port", cfg.ServerPort).
		Str("mode", cfg.GinMode).
		Str("log_level", cfg.LogLevel).
		Msg("Starting ETE Pro Backend")

	if cfg.GenerationAPIKey == "" {
		log.Warn().Msg("GENERATION_API_KEY is empty, tutor requests will fail")
	}

	// ─── Initialize Validator & Metrics ────────────────────────────────
	validator.Setup()
	metrics.Init()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ─── Connect to PostgreSQL ─────────────────────────────────────────
	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	// ─── Connect to Redis ──────────────────────────────────────────────
	rdb, err := database.NewRedisClient(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()

	// ─── Initialize Repositories ───────────────────────────────────────
	simuladoRepo := repository.NewSimuladoRepository(pool)
	attemptRepo := repository.NewAttemptRepository(pool)
	chatRepo := repository.NewChatRepository(pool)
	statsRepo := repository.NewStatsRepository(pool)

	// ─── Initialize Services ──────────────────────────────────────────
	authService := service.NewAuthService(cfg)
	simuladoService := service.NewSimuladoService(simuladoRepo, service.NewRedisPayloadCache(rdb), cfg.SimuladoCacheTTL, log)
	attemptService := service.NewAttemptService(attemptRepo, service.NewRedisStatsQueue(rdb), log)
	statsService := service.NewStatsService(statsRepo)

	generator := generation.NewClient(generation.Config{
		BaseURL: cfg.GenerationBaseURL,
		APIKey:  cfg.GenerationAPIKey,
		Model:   cfg.GenerationModel,
		Timeout: cfg.GenerationTimeout,
	}, log)
	assembler := tutor.NewAssembler(chatRepo, generator, tutor.Params{
		Temperature:     cfg.GenerationTemperature,
		MaxOutputTokens: cfg.GenerationMaxTokens,
	}, cfg.TutorHistoryLimit, log)
	tutorService := service.NewTutorService(assembler, chatRepo)

	// ─── Initialize Handlers ──────────────────────────────────────────
	handlers := &router.Handlers{
		Simulado: handler.NewSimuladoHandler(simuladoService, log),
		Portal:   handler.NewPortalHandler(attemptService, statsService, log),
		Tutor:    handler.NewTutorHandler(tutorService, log),
		WS: handler.NewWSHandler(simuladoService, attemptService, simulado.Options{
			DefaultMinutes: cfg.DefaultSimuladoMinutes,
			SubmitTimeout:  cfg.SubmitTimeout,
			Log:            log,
		}, log, cfg.AllowedOrigins),
	}

	// ─── Start Background Workers ─────────────────────────────────────
	workerCtx, workerCancel := context.WithCancel(context.Background())
	var workers sync.WaitGroup

	statsWorker := worker.NewStatsWorker(statsRepo, rdb, log)
	workers.Add(1)
	go func() {
		defer workers.Done()
		statsWorker.Start(workerCtx)
	}()

	// ─── Setup Router ──────────────────────────────────────────────────
	r, tutorLimiter := router.SetupRouter(authService, handlers, cfg)
	defer tutorLimiter.Close()

	// ─── Create HTTP Server ────────────────────────────────────────────
	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// ─── Start Server in Goroutine ─────────────────────────────────────
	go func() {
		log.Info().Str("addr", ":"+cfg.ServerPort).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	// ─── Graceful Shutdown ─────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	log.Info().Str("signal", sig.String()).Msg("Shutting down gracefully...")

	// 1. Stop accepting new HTTP requests. Hijacked WebSocket connections
	// are not tracked by Shutdown; sessions still submitting keep their own
	// timeout.
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	// 2. Stop background workers and wait for the final flush.
	workerCancel()
	workers.Wait()

	log.Info().Msg("Shutdown complete")
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
