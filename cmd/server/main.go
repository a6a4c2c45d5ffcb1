package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/aoia/engine/internal/api"
	"github.com/aoia/engine/internal/config"
	"github.com/aoia/engine/internal/metrics"
	"github.com/aoia/engine/internal/optimizer"
	"github.com/aoia/engine/internal/orchestrator"
	"github.com/aoia/engine/internal/websocket"
	"github.com/aoia/engine/pkg/middleware"
)

func main() {
	// Configure logger
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	// Set log level
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.Warn().Str("level", cfg.LogLevel).Msg("invalid log level, using info")
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	log.Info().
		Str("port", cfg.Port).
		Strs("allowed_origins", cfg.AllowedOrigins).
		Str("log_level", cfg.LogLevel).
		Str("autonomy_mode", cfg.DefaultMode).
		Str("execution_policy", cfg.ExecutionPolicy).
		Msg("starting AOIA engine server")

	// Create WebSocket hub
	hub := websocket.NewHub(log.Logger)
	go hub.Run()

	// Create WebSocket handler
	wsHandler := websocket.NewHandler(hub, cfg, log.Logger)

	// Create orchestrator with the configured execution policy
	var policy optimizer.ExecutionPolicy
	if cfg.ExecutionPolicy == config.PolicyRandomized {
		policy = optimizer.NewRandomizedPolicy(cfg.RandomSeed)
	}
	orch, err := orchestrator.New(orchestrator.Options{
		Mode:   orchestrator.ParseMode(cfg.DefaultMode),
		Policy: policy,
	}, log.Logger)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize orchestrator")
	}

	// Create pipeline handler
	pipelineHandler := api.NewPipelineHandler(orch, hub, cfg.PipelineTimeout, log.Logger)

	// Create router
	r := chi.NewRouter()

	// Add middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logger(log.Logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS(cfg.AllowedOrigins))

	// Register public routes
	r.Get("/health", healthHandler)
	r.Get("/metrics", metrics.Get().Handler())

	// Pipeline routes
	r.Route("/api/pipeline", func(r chi.Router) {
		r.Post("/run", pipelineHandler.HandleRun)
		r.Get("/mode", pipelineHandler.HandleGetMode)
		r.Post("/mode", pipelineHandler.HandleSetMode)
		r.Get("/status", pipelineHandler.HandleStatus)
		r.Post("/actions/{actionID}/approve", pipelineHandler.HandleApproveAction)
		r.Post("/simulate", pipelineHandler.HandleSimulate)
	})

	// Live result stream
	r.Get("/ws", wsHandler.ServeHTTP)

	// Create HTTP server
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Info().Msgf("server listening on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server...")

	// Create shutdown context with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	// Attempt graceful shutdown
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}

// healthHandler handles health check requests
func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, `{"status":"ok","service":"aoia-engine"}`)
}
