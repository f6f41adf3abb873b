package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/askdb/askdb/internal/api"
	"github.com/askdb/askdb/internal/api/uistatic"
	"github.com/askdb/askdb/internal/artifact"
	"github.com/askdb/askdb/internal/ask"
	"github.com/askdb/askdb/internal/auth"
	"github.com/askdb/askdb/internal/config"
	"github.com/askdb/askdb/internal/dbconn"
	"github.com/askdb/askdb/internal/dialect"
	"github.com/askdb/askdb/internal/llm"
	"github.com/askdb/askdb/internal/observability"
	"github.com/askdb/askdb/internal/schema"
)

func main() {
	cfg, err := config.LoadFromEnv("askdb-api")
	if err != nil {
		slog.Error("failed to load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg, os.Stdout)

	targetDialect, err := dialect.ByName(cfg.Database.Dialect)
	if err != nil {
		logger.Error("failed to resolve dialect", slog.Any("error", err))
		os.Exit(1)
	}

	db, err := dbconn.Open(context.Background(), targetDialect, dbconn.Config{
		DSN:             cfg.DatabaseDSN(),
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxIdleTime: cfg.Database.ConnMaxIdleTime,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	})
	if err != nil {
		logger.Error("failed to open database", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() { _ = db.Close() }()

	completer, err := buildCompleter(cfg)
	if err != nil {
		logger.Error("failed to initialize llm backend", slog.Any("error", err))
		os.Exit(1)
	}

	sink, err := buildSink(cfg)
	if err != nil {
		logger.Error("failed to initialize artifact sink", slog.Any("error", err))
		os.Exit(1)
	}

	service := ask.NewService(
		targetDialect,
		schema.NewIntrospector(db, targetDialect),
		completer,
		ask.NewExecutor(db),
		sink,
		logger,
		cfg.LLM.RowLimit,
	)

	deps := api.Dependencies{
		Logger:            logger,
		Service:           service,
		UI:                uistatic.Handler(),
		Readiness:         api.CheckDatabase(db),
		DependencyTimeout: time.Second,
	}
	if cfg.Auth.Required {
		validator, err := auth.NewStaticAPIKeyValidator(cfg.Auth.StaticKeys)
		if err != nil {
			logger.Error("failed to parse static auth keys", slog.Any("error", err))
			os.Exit(1)
		}
		deps.AuthMiddleware = auth.Middleware(logger, validator)
	}

	handler := api.NewHandler(cfg, deps)
	server := &http.Server{
		Addr:         cfg.HTTP.Address,
		Handler:      handler,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("starting api server",
			slog.String("addr", cfg.HTTP.Address),
			slog.String("dialect", targetDialect.Name),
			slog.String("provider", completer.Name()),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("api server failed", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("api server stopped")
}

func buildCompleter(cfg config.Config) (llm.Completer, error) {
	switch cfg.LLM.Provider {
	case config.ProviderGemini:
		return llm.NewGeminiClient(llm.GeminiConfig{
			BaseURL:     cfg.LLM.Gemini.BaseURL,
			APIKey:      cfg.LLM.Gemini.APIKey,
			Model:       cfg.LLM.Gemini.Model,
			Temperature: cfg.LLM.Temperature,
			MaxTokens:   cfg.LLM.MaxTokens,
			Timeout:     cfg.LLM.Timeout,
		})
	default:
		return llm.NewOpenAIClient(llm.OpenAIConfig{
			BaseURL:     cfg.LLM.OpenAI.BaseURL,
			APIKey:      cfg.LLM.OpenAI.APIKey,
			Model:       cfg.LLM.OpenAI.Model,
			Temperature: cfg.LLM.Temperature,
			MaxTokens:   cfg.LLM.MaxTokens,
			Timeout:     cfg.LLM.Timeout,
		})
	}
}

func buildSink(cfg config.Config) (artifact.Sink, error) {
	if !cfg.Artifacts.Enabled {
		return nil, nil
	}
	switch cfg.Artifacts.Backend {
	case config.ArtifactBackendS3:
		return artifact.NewS3Sink(cfg.Artifacts.S3)
	default:
		return artifact.NewLocalSink(cfg.Artifacts.LocalDir, cfg.Artifacts.Retention)
	}
}
