// cmd/faq-assistant/main.go
package main

import (
	"context"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"faq-assistant/internal/assistant/emotion"
	"faq-assistant/internal/assistant/index"
	"faq-assistant/internal/assistant/keyword"
	"faq-assistant/internal/assistant/provider"
	"faq-assistant/internal/assistant/router"
	"faq-assistant/internal/common/config"
	"faq-assistant/internal/common/database"
	"faq-assistant/internal/common/logger"
	"faq-assistant/internal/server"
	"faq-assistant/internal/session"
	"faq-assistant/internal/store"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2 // Exponential backoff
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fallback := logger.New("info", "console")
		fallback.Fatal("config load failed", zap.Error(err))
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()

	// Wrap zap logger with our logger interface
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting FAQ assistant...",
		zap.String("environment", cfg.App.Environment),
		zap.String("version", cfg.App.Version),
	)

	ctx := context.Background()

	// --- Init PostgreSQL with retry ---
	var pg *database.PostgresClient
	err = retryWithBackoff(func() error {
		var err error
		pg, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		// Test the connection with context
		return pg.Ping(ctx)
	}, 15, 2*time.Second, zapLog, "PostgreSQL connection")

	if err != nil {
		zapLog.Fatal("postgres failed after retries", zap.Error(err))
	}
	defer pg.Close()
	zapLog.Info("PostgreSQL connected successfully")

	// --- Init Redis with retry ---
	var redis *database.RedisClient
	err = retryWithBackoff(func() error {
		var err error
		redis, err = database.NewRedis(cfg.Database.Redis)
		if err != nil {
			return err
		}
		// Test the connection with context
		return redis.Ping(ctx)
	}, 10, 2*time.Second, zapLog, "Redis connection")

	if err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	defer redis.Close()
	zapLog.Info("Redis connected successfully")

	// --- Storage ---
	faqStore := store.New(pg.DB, log)
	if err := faqStore.EnsureSchema(ctx); err != nil {
		zapLog.Fatal("schema setup failed", zap.Error(err))
	}

	sessions := session.NewStore(redis.Client, &session.Config{
		Timeout:      time.Duration(cfg.Session.TimeoutMinutes) * time.Minute,
		MaxQuestions: cfg.Session.MaxQuestions,
	}, log)

	// --- Assistant core ---
	analyzer := emotion.NewAnalyzer(emotion.DefaultLexicon(), cfg.Assistant.EscalationScore)
	similarity := index.New(cfg.Assistant.HighConfidence)

	generator := provider.NewClient(&provider.Config{
		BaseURL:     cfg.APIs.OpenAI.BaseURL,
		APIKey:      cfg.APIs.OpenAI.APIKey,
		Model:       cfg.APIs.OpenAI.Model,
		MaxTokens:   cfg.APIs.OpenAI.MaxTokens,
		Temperature: cfg.APIs.OpenAI.Temperature,
		Timeout:     time.Duration(cfg.APIs.OpenAI.Timeout) * time.Millisecond,
		MaxRetries:  cfg.APIs.OpenAI.MaxRetries,
	}, log)

	answerRouter := router.New(&router.Config{
		MatchThreshold:  cfg.Assistant.MatchThreshold,
		EscalationScore: cfg.Assistant.EscalationScore,
		ContextFloor:    cfg.Assistant.ContextFloor,
		ContextLimit:    cfg.Assistant.ContextLimit,
		TopK:            cfg.Assistant.TopK,
	}, analyzer, similarity, generator, log)

	keywords := keyword.NewService(keyword.DefaultCategories())

	// --- HTTP server ---
	srv := server.New(cfg.Server, answerRouter, faqStore, sessions, keywords, log)

	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			zapLog.Fatal("http server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, draining requests...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(),
		time.Duration(cfg.Server.ShutdownTimeout)*time.Millisecond)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("http server shutdown failed", zap.Error(err))
	}

	zapLog.Info("FAQ assistant stopped gracefully")
}
