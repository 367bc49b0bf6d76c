package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"summation/internal/bot"
	"summation/internal/config"
	"summation/internal/database"
	"summation/internal/domain"
	"summation/internal/pipeline"
	"summation/internal/source"
	"summation/internal/summarizer"
	"syscall"
	"time"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(log)

	start := time.Now()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		log.ErrorContext(ctx, "Failed to load config",
			"error", err)

		return
	}

	defaultModel, err := domain.ParseModel(cfg.DefaultModel)
	if err != nil {
		log.ErrorContext(ctx, "DEFAULT_MODEL is not supported",
			"error", err,
			"DEFAULT_MODEL", cfg.DefaultModel)

		return
	}

	db, err := database.New(ctx, cfg.DBPath, log)
	if err != nil {
		log.ErrorContext(ctx, "Failed to initialize db",
			"error", err,
			"dbPath", cfg.DBPath)

		return
	}
	defer func() {
		if err = db.Close(); err != nil {
			log.ErrorContext(ctx, "Failed to close db",
				"error", err,
				"dbPath", cfg.DBPath)
		}
	}()
	log.InfoContext(ctx, "DB is initialized",
		"dbPath", cfg.DBPath)

	p := initPipeline(cfg, log)

	botInst, err := bot.New(bot.Options{
		Token:        cfg.Token,
		Credential:   cfg.OpenRouterAPIKey,
		DefaultModel: defaultModel,
		AllowedUsers: cfg.AllowedUsers,
	}, db, p, log)
	if err != nil {
		log.ErrorContext(ctx, "Failed to initialize bot",
			"error", err,
			"allowedUsersCount", len(cfg.AllowedUsers))

		return
	}
	log.InfoContext(ctx, "Bot is initialized",
		"allowedUsersCount", len(cfg.AllowedUsers),
		"defaultModel", defaultModel.String())

	done := make(chan struct{})
	go func() {
		defer close(done)
		botInst.Start(ctx)
	}()

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	sig := <-c
	log.InfoContext(ctx, "Shutdown signal is received",
		"signal", sig.String())
	cancel()

	<-done
	log.InfoContext(ctx, "Bot is stopped",
		"signal", sig.String(),
		"uptimeSeconds", time.Since(start).Seconds())
}

func initPipeline(cfg config.Config, log *slog.Logger) *pipeline.Pipeline {
	extractions := map[domain.SourceKind]pipeline.Extraction{
		domain.SourceVideoTranscript: {
			Extractor: source.NewTranscriptExtractor(source.TranscriptConfig{
				Timeout: cfg.TranscriptTimeout,
			}, log),
			Failure: domain.KindTranscriptUnavailable,
		},
		domain.SourceWebPage: {
			Extractor: source.NewPageExtractor(cfg.FetchTimeout, log),
			Failure:   domain.KindFetchFailed,
		},
	}

	return pipeline.New(
		extractions,
		summarizer.NewOpenRouterSummarizer(),
		pipeline.Config{
			Endpoint:          cfg.OpenRouterBaseURL,
			GenerationTimeout: cfg.GenerationTimeout,
		},
		log,
	)
}
