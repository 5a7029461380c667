package main

import (
	"context"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Houeta/car-watch/internal/bot"
	"github.com/Houeta/car-watch/internal/config"
	"github.com/Houeta/car-watch/internal/mailer"
	"github.com/Houeta/car-watch/internal/parser"
	"github.com/Houeta/car-watch/internal/repository"
	"github.com/Houeta/car-watch/internal/repository/filestore"
	"github.com/Houeta/car-watch/internal/repository/snapshot"
	"github.com/Houeta/car-watch/internal/repository/sqlite"
	"github.com/Houeta/car-watch/internal/services/checker"
	"github.com/Houeta/car-watch/internal/services/notifier"
)

// Constants for different environment types.
const (
	envLocal = "local"
	envDev   = "development"
	envProd  = "production"
)

// main is the entry point of the application.
func main() {
	// Create a context that will be canceled when an interrupt signal is received.
	// This allows for graceful shutdown.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.MustLoad()

	// Set up the logger based on the environment.
	logger := setupLogger(cfg.Env)

	registry := parser.DefaultRegistry()
	if err := cfg.CheckSources(registry.Sources()); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	docs, subs, closer, err := setupStorage(ctx, logger, cfg.Storage)
	if err != nil {
		log.Fatalf("Failed to init storage: %v", err)
	}
	defer closer.Close()

	var sinks []notifier.Notifier
	var carBot *bot.Bot
	if cfg.Tg.Token != "" {
		carBot, err = bot.NewBot(logger, cfg.Tg.Token, cfg.Tg.Timeout, subs, cfg.Tg.ChatID)
		if err != nil {
			log.Fatalf("Failed to init bot: %v", err)
		}
		sinks = append(sinks, carBot)
	}
	if cfg.SMTP.Host != "" {
		mail, mErr := mailer.New(logger, mailer.Options{
			Host:     cfg.SMTP.Host,
			Port:     cfg.SMTP.Port,
			Username: cfg.SMTP.Username,
			Password: cfg.SMTP.Password,
			From:     cfg.SMTP.From,
		})
		if mErr != nil {
			log.Fatalf("Failed to init mailer: %v", mErr)
		}
		sinks = append(sinks, mail)
	}
	if len(sinks) == 0 {
		logger.WarnContext(ctx, "No notification sink configured, new ads will only be stored")
	}

	fetcher := parser.NewFetcher(logger, parser.FetcherOptions{
		Timeout:       cfg.HTTP.Timeout,
		Rate:          cfg.HTTP.Rate,
		Retries:       cfg.HTTP.Retries,
		RetryInterval: cfg.HTTP.RetryInterval,
	})

	var opts []checker.Option
	if cfg.Storage.ArchivePages {
		opts = append(opts, checker.WithArchive(docs))
	}
	carChecker := checker.NewChecker(
		logger,
		registry,
		fetcher,
		snapshot.NewRepository(logger, docs, cfg.Storage.PathTemplate),
		notifier.NewDispatcher(logger, sinks...),
		opts...,
	)

	if cfg.RunOnce {
		if _, err = carChecker.Sweep(ctx, cfg.Searches, cfg.Parallelism); err != nil {
			logger.ErrorContext(ctx, "Sweep finished with errors", "error", err)
			closer.Close()
			os.Exit(1)
		}
		logger.InfoContext(ctx, "Sweep finished")
		return
	}

	// Log that the application has started.
	logger.InfoContext(ctx, "Application started. Press Ctrl+C to stop.")

	// Start the bot in a goroutine to allow main to listen for signals.
	if carBot != nil {
		go carBot.Start()
	}

	runSweeps(ctx, logger, carChecker, cfg)

	// Log that a shutdown signal has been received.
	logger.InfoContext(ctx, "Shutdown signal received. Stopping application...")

	// Stop the bot gracefully.
	if carBot != nil {
		carBot.Stop()
	}

	// Log graceful shutdown completion.
	logger.InfoContext(ctx, "Application stopped gracefully.")
}

// runSweeps sweeps every configured search once per interval until ctx is canceled.
func runSweeps(ctx context.Context, logger *slog.Logger, carChecker *checker.Checker, cfg *config.Config) {
	ticker := time.NewTicker(cfg.Interval)
	defer ticker.Stop()

	for {
		if _, err := carChecker.Sweep(ctx, cfg.Searches, cfg.Parallelism); err != nil {
			logger.ErrorContext(ctx, "Sweep finished with errors", "error", err)
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// setupStorage opens the document store selected by the storage driver. Chat
// subscriptions need SQLite and are nil with the file driver.
func setupStorage(
	ctx context.Context,
	logger *slog.Logger,
	cfg config.Storage,
) (repository.DocumentStore, bot.SubscriptionRepository, io.Closer, error) {
	if cfg.Driver == config.DriverFile {
		return filestore.New(logger, cfg.Path), nil, nopCloser{}, nil
	}

	repo, err := sqlite.NewRepository(ctx, logger, cfg.Path)
	if err != nil {
		return nil, nil, nil, err
	}

	return repo, repo, repo, nil
}

// setupLogger initializes and returns a logger based on the environment provided.
func setupLogger(env string) *slog.Logger {
	var log *slog.Logger

	switch env {
	case envLocal:
		log = slog.New(
			slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
				Level:     slog.LevelDebug,
				AddSource: true,
				ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
					return a
				},
			}),
		)
	case envDev:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
				Level:     slog.LevelInfo,
				AddSource: false,
				ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
					return a
				},
			}),
		)
	case envProd:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
				Level:     slog.LevelWarn,
				AddSource: false,
				ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
					if a.Key == slog.TimeKey {
						return slog.Attr{}
					}
					return a
				},
			}),
		)
	default:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
				Level:     slog.LevelError,
				AddSource: false,
				ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
					if a.Key == slog.TimeKey {
						return slog.Attr{}
					}
					return a
				},
			}),
		)

		log.Error(
			"The env parameter was not specified	 or was invalid. Logging will be minimal, by default.",
			slog.String("available_envs", "local, development, production"))
	}

	return log
}
