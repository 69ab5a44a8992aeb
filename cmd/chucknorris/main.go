package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"chuck-jokes/internal/chucknorris"
	"chuck-jokes/internal/config"
	"chuck-jokes/internal/database"
	"chuck-jokes/internal/importer"
	"chuck-jokes/internal/notify"
	"chuck-jokes/internal/queue"
	"chuck-jokes/pkg/logger"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	cmd, err := parseArgs(args)
	if err != nil {
		fmt.Fprintln(os.Stderr, argError(err))
		return 1
	}

	cfg, err := config.Load()
	if err != nil {
		switch {
		case errors.Is(err, config.ErrEmptyDBPassword):
			fmt.Fprintln(os.Stderr, "Error: DB_PASSWORD or DB_URL environment variable is required")
		case errors.Is(err, config.ErrEmptyBotToken):
			fmt.Fprintln(os.Stderr, "Error: NOTIFY_TELEGRAM_TOKEN is required when telegram notifications are enabled")
		default:
			fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		}
		return 1
	}

	logger.Init(cfg.App.LogLevel, logOutput(cfg.App))
	logger.Info("Starting chuck-jokes",
		logger.String("app", cfg.App.Name),
		logger.String("environment", cfg.App.Environment),
		logger.Bool("clean", cmd.clean),
	)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	repo, err := database.Open(ctx, cfg.Database)
	if err != nil {
		var dbErr *database.ConnectionError
		if errors.As(err, &dbErr) {
			logger.Error("Failed to connect to database",
				logger.Err(dbErr),
				logger.String("host", dbErr.Host),
				logger.Int("port", dbErr.Port),
			)
		} else {
			logger.Error("Failed to open database", logger.Err(err))
		}
		return 1
	}
	defer repo.Close()

	if cmd.clean {
		return clean(ctx, repo)
	}

	return importJokes(ctx, cfg, repo, cmd.count)
}

func logOutput(cfg config.AppConfig) io.Writer {
	if cfg.LogFile == "" {
		return os.Stdout
	}
	return logger.FileWriter(cfg.LogFile, cfg.LogMaxSizeMB, cfg.LogMaxBackups)
}

func clean(ctx context.Context, repo database.Repository) int {
	if _, err := importer.NewCleaner(repo).Clean(ctx); err != nil {
		logger.Error("Error deleting jokes", logger.Err(err))
		return 1
	}
	return 0
}

func importJokes(ctx context.Context, cfg *config.Config, repo database.Repository, count int) int {
	var opts []importer.Option
	if cfg.NATS.Enabled {
		q, err := queue.New(cfg.NATS)
		if err != nil {
			logger.Error("Failed to connect to NATS", logger.Err(err))
			return 1
		}
		defer q.Close()
		logger.Info("Connected to NATS", logger.String("url", cfg.NATS.URL))
		opts = append(opts, importer.WithPublisher(q))
	}

	api := chucknorris.New(cfg.API)
	res, err := importer.New(cfg.Import, api, repo, opts...).Run(ctx, count)

	var transportErr *chucknorris.TransportError
	switch {
	case errors.Is(err, context.Canceled):
		logger.Warn("Import interrupted, nothing was saved", logger.Err(err))
		return 1
	case errors.As(err, &transportErr):
		logger.Error("Error downloading joke", logger.Err(err))
		return 0
	case errors.Is(err, importer.ErrStore):
		logger.Error("Error importing joke", logger.Err(err))
		return 1
	case err != nil:
		logger.Error("Import failed", logger.Err(err))
		return 1
	}

	if cfg.Notify.Telegram.Enabled {
		sendSummary(ctx, cfg.Notify.Telegram, res)
	}

	return 0
}

func sendSummary(ctx context.Context, cfg config.TelegramConfig, res *importer.Result) {
	tg, err := notify.NewTelegram(cfg)
	if err != nil {
		logger.Error("Failed to create telegram notifier", logger.Err(err))
		return
	}
	if err := tg.Notify(ctx, res.Summary()); err != nil {
		logger.Error("Failed to send import summary", logger.Err(err))
	}
}
