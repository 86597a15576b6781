package main

import (
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/hugh/localspace/internal/database"
	"github.com/hugh/localspace/internal/mail"
	"github.com/hugh/localspace/internal/tasks"
	"github.com/hugh/localspace/pkg/config"
	"github.com/hugh/localspace/pkg/crypto"
	"github.com/hugh/localspace/pkg/queue"
	"github.com/hugh/localspace/pkg/util"
	"github.com/joho/godotenv"
)

func main() {
	// Load .env file
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := util.NewLogger(cfg.Server.Env, "worker")
	slog.SetDefault(logger)

	logger.Info("starting localspace worker", "concurrency", cfg.Worker.Concurrency)

	if err := util.ValidateCronExpr(cfg.Worker.TokenPruneCron); err != nil {
		logger.Error("invalid TOKEN_PRUNE_CRON", "expr", cfg.Worker.TokenPruneCron, "error", err)
		os.Exit(1)
	}

	db, err := database.Connect(&cfg.Database, logger)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}

	if cfg.Encryption.Key == "" {
		logger.Error("ENCRYPTION_KEY is required to open queued mail")
		os.Exit(1)
	}
	encryptor, err := crypto.NewEncryptor(cfg.Encryption.Key)
	if err != nil {
		logger.Error("failed to create encryptor", "error", err)
		os.Exit(1)
	}

	renderer, err := mail.NewRenderer()
	if err != nil {
		logger.Error("failed to load mail templates", "error", err)
		os.Exit(1)
	}
	sender := mail.NewSender(mail.SMTPConfig{
		Host:     cfg.Mail.SMTPHost,
		Port:     cfg.Mail.SMTPPort,
		Username: cfg.Mail.SMTPUsername,
		Password: cfg.Mail.SMTPPassword,
		From:     cfg.Mail.From,
	}, logger)

	handler := tasks.NewHandler(db, logger, encryptor, renderer, sender)
	mux := asynq.NewServeMux()
	handler.RegisterHandlers(mux)

	pruneTask, err := tasks.NewPruneTokensTask()
	if err != nil {
		logger.Error("failed to create prune task", "error", err)
		os.Exit(1)
	}
	scheduler := queue.NewScheduler(&cfg.Redis)
	entryID, err := scheduler.Register(cfg.Worker.TokenPruneCron, pruneTask, asynq.Queue(queue.QueueMaintenance))
	if err != nil {
		logger.Error("failed to register prune schedule", "error", err)
		os.Exit(1)
	}
	next, _ := util.NextCronTime(cfg.Worker.TokenPruneCron, time.Now())
	logger.Info("scheduled token pruning", "cron", cfg.Worker.TokenPruneCron, "entry_id", entryID, "next_run", next)

	srv := queue.NewServer(&cfg.Redis, cfg.Worker.Concurrency)

	if err := scheduler.Start(); err != nil {
		logger.Error("failed to start scheduler", "error", err)
		os.Exit(1)
	}
	if err := srv.Start(mux); err != nil {
		logger.Error("failed to start worker", "error", err)
		scheduler.Shutdown()
		os.Exit(1)
	}

	logger.Info("worker started, waiting for tasks...")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down worker...")
	scheduler.Shutdown()
	srv.Shutdown()

	sqlDB, _ := db.DB()
	sqlDB.Close()

	logger.Info("worker stopped")
}
