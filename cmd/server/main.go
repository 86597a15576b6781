package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/hugh/localspace/internal/api"
	"github.com/hugh/localspace/internal/auth"
	"github.com/hugh/localspace/internal/blog"
	"github.com/hugh/localspace/internal/cache"
	"github.com/hugh/localspace/internal/database"
	"github.com/hugh/localspace/internal/mail"
	"github.com/hugh/localspace/internal/ratelimit"
	"github.com/hugh/localspace/internal/tasks"
	"github.com/hugh/localspace/internal/token"
	"github.com/hugh/localspace/internal/workspace"
	"github.com/hugh/localspace/pkg/config"
	"github.com/hugh/localspace/pkg/crypto"
	"github.com/hugh/localspace/pkg/queue"
	"github.com/hugh/localspace/pkg/util"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
)

func main() {
	// Load .env file
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := util.NewLogger(cfg.Server.Env, "server")
	slog.SetDefault(logger)

	logger.Info("starting localspace server",
		"env", cfg.Server.Env,
		"addr", cfg.Server.Addr(),
	)

	db, err := database.Connect(&cfg.Database, logger)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}

	if cfg.Server.IsDevelopment() {
		if err := database.AutoMigrate(db); err != nil {
			logger.Error("failed to migrate database", "error", err)
			os.Exit(1)
		}
	}

	// Redis backs the member cache, the auth limiter and the mail queue.
	// Without it each falls back to an in-process equivalent.
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr(),
		Password: cfg.Redis.Password,
	})
	pingCtx, cancelPing := context.WithTimeout(context.Background(), 3*time.Second)
	if err := redisClient.Ping(pingCtx).Err(); err != nil {
		logger.Warn("failed to connect to Redis, using in-memory fallbacks", "error", err)
		redisClient.Close()
		redisClient = nil
	}
	cancelPing()

	encryptor, err := crypto.NewEncryptor(cfg.Encryption.Key)
	if err != nil {
		logger.Error("failed to create encryptor", "error", err)
		os.Exit(1)
	}
	if cfg.Encryption.Key == "" && redisClient != nil {
		logger.Warn("ENCRYPTION_KEY not set, queued mail cannot be opened by the worker")
	}

	var (
		store       cache.Store
		attempts    ratelimit.Limiter
		mailer      mail.Mailer
		asynqClient *asynq.Client
	)
	if redisClient != nil {
		store = cache.NewRedisStore(redisClient, "localspace:")
		attempts = ratelimit.NewFixedWindow(redisClient, "localspace:ratelimit:", cfg.Auth.LimitRequests, cfg.Auth.LimitWindow())
		asynqClient = queue.NewClient(&cfg.Redis)
		mailer = tasks.NewMailQueue(asynqClient, encryptor)
	} else {
		store = cache.NewMemoryStore()
		memLimiter := ratelimit.NewSlidingWindow(cfg.Auth.LimitRequests, cfg.Auth.LimitWindow())
		defer memLimiter.Stop()
		attempts = memLimiter

		renderer, err := mail.NewRenderer()
		if err != nil {
			logger.Error("failed to load mail templates", "error", err)
			os.Exit(1)
		}
		mailer = mail.NewInline(renderer, mail.NewSender(smtpConfig(cfg), logger))
	}

	globalLimiter := ratelimit.NewSlidingWindow(cfg.RateLimit.Requests, time.Duration(cfg.RateLimit.WindowSeconds)*time.Second)
	defer globalLimiter.Stop()

	authService := auth.NewService(db, token.New(), mailer, attempts, auth.Config{
		SignInEnabled:       cfg.Auth.SigninEnabled,
		SignUpEnabled:       cfg.Auth.SignupEnabled,
		SessionMax:          cfg.Session.Max,
		SessionExpiry:       cfg.Session.Expiry(),
		VerificationEnabled: cfg.Verification.Enabled,
		VerificationExpiry:  cfg.Verification.Expiry(),
		PasswordResetExpiry: cfg.Auth.PasswordResetExpiry(),
		ClientURL:           cfg.Mail.ClientURL,
	}, logger)

	members := workspace.NewMemberCache(db, store, cfg.Cache.TTL())
	workspaceService := workspace.NewService(db, members, workspace.Config{
		Max:                     cfg.Workspace.Max,
		RejoinPreservesJoinedAt: cfg.Workspace.RejoinPreservesJoinedAt,
	}, logger)
	blogService := blog.NewService(db, workspaceService, cfg.Workspace.BlogMax, logger)

	router := api.NewRouter(api.RouterConfig{
		DB:             db,
		Redis:          redisClient,
		Logger:         logger,
		Auth:           authService,
		Workspaces:     workspaceService,
		Blogs:          blogService,
		GlobalLimiter:  globalLimiter,
		AllowedOrigins: cfg.Server.AllowedOrigins,
	})

	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", cfg.Server.Addr())
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	if asynqClient != nil {
		asynqClient.Close()
	}
	if redisClient != nil {
		redisClient.Close()
	}

	sqlDB, _ := db.DB()
	sqlDB.Close()

	logger.Info("server stopped")
}

func smtpConfig(cfg *config.Config) mail.SMTPConfig {
	return mail.SMTPConfig{
		Host:     cfg.Mail.SMTPHost,
		Port:     cfg.Mail.SMTPPort,
		Username: cfg.Mail.SMTPUsername,
		Password: cfg.Mail.SMTPPassword,
		From:     cfg.Mail.From,
	}
}
