//go:build ignore

package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/hugh/localspace/internal/apperr"
	"github.com/hugh/localspace/internal/auth"
	"github.com/hugh/localspace/internal/database"
	"github.com/hugh/localspace/internal/mail"
	"github.com/hugh/localspace/internal/ratelimit"
	"github.com/hugh/localspace/internal/token"
	"github.com/hugh/localspace/pkg/config"
	"github.com/hugh/localspace/pkg/crypto"
	"github.com/hugh/localspace/pkg/util"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := util.NewLogger(cfg.Server.Env, "seed")

	db, err := database.Connect(&cfg.Database, logger)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if err := database.AutoMigrate(db); err != nil {
		log.Fatalf("failed to run migrations: %v", err)
	}

	renderer, err := mail.NewRenderer()
	if err != nil {
		log.Fatalf("failed to load mail templates: %v", err)
	}
	limiter := ratelimit.NewSlidingWindow(10, time.Minute)
	defer limiter.Stop()

	// Seeded accounts skip email verification.
	accounts := auth.NewService(db, token.New(), mail.NewInline(renderer, mail.NewLogSender(logger)), limiter, auth.Config{
		SignInEnabled: true,
		SignUpEnabled: true,
		SessionMax:    cfg.Session.Max,
		SessionExpiry: cfg.Session.Expiry(),
		ClientURL:     cfg.Mail.ClientURL,
	}, logger)

	email := os.Getenv("SEED_EMAIL")
	password := os.Getenv("SEED_PASSWORD")
	name := os.Getenv("SEED_NAME")

	if email == "" {
		email = "demo@example.com"
	}
	if password == "" {
		password = "demo-password"
	}
	if name == "" {
		name = "Demo"
	}

	ctx := context.Background()
	res, err := accounts.SignUp(ctx, auth.SignUpInput{
		Name:     name,
		Email:    email,
		Password: password,
		IP:       "127.0.0.1",
	})
	if err != nil {
		if ae, ok := apperr.As(err); ok && ae.Message == auth.MsgEmailTaken {
			fmt.Printf("User already exists: %s\n", email)
			return
		}
		log.Fatalf("failed to create user: %v", err)
	}

	now := time.Now().UTC()
	if err := db.Model(res.User).Update("verified_at", now).Error; err != nil {
		log.Fatalf("failed to verify user: %v", err)
	}

	session, err := accounts.SignIn(ctx, auth.SignInInput{Email: email, Password: password, IP: "127.0.0.1"})
	if err != nil {
		log.Fatalf("failed to sign in: %v", err)
	}

	fmt.Printf("User created successfully!\n")
	fmt.Printf("Email: %s\n", res.User.Email)
	fmt.Printf("Workspace: %s (%s)\n", res.Workspace.Name, res.Workspace.ID)
	fmt.Printf("Token: %s\n", session.Token.Value())

	if cfg.Encryption.Key == "" {
		key, err := crypto.GenerateKey()
		if err != nil {
			log.Fatalf("failed to generate key: %v", err)
		}
		fmt.Printf("ENCRYPTION_KEY is not set. Server and worker must share one, e.g.:\nENCRYPTION_KEY=%s\n", key)
	}
}
