package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server       ServerConfig
	Database     DatabaseConfig
	Redis        RedisConfig
	Encryption   EncryptionConfig
	RateLimit    RateLimitConfig
	Session      SessionConfig
	Workspace    WorkspaceConfig
	Auth         AuthConfig
	Verification VerificationConfig
	Mail         MailConfig
	Cache        CacheConfig
	Worker       WorkerConfig
}

type ServerConfig struct {
	Host           string
	Port           int
	Env            string
	AllowedOrigins []string
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
}

type EncryptionConfig struct {
	Key string
}

// RateLimitConfig is the global per-IP limit applied to every request.
type RateLimitConfig struct {
	Requests      int
	WindowSeconds int
}

// SessionConfig bounds the number of live access tokens per user.
type SessionConfig struct {
	Max         int
	ExpiryHours int
}

type WorkspaceConfig struct {
	Max                     int
	BlogMax                 int
	RejoinPreservesJoinedAt bool
}

// AuthConfig holds the sign-in/sign-up switches and the per-(ip, email)
// attempt limit.
type AuthConfig struct {
	SigninEnabled     bool
	SignupEnabled     bool
	LimitRequests     int
	LimitWindowHours  int
	PasswordResetMins int
}

type VerificationConfig struct {
	Enabled       bool
	ExpiryMinutes int
}

type MailConfig struct {
	ClientURL    string
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	From         string
}

type CacheConfig struct {
	TTLSeconds int
}

type WorkerConfig struct {
	Concurrency    int
	TokenPruneCron string
}

func (d *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode,
	)
}

func (r *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

func (s *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

func (s *ServerConfig) IsDevelopment() bool {
	return s.Env == "development"
}

func (s *SessionConfig) Expiry() time.Duration {
	return time.Duration(s.ExpiryHours) * time.Hour
}

func (a *AuthConfig) LimitWindow() time.Duration {
	return time.Duration(a.LimitWindowHours) * time.Hour
}

func (a *AuthConfig) PasswordResetExpiry() time.Duration {
	return time.Duration(a.PasswordResetMins) * time.Minute
}

func (v *VerificationConfig) Expiry() time.Duration {
	return time.Duration(v.ExpiryMinutes) * time.Minute
}

func (c *CacheConfig) TTL() time.Duration {
	return time.Duration(c.TTLSeconds) * time.Second
}

func (m *MailConfig) SMTPAddr() string {
	return fmt.Sprintf("%s:%d", m.SMTPHost, m.SMTPPort)
}

func Load() (*Config, error) {
	v := viper.New()

	// Set defaults
	v.SetDefault("SERVER_HOST", "0.0.0.0")
	v.SetDefault("SERVER_PORT", 8080)
	v.SetDefault("SERVER_ENV", "development")
	v.SetDefault("ALLOWED_ORIGINS", "http://localhost:3000,http://localhost:3001")
	v.SetDefault("DATABASE_HOST", "localhost")
	v.SetDefault("DATABASE_PORT", 5432)
	v.SetDefault("DATABASE_USER", "localspace")
	v.SetDefault("DATABASE_PASSWORD", "localspace_secret")
	v.SetDefault("DATABASE_NAME", "localspace")
	v.SetDefault("DATABASE_SSLMODE", "disable")
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("RATE_LIMIT_REQUESTS", 100)
	v.SetDefault("RATE_LIMIT_WINDOW_SECONDS", 60)
	v.SetDefault("SESSION_MAX", 2)
	v.SetDefault("SESSION_EXPIRY_HOURS", 168)
	v.SetDefault("WORKSPACE_MAX", 5)
	v.SetDefault("WORKSPACE_BLOG_MAX", 20)
	v.SetDefault("WORKSPACE_REJOIN_PRESERVES_JOINED_AT", false)
	v.SetDefault("AUTH_SIGNIN_ENABLED", true)
	v.SetDefault("AUTH_SIGNUP_ENABLED", true)
	v.SetDefault("AUTH_LIMIT_REQUESTS", 5)
	v.SetDefault("AUTH_LIMIT_WINDOW_HOURS", 24)
	v.SetDefault("PASSWORD_RESET_EXPIRY_MINUTES", 15)
	v.SetDefault("EMAIL_VERIFICATION_ENABLED", true)
	v.SetDefault("EMAIL_VERIFICATION_EXPIRY_MINUTES", 15)
	v.SetDefault("APP_CLIENT_URL", "http://localhost:3000")
	v.SetDefault("SMTP_HOST", "")
	v.SetDefault("SMTP_PORT", 587)
	v.SetDefault("SMTP_FROM", "Localspace <no-reply@localspace.dev>")
	v.SetDefault("CACHE_TTL_SECONDS", 3600)
	v.SetDefault("WORKER_CONCURRENCY", 10)
	v.SetDefault("TOKEN_PRUNE_CRON", "0 * * * *")

	// Load from .env file if present
	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	v.AddConfigPath("/app")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	// Override with environment variables
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	cfg := &Config{
		Server: ServerConfig{
			Host:           v.GetString("SERVER_HOST"),
			Port:           v.GetInt("SERVER_PORT"),
			Env:            v.GetString("SERVER_ENV"),
			AllowedOrigins: splitList(v.GetString("ALLOWED_ORIGINS")),
		},
		Database: DatabaseConfig{
			Host:     v.GetString("DATABASE_HOST"),
			Port:     v.GetInt("DATABASE_PORT"),
			User:     v.GetString("DATABASE_USER"),
			Password: v.GetString("DATABASE_PASSWORD"),
			Name:     v.GetString("DATABASE_NAME"),
			SSLMode:  v.GetString("DATABASE_SSLMODE"),
		},
		Redis: RedisConfig{
			Host:     v.GetString("REDIS_HOST"),
			Port:     v.GetInt("REDIS_PORT"),
			Password: v.GetString("REDIS_PASSWORD"),
		},
		Encryption: EncryptionConfig{
			Key: v.GetString("ENCRYPTION_KEY"),
		},
		RateLimit: RateLimitConfig{
			Requests:      v.GetInt("RATE_LIMIT_REQUESTS"),
			WindowSeconds: v.GetInt("RATE_LIMIT_WINDOW_SECONDS"),
		},
		Session: SessionConfig{
			Max:         v.GetInt("SESSION_MAX"),
			ExpiryHours: v.GetInt("SESSION_EXPIRY_HOURS"),
		},
		Workspace: WorkspaceConfig{
			Max:                     v.GetInt("WORKSPACE_MAX"),
			BlogMax:                 v.GetInt("WORKSPACE_BLOG_MAX"),
			RejoinPreservesJoinedAt: v.GetBool("WORKSPACE_REJOIN_PRESERVES_JOINED_AT"),
		},
		Auth: AuthConfig{
			SigninEnabled:     v.GetBool("AUTH_SIGNIN_ENABLED"),
			SignupEnabled:     v.GetBool("AUTH_SIGNUP_ENABLED"),
			LimitRequests:     v.GetInt("AUTH_LIMIT_REQUESTS"),
			LimitWindowHours:  v.GetInt("AUTH_LIMIT_WINDOW_HOURS"),
			PasswordResetMins: v.GetInt("PASSWORD_RESET_EXPIRY_MINUTES"),
		},
		Verification: VerificationConfig{
			Enabled:       v.GetBool("EMAIL_VERIFICATION_ENABLED"),
			ExpiryMinutes: v.GetInt("EMAIL_VERIFICATION_EXPIRY_MINUTES"),
		},
		Mail: MailConfig{
			ClientURL:    strings.TrimRight(v.GetString("APP_CLIENT_URL"), "/"),
			SMTPHost:     v.GetString("SMTP_HOST"),
			SMTPPort:     v.GetInt("SMTP_PORT"),
			SMTPUsername: v.GetString("SMTP_USERNAME"),
			SMTPPassword: v.GetString("SMTP_PASSWORD"),
			From:         v.GetString("SMTP_FROM"),
		},
		Cache: CacheConfig{
			TTLSeconds: v.GetInt("CACHE_TTL_SECONDS"),
		},
		Worker: WorkerConfig{
			Concurrency:    v.GetInt("WORKER_CONCURRENCY"),
			TokenPruneCron: v.GetString("TOKEN_PRUNE_CRON"),
		},
	}

	if cfg.Session.Max < 1 {
		return nil, fmt.Errorf("SESSION_MAX must be at least 1, got %d", cfg.Session.Max)
	}

	return cfg, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
