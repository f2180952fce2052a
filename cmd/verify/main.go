package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/ilyakaznacheev/cleanenv"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/tendant/chi-demo/app"

	"github.com/nexrate/nexrate-verify/pkg/notice"
	"github.com/nexrate/nexrate-verify/pkg/notification"
	"github.com/nexrate/nexrate-verify/pkg/ratelimit"
	"github.com/nexrate/nexrate-verify/pkg/ratequote"
	"github.com/nexrate/nexrate-verify/pkg/user"
	"github.com/nexrate/nexrate-verify/pkg/verification"
	verifyapi "github.com/nexrate/nexrate-verify/pkg/verification/api"
)

type DbConfig struct {
	Host     string `env:"NEXRATE_PG_HOST" env-default:"localhost"`
	Port     uint16 `env:"NEXRATE_PG_PORT" env-default:"5432"`
	Database string `env:"NEXRATE_PG_DATABASE" env-default:"nexrate_db"`
	User     string `env:"NEXRATE_PG_USER" env-default:"nexrate"`
	Password string `env:"NEXRATE_PG_PASSWORD" env-default:"pwd"`
}

func (d DbConfig) connString() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s",
		d.User, d.Password, d.Host, d.Port, d.Database)
}

type SMTPConfig struct {
	Host     string `env:"SMTP_HOST" env-default:"localhost"`
	Port     int    `env:"SMTP_PORT" env-default:"1025"`
	Username string `env:"SMTP_USERNAME" env-default:""`
	Password string `env:"SMTP_PASSWORD" env-default:""`
	From     string `env:"SMTP_FROM" env-default:"no-reply@nexrate.app"`
	TLS      bool   `env:"SMTP_TLS" env-default:"false"`
}

type VerificationConfig struct {
	CodeExpiryMinutes int `env:"VERIFICATION_CODE_EXPIRY_MINUTES" env-default:"5"`
	MaxAttempts       int `env:"VERIFICATION_MAX_ATTEMPTS" env-default:"5"`
	// Codes issued per email per window; 0 disables the resend gate
	ResendLimit         int `env:"VERIFICATION_RESEND_LIMIT" env-default:"0"`
	ResendWindowMinutes int `env:"VERIFICATION_RESEND_WINDOW_MINUTES" env-default:"10"`
}

type RateQuoteConfig struct {
	ProviderBaseURL string `env:"RATE_PROVIDER_BASE_URL" env-default:"https://api.coingecko.com/api/v3"`
	QuoteTTLSeconds int    `env:"RATE_QUOTE_TTL_SECONDS" env-default:"60"`
}

type Config struct {
	// postgres or file
	PersistenceType string `env:"PERSISTENCE_TYPE" env-default:"postgres"`
	DataDir         string `env:"DATA_DIR" env-default:"./data"`

	DbConfig           DbConfig
	SMTPConfig         SMTPConfig
	VerificationConfig VerificationConfig
	RateQuoteConfig    RateQuoteConfig
	AppConfig          app.AppConfig
}

func main() {
	godotenv.Load()

	config := Config{}
	cleanenv.ReadEnv(&config)

	server := app.DefaultApp()
	app.RegisterHealthzRoutes(server.R)

	userRepo, err := buildUserRepository(config)
	if err != nil {
		slog.Error("Failed creating user repository", "persistence", config.PersistenceType, "error", err)
		os.Exit(-1)
	}

	notificationManager, err := notice.NewNotificationManager(notification.SMTPConfig{
		Host:     config.SMTPConfig.Host,
		Port:     config.SMTPConfig.Port,
		Username: config.SMTPConfig.Username,
		Password: config.SMTPConfig.Password,
		From:     config.SMTPConfig.From,
		TLS:      config.SMTPConfig.TLS,
	})
	if err != nil {
		slog.Error("Failed creating notification manager", "error", err)
		os.Exit(-1)
	}

	verificationOpts := []verification.VerificationServiceOption{
		verification.WithCodeExpiry(time.Duration(config.VerificationConfig.CodeExpiryMinutes) * time.Minute),
		verification.WithMaxAttempts(config.VerificationConfig.MaxAttempts),
	}
	if config.VerificationConfig.ResendLimit > 0 {
		verificationOpts = append(verificationOpts, verification.WithResendLimit(
			config.VerificationConfig.ResendLimit,
			time.Duration(config.VerificationConfig.ResendWindowMinutes)*time.Minute,
		))
	}
	verificationService := verification.NewVerificationService(userRepo, notificationManager, verificationOpts...)
	verificationHandler := verifyapi.NewVerificationHandler(verificationService)

	rateQuoteService := ratequote.NewRateQuoteService(
		ratequote.NewHTTPFetcher(config.RateQuoteConfig.ProviderBaseURL),
		ratequote.WithQuoteTTL(time.Duration(config.RateQuoteConfig.QuoteTTLSeconds)*time.Second),
	)
	rateQuoteHandler := ratequote.NewHandler(rateQuoteService)

	rateLimiter := ratelimit.NewMiddleware(ratelimit.DefaultConfig())
	server.R.Use(rateLimiter.Handler)

	server.R.Route("/api", func(r chi.Router) {
		verificationHandler.Routes(r)
		rateQuoteHandler.Routes(r)
	})

	slog.Info("Starting nexrate-verify",
		"persistence", config.PersistenceType,
		"smtp_host", config.SMTPConfig.Host)

	server.Run()
}

func buildUserRepository(config Config) (user.UserRepository, error) {
	repoConfig := user.RepositoryConfig{DataDir: config.DataDir}

	if config.PersistenceType == "postgres" || config.PersistenceType == "postgresql" {
		pool, err := pgxpool.New(context.Background(), config.DbConfig.connString())
		if err != nil {
			return nil, fmt.Errorf("failed creating db pool: %w", err)
		}
		repoConfig.DB = pool
	}

	return user.NewUserRepository(config.PersistenceType, repoConfig)
}
