package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config хранит все конфигурационные параметры приложения.
type Config struct {
	DatabaseURL  string
	JWTSecretKey string
	ServerPort   int
	PublicURL    string

	CORSAllowedOrigins []string

	AmazonAssociateTag string

	R2 R2Config

	SMTPHost string
	SMTPPort int
	SMTPUser string
	SMTPPass string
	SMTPFrom string

	InviteCleanupInterval time.Duration
	MatchMaxAttempts      int
}

type R2Config struct {
	AccountID       string
	AccessKeyID     string
	SecretAccessKey string
	BucketName      string
	PublicBaseURL   string
}

// Enabled is false when no R2 variable is set; uploads are then disabled.
func (c R2Config) Enabled() bool {
	return c.AccountID != ""
}

func (c R2Config) validate() error {
	set := 0
	for _, v := range []string{c.AccountID, c.AccessKeyID, c.SecretAccessKey, c.BucketName, c.PublicBaseURL} {
		if v != "" {
			set++
		}
	}
	if set != 0 && set != 5 {
		return fmt.Errorf("R2 configuration is partial: set all of R2_ACCOUNT_ID, R2_ACCESS_KEY_ID, R2_SECRET_ACCESS_KEY, R2_BUCKET_NAME, R2_PUBLIC_BASE_URL or none")
	}
	return nil
}

// SMTPEnabled is false when SMTP_HOST is empty; invite e-mails are then skipped.
func (c *Config) SMTPEnabled() bool {
	return c.SMTPHost != ""
}

// Load загружает конфигурацию из переменных окружения.
// Опционально подгружает .env файл (полезно для локальной разработки).
func Load() (*Config, error) {
	_ = godotenv.Load()
	return FromEnv(os.Getenv)
}

// FromEnv собирает конфигурацию из произвольного источника переменных.
func FromEnv(getenv func(string) string) (*Config, error) {
	dbURL := getenv("DATABASE_URL")
	if dbURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is not set")
	}

	jwtKey := getenv("JWT_SECRET_KEY")
	if jwtKey == "" {
		return nil, fmt.Errorf("JWT_SECRET_KEY environment variable is not set")
	}

	port, err := intEnv(getenv, "SERVER_PORT", 8080)
	if err != nil {
		return nil, err
	}
	if port <= 0 || port > 65535 {
		return nil, fmt.Errorf("SERVER_PORT must be between 1 and 65535, got %d", port)
	}

	smtpPort, err := intEnv(getenv, "SMTP_PORT", 587)
	if err != nil {
		return nil, err
	}

	maxAttempts, err := intEnv(getenv, "MATCH_MAX_ATTEMPTS", 1000)
	if err != nil {
		return nil, err
	}
	if maxAttempts <= 0 {
		return nil, fmt.Errorf("MATCH_MAX_ATTEMPTS must be positive, got %d", maxAttempts)
	}

	cleanup := time.Hour
	if v := getenv("INVITE_CLEANUP_INTERVAL"); v != "" {
		cleanup, err = time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("invalid INVITE_CLEANUP_INTERVAL environment variable: %w", err)
		}
		if cleanup <= 0 {
			return nil, fmt.Errorf("INVITE_CLEANUP_INTERVAL must be positive, got %s", cleanup)
		}
	}

	publicURL := strings.TrimRight(getenv("PUBLIC_URL"), "/")
	if publicURL == "" {
		publicURL = fmt.Sprintf("http://localhost:%d", port)
	}

	cfg := &Config{
		DatabaseURL:        dbURL,
		JWTSecretKey:       jwtKey,
		ServerPort:         port,
		PublicURL:          publicURL,
		CORSAllowedOrigins: splitList(getenv("CORS_ALLOWED_ORIGINS"), []string{"*"}),
		AmazonAssociateTag: strings.TrimSpace(getenv("AMAZON_ASSOCIATE_TAG")),
		R2: R2Config{
			AccountID:       getenv("R2_ACCOUNT_ID"),
			AccessKeyID:     getenv("R2_ACCESS_KEY_ID"),
			SecretAccessKey: getenv("R2_SECRET_ACCESS_KEY"),
			BucketName:      getenv("R2_BUCKET_NAME"),
			PublicBaseURL:   getenv("R2_PUBLIC_BASE_URL"),
		},
		SMTPHost:              getenv("SMTP_HOST"),
		SMTPPort:              smtpPort,
		SMTPUser:              getenv("SMTP_USER"),
		SMTPPass:              getenv("SMTP_PASS"),
		SMTPFrom:              getenv("SMTP_FROM"),
		InviteCleanupInterval: cleanup,
		MatchMaxAttempts:      maxAttempts,
	}

	if err := cfg.R2.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func intEnv(getenv func(string) string, key string, def int) (int, error) {
	v := getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s environment variable: %w", key, err)
	}
	return n, nil
}

func splitList(v string, def []string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}
