// Package config loads the process-wide configuration from the environment
// (and an optional .env file), the way cmd/main.go loads its .env before
// wiring the router in the teacher project.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds every knob the engine needs at boot. Nothing here is
// reloaded at runtime; a process restart is required to pick up changes.
type Config struct {
	// DataDir is the root of the filesystem persistence layout described
	// in spec.md §6: pipelines/, build-tasks/, deploy-tasks/, cache/.
	DataDir string

	// HTTPAddr is the address the gin server listens on, e.g. ":8080".
	HTTPAddr string

	// WorkerCount is the global build-scheduler worker pool size (C4).
	WorkerCount int

	// WebhookBaseURL is prefixed to a pipeline's webhook_token to build
	// the URL an operator pastes into their Git host.
	WebhookBaseURL string

	// OperatorToken is the pre-shared secret exchanged for a bearer JWT
	// at POST /api/auth/token (A.1 ambient auth, not multi-tenant auth).
	OperatorToken string
	JWTSigningKey []byte
	JWTTTL        time.Duration

	// DockerHost, if set, is exported as DOCKER_HOST for the docker
	// client; empty means "use the ambient environment/socket".
	DockerHost string

	LogLevel string
	LogPath  string

	// CronTickInterval overrides the minute-boundary tick cadence used by
	// the cron evaluator; tests shrink this, production leaves it at 0
	// (meaning "wait for the real minute boundary").
	CronTickInterval time.Duration

	// WebhookRateLimitPerMinute is the token-bucket rate applied per
	// pipeline webhook token (A.3.5); 0 disables limiting.
	WebhookRateLimitPerMinute int

	// B2 credentials for the optional remote resource-package backend
	// (A.3.3); all empty means "local disk only".
	B2AccountID      string
	B2ApplicationKey string
	B2BucketName     string
}

// Load reads a .env file if present (missing is not an error, matching
// godotenv's typical production usage) and then fills Config from the
// process environment, applying defaults and validating the result the
// way services/secureAlgo_service.go's DefaultServiceOptions/
// validateOptions pair does.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	cfg := &Config{
		DataDir:                   getenv("FORGE_DATA_DIR", "./data"),
		HTTPAddr:                  getenv("FORGE_HTTP_ADDR", ":8080"),
		WorkerCount:               getenvInt("FORGE_WORKER_COUNT", 3),
		WebhookBaseURL:            getenv("FORGE_WEBHOOK_BASE_URL", "http://localhost:8080/api/webhook"),
		OperatorToken:             os.Getenv("FORGE_OPERATOR_TOKEN"),
		JWTSigningKey:             []byte(getenv("FORGE_JWT_SIGNING_KEY", "change-me-in-production")),
		JWTTTL:                    getenvDuration("FORGE_JWT_TTL", 24*time.Hour),
		DockerHost:                os.Getenv("DOCKER_HOST"),
		LogLevel:                  getenv("FORGE_LOG_LEVEL", "info"),
		LogPath:                   os.Getenv("FORGE_LOG_PATH"),
		CronTickInterval:          getenvDuration("FORGE_CRON_TICK_INTERVAL", 0),
		WebhookRateLimitPerMinute: getenvInt("FORGE_WEBHOOK_RATE_LIMIT", 60),
		B2AccountID:               os.Getenv("FORGE_B2_ACCOUNT_ID"),
		B2ApplicationKey:          os.Getenv("FORGE_B2_APPLICATION_KEY"),
		B2BucketName:              os.Getenv("FORGE_B2_BUCKET_NAME"),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.DataDir == "" {
		return fmt.Errorf("FORGE_DATA_DIR must not be empty")
	}
	if c.WorkerCount <= 0 {
		return fmt.Errorf("FORGE_WORKER_COUNT must be positive")
	}
	if c.HTTPAddr == "" {
		return fmt.Errorf("FORGE_HTTP_ADDR must not be empty")
	}
	if len(c.JWTSigningKey) == 0 {
		return fmt.Errorf("FORGE_JWT_SIGNING_KEY must not be empty")
	}
	return nil
}

// B2Enabled reports whether enough B2 credentials were supplied to use it
// as a resource-package backend (A.3.3).
func (c *Config) B2Enabled() bool {
	return c.B2AccountID != "" && c.B2ApplicationKey != "" && c.B2BucketName != ""
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getenvDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
