package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

const (
	FeedPostgres = "postgres"
	FeedRedis    = "redis"
)

type Config struct {
	Port      string `env:"PORT" env-default:"8080"`
	DBUrl     string `env:"DB_URL" env-required:"true"`
	JWTSecret string `env:"JWT_SECRET" env-required:"true"`
	AppEnv    string `env:"APP_ENV" env-default:"production"`

	RedisURL   string `env:"REDIS_URL"`
	ChangeFeed string `env:"CHANGE_FEED" env-default:"postgres"`
	// FeedChannel is both the Postgres NOTIFY channel and the Redis channel.
	FeedChannel string `env:"CHANGE_FEED_CHANNEL" env-default:"chat_changes"`

	Sync    SyncConfig
	Storage StorageConfig
}

type SyncConfig struct {
	Debounce             time.Duration `env:"SYNC_DEBOUNCE" env-default:"300ms"`
	ForegroundStaleAfter time.Duration `env:"SYNC_FOREGROUND_STALE_AFTER" env-default:"30s"`
	MarkReadDelay        time.Duration `env:"SYNC_MARK_READ_DELAY" env-default:"200ms"`
	DisplayTimezone      string        `env:"DISPLAY_TIMEZONE" env-default:"UTC"`
}

type StorageConfig struct {
	Endpoint        string        `env:"S3_ENDPOINT"`
	Region          string        `env:"S3_REGION" env-default:"us-east-1"`
	Bucket          string        `env:"S3_BUCKET"`
	AccessKeyID     string        `env:"S3_ACCESS_KEY_ID"`
	SecretAccessKey string        `env:"S3_SECRET_ACCESS_KEY"`
	PublicBaseURL   string        `env:"S3_PUBLIC_BASE_URL"`
	PresignTTL      time.Duration `env:"S3_PRESIGN_TTL" env-default:"15m"`
}

func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("read environment: %w", err)
	}
	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) normalize() error {
	c.AppEnv = normalizeEnv(c.AppEnv)
	c.ChangeFeed = strings.ToLower(strings.TrimSpace(c.ChangeFeed))

	switch c.ChangeFeed {
	case FeedPostgres:
	case FeedRedis:
		if c.RedisURL == "" {
			return fmt.Errorf("REDIS_URL is required when CHANGE_FEED=redis")
		}
	default:
		return fmt.Errorf("unsupported CHANGE_FEED %q", c.ChangeFeed)
	}

	if _, err := time.LoadLocation(c.Sync.DisplayTimezone); err != nil {
		return fmt.Errorf("invalid DISPLAY_TIMEZONE %q: %w", c.Sync.DisplayTimezone, err)
	}
	return nil
}

// Location is the zone chat list date labels are computed in.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Sync.DisplayTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func (c *Config) StorageEnabled() bool {
	return c != nil && c.Storage.Bucket != "" && c.Storage.Endpoint != ""
}

func normalizeEnv(value string) string {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "dev", "develop", "development", "local":
		return "development"
	case "prod", "production":
		return "production"
	case "stage", "staging":
		return "staging"
	case "test", "testing":
		return "test"
	default:
		return strings.ToLower(strings.TrimSpace(value))
	}
}
