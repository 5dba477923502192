package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
)

type Config struct {
	AppEnv      string `env:"APP_ENV,default=development"`
	Port        string `env:"PORT,default=8080"`
	PostgresURL string `env:"POSTGRES_URL,required"`
	JWTSecret   string `env:"JWT_SECRET,required"`

	// Comma separated; empty allows any origin.
	CORSOrigins string `env:"CORS_ORIGINS"`

	ResetConfirmTTL time.Duration `env:"RESET_CONFIRM_TTL,default=2m"`
	NotifyChannel   string        `env:"NOTIFY_CHANNEL,default=notifications_feed"`

	ListenerMinReconnect time.Duration `env:"LISTENER_MIN_RECONNECT,default=10s"`
	ListenerMaxReconnect time.Duration `env:"LISTENER_MAX_RECONNECT,default=1m"`
}

// Load reads .env (when present) and decodes the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envdecode.Decode(&cfg); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if len(cfg.JWTSecret) < 16 {
		return nil, errors.New("JWT_SECRET must be at least 16 characters")
	}
	return &cfg, nil
}

func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.AppEnv, "production")
}

func (c *Config) AllowedOrigins() []string {
	if strings.TrimSpace(c.CORSOrigins) == "" {
		return nil
	}
	var out []string
	for _, o := range strings.Split(c.CORSOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}
