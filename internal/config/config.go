package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config describes all runtime settings for the client. It is loaded once in
// main, validated, and passed down explicitly.
type Config struct {
	Env string // dev|stage|prod

	Log struct {
		Format string // text|json
		Level  slog.Level
	}

	Game struct {
		ServerURL string
		ID        string
		Color     string // black|white, empty to spectate
		Token     string
	}

	Transport struct {
		DialTimeout  time.Duration
		PingInterval time.Duration
		WriteTimeout time.Duration
	}

	// Redis journal; disabled when Addr is empty.
	Redis struct {
		Addr       string
		DB         int
		JournalTTL time.Duration
		JournalMax int
	}

	// Postgres results store; disabled when URL is empty.
	Postgres struct {
		URL           string
		RunMigrations bool
	}
}

func LoadFromEnv() (Config, error) {
	var c Config

	c.Env = envString("APP_ENV", "dev")
	c.Log.Format = envString("LOG_FORMAT", "text")
	c.Log.Level = envLevel("LOG_LEVEL", slog.LevelInfo)

	c.Game.ServerURL = envString("SERVER_URL", "http://localhost:8080")
	c.Game.ID = envString("GAME_ID", "")
	c.Game.Color = strings.ToLower(envString("PLAYER_COLOR", ""))
	c.Game.Token = envString("AUTH_TOKEN", "")

	c.Transport.DialTimeout = envDuration("DIAL_TIMEOUT", 10*time.Second)
	c.Transport.PingInterval = envDuration("PING_INTERVAL", 25*time.Second)
	c.Transport.WriteTimeout = envDuration("WRITE_TIMEOUT", 10*time.Second)

	c.Redis.Addr = envString("REDIS_ADDR", "")
	c.Redis.DB = envInt("REDIS_DB", 0)
	c.Redis.JournalTTL = envDuration("JOURNAL_TTL", 24*time.Hour)
	c.Redis.JournalMax = envInt("JOURNAL_MAX", 1000)

	c.Postgres.URL = envString("DATABASE_URL", "")
	c.Postgres.RunMigrations = envBool("RUN_MIGRATIONS", false)

	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Spectator reports whether the client joins without a seat.
func (c Config) Spectator() bool { return c.Game.Color == "" }

func (c Config) Validate() error {
	if c.Game.ServerURL == "" {
		return errors.New("SERVER_URL is empty")
	}
	u, err := url.Parse(c.Game.ServerURL)
	if err != nil || u.Host == "" {
		return fmt.Errorf("invalid SERVER_URL=%q", c.Game.ServerURL)
	}
	if c.Game.ID == "" {
		return errors.New("GAME_ID is empty")
	}
	switch c.Game.Color {
	case "", "black", "white":
	default:
		return fmt.Errorf("unsupported PLAYER_COLOR=%q (want black|white or empty)", c.Game.Color)
	}
	if c.Spectator() && c.Game.Token != "" {
		return errors.New("AUTH_TOKEN is set but PLAYER_COLOR is empty")
	}
	if c.Env != "dev" && u.Scheme != "https" && u.Scheme != "wss" {
		return fmt.Errorf("refuse to use plaintext SERVER_URL in %s", c.Env)
	}
	if c.Transport.DialTimeout <= 0 {
		return errors.New("DIAL_TIMEOUT must be positive")
	}
	if c.Redis.JournalMax < 0 {
		return errors.New("JOURNAL_MAX must not be negative")
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		return fmt.Errorf("unsupported LOG_FORMAT=%q (want text|json)", c.Log.Format)
	}
	return nil
}

func envString(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		d, err := time.ParseDuration(v)
		if err == nil {
			return d
		}
	}
	return def
}

func envBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}

func envLevel(key string, def slog.Level) slog.Level {
	if v := os.Getenv(key); v != "" {
		var l slog.Level
		if err := l.UnmarshalText([]byte(v)); err == nil {
			return l
		}
	}
	return def
}
