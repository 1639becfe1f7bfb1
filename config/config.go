package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config carries every runtime setting of the bot. Values come from the
// environment, optionally seeded from a .env file.
type Config struct {
	DiscordToken  string   `env:"DISCORD_TOKEN,required"`
	CommandPrefix string   `env:"COMMAND_PREFIX" envDefault:"!"`
	AllowedGuilds []string `env:"ALLOWED_GUILD_IDS" envSeparator:","`

	LavalinkAddr          string        `env:"LAVALINK_ADDR,required"`
	LavalinkPassword      string        `env:"LAVALINK_PASSWORD,required"`
	LavalinkSecure        bool          `env:"LAVALINK_SECURE" envDefault:"false"`
	LavalinkResumeTimeout time.Duration `env:"LAVALINK_RESUME_TIMEOUT" envDefault:"120s"`

	ReconnectAttempts int           `env:"RECONNECT_ATTEMPTS" envDefault:"5"`
	EnsureAttempts    int           `env:"ENSURE_ATTEMPTS" envDefault:"3"`
	ReconnectBackoff  time.Duration `env:"RECONNECT_BACKOFF" envDefault:"500ms"`
	BackoffMultiplier float64       `env:"BACKOFF_MULTIPLIER" envDefault:"1.7"`
	HeartbeatInterval time.Duration `env:"HEARTBEAT_INTERVAL" envDefault:"30s"`

	SpotifyClientID     string `env:"SPOTIFY_CLIENT_ID"`
	SpotifyClientSecret string `env:"SPOTIFY_CLIENT_SECRET"`
	AppleMusicCountry   string `env:"APPLE_MUSIC_COUNTRY" envDefault:"NO"`

	RedisHost     string `env:"REDIS_HOST"`
	RedisPort     int    `env:"REDIS_PORT" envDefault:"6379"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	DBHost     string `env:"DB_HOST"`
	DBPort     int    `env:"DB_PORT" envDefault:"5432"`
	DBUser     string `env:"DB_USER"`
	DBPassword string `env:"DB_PASSWORD"`
	DBName     string `env:"DB_NAME"`
	DBSSLMode  string `env:"DB_SSLMODE" envDefault:"disable"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogOutput string `env:"LOG_OUTPUT" envDefault:"stdout"`
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("environment variables are invalid or missing: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.DiscordToken == "" {
		return errors.New("DISCORD_TOKEN is required")
	}
	if c.LavalinkAddr == "" {
		return errors.New("LAVALINK_ADDR is required")
	}
	if c.LavalinkPassword == "" {
		return errors.New("LAVALINK_PASSWORD is required")
	}
	if c.CommandPrefix == "" {
		return errors.New("COMMAND_PREFIX must not be empty")
	}
	if c.ReconnectAttempts < 1 {
		return errors.New("RECONNECT_ATTEMPTS must be at least 1")
	}
	if c.EnsureAttempts < 1 {
		return errors.New("ENSURE_ATTEMPTS must be at least 1")
	}
	if c.BackoffMultiplier < 1 {
		return errors.New("BACKOFF_MULTIPLIER must be at least 1")
	}
	if c.HeartbeatInterval <= 0 {
		return errors.New("HEARTBEAT_INTERVAL must be positive")
	}
	return nil
}

// SpotifyConfigured reports whether catalog lookups against Spotify can be
// attempted at all.
func (c *Config) SpotifyConfigured() bool {
	return c.SpotifyClientID != "" && c.SpotifyClientSecret != ""
}

// GuildAllowed checks the static allow-list. An empty list allows every guild.
func (c *Config) GuildAllowed(guildID string) bool {
	if len(c.AllowedGuilds) == 0 {
		return true
	}
	for _, id := range c.AllowedGuilds {
		if id == guildID {
			return true
		}
	}
	return false
}
