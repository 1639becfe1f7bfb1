package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"

	"github.com/oskarh/groovebox/config"
	"github.com/oskarh/groovebox/internal/bot"
	"github.com/oskarh/groovebox/internal/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "groovebox: failed to load configuration: %v\n", err)
		fmt.Fprintln(os.Stderr)
		fmt.Fprintln(os.Stderr, "Required environment variables:")
		fmt.Fprintln(os.Stderr, "  DISCORD_TOKEN      - Discord bot token")
		fmt.Fprintln(os.Stderr, "  LAVALINK_ADDR      - audio backend host:port")
		fmt.Fprintln(os.Stderr, "  LAVALINK_PASSWORD  - audio backend password")
		fmt.Fprintln(os.Stderr)
		fmt.Fprintln(os.Stderr, "Optional:")
		fmt.Fprintln(os.Stderr, "  COMMAND_PREFIX, ALLOWED_GUILD_IDS, LOG_LEVEL, LOG_OUTPUT")
		fmt.Fprintln(os.Stderr, "  SPOTIFY_CLIENT_ID, SPOTIFY_CLIENT_SECRET, APPLE_MUSIC_COUNTRY")
		fmt.Fprintln(os.Stderr, "  REDIS_HOST, REDIS_PORT, REDIS_PASSWORD, REDIS_DB")
		fmt.Fprintln(os.Stderr, "  DB_HOST, DB_PORT, DB_USER, DB_PASSWORD, DB_NAME, DB_SSLMODE")
		fmt.Fprintln(os.Stderr, "  RECONNECT_ATTEMPTS, RECONNECT_BACKOFF, BACKOFF_MULTIPLIER, HEARTBEAT_INTERVAL")
		os.Exit(1)
	}

	if err := logger.Init(logger.Config{Level: cfg.LogLevel, Output: cfg.LogOutput}); err != nil {
		fmt.Fprintf(os.Stderr, "groovebox: failed to set up logging: %v\n", err)
		os.Exit(1)
	}

	b, err := bot.New(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build bot")
	}

	if err := b.Start(); err != nil {
		log.Fatal().Err(err).Msg("failed to connect to Discord")
	}
	log.Info().Str("prefix", cfg.CommandPrefix).Msg("groovebox is running, press ctrl-c to exit")

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	log.Info().Msg("shutting down")
	if err := b.Stop(); err != nil {
		log.Error().Err(err).Msg("shutdown did not complete cleanly")
	}
}
