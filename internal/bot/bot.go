// Package bot wires the Discord session, the audio backend and all features
// together.
package bot

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog/log"

	"github.com/oskarh/groovebox/config"
	"github.com/oskarh/groovebox/internal/cache"
	"github.com/oskarh/groovebox/internal/catalog"
	"github.com/oskarh/groovebox/internal/database"
	"github.com/oskarh/groovebox/internal/features"
	"github.com/oskarh/groovebox/internal/features/nowplaying"
	"github.com/oskarh/groovebox/internal/features/shared"
	"github.com/oskarh/groovebox/internal/lavalink"
	"github.com/oskarh/groovebox/internal/music"
	"github.com/oskarh/groovebox/internal/player"
	"github.com/oskarh/groovebox/internal/redis"
)

type Bot struct {
	cfg     *config.Config
	session *discordgo.Session

	backend *lavalink.Client
	health  *lavalink.Manager
	players *player.Manager
	repo    *database.NowPlayingRepository
	router  *features.Router

	stopHeartbeat context.CancelFunc
	started       bool
}

func New(cfg *config.Config) (*Bot, error) {
	dbConfig := &database.Config{
		Host:     cfg.DBHost,
		Port:     cfg.DBPort,
		User:     cfg.DBUser,
		Password: cfg.DBPassword,
		DBName:   cfg.DBName,
		SSLMode:  cfg.DBSSLMode,
	}
	if err := database.Initialize(dbConfig); err != nil {
		log.Warn().Err(err).Msg("database unavailable, stale player messages will survive restarts")
	}

	redisConfig := redis.Config{
		Host:     cfg.RedisHost,
		Port:     cfg.RedisPort,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}
	if _, err := redis.Init(context.Background(), redisConfig); err != nil {
		log.Warn().Err(err).Msg("redis unavailable, track resolution will not be cached")
	}

	session, err := discordgo.New("Bot " + cfg.DiscordToken)
	if err != nil {
		return nil, fmt.Errorf("create discord session: %w", err)
	}
	session.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildVoiceStates |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsMessageContent

	backend := lavalink.NewClient(lavalink.Config{
		Addr:          cfg.LavalinkAddr,
		Password:      cfg.LavalinkPassword,
		Secure:        cfg.LavalinkSecure,
		ResumeTimeout: cfg.LavalinkResumeTimeout,
	})
	health := lavalink.NewManager(backend, lavalink.ManagerConfig{
		EnsureAttempts:    cfg.EnsureAttempts,
		ForceAttempts:     cfg.ReconnectAttempts,
		InitialBackoff:    cfg.ReconnectBackoff,
		BackoffMultiplier: cfg.BackoffMultiplier,
		HeartbeatInterval: cfg.HeartbeatInterval,
	})

	b := &Bot{
		cfg:     cfg,
		session: session,
		backend: backend,
		health:  health,
		repo:    database.NewNowPlayingRepository(),
	}

	b.players = player.NewManager(backend, voiceConnector{session}, health)
	backend.SetTrackEndHandler(func(guildID string, track music.TrackRef, reason string) {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		b.players.HandleTrackEnd(ctx, guildID, track, reason)
	})

	resolutionCache := cache.New(redis.Client())
	resolver := &music.Resolver{
		Loader: backend,
		Apple:  catalog.NewAppleClient(cfg.AppleMusicCountry),
		Cache:  resolutionCache,
	}
	if cfg.SpotifyConfigured() {
		resolver.Spotify = catalog.NewSpotifyClient(cfg.SpotifyClientID, cfg.SpotifyClientSecret)
	} else {
		log.Warn().Msg("spotify credentials missing, spotify links will not resolve")
	}

	messenger := newMessenger(session)
	presenter := nowplaying.New(messenger, backend, b.players, b.repo)
	b.players.SetNotifier(presenter)

	b.router = features.NewRouter(&shared.Deps{
		Cfg:       cfg,
		Resolver:  resolver,
		Players:   b.players,
		Backend:   backend,
		Health:    health,
		Cache:     resolutionCache,
		Repo:      b.repo,
		Presenter: presenter,
	})

	session.AddHandler(b.onReady)
	session.AddHandler(b.router.HandleMessage)
	session.AddHandler(b.router.HandleInteraction)
	session.AddHandler(b.onVoiceStateUpdate)
	session.AddHandler(b.onVoiceServerUpdate)

	return b, nil
}

func (b *Bot) Start() error {
	if b.started {
		return nil
	}
	if err := b.session.Open(); err != nil {
		return fmt.Errorf("open discord session: %w", err)
	}
	b.started = true
	return nil
}

func (b *Bot) Stop() error {
	if b.stopHeartbeat != nil {
		b.stopHeartbeat()
		b.stopHeartbeat = nil
	}
	if err := b.backend.Close(); err != nil {
		log.Warn().Err(err).Msg("failed to close backend connection")
	}
	if err := redis.Close(); err != nil {
		log.Warn().Err(err).Msg("failed to close redis")
	}
	if err := database.Close(); err != nil {
		log.Warn().Err(err).Msg("failed to close database")
	}
	b.started = false
	return b.session.Close()
}

// onReady connects to the audio backend (the websocket handshake needs the
// bot user id), starts the heartbeat and sweeps player messages left over
// from a previous run.
func (b *Bot) onReady(s *discordgo.Session, r *discordgo.Ready) {
	log.Info().Str("user", r.User.Username).Int("guilds", len(r.Guilds)).Msg("gateway ready")
	b.backend.SetUserID(r.User.ID)

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	if !b.health.EnsureConnected(ctx) {
		log.Error().Msg("audio backend unreachable at startup, the heartbeat will keep retrying")
	}

	if b.stopHeartbeat == nil {
		hbCtx, stop := context.WithCancel(context.Background())
		b.stopHeartbeat = stop
		go b.health.Heartbeat(hbCtx)
	}

	go b.sweepStaleMessages(s)
}

// sweepStaleMessages deletes now-playing messages registered by a previous
// process; their refresh loops died with it.
func (b *Bot) sweepStaleMessages(s *discordgo.Session) {
	entries, err := b.repo.ListAll()
	if err != nil {
		log.Warn().Err(err).Msg("failed to list stale player messages")
		return
	}
	for _, e := range entries {
		if snap := b.players.Snapshot(e.GuildID); snap.NPMessageID == e.MessageID {
			continue // owned by this run
		}
		if err := s.ChannelMessageDelete(e.ChannelID, e.MessageID); err != nil {
			log.Debug().Err(err).Str("guild", e.GuildID).Msg("stale player message already gone")
		}
		if err := b.repo.Delete(e.GuildID); err != nil {
			log.Warn().Err(err).Str("guild", e.GuildID).Msg("failed to unregister stale message")
		}
	}
	if len(entries) > 0 {
		log.Info().Int("count", len(entries)).Msg("swept stale player messages")
	}
}

// Voice plumbing: the bot's own voice session and the guild voice server are
// forwarded to the backend, which needs both to stream audio.
func (b *Bot) onVoiceStateUpdate(s *discordgo.Session, v *discordgo.VoiceStateUpdate) {
	if s.State.User == nil || v.UserID != s.State.User.ID {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	b.backend.HandleVoiceStateUpdate(ctx, v.GuildID, v.SessionID)
}

func (b *Bot) onVoiceServerUpdate(_ *discordgo.Session, v *discordgo.VoiceServerUpdate) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	b.backend.HandleVoiceServerUpdate(ctx, v.GuildID, v.Token, v.Endpoint)
}

// voiceConnector adapts discordgo's manual voice join for the player layer.
// Joining with deafened self keeps the voice udp connection on Discord's
// side only; the backend receives the audio server directly.
type voiceConnector struct {
	session *discordgo.Session
}

func (vc voiceConnector) JoinVoice(guildID, channelID string) error {
	return vc.session.ChannelVoiceJoinManual(guildID, channelID, false, true)
}

func (vc voiceConnector) LeaveVoice(guildID string) error {
	return vc.session.ChannelVoiceJoinManual(guildID, "", false, true)
}
