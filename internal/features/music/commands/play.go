// Package commands implements the prefix command handlers.
package commands

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog/log"

	"github.com/oskarh/groovebox/internal/features/shared"
	"github.com/oskarh/groovebox/internal/music"
	"github.com/oskarh/groovebox/internal/player"
)

// Playlist expansion can mean a couple dozen catalog lookups.
const playTimeout = 45 * time.Second

func Play(deps *shared.Deps, s *discordgo.Session, m *discordgo.MessageCreate, args []string) {
	query := strings.TrimSpace(strings.Join(args, " "))
	if query == "" {
		shared.Reply(s, m.ChannelID, "Usage: `"+deps.Cfg.CommandPrefix+"play <link or search text>`")
		return
	}

	voiceChannel := shared.VoiceChannelOf(s, m.GuildID, m.Author.ID)
	if voiceChannel == "" {
		shared.ReplyError(s, m.ChannelID, "Join a voice channel first.")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), playTimeout)
	defer cancel()

	list, err := deps.Resolver.Resolve(ctx, query)
	if err != nil {
		if errors.Is(err, music.ErrNotFound) {
			shared.ReplyError(s, m.ChannelID, "No playable track found for that query.")
			return
		}
		log.Error().Err(err).Str("query", query).Msg("resolve failed")
		shared.ReplyError(s, m.ChannelID, "Couldn't resolve that query, try again later.")
		return
	}

	for i := range list.Tracks {
		list.Tracks[i].Requester = m.Author.Username
	}

	started, queued, err := deps.Players.PlayOrEnqueue(ctx, m.GuildID, voiceChannel, m.ChannelID, list.Tracks)
	if err != nil {
		if errors.Is(err, player.ErrBackendUnavailable) {
			shared.ReplyError(s, m.ChannelID, "The audio backend is unavailable right now, nothing was queued.")
			return
		}
		log.Error().Err(err).Str("guild", m.GuildID).Msg("playback start failed")
		shared.ReplyError(s, m.ChannelID, "Couldn't start playback.")
		return
	}

	switch {
	case started && queued > 0:
		shared.Reply(s, m.ChannelID, fmt.Sprintf("▶️ Playing **%s** and queued **%d** more track(s).", list.Tracks[0].Title, queued))
	case !started:
		if queued == 1 {
			shared.Reply(s, m.ChannelID, fmt.Sprintf("➕ Queued **%s**.", list.Tracks[0].Title))
		} else {
			shared.Reply(s, m.ChannelID, fmt.Sprintf("➕ Queued **%d** tracks.", queued))
		}
	}
	// started with nothing queued: the player message says it all.
}
