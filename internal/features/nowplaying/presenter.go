// Package nowplaying renders the live player message and runs its 2-second
// refresh loop. It implements the playback layer's Notifier.
package nowplaying

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog/log"

	"github.com/oskarh/groovebox/internal/database"
	"github.com/oskarh/groovebox/internal/music"
	"github.com/oskarh/groovebox/internal/player"
)

const (
	refreshInterval = 2 * time.Second
	embedColor      = 0x9B59B6
)

// Messenger is the Discord surface the presenter needs. A thin discordgo
// adapter satisfies it in production.
type Messenger interface {
	SendEmbed(channelID string, embed *discordgo.MessageEmbed, components []discordgo.MessageComponent) (string, error)
	EditEmbed(channelID, messageID string, embed *discordgo.MessageEmbed, components []discordgo.MessageComponent) error
	DeleteMessage(channelID, messageID string) error
	SetPresence(activity string)
}

// PositionSource reports the authoritative playback position for a guild,
// correct across pauses.
type PositionSource interface {
	Position(ctx context.Context, guildID string) time.Duration
}

// Sessions is the slice of the playback manager the presenter reads and
// writes.
type Sessions interface {
	Snapshot(guildID string) player.Snapshot
	SetNowPlaying(guildID, channelID, messageID string, cancel context.CancelFunc)
}

type Presenter struct {
	msg      Messenger
	pos      PositionSource
	sessions Sessions
	repo     *database.NowPlayingRepository
	interval time.Duration
}

func New(msg Messenger, pos PositionSource, sessions Sessions, repo *database.NowPlayingRepository) *Presenter {
	return &Presenter{
		msg:      msg,
		pos:      pos,
		sessions: sessions,
		repo:     repo,
		interval: refreshInterval,
	}
}

// TrackStarted posts a fresh player message, replacing the previous one, and
// starts a refresh loop bound to this track's epoch and message id.
func (p *Presenter) TrackStarted(guildID, channelID string, track music.TrackRef, epoch uint64) {
	snap := p.sessions.Snapshot(guildID)
	if snap.NPMessageID != "" {
		if err := p.msg.DeleteMessage(snap.NPChannelID, snap.NPMessageID); err != nil {
			log.Debug().Err(err).Str("guild", guildID).Msg("previous player message already gone")
		}
	}

	embed := buildEmbed(track, 0, len(snap.Queue), false)
	messageID, err := p.msg.SendEmbed(channelID, embed, controlButtons())
	if err != nil {
		log.Error().Err(err).Str("guild", guildID).Msg("failed to post player message")
		return
	}

	if err := p.repo.Upsert(guildID, channelID, messageID); err != nil {
		log.Warn().Err(err).Str("guild", guildID).Msg("failed to register player message")
	}

	ctx, cancel := context.WithCancel(context.Background())
	p.sessions.SetNowPlaying(guildID, channelID, messageID, cancel)
	p.msg.SetPresence("🎵 " + track.Title)

	go p.refreshLoop(ctx, guildID, channelID, messageID, track, epoch)
}

// PlaybackStopped removes the player message and clears the presence. A
// drained queue additionally gets a farewell notice in the channel.
func (p *Presenter) PlaybackStopped(guildID, npChannelID, npMessageID string, drained bool) {
	p.msg.SetPresence("")

	if npMessageID != "" {
		if err := p.msg.DeleteMessage(npChannelID, npMessageID); err != nil {
			log.Debug().Err(err).Str("guild", guildID).Msg("player message already gone")
		}
	}
	if err := p.repo.Delete(guildID); err != nil {
		log.Warn().Err(err).Str("guild", guildID).Msg("failed to unregister player message")
	}

	if drained && npChannelID != "" {
		embed := &discordgo.MessageEmbed{
			Description: "Queue finished, leaving the voice channel. 👋",
			Color:       embedColor,
		}
		if _, err := p.msg.SendEmbed(npChannelID, embed, nil); err != nil {
			log.Debug().Err(err).Str("guild", guildID).Msg("failed to send queue-finished notice")
		}
	}
}

// refreshLoop re-renders progress every tick until the captured epoch or
// message is superseded, the session goes idle, or the track plays out. All
// exits are silent.
func (p *Presenter) refreshLoop(ctx context.Context, guildID, channelID, messageID string, track music.TrackRef, epoch uint64) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		snap := p.sessions.Snapshot(guildID)
		if snap.Current == nil {
			return
		}
		if snap.Epoch != epoch {
			return
		}
		if snap.NPMessageID != messageID {
			return
		}

		elapsed := p.pos.Position(ctx, guildID)
		if track.Duration > 0 && elapsed > track.Duration {
			// Played out; the backend's end event drives the transition.
			return
		}

		embed := buildEmbed(track, elapsed, len(snap.Queue), snap.Paused)
		if err := p.msg.EditEmbed(channelID, messageID, embed, controlButtons()); err != nil {
			log.Debug().Err(err).Str("guild", guildID).Msg("player message edit failed")
		}
	}
}

func buildEmbed(track music.TrackRef, elapsed time.Duration, queueLen int, paused bool) *discordgo.MessageEmbed {
	header := "Now playing"
	if paused {
		header = "Paused"
	}

	progress := player.FormatProgress(elapsed, track.Duration)
	if bar := player.ProgressBar(elapsed, track.Duration); bar != "" {
		progress = bar + "\n`" + progress + "`"
	}

	embed := &discordgo.MessageEmbed{
		Author:      &discordgo.MessageEmbedAuthor{Name: header},
		Title:       track.Title,
		URL:         track.URI,
		Color:       embedColor,
		Description: progress,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Queue", Value: fmt.Sprintf("%d track(s)", queueLen), Inline: true},
		},
	}
	if track.Author != "" {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name: "Artist", Value: track.Author, Inline: true,
		})
	}
	if track.Requester != "" {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name: "Requested by", Value: track.Requester, Inline: true,
		})
	}
	if url := YouTubeThumbnail(track.Identifier); url != "" {
		embed.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: url}
	}
	return embed
}

// YouTubeThumbnail derives a thumbnail URL from a video identifier. Empty
// identifier (non-YouTube source) yields no thumbnail.
func YouTubeThumbnail(identifier string) string {
	if identifier == "" {
		return ""
	}
	return "https://img.youtube.com/vi/" + identifier + "/hqdefault.jpg"
}

func controlButtons() []discordgo.MessageComponent {
	return []discordgo.MessageComponent{
		discordgo.ActionsRow{
			Components: []discordgo.MessageComponent{
				discordgo.Button{Emoji: &discordgo.ComponentEmoji{Name: "⏯"}, Style: discordgo.SecondaryButton, CustomID: "np:pause"},
				discordgo.Button{Emoji: &discordgo.ComponentEmoji{Name: "⏹"}, Style: discordgo.SecondaryButton, CustomID: "np:stop"},
				discordgo.Button{Emoji: &discordgo.ComponentEmoji{Name: "⏭"}, Style: discordgo.SecondaryButton, CustomID: "np:skip"},
				discordgo.Button{Emoji: &discordgo.ComponentEmoji{Name: "📜"}, Style: discordgo.SecondaryButton, CustomID: "np:queue"},
				discordgo.Button{Emoji: &discordgo.ComponentEmoji{Name: "❌"}, Style: discordgo.DangerButton, CustomID: "np:editor"},
			},
		},
	}
}
