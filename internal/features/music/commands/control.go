package commands

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/oskarh/groovebox/internal/features/shared"
	"github.com/oskarh/groovebox/internal/player"
)

const controlTimeout = 15 * time.Second

func Skip(deps *shared.Deps, s *discordgo.Session, m *discordgo.MessageCreate, _ []string) {
	ctx, cancel := context.WithTimeout(context.Background(), controlTimeout)
	defer cancel()

	skipped, err := deps.Players.Skip(ctx, m.GuildID)
	if err != nil {
		if errors.Is(err, player.ErrNothingPlaying) {
			shared.Reply(s, m.ChannelID, "Nothing is playing.")
			return
		}
		shared.ReplyError(s, m.ChannelID, "Couldn't skip the track.")
		return
	}
	shared.Reply(s, m.ChannelID, fmt.Sprintf("⏭ Skipped **%s**.", skipped.Title))
}

func Stop(deps *shared.Deps, s *discordgo.Session, m *discordgo.MessageCreate, _ []string) {
	ctx, cancel := context.WithTimeout(context.Background(), controlTimeout)
	defer cancel()

	deps.Players.Stop(ctx, m.GuildID)
	shared.Reply(s, m.ChannelID, "⏹ Stopped playback and cleared the queue.")
}

// Reset stops playback and forces a backend reconnect; `reset all` does it
// for every guild. Admin only.
func Reset(deps *shared.Deps, s *discordgo.Session, m *discordgo.MessageCreate, args []string) {
	if !shared.IsAdmin(s, m.ChannelID, m.Author.ID) {
		shared.ReplyError(s, m.ChannelID, "Only administrators can reset the player.")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if len(args) == 1 && args[0] == "all" {
		n, ok := deps.Players.ResetAll(ctx)
		if !ok {
			shared.ReplyError(s, m.ChannelID, fmt.Sprintf("Cleared %d session(s) but the backend did not come back.", n))
			return
		}
		shared.Reply(s, m.ChannelID, fmt.Sprintf("♻️ Cleared %d session(s) and reconnected to the backend.", n))
		return
	}

	if !deps.Players.Reset(ctx, m.GuildID) {
		shared.ReplyError(s, m.ChannelID, "Session cleared, but the backend did not come back.")
		return
	}
	shared.Reply(s, m.ChannelID, "♻️ Session cleared and backend reconnected.")
}
