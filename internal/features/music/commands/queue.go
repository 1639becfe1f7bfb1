package commands

import (
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/oskarh/groovebox/internal/features/shared"
	"github.com/oskarh/groovebox/internal/player"
)

const queueListLimit = 15

func Queue(deps *shared.Deps, s *discordgo.Session, m *discordgo.MessageCreate, _ []string) {
	snap := deps.Players.Snapshot(m.GuildID)
	if snap.Current == nil && len(snap.Queue) == 0 {
		shared.Reply(s, m.ChannelID, "Nothing is playing and the queue is empty.")
		return
	}
	shared.ReplyEmbed(s, m.ChannelID, QueueEmbed(snap))
}

// QueueEmbed renders the current track and the numbered pending queue. Also
// used by the 📜 player button.
func QueueEmbed(snap player.Snapshot) *discordgo.MessageEmbed {
	var b strings.Builder

	if snap.Current != nil {
		state := "▶️"
		if snap.Paused {
			state = "⏸"
		}
		fmt.Fprintf(&b, "%s **%s** `%s`\n\n", state, snap.Current.Title, player.FormatTimestamp(snap.Current.Duration))
	}

	if len(snap.Queue) == 0 {
		b.WriteString("*The queue is empty.*")
	} else {
		for i, track := range snap.Queue {
			if i == queueListLimit {
				fmt.Fprintf(&b, "… and %d more", len(snap.Queue)-queueListLimit)
				break
			}
			fmt.Fprintf(&b, "`%2d.` %s `%s`\n", i+1, track.Title, player.FormatTimestamp(track.Duration))
		}
	}

	return &discordgo.MessageEmbed{
		Title:       "Queue",
		Description: b.String(),
		Footer:      &discordgo.MessageEmbedFooter{Text: fmt.Sprintf("%d track(s) pending", len(snap.Queue))},
	}
}
