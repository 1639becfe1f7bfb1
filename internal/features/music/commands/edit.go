package commands

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/bwmarrin/discordgo"

	"github.com/oskarh/groovebox/internal/features/shared"
	"github.com/oskarh/groovebox/internal/player"
)

func Remove(deps *shared.Deps, s *discordgo.Session, m *discordgo.MessageCreate, args []string) {
	index, ok := parseIndex(deps, s, m, args, "remove")
	if !ok {
		return
	}

	removed, err := deps.Players.RemoveAt(m.GuildID, index)
	if err != nil {
		replyIndexError(deps, s, m, err)
		return
	}
	shared.Reply(s, m.ChannelID, fmt.Sprintf("🗑 Removed **%s** from the queue.", removed.Title))
}

func Prioritize(deps *shared.Deps, s *discordgo.Session, m *discordgo.MessageCreate, args []string) {
	index, ok := parseIndex(deps, s, m, args, "prioritize")
	if !ok {
		return
	}

	moved, err := deps.Players.MoveToFront(m.GuildID, index)
	if err != nil {
		replyIndexError(deps, s, m, err)
		return
	}
	shared.Reply(s, m.ChannelID, fmt.Sprintf("⏫ **%s** will play next.", moved.Title))
}

func Shuffle(deps *shared.Deps, s *discordgo.Session, m *discordgo.MessageCreate, _ []string) {
	n := deps.Players.Shuffle(m.GuildID)
	if n == 0 {
		shared.Reply(s, m.ChannelID, "The queue is empty, nothing to shuffle.")
		return
	}
	shared.Reply(s, m.ChannelID, fmt.Sprintf("🔀 Shuffled %d track(s).", n))
}

func ClearQueue(deps *shared.Deps, s *discordgo.Session, m *discordgo.MessageCreate, _ []string) {
	n := deps.Players.ClearQueue(m.GuildID)
	if n == 0 {
		shared.Reply(s, m.ChannelID, "The queue is already empty.")
		return
	}
	shared.Reply(s, m.ChannelID, fmt.Sprintf("🧹 Cleared %d track(s) from the queue.", n))
}

func parseIndex(deps *shared.Deps, s *discordgo.Session, m *discordgo.MessageCreate, args []string, name string) (int, bool) {
	if len(args) != 1 {
		shared.Reply(s, m.ChannelID, "Usage: `"+deps.Cfg.CommandPrefix+name+" <queue position>`")
		return 0, false
	}
	index, err := strconv.Atoi(args[0])
	if err != nil {
		shared.ReplyError(s, m.ChannelID, fmt.Sprintf("`%s` is not a queue position.", args[0]))
		return 0, false
	}
	return index, true
}

func replyIndexError(deps *shared.Deps, s *discordgo.Session, m *discordgo.MessageCreate, err error) {
	if errors.Is(err, player.ErrInvalidIndex) {
		n := len(deps.Players.Snapshot(m.GuildID).Queue)
		shared.ReplyError(s, m.ChannelID, fmt.Sprintf("That position is out of range, the queue has %d track(s).", n))
		return
	}
	shared.ReplyError(s, m.ChannelID, "Couldn't edit the queue.")
}
