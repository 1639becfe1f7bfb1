// Package features routes prefix commands and button interactions to their
// handlers.
package features

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog/log"

	"github.com/oskarh/groovebox/internal/features/music/commands"
	"github.com/oskarh/groovebox/internal/features/queueeditor"
	"github.com/oskarh/groovebox/internal/features/shared"
)

type handlerFunc func(*shared.Deps, *discordgo.Session, *discordgo.MessageCreate, []string)

var handlers = map[string]handlerFunc{
	"play":        commands.Play,
	"queue":       commands.Queue,
	"remove":      commands.Remove,
	"prioritize":  commands.Prioritize,
	"shuffle":     commands.Shuffle,
	"clearqueue":  commands.ClearQueue,
	"skip":        commands.Skip,
	"stop":        commands.Stop,
	"reset":       commands.Reset,
	"showcache":   commands.ShowCache,
	"clearcache":  commands.ClearCache,
	"healthcheck": commands.Healthcheck,
	"info":        commands.Info,
}

var aliases = map[string]string{
	"p":        "play",
	"q":        "queue",
	"list":     "queue",
	"rm":       "remove",
	"del":      "remove",
	"prio":     "prioritize",
	"top":      "prioritize",
	"move":     "prioritize",
	"sh":       "shuffle",
	"mix":      "shuffle",
	"clearq":   "clearqueue",
	"clr":      "clearqueue",
	"ping":     "healthcheck",
	"status":   "healthcheck",
	"commands": "info",
}

// canonicalCommand resolves aliases; empty string means unknown.
func canonicalCommand(name string) string {
	name = strings.ToLower(name)
	if _, ok := handlers[name]; ok {
		return name
	}
	return aliases[name]
}

type Router struct {
	deps   *shared.Deps
	editor *queueeditor.Editor
}

func NewRouter(deps *shared.Deps) *Router {
	return &Router{
		deps:   deps,
		editor: queueeditor.New(deps.Players),
	}
}

// HandleMessage dispatches prefix commands from guild text channels.
func (r *Router) HandleMessage(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.Bot || m.GuildID == "" {
		return
	}

	prefix := r.deps.Cfg.CommandPrefix
	if !strings.HasPrefix(m.Content, prefix) {
		return
	}

	fields := strings.Fields(m.Content[len(prefix):])
	if len(fields) == 0 {
		return
	}

	name := canonicalCommand(fields[0])
	if name == "" {
		return
	}

	if !r.deps.Cfg.GuildAllowed(m.GuildID) {
		log.Warn().Str("guild", m.GuildID).Str("command", name).Msg("command from guild outside allow-list")
		shared.ReplyError(s, m.ChannelID, "This server is not on the allow list.")
		return
	}

	log.Debug().Str("guild", m.GuildID).Str("command", name).Str("user", m.Author.ID).Msg("command")
	handlers[name](r.deps, s, m, fields[1:])
}

// HandleInteraction dispatches player buttons (np:*) and queue editor
// buttons (qedit:*).
func (r *Router) HandleInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionMessageComponent || i.GuildID == "" {
		return
	}
	if !r.deps.Cfg.GuildAllowed(i.GuildID) {
		return
	}

	customID := i.MessageComponentData().CustomID
	switch {
	case strings.HasPrefix(customID, "np:"):
		r.handlePlayerButton(s, i, strings.TrimPrefix(customID, "np:"))
	case strings.HasPrefix(customID, queueeditor.CustomIDPrefix):
		r.editor.HandleComponent(s, i)
	}
}

func (r *Router) handlePlayerButton(s *discordgo.Session, i *discordgo.InteractionCreate, action string) {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	guildID := i.GuildID
	switch action {
	case "pause":
		ackUpdate(s, i)
		if _, err := r.deps.Players.TogglePause(ctx, guildID); err != nil {
			log.Debug().Err(err).Str("guild", guildID).Msg("pause button ignored")
		}
	case "skip":
		ackUpdate(s, i)
		if _, err := r.deps.Players.Skip(ctx, guildID); err != nil {
			log.Debug().Err(err).Str("guild", guildID).Msg("skip button ignored")
		}
	case "stop":
		ackUpdate(s, i)
		r.deps.Players.Stop(ctx, guildID)
	case "queue":
		snap := r.deps.Players.Snapshot(guildID)
		respondEphemeralEmbed(s, i, commands.QueueEmbed(snap))
	case "editor":
		ackUpdate(s, i)
		r.editor.Open(s, i.ChannelID, guildID, interactionUserID(i))
	}
}

// ackUpdate acknowledges a component click without changing the message; the
// refresh loop repaints it on the next tick.
func ackUpdate(s *discordgo.Session, i *discordgo.InteractionCreate) {
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredMessageUpdate,
	})
	if err != nil {
		log.Debug().Err(err).Msg("failed to ack interaction")
	}
}

func respondEphemeralEmbed(s *discordgo.Session, i *discordgo.InteractionCreate, embed *discordgo.MessageEmbed) {
	if embed.Color == 0 {
		embed.Color = shared.AccentColor
	}
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds: []*discordgo.MessageEmbed{embed},
			Flags:  discordgo.MessageFlagsEphemeral,
		},
	})
	if err != nil {
		log.Debug().Err(err).Msg("failed to respond with queue embed")
	}
}

func interactionUserID(i *discordgo.InteractionCreate) string {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User.ID
	}
	if i.User != nil {
		return i.User.ID
	}
	return ""
}
