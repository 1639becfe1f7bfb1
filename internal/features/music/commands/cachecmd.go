package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog/log"

	"github.com/oskarh/groovebox/internal/features/shared"
)

const cacheTimeout = 10 * time.Second

func ShowCache(deps *shared.Deps, s *discordgo.Session, m *discordgo.MessageCreate, _ []string) {
	ctx, cancel := context.WithTimeout(context.Background(), cacheTimeout)
	defer cancel()

	catalog, search, err := deps.Cache.Counts(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("cache count failed")
		shared.ReplyError(s, m.ChannelID, "Couldn't read the cache.")
		return
	}

	shared.ReplyEmbed(s, m.ChannelID, &discordgo.MessageEmbed{
		Title: "Resolution cache",
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Catalog lookups", Value: fmt.Sprintf("%d", catalog), Inline: true},
			{Name: "Resolved searches", Value: fmt.Sprintf("%d", search), Inline: true},
		},
	})
}

func ClearCache(deps *shared.Deps, s *discordgo.Session, m *discordgo.MessageCreate, _ []string) {
	if !shared.IsAdmin(s, m.ChannelID, m.Author.ID) {
		shared.ReplyError(s, m.ChannelID, "Only administrators can clear the cache.")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), cacheTimeout)
	defer cancel()

	dropped, err := deps.Cache.Clear(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("cache clear failed")
		shared.ReplyError(s, m.ChannelID, "Couldn't clear the cache.")
		return
	}
	shared.Reply(s, m.ChannelID, fmt.Sprintf("🧹 Dropped %d cache entries.", dropped))
}
