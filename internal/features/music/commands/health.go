package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/oskarh/groovebox/internal/database"
	"github.com/oskarh/groovebox/internal/features/shared"
	"github.com/oskarh/groovebox/internal/redis"
)

func Healthcheck(deps *shared.Deps, s *discordgo.Session, m *discordgo.MessageCreate, _ []string) {
	ctx, cancel := context.WithTimeout(context.Background(), cacheTimeout)
	defer cancel()

	embed := &discordgo.MessageEmbed{Title: "Health"}

	stats, err := deps.Backend.Stats(ctx)
	if err != nil {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name: "Audio backend", Value: "❌ unreachable",
		})
	} else {
		uptime := (time.Duration(stats.Uptime) * time.Millisecond).Round(time.Minute)
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name: "Audio backend",
			Value: fmt.Sprintf("✅ %d player(s), %d playing\nRAM %d / %d MiB, up %s",
				stats.Players, stats.PlayingPlayers,
				stats.Memory.Used/(1024*1024), stats.Memory.Allocated/(1024*1024), uptime),
		})
	}

	embed.Fields = append(embed.Fields,
		&discordgo.MessageEmbedField{Name: "Spotify", Value: checkmark(deps.Cfg.SpotifyConfigured()), Inline: true},
		&discordgo.MessageEmbedField{Name: "Redis", Value: checkmark(redis.Healthy(ctx)), Inline: true},
		&discordgo.MessageEmbedField{Name: "Postgres", Value: checkmark(database.Healthy(ctx)), Inline: true},
	)

	if catalog, search, err := deps.Cache.Counts(ctx); err == nil {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name: "Cache", Value: fmt.Sprintf("%d catalog / %d search entries", catalog, search),
		})
	}

	shared.ReplyEmbed(s, m.ChannelID, embed)
}

func checkmark(ok bool) string {
	if ok {
		return "✅"
	}
	return "❌"
}
