package commands

import (
	"fmt"

	"github.com/bwmarrin/discordgo"

	"github.com/oskarh/groovebox/internal/features/shared"
)

func Info(deps *shared.Deps, s *discordgo.Session, m *discordgo.MessageCreate, _ []string) {
	p := deps.Cfg.CommandPrefix
	embed := &discordgo.MessageEmbed{
		Title: "Commands",
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Playback", Value: fmt.Sprintf(
				"`%[1]splay <link or text>` — play or enqueue (`%[1]sp`)\n"+
					"`%[1]sskip` — skip the current track\n"+
					"`%[1]sstop` — stop and clear the queue", p)},
			{Name: "Queue", Value: fmt.Sprintf(
				"`%[1]squeue` — show the queue (`%[1]sq`, `%[1]slist`)\n"+
					"`%[1]sremove <n>` — remove a track (`%[1]srm`, `%[1]sdel`)\n"+
					"`%[1]sprioritize <n>` — play a track next (`%[1]sprio`, `%[1]stop`, `%[1]smove`)\n"+
					"`%[1]sshuffle` — shuffle (`%[1]ssh`, `%[1]smix`)\n"+
					"`%[1]sclearqueue` — drop all pending tracks (`%[1]sclearq`, `%[1]sclr`)", p)},
			{Name: "Diagnostics", Value: fmt.Sprintf(
				"`%[1]shealthcheck` — backend and service status (`%[1]sping`, `%[1]sstatus`)\n"+
					"`%[1]sshowcache` — resolution cache counts", p)},
			{Name: "Admin", Value: fmt.Sprintf(
				"`%[1]sreset [all]` — clear session(s) and reconnect the backend\n"+
					"`%[1]sclearcache` — empty the resolution cache", p)},
		},
	}
	shared.ReplyEmbed(s, m.ChannelID, embed)
}
