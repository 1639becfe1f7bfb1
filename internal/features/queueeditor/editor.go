// Package queueeditor implements the transient remove-track UI. The invoking
// user is encoded in every button's custom id, so the editor itself holds no
// state and tolerates concurrent queue mutation by re-reading the live queue
// on every click.
package queueeditor

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog/log"

	"github.com/oskarh/groovebox/internal/music"
	"github.com/oskarh/groovebox/internal/player"
)

const (
	CustomIDPrefix = "qedit:"
	maxButtons     = 20
	rowSize        = 5
	labelWidth     = 28
)

// Players is the queue surface the editor drives.
type Players interface {
	Snapshot(guildID string) player.Snapshot
	RemoveAt(guildID string, index int) (music.TrackRef, error)
}

type Editor struct {
	players Players
}

func New(players Players) *Editor {
	return &Editor{players: players}
}

// Open posts the editor message for the current queue.
func (e *Editor) Open(s *discordgo.Session, channelID, guildID, requesterID string) {
	snap := e.players.Snapshot(guildID)
	if len(snap.Queue) == 0 {
		if _, err := s.ChannelMessageSend(channelID, "The queue is empty, nothing to remove."); err != nil {
			log.Warn().Err(err).Msg("failed to send editor notice")
		}
		return
	}

	_, err := s.ChannelMessageSendComplex(channelID, &discordgo.MessageSend{
		Content:    editorContent(len(snap.Queue)),
		Components: buttonsFor(snap.Queue, requesterID),
	})
	if err != nil {
		log.Warn().Err(err).Str("guild", guildID).Msg("failed to open queue editor")
	}
}

// HandleComponent processes one remove-button click. Only the user who
// opened the editor may act; everyone else gets an ephemeral notice. The
// target index is validated against the live queue, not the snapshot the
// buttons were rendered from.
func (e *Editor) HandleComponent(s *discordgo.Session, i *discordgo.InteractionCreate) {
	requesterID, index, ok := ParseCustomID(i.MessageComponentData().CustomID)
	if !ok {
		return
	}

	clicker := interactionUserID(i)
	if clicker != requesterID {
		respondEphemeral(s, i, "Only the person who opened this editor can use it.")
		return
	}

	guildID := i.GuildID
	removed, err := e.players.RemoveAt(guildID, index)
	if err != nil {
		respondEphemeral(s, i, "The queue changed in the meantime, try again.")
		return
	}

	snap := e.players.Snapshot(guildID)
	update := &discordgo.InteractionResponseData{}
	if len(snap.Queue) == 0 {
		update.Content = fmt.Sprintf("Removed **%s**. The queue is now empty.", removed.Title)
		update.Components = []discordgo.MessageComponent{}
	} else {
		update.Content = editorContent(len(snap.Queue))
		update.Components = buttonsFor(snap.Queue, requesterID)
	}

	err = s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseUpdateMessage,
		Data: update,
	})
	if err != nil {
		log.Warn().Err(err).Str("guild", guildID).Msg("failed to update queue editor")
	}
}

func editorContent(queueLen int) string {
	return fmt.Sprintf("❌ Click a track to remove it from the queue (%d pending):", queueLen)
}

// buttonsFor renders one remove button per queued track, five per row,
// capped at maxButtons.
func buttonsFor(queue []music.TrackRef, requesterID string) []discordgo.MessageComponent {
	n := len(queue)
	if n > maxButtons {
		n = maxButtons
	}

	var rows []discordgo.MessageComponent
	var row discordgo.ActionsRow
	for idx := 1; idx <= n; idx++ {
		row.Components = append(row.Components, discordgo.Button{
			Label:    buttonLabel(idx, queue[idx-1].Title),
			Style:    discordgo.SecondaryButton,
			CustomID: fmt.Sprintf("%s%s:%d", CustomIDPrefix, requesterID, idx),
		})
		if len(row.Components) == rowSize {
			rows = append(rows, row)
			row = discordgo.ActionsRow{}
		}
	}
	if len(row.Components) > 0 {
		rows = append(rows, row)
	}
	return rows
}

func buttonLabel(index int, title string) string {
	label := []rune(fmt.Sprintf("%d. %s", index, title))
	if len(label) > labelWidth {
		return string(label[:labelWidth-1]) + "…"
	}
	return string(label)
}

// ParseCustomID splits "qedit:<userID>:<index>".
func ParseCustomID(id string) (requesterID string, index int, ok bool) {
	rest, found := strings.CutPrefix(id, CustomIDPrefix)
	if !found {
		return "", 0, false
	}
	user, idxStr, found := strings.Cut(rest, ":")
	if !found || user == "" {
		return "", 0, false
	}
	idx, err := strconv.Atoi(idxStr)
	if err != nil || idx < 1 {
		return "", 0, false
	}
	return user, idx, true
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

func respondEphemeral(s *discordgo.Session, i *discordgo.InteractionCreate, content string) {
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	})
	if err != nil {
		log.Warn().Err(err).Msg("failed to respond to interaction")
	}
}
