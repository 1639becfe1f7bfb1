package queueeditor

import (
	"fmt"
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oskarh/groovebox/internal/music"
)

func queue(n int) []music.TrackRef {
	tracks := make([]music.TrackRef, n)
	for i := range tracks {
		tracks[i] = music.TrackRef{Title: fmt.Sprintf("Track %d", i+1)}
	}
	return tracks
}

func TestButtonsForRowLayout(t *testing.T) {
	rows := buttonsFor(queue(7), "user1")
	require.Len(t, rows, 2)

	first := rows[0].(discordgo.ActionsRow)
	second := rows[1].(discordgo.ActionsRow)
	assert.Len(t, first.Components, 5)
	assert.Len(t, second.Components, 2)

	btn := first.Components[0].(discordgo.Button)
	assert.Equal(t, "qedit:user1:1", btn.CustomID)
	assert.Equal(t, "1. Track 1", btn.Label)
}

func TestButtonsForCap(t *testing.T) {
	rows := buttonsFor(queue(35), "user1")
	total := 0
	for _, row := range rows {
		total += len(row.(discordgo.ActionsRow).Components)
	}
	assert.Equal(t, maxButtons, total)
}

func TestButtonLabelTruncation(t *testing.T) {
	label := buttonLabel(3, "An Extremely Long Track Title That Never Ends")
	assert.LessOrEqual(t, len([]rune(label)), labelWidth)
	assert.Contains(t, label, "…")

	assert.Equal(t, "1. Short", buttonLabel(1, "Short"))
}

func TestParseCustomID(t *testing.T) {
	user, idx, ok := ParseCustomID("qedit:12345:7")
	require.True(t, ok)
	assert.Equal(t, "12345", user)
	assert.Equal(t, 7, idx)

	_, _, ok = ParseCustomID("np:skip")
	assert.False(t, ok)

	_, _, ok = ParseCustomID("qedit:12345:zero")
	assert.False(t, ok)

	_, _, ok = ParseCustomID("qedit:12345:0")
	assert.False(t, ok, "indices are 1-based")

	_, _, ok = ParseCustomID("qedit::3")
	assert.False(t, ok)
}
