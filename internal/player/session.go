// Package player holds per-guild playback state and the state machine
// driving idle/playing transitions.
package player

import (
	"context"
	"sync"
	"time"

	"github.com/oskarh/groovebox/internal/music"
)

// Session is one guild's mutable playback record. Created lazily on first
// use, never destroyed; stop and reset empty it in place. All access goes
// through its mutex via Manager methods.
type Session struct {
	mu sync.Mutex

	guildID        string
	queue          []music.TrackRef
	current        *music.TrackRef
	epoch          uint64 // bumped on every current-track change
	startedAt      time.Time
	paused         bool
	textChannelID  string
	voiceChannelID string

	npChannelID   string
	npMessageID   string
	cancelRefresh context.CancelFunc
}

// Snapshot is a point-in-time copy of a session, safe to read without locks.
type Snapshot struct {
	GuildID       string
	Current       *music.TrackRef
	Queue         []music.TrackRef
	Epoch         uint64
	StartedAt     time.Time
	Paused        bool
	TextChannelID string
	NPChannelID   string
	NPMessageID   string
}

func (s *Session) snapshotLocked() Snapshot {
	snap := Snapshot{
		GuildID:       s.guildID,
		Epoch:         s.epoch,
		StartedAt:     s.startedAt,
		Paused:        s.paused,
		TextChannelID: s.textChannelID,
		NPChannelID:   s.npChannelID,
		NPMessageID:   s.npMessageID,
	}
	if s.current != nil {
		cur := *s.current
		snap.Current = &cur
	}
	if len(s.queue) > 0 {
		snap.Queue = append([]music.TrackRef(nil), s.queue...)
	}
	return snap
}

// cancelRefreshLocked stops the active refresh loop, if any. Must run before
// any transition that invalidates the loop, not merely overwrite the handle.
func (s *Session) cancelRefreshLocked() {
	if s.cancelRefresh != nil {
		s.cancelRefresh()
		s.cancelRefresh = nil
	}
}
