package player

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/oskarh/groovebox/internal/music"
)

// Backend is the audio engine surface the state machine drives.
type Backend interface {
	Play(ctx context.Context, guildID, encoded string) error
	Stop(ctx context.Context, guildID string) error
	Pause(ctx context.Context, guildID string, paused bool) error
	DestroyPlayer(ctx context.Context, guildID string) error
}

// VoiceConnector joins and leaves guild voice channels.
type VoiceConnector interface {
	JoinVoice(guildID, channelID string) error
	LeaveVoice(guildID string) error
}

// Health is the connection manager surface playback depends on.
type Health interface {
	EnsureConnected(ctx context.Context) bool
	ForceReconnect(ctx context.Context) bool
}

// Notifier receives playback lifecycle events, after the session lock is
// released. The now-playing presenter implements it.
type Notifier interface {
	TrackStarted(guildID, channelID string, track music.TrackRef, epoch uint64)
	PlaybackStopped(guildID, npChannelID, npMessageID string, drained bool)
}

// Manager owns every guild session and serializes all mutations through the
// per-session lock.
type Manager struct {
	backend Backend
	voice   VoiceConnector
	health  Health

	mu       sync.RWMutex
	sessions map[string]*Session
	notifier Notifier
}

func NewManager(backend Backend, voice VoiceConnector, health Health) *Manager {
	return &Manager{
		backend:  backend,
		voice:    voice,
		health:   health,
		sessions: make(map[string]*Session),
	}
}

// SetNotifier wires the presenter in after construction.
func (m *Manager) SetNotifier(n Notifier) {
	m.mu.Lock()
	m.notifier = n
	m.mu.Unlock()
}

func (m *Manager) session(guildID string) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[guildID]
	if !ok {
		s = &Session{guildID: guildID}
		m.sessions[guildID] = s
	}
	return s
}

func (m *Manager) sessionIfExists(guildID string) *Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sessions[guildID]
}

func (m *Manager) getNotifier() Notifier {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.notifier
}

// PlayOrEnqueue starts playback when the session is idle, otherwise appends
// every track to the queue tail. Returns whether playback started and how
// many tracks were queued.
func (m *Manager) PlayOrEnqueue(ctx context.Context, guildID, voiceChannelID, textChannelID string, tracks []music.TrackRef) (started bool, queued int, err error) {
	if len(tracks) == 0 {
		return false, 0, music.ErrNotFound
	}
	if !m.health.EnsureConnected(ctx) {
		return false, 0, ErrBackendUnavailable
	}

	s := m.session(guildID)
	s.mu.Lock()
	s.textChannelID = textChannelID
	s.voiceChannelID = voiceChannelID

	if s.current != nil {
		s.queue = append(s.queue, tracks...)
		s.mu.Unlock()
		return false, len(tracks), nil
	}

	prevQueue := s.queue
	first := tracks[0]
	rest := tracks[1:]

	s.cancelRefreshLocked()
	s.epoch++
	epoch := s.epoch
	cur := first
	s.current = &cur
	s.startedAt = time.Now()
	s.paused = false
	s.queue = append(s.queue, rest...)
	s.mu.Unlock()

	rollback := func() {
		s.mu.Lock()
		s.current = nil
		s.queue = prevQueue
		s.mu.Unlock()
	}

	if err := m.voice.JoinVoice(guildID, voiceChannelID); err != nil {
		rollback()
		return false, 0, fmt.Errorf("join voice channel: %w", err)
	}
	if err := m.backend.Play(ctx, guildID, first.Encoded); err != nil {
		rollback()
		return false, 0, fmt.Errorf("start playback: %w", err)
	}

	if n := m.getNotifier(); n != nil {
		n.TrackStarted(guildID, textChannelID, first, epoch)
	}
	return true, len(rest), nil
}

// HandleTrackEnd consumes the backend's asynchronous end-of-track event.
// Only a natural finish advances the queue, and only when the ended track is
// still the session's current one. A skip or stop that already moved the
// session on makes this a no-op, so the advance stays idempotent per track.
func (m *Manager) HandleTrackEnd(ctx context.Context, guildID string, ended music.TrackRef, reason string) {
	if reason != "finished" {
		log.Debug().Str("guild", guildID).Str("reason", reason).Msg("ignoring track end")
		return
	}

	s := m.sessionIfExists(guildID)
	if s == nil {
		return
	}

	s.mu.Lock()
	if s.current == nil || s.current.Encoded != ended.Encoded {
		s.mu.Unlock()
		return
	}
	m.advance(ctx, s)
}

// advance pops the queue head into current, or winds the session down to
// idle when the queue is empty. Expects s locked; unlocks before any I/O.
func (m *Manager) advance(ctx context.Context, s *Session) {
	s.cancelRefreshLocked()
	guildID := s.guildID

	if len(s.queue) == 0 {
		s.epoch++
		s.current = nil
		s.startedAt = time.Time{}
		s.paused = false
		npCh, npMsg := s.npChannelID, s.npMessageID
		s.npChannelID, s.npMessageID = "", ""
		s.mu.Unlock()

		if err := m.backend.DestroyPlayer(ctx, guildID); err != nil {
			log.Warn().Err(err).Str("guild", guildID).Msg("failed to destroy player")
		}
		if err := m.voice.LeaveVoice(guildID); err != nil {
			log.Warn().Err(err).Str("guild", guildID).Msg("failed to leave voice")
		}
		if n := m.getNotifier(); n != nil {
			n.PlaybackStopped(guildID, npCh, npMsg, true)
		}
		return
	}

	next := s.queue[0]
	s.queue = s.queue[1:]
	s.epoch++
	epoch := s.epoch
	cur := next
	s.current = &cur
	s.startedAt = time.Now()
	s.paused = false
	channelID := s.textChannelID
	s.mu.Unlock()

	if err := m.backend.Play(ctx, guildID, next.Encoded); err != nil {
		log.Error().Err(err).Str("guild", guildID).Str("track", next.Title).Msg("failed to play next track")
		s.mu.Lock()
		m.advance(ctx, s)
		return
	}

	if n := m.getNotifier(); n != nil {
		n.TrackStarted(guildID, channelID, next, epoch)
	}
}

// Skip cancels the refresh loop before touching the backend, stops the
// current track and advances directly. The backend's own end event for the
// stopped track carries reason "stopped" and is ignored by HandleTrackEnd.
func (m *Manager) Skip(ctx context.Context, guildID string) (music.TrackRef, error) {
	s := m.sessionIfExists(guildID)
	if s == nil {
		return music.TrackRef{}, ErrNothingPlaying
	}

	s.mu.Lock()
	if s.current == nil {
		s.mu.Unlock()
		return music.TrackRef{}, ErrNothingPlaying
	}
	skipped := *s.current
	s.cancelRefreshLocked()
	s.mu.Unlock()

	if err := m.backend.Stop(ctx, guildID); err != nil {
		log.Warn().Err(err).Str("guild", guildID).Msg("backend stop failed during skip")
	}

	s.mu.Lock()
	if s.current == nil || s.current.Encoded != skipped.Encoded {
		// A concurrent track-end already advanced; nothing left to do.
		s.mu.Unlock()
		return skipped, nil
	}
	m.advance(ctx, s)
	return skipped, nil
}

// Stop unconditionally winds the session down: clears the queue and current
// track, disconnects the backend player and the voice link.
func (m *Manager) Stop(ctx context.Context, guildID string) {
	s := m.sessionIfExists(guildID)
	if s == nil {
		return
	}

	s.mu.Lock()
	s.cancelRefreshLocked()
	s.queue = nil
	s.current = nil
	s.epoch++
	s.startedAt = time.Time{}
	s.paused = false
	npCh, npMsg := s.npChannelID, s.npMessageID
	s.npChannelID, s.npMessageID = "", ""
	s.mu.Unlock()

	if err := m.backend.Stop(ctx, guildID); err != nil {
		log.Warn().Err(err).Str("guild", guildID).Msg("backend stop failed")
	}
	if err := m.backend.DestroyPlayer(ctx, guildID); err != nil {
		log.Warn().Err(err).Str("guild", guildID).Msg("failed to destroy player")
	}
	if err := m.voice.LeaveVoice(guildID); err != nil {
		log.Warn().Err(err).Str("guild", guildID).Msg("failed to leave voice")
	}
	if n := m.getNotifier(); n != nil {
		n.PlaybackStopped(guildID, npCh, npMsg, false)
	}
}

// Reset stops the guild's playback and forces a backend reconnect.
func (m *Manager) Reset(ctx context.Context, guildID string) bool {
	m.Stop(ctx, guildID)
	return m.health.ForceReconnect(ctx)
}

// ResetAll stops every active session and forces one backend reconnect.
func (m *Manager) ResetAll(ctx context.Context) (int, bool) {
	m.mu.RLock()
	guilds := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		guilds = append(guilds, id)
	}
	m.mu.RUnlock()

	for _, id := range guilds {
		m.Stop(ctx, id)
	}
	return len(guilds), m.health.ForceReconnect(ctx)
}

// TogglePause flips the paused state. The backend owns the truth; on a
// failed pause call the flag is reverted.
func (m *Manager) TogglePause(ctx context.Context, guildID string) (bool, error) {
	s := m.sessionIfExists(guildID)
	if s == nil {
		return false, ErrNothingPlaying
	}

	s.mu.Lock()
	if s.current == nil {
		s.mu.Unlock()
		return false, ErrNothingPlaying
	}
	s.paused = !s.paused
	paused := s.paused
	s.mu.Unlock()

	if err := m.backend.Pause(ctx, guildID, paused); err != nil {
		s.mu.Lock()
		s.paused = !paused
		s.mu.Unlock()
		return !paused, fmt.Errorf("pause playback: %w", err)
	}
	return paused, nil
}

// RemoveAt removes the 1-based index from the pending queue. Out-of-range
// indices fail without mutating anything.
func (m *Manager) RemoveAt(guildID string, index int) (music.TrackRef, error) {
	s := m.sessionIfExists(guildID)
	if s == nil {
		return music.TrackRef{}, ErrInvalidIndex
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if index < 1 || index > len(s.queue) {
		return music.TrackRef{}, ErrInvalidIndex
	}
	removed := s.queue[index-1]
	s.queue = append(s.queue[:index-1], s.queue[index:]...)
	return removed, nil
}

// MoveToFront moves the 1-based index to the queue head so it plays next.
func (m *Manager) MoveToFront(guildID string, index int) (music.TrackRef, error) {
	s := m.sessionIfExists(guildID)
	if s == nil {
		return music.TrackRef{}, ErrInvalidIndex
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if index < 1 || index > len(s.queue) {
		return music.TrackRef{}, ErrInvalidIndex
	}
	moved := s.queue[index-1]
	rest := append(s.queue[:index-1], s.queue[index:]...)
	s.queue = append([]music.TrackRef{moved}, rest...)
	return moved, nil
}

// Shuffle randomizes the pending queue and returns its length.
func (m *Manager) Shuffle(guildID string) int {
	s := m.sessionIfExists(guildID)
	if s == nil {
		return 0
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	rand.Shuffle(len(s.queue), func(i, j int) {
		s.queue[i], s.queue[j] = s.queue[j], s.queue[i]
	})
	return len(s.queue)
}

// ClearQueue drops all pending tracks, leaving the current one playing.
func (m *Manager) ClearQueue(guildID string) int {
	s := m.sessionIfExists(guildID)
	if s == nil {
		return 0
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(s.queue)
	s.queue = nil
	return n
}

// Snapshot returns a copy of the session state, zero-valued for guilds that
// never played anything.
func (m *Manager) Snapshot(guildID string) Snapshot {
	s := m.sessionIfExists(guildID)
	if s == nil {
		return Snapshot{GuildID: guildID}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// SetNowPlaying records the live UI message and the refresh loop's cancel
// handle, cancelling any loop that was still attached to the session.
func (m *Manager) SetNowPlaying(guildID, channelID, messageID string, cancel context.CancelFunc) {
	s := m.session(guildID)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelRefreshLocked()
	s.npChannelID = channelID
	s.npMessageID = messageID
	s.cancelRefresh = cancel
}
