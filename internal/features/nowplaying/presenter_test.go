package nowplaying

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oskarh/groovebox/internal/database"
	"github.com/oskarh/groovebox/internal/music"
	"github.com/oskarh/groovebox/internal/player"
)

type fakeMessenger struct {
	mu       sync.Mutex
	sent     []string // channel ids
	edits    int
	deletes  []string // message ids
	presence []string
	nextID   int
}

func (f *fakeMessenger) SendEmbed(channelID string, _ *discordgo.MessageEmbed, _ []discordgo.MessageComponent) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, channelID)
	f.nextID++
	return "msg-" + string(rune('0'+f.nextID)), nil
}

func (f *fakeMessenger) EditEmbed(string, string, *discordgo.MessageEmbed, []discordgo.MessageComponent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.edits++
	return nil
}

func (f *fakeMessenger) DeleteMessage(_, messageID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletes = append(f.deletes, messageID)
	return nil
}

func (f *fakeMessenger) SetPresence(activity string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.presence = append(f.presence, activity)
}

func (f *fakeMessenger) editCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.edits
}

type fakePosition struct {
	mu  sync.Mutex
	pos time.Duration
}

func (f *fakePosition) Position(context.Context, string) time.Duration {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pos
}

func (f *fakePosition) set(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pos = d
}

type fakeSessions struct {
	mu      sync.Mutex
	snap    player.Snapshot
	cancels []context.CancelFunc
}

func (f *fakeSessions) Snapshot(string) player.Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.snap
}

func (f *fakeSessions) SetNowPlaying(_, channelID, messageID string, cancel context.CancelFunc) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.snap.NPChannelID = channelID
	f.snap.NPMessageID = messageID
	f.cancels = append(f.cancels, cancel)
}

func (f *fakeSessions) update(fn func(*player.Snapshot)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fn(&f.snap)
}

func testTrack() music.TrackRef {
	return music.TrackRef{
		Encoded:    "enc-1",
		Identifier: "dQw4w9WgXcQ",
		Title:      "Never Gonna Give You Up",
		Duration:   3 * time.Minute,
		URI:        "https://www.youtube.com/watch?v=dQw4w9WgXcQ",
	}
}

func newTestPresenter() (*Presenter, *fakeMessenger, *fakePosition, *fakeSessions) {
	msg := &fakeMessenger{}
	pos := &fakePosition{}
	sessions := &fakeSessions{}
	p := New(msg, pos, sessions, database.NewNowPlayingRepository())
	p.interval = 5 * time.Millisecond
	return p, msg, pos, sessions
}

func startPlaying(p *Presenter, sessions *fakeSessions, epoch uint64) music.TrackRef {
	track := testTrack()
	cur := track
	sessions.update(func(s *player.Snapshot) {
		s.Current = &cur
		s.Epoch = epoch
	})
	p.TrackStarted("g1", "tc1", track, epoch)
	return track
}

func TestTrackStartedPostsAndRegisters(t *testing.T) {
	p, msg, _, sessions := newTestPresenter()

	startPlaying(p, sessions, 1)

	require.Equal(t, []string{"tc1"}, msg.sent)
	assert.NotEmpty(t, sessions.Snapshot("g1").NPMessageID)
	assert.Equal(t, []string{"🎵 Never Gonna Give You Up"}, msg.presence)
	require.Len(t, sessions.cancels, 1)
	sessions.cancels[0]()
}

func TestTrackStartedReplacesPreviousMessage(t *testing.T) {
	p, msg, _, sessions := newTestPresenter()

	startPlaying(p, sessions, 1)
	firstMsg := sessions.Snapshot("g1").NPMessageID

	startPlaying(p, sessions, 2)
	assert.Equal(t, []string{firstMsg}, msg.deletes, "the superseded player message is deleted")
	assert.NotEqual(t, firstMsg, sessions.Snapshot("g1").NPMessageID)

	for _, cancel := range sessions.cancels {
		cancel()
	}
}

func TestRefreshLoopEditsWhileCurrent(t *testing.T) {
	p, msg, pos, sessions := newTestPresenter()
	pos.set(30 * time.Second)

	startPlaying(p, sessions, 1)
	defer sessions.cancels[0]()

	assert.Eventually(t, func() bool { return msg.editCount() >= 2 },
		time.Second, 2*time.Millisecond, "loop should keep re-rendering while the track is current")
}

func TestRefreshLoopStopsOnEpochChange(t *testing.T) {
	p, msg, _, sessions := newTestPresenter()

	startPlaying(p, sessions, 1)
	defer sessions.cancels[0]()

	sessions.update(func(s *player.Snapshot) { s.Epoch = 2 })
	time.Sleep(30 * time.Millisecond)
	n := msg.editCount()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, n, msg.editCount(), "a stale-epoch loop must terminate")
}

func TestRefreshLoopStopsWhenIdle(t *testing.T) {
	p, msg, _, sessions := newTestPresenter()

	startPlaying(p, sessions, 1)
	defer sessions.cancels[0]()

	sessions.update(func(s *player.Snapshot) { s.Current = nil })
	time.Sleep(30 * time.Millisecond)
	n := msg.editCount()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, n, msg.editCount())
}

func TestRefreshLoopStopsWhenMessageReplaced(t *testing.T) {
	p, msg, _, sessions := newTestPresenter()

	startPlaying(p, sessions, 1)
	defer sessions.cancels[0]()

	sessions.update(func(s *player.Snapshot) { s.NPMessageID = "someone-else" })
	time.Sleep(30 * time.Millisecond)
	n := msg.editCount()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, n, msg.editCount())
}

func TestRefreshLoopStopsOnOvershoot(t *testing.T) {
	p, msg, pos, sessions := newTestPresenter()
	pos.set(4 * time.Minute) // beyond the 3 minute track

	startPlaying(p, sessions, 1)
	defer sessions.cancels[0]()

	time.Sleep(30 * time.Millisecond)
	assert.Zero(t, msg.editCount(), "overshoot terminates before rendering")
}

func TestPlaybackStoppedCleansUp(t *testing.T) {
	p, msg, _, _ := newTestPresenter()

	p.PlaybackStopped("g1", "tc1", "msg-9", false)
	assert.Equal(t, []string{"msg-9"}, msg.deletes)
	assert.Equal(t, []string{""}, msg.presence, "presence cleared")
	assert.Empty(t, msg.sent, "plain stop sends no notice")
}

func TestPlaybackStoppedDrainedSendsNotice(t *testing.T) {
	p, msg, _, _ := newTestPresenter()

	p.PlaybackStopped("g1", "tc1", "msg-9", true)
	assert.Equal(t, []string{"tc1"}, msg.sent, "drained queue announces the disconnect")
}
