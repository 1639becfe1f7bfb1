// Package lavalink implements a Lavalink v4 client: REST for track loading
// and player control, a websocket for ready/playerUpdate/event dispatch, and
// a connection manager with bounded reconnects and a heartbeat.
package lavalink

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/oskarh/groovebox/internal/music"
)

const clientName = "groovebox/1.0"

type Config struct {
	Addr          string // host:port
	Password      string
	Secure        bool
	UserID        string // bot user id, required by the websocket handshake
	ResumeTimeout time.Duration
}

// TrackEndFunc receives asynchronous end-of-track notifications. Reason is
// the Lavalink reason code ("finished", "stopped", "replaced", ...).
type TrackEndFunc func(guildID string, track music.TrackRef, reason string)

// Client is the process-wide connection to one Lavalink node. Safe for
// concurrent use.
type Client struct {
	cfg        Config
	httpClient *http.Client

	mu         sync.RWMutex
	conn       *websocket.Conn
	sessionID  string
	positions  map[string]playerState
	voice      map[string]*voiceServer
	onTrackEnd TrackEndFunc
}

func NewClient(cfg Config) *Client {
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		positions:  make(map[string]playerState),
		voice:      make(map[string]*voiceServer),
	}
}

// SetTrackEndHandler registers the end-of-track callback. Must be called
// before Connect.
func (c *Client) SetTrackEndHandler(fn TrackEndFunc) {
	c.mu.Lock()
	c.onTrackEnd = fn
	c.mu.Unlock()
}

// SetUserID supplies the bot user id once the gateway session is ready; the
// websocket handshake requires it.
func (c *Client) SetUserID(id string) {
	c.mu.Lock()
	c.cfg.UserID = id
	c.mu.Unlock()
}

// Connect dials the websocket and blocks until the node sends the ready op.
// A previous session id, if any, is offered for resumption.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	prevSession := c.sessionID
	userID := c.cfg.UserID
	if c.conn != nil {
		_ = c.conn.Close()
		c.conn = nil
	}
	c.mu.Unlock()

	headers := http.Header{}
	headers.Set("Authorization", c.cfg.Password)
	headers.Set("User-Id", userID)
	headers.Set("Client-Name", clientName)
	if prevSession != "" {
		headers.Set("Session-Id", prevSession)
	}

	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.DialContext(ctx, c.wsURL(), headers)
	if err != nil {
		return fmt.Errorf("dial lavalink: %w", err)
	}

	// The node sends ready as its first message.
	_ = conn.SetReadDeadline(time.Now().Add(10 * time.Second))
	var ready wsMessage
	if err := conn.ReadJSON(&ready); err != nil {
		_ = conn.Close()
		return fmt.Errorf("read ready op: %w", err)
	}
	if ready.Op != "ready" || ready.SessionID == "" {
		_ = conn.Close()
		return fmt.Errorf("unexpected first op %q", ready.Op)
	}
	_ = conn.SetReadDeadline(time.Time{})

	c.mu.Lock()
	c.conn = conn
	c.sessionID = ready.SessionID
	c.mu.Unlock()

	log.Info().Str("session", ready.SessionID).Bool("resumed", ready.Resumed).Msg("lavalink ready")

	if c.cfg.ResumeTimeout > 0 {
		body := map[string]any{"resuming": true, "timeout": int(c.cfg.ResumeTimeout.Seconds())}
		if err := c.rest(ctx, http.MethodPatch, "/v4/sessions/"+ready.SessionID, body, nil); err != nil {
			log.Warn().Err(err).Msg("failed to configure session resuming")
		}
	}

	go c.readLoop(conn)
	return nil
}

func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	return err
}

// readLoop dispatches websocket messages until the connection drops. The
// manager's heartbeat notices the drop; no self-reconnect here.
func (c *Client) readLoop(conn *websocket.Conn) {
	for {
		var msg wsMessage
		if err := conn.ReadJSON(&msg); err != nil {
			log.Warn().Err(err).Msg("lavalink websocket closed")
			return
		}

		switch msg.Op {
		case "playerUpdate":
			c.mu.Lock()
			c.positions[msg.GuildID] = msg.State
			c.mu.Unlock()
		case "event":
			c.handleEvent(msg)
		case "stats":
			// Pushed once a minute; the REST probe is what health checks use.
		}
	}
}

func (c *Client) handleEvent(msg wsMessage) {
	switch msg.Type {
	case "TrackEndEvent":
		c.mu.RLock()
		fn := c.onTrackEnd
		c.mu.RUnlock()
		if fn != nil {
			fn(msg.GuildID, msg.Track.TrackRef(), msg.Reason)
		}
	case "TrackExceptionEvent":
		log.Error().Str("guild", msg.GuildID).Str("track", msg.Track.Info.Title).Msg("track exception")
	case "TrackStuckEvent":
		log.Warn().Str("guild", msg.GuildID).Str("track", msg.Track.Info.Title).Msg("track stuck")
	case "WebSocketClosedEvent":
		log.Warn().Str("guild", msg.GuildID).Int("code", msg.Code).Msg("voice websocket closed")
	}
}

// LoadTracks resolves a URL or search identifier against the node. An empty
// result is not an error; callers decide what a miss means.
func (c *Client) LoadTracks(ctx context.Context, identifier string) (music.TrackList, error) {
	var result loadResult
	path := "/v4/loadtracks?identifier=" + url.QueryEscape(identifier)
	if err := c.rest(ctx, http.MethodGet, path, nil, &result); err != nil {
		return music.TrackList{}, err
	}

	switch result.LoadType {
	case "track":
		var t Track
		if err := json.Unmarshal(result.Data, &t); err != nil {
			return music.TrackList{}, err
		}
		return music.TrackList{Tracks: []music.TrackRef{t.TrackRef()}}, nil
	case "search":
		var tracks []Track
		if err := json.Unmarshal(result.Data, &tracks); err != nil {
			return music.TrackList{}, err
		}
		return music.TrackList{Tracks: trackRefs(tracks)}, nil
	case "playlist":
		var pl playlistData
		if err := json.Unmarshal(result.Data, &pl); err != nil {
			return music.TrackList{}, err
		}
		return music.TrackList{Tracks: trackRefs(pl.Tracks), PlaylistName: pl.Info.Name}, nil
	case "empty":
		return music.TrackList{}, nil
	case "error":
		var exc loadException
		_ = json.Unmarshal(result.Data, &exc)
		return music.TrackList{}, fmt.Errorf("lavalink load failed: %s", exc.Message)
	default:
		return music.TrackList{}, fmt.Errorf("unknown loadType %q", result.LoadType)
	}
}

func trackRefs(tracks []Track) []music.TrackRef {
	refs := make([]music.TrackRef, 0, len(tracks))
	for _, t := range tracks {
		refs = append(refs, t.TrackRef())
	}
	return refs
}

// Stats is the health probe.
func (c *Client) Stats(ctx context.Context) (Stats, error) {
	var s Stats
	err := c.rest(ctx, http.MethodGet, "/v4/stats", nil, &s)
	return s, err
}

// Play loads an encoded track into the guild's player.
func (c *Client) Play(ctx context.Context, guildID, encoded string) error {
	body := map[string]any{"track": map[string]any{"encoded": encoded}}
	return c.rest(ctx, http.MethodPatch, c.playerPath(guildID)+"?noReplace=false", body, nil)
}

// Stop clears the guild's player without destroying it. The node emits a
// TrackEndEvent with reason "stopped".
func (c *Client) Stop(ctx context.Context, guildID string) error {
	body := map[string]any{"track": map[string]any{"encoded": nil}}
	return c.rest(ctx, http.MethodPatch, c.playerPath(guildID), body, nil)
}

func (c *Client) Pause(ctx context.Context, guildID string, paused bool) error {
	return c.rest(ctx, http.MethodPatch, c.playerPath(guildID), map[string]any{"paused": paused}, nil)
}

// DestroyPlayer tears down the guild's player on the node.
func (c *Client) DestroyPlayer(ctx context.Context, guildID string) error {
	c.mu.Lock()
	delete(c.positions, guildID)
	delete(c.voice, guildID)
	c.mu.Unlock()
	return c.rest(ctx, http.MethodDelete, c.playerPath(guildID), nil, nil)
}

// Position returns the authoritative playback position for a guild. It asks
// the node directly so the value stays correct across pauses; the last
// playerUpdate is the fallback when the REST call fails.
func (c *Client) Position(ctx context.Context, guildID string) time.Duration {
	var player struct {
		State playerState `json:"state"`
	}
	if err := c.rest(ctx, http.MethodGet, c.playerPath(guildID), nil, &player); err == nil {
		return time.Duration(player.State.Position) * time.Millisecond
	}

	c.mu.RLock()
	state := c.positions[guildID]
	c.mu.RUnlock()
	return time.Duration(state.Position) * time.Millisecond
}

// HandleVoiceStateUpdate records the bot's own voice session id and forwards
// the voice server to the node once both halves are known.
func (c *Client) HandleVoiceStateUpdate(ctx context.Context, guildID, sessionID string) {
	c.mu.Lock()
	v := c.voiceFor(guildID)
	v.SessionID = sessionID
	complete := v.complete()
	update := *v
	c.mu.Unlock()

	if complete {
		c.pushVoiceUpdate(ctx, guildID, update)
	}
}

// HandleVoiceServerUpdate records the voice server token/endpoint and
// forwards the pair to the node once the session id is known.
func (c *Client) HandleVoiceServerUpdate(ctx context.Context, guildID, token, endpoint string) {
	c.mu.Lock()
	v := c.voiceFor(guildID)
	v.Token = token
	v.Endpoint = endpoint
	complete := v.complete()
	update := *v
	c.mu.Unlock()

	if complete {
		c.pushVoiceUpdate(ctx, guildID, update)
	}
}

func (c *Client) voiceFor(guildID string) *voiceServer {
	v, ok := c.voice[guildID]
	if !ok {
		v = &voiceServer{}
		c.voice[guildID] = v
	}
	return v
}

func (c *Client) pushVoiceUpdate(ctx context.Context, guildID string, v voiceServer) {
	if err := c.rest(ctx, http.MethodPatch, c.playerPath(guildID), map[string]any{"voice": v}, nil); err != nil {
		log.Error().Err(err).Str("guild", guildID).Msg("failed to push voice update")
	}
}

func (c *Client) playerPath(guildID string) string {
	c.mu.RLock()
	sid := c.sessionID
	c.mu.RUnlock()
	return "/v4/sessions/" + sid + "/players/" + guildID
}

func (c *Client) rest(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.restURL()+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", c.cfg.Password)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("lavalink %s %s: status %d: %s", method, path, resp.StatusCode, raw)
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

func (c *Client) restURL() string {
	scheme := "http"
	if c.cfg.Secure {
		scheme = "https"
	}
	return scheme + "://" + c.cfg.Addr
}

func (c *Client) wsURL() string {
	scheme := "ws"
	if c.cfg.Secure {
		scheme = "wss"
	}
	return scheme + "://" + c.cfg.Addr + "/v4/websocket"
}
