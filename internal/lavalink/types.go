package lavalink

import (
	"encoding/json"
	"time"

	"github.com/oskarh/groovebox/internal/music"
)

// TrackInfo is the Lavalink v4 track metadata block.
type TrackInfo struct {
	Identifier string `json:"identifier"`
	IsSeekable bool   `json:"isSeekable"`
	Author     string `json:"author"`
	Length     int64  `json:"length"`
	IsStream   bool   `json:"isStream"`
	Position   int64  `json:"position"`
	Title      string `json:"title"`
	URI        string `json:"uri"`
	ArtworkURL string `json:"artworkUrl"`
	SourceName string `json:"sourceName"`
}

// Track is a playable Lavalink track. Encoded is the opaque play token.
type Track struct {
	Encoded string    `json:"encoded"`
	Info    TrackInfo `json:"info"`
}

// TrackRef maps a wire track to the domain model. The source identifier is
// only carried for YouTube tracks, where it doubles as the thumbnail key.
func (t Track) TrackRef() music.TrackRef {
	ref := music.TrackRef{
		Encoded:  t.Encoded,
		Title:    t.Info.Title,
		Author:   t.Info.Author,
		Duration: time.Duration(t.Info.Length) * time.Millisecond,
		URI:      t.Info.URI,
	}
	if t.Info.SourceName == "youtube" {
		ref.Identifier = t.Info.Identifier
	}
	return ref
}

// loadResult is the polymorphic /v4/loadtracks response: Data holds a track,
// a track array, a playlist object or an exception depending on LoadType.
type loadResult struct {
	LoadType string          `json:"loadType"`
	Data     json.RawMessage `json:"data"`
}

type playlistData struct {
	Info struct {
		Name string `json:"name"`
	} `json:"info"`
	Tracks []Track `json:"tracks"`
}

type loadException struct {
	Message  string `json:"message"`
	Severity string `json:"severity"`
	Cause    string `json:"cause"`
}

// Stats is the node statistics payload, also the health-probe response.
type Stats struct {
	Players        int   `json:"players"`
	PlayingPlayers int   `json:"playingPlayers"`
	Uptime         int64 `json:"uptime"`
	Memory         struct {
		Free      int64 `json:"free"`
		Used      int64 `json:"used"`
		Allocated int64 `json:"allocated"`
	} `json:"memory"`
}

// playerState is the live state block inside playerUpdate messages and REST
// player responses.
type playerState struct {
	Time      int64 `json:"time"`
	Position  int64 `json:"position"`
	Connected bool  `json:"connected"`
	Ping      int64 `json:"ping"`
}

type wsMessage struct {
	Op        string      `json:"op"`
	SessionID string      `json:"sessionId"`
	Resumed   bool        `json:"resumed"`
	GuildID   string      `json:"guildId"`
	State     playerState `json:"state"`

	// event fields
	Type   string `json:"type"`
	Track  Track  `json:"track"`
	Reason string `json:"reason"`
	Code   int    `json:"code"`
}

type voiceServer struct {
	Token     string `json:"token"`
	Endpoint  string `json:"endpoint"`
	SessionID string `json:"sessionId"`
}

func (v voiceServer) complete() bool {
	return v.Token != "" && v.Endpoint != "" && v.SessionID != ""
}
