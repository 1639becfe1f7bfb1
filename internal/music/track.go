// Package music defines the playable-track model and the resolver that turns
// user queries into tracks.
package music

import (
	"context"
	"errors"
	"time"
)

var ErrNotFound = errors.New("no playable track found")

// TrackRef is an immutable reference to a playable audio item. Encoded is the
// backend's opaque play token; Identifier is the source-side id (a YouTube
// video id for YouTube tracks), used for thumbnail derivation and may be
// empty for other sources.
type TrackRef struct {
	Encoded    string
	Identifier string
	Title      string
	Author     string
	Duration   time.Duration
	URI        string
	Requester  string
}

// TrackList is an ordered resolution result. PlaylistName is set when the
// source returned a native playlist.
type TrackList struct {
	Tracks       []TrackRef
	PlaylistName string
}

// CatalogTrack is the metadata a catalog provider returns for one item.
type CatalogTrack struct {
	ID     string
	Title  string
	Artist string
}

// Loader fetches playable tracks from the audio backend by URL or search
// identifier (e.g. "ytsearch:...").
type Loader interface {
	LoadTracks(ctx context.Context, identifier string) (TrackList, error)
}

// SpotifyCatalog is the credentialed metadata API.
type SpotifyCatalog interface {
	Track(ctx context.Context, id string) (CatalogTrack, error)
	// PlaylistTail returns up to max items from the end of a playlist, in
	// playlist order.
	PlaylistTail(ctx context.Context, id string, max int) ([]CatalogTrack, error)
}

// AppleCatalog is the uncredentialed public lookup API.
type AppleCatalog interface {
	Song(ctx context.Context, id string) (CatalogTrack, error)
}

// QueryCache persists resolution results. Implementations must treat a miss
// as (zero, false), never as an error.
type QueryCache interface {
	GetQuery(ctx context.Context, key string) (string, bool)
	SetQuery(ctx context.Context, key, search string) error
	GetResolved(ctx context.Context, search string) (title, uri string, ok bool)
	SetResolved(ctx context.Context, search, title, uri string) error
}
