package music

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLoader struct {
	results map[string]TrackList
	calls   []string
}

func (f *fakeLoader) LoadTracks(_ context.Context, identifier string) (TrackList, error) {
	f.calls = append(f.calls, identifier)
	return f.results[identifier], nil
}

type fakeSpotify struct {
	tracks     map[string]CatalogTrack
	playlists  map[string][]CatalogTrack
	trackCalls int
}

func (f *fakeSpotify) Track(_ context.Context, id string) (CatalogTrack, error) {
	f.trackCalls++
	ct, ok := f.tracks[id]
	if !ok {
		return CatalogTrack{}, fmt.Errorf("track %s: %w", id, ErrNotFound)
	}
	return ct, nil
}

func (f *fakeSpotify) PlaylistTail(_ context.Context, id string, max int) ([]CatalogTrack, error) {
	items := f.playlists[id]
	if len(items) > max {
		items = items[len(items)-max:]
	}
	return items, nil
}

type fakeApple struct {
	songs map[string]CatalogTrack
	calls int
}

func (f *fakeApple) Song(_ context.Context, id string) (CatalogTrack, error) {
	f.calls++
	ct, ok := f.songs[id]
	if !ok {
		return CatalogTrack{}, fmt.Errorf("song %s: %w", id, ErrNotFound)
	}
	return ct, nil
}

type fakeCache struct {
	queries  map[string]string
	resolved map[string][2]string
}

func newFakeCache() *fakeCache {
	return &fakeCache{queries: map[string]string{}, resolved: map[string][2]string{}}
}

func (f *fakeCache) GetQuery(_ context.Context, key string) (string, bool) {
	v, ok := f.queries[key]
	return v, ok
}

func (f *fakeCache) SetQuery(_ context.Context, key, search string) error {
	f.queries[key] = search
	return nil
}

func (f *fakeCache) GetResolved(_ context.Context, search string) (string, string, bool) {
	v, ok := f.resolved[search]
	return v[0], v[1], ok
}

func (f *fakeCache) SetResolved(_ context.Context, search, title, uri string) error {
	f.resolved[search] = [2]string{title, uri}
	return nil
}

func track(id, title, uri string) TrackRef {
	return TrackRef{Encoded: "enc:" + id, Identifier: id, Title: title, URI: uri, Duration: 3 * time.Minute}
}

func TestResolveDirectURL(t *testing.T) {
	loader := &fakeLoader{results: map[string]TrackList{
		"https://www.youtube.com/watch?v=dQw4w9WgXcQ": {Tracks: []TrackRef{track("dQw4w9WgXcQ", "Never Gonna Give You Up", "https://www.youtube.com/watch?v=dQw4w9WgXcQ")}},
	}}
	r := &Resolver{Loader: loader}

	list, err := r.Resolve(context.Background(), "https://youtu.be/dQw4w9WgXcQ?si=tracking")
	require.NoError(t, err)
	require.Len(t, list.Tracks, 1)
	assert.Equal(t, "Never Gonna Give You Up", list.Tracks[0].Title)
	assert.Equal(t, []string{"https://www.youtube.com/watch?v=dQw4w9WgXcQ"}, loader.calls)
}

func TestResolveFreeText(t *testing.T) {
	loader := &fakeLoader{results: map[string]TrackList{
		"ytsearch:rick astley": {Tracks: []TrackRef{track("a", "A", "uri-a"), track("b", "B", "uri-b")}},
	}}
	r := &Resolver{Loader: loader}

	list, err := r.Resolve(context.Background(), "rick astley")
	require.NoError(t, err)
	require.Len(t, list.Tracks, 1, "free text resolves to the top search hit only")
	assert.Equal(t, "A", list.Tracks[0].Title)
}

func TestResolveNotFound(t *testing.T) {
	r := &Resolver{Loader: &fakeLoader{results: map[string]TrackList{}}}

	_, err := r.Resolve(context.Background(), "no such song anywhere")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestResolveCatalogConsultsCacheBeforeNetwork(t *testing.T) {
	spotify := &fakeSpotify{tracks: map[string]CatalogTrack{
		"4uLU6hMCjMI75M1A2tKUQC": {ID: "4uLU6hMCjMI75M1A2tKUQC", Title: "Never Gonna Give You Up", Artist: "Rick Astley"},
	}}
	loader := &fakeLoader{results: map[string]TrackList{
		"ytsearch:Never Gonna Give You Up Rick Astley": {Tracks: []TrackRef{track("dQw4w9WgXcQ", "Never Gonna Give You Up", "uri-1")}},
		"uri-1": {Tracks: []TrackRef{track("dQw4w9WgXcQ", "Never Gonna Give You Up", "uri-1")}},
	}}
	r := &Resolver{Loader: loader, Spotify: spotify, Cache: newFakeCache()}

	link := "https://open.spotify.com/track/4uLU6hMCjMI75M1A2tKUQC"
	_, err := r.Resolve(context.Background(), link)
	require.NoError(t, err)
	assert.Equal(t, 1, spotify.trackCalls)

	_, err = r.Resolve(context.Background(), link)
	require.NoError(t, err)
	assert.Equal(t, 1, spotify.trackCalls, "second resolve must hit the cache, not the catalog")
}

func TestResolveStaleCacheFallsThrough(t *testing.T) {
	cache := newFakeCache()
	cache.resolved["ytsearch:gone song"] = [2]string{"Gone Song", "uri-dead"}

	loader := &fakeLoader{results: map[string]TrackList{
		// uri-dead resolves to nothing; the fresh search succeeds.
		"ytsearch:gone song": {Tracks: []TrackRef{track("x", "Gone Song", "uri-live")}},
	}}
	r := &Resolver{Loader: loader, Cache: cache}

	list, err := r.Resolve(context.Background(), "gone song")
	require.NoError(t, err)
	require.Len(t, list.Tracks, 1)
	assert.Equal(t, "uri-live", list.Tracks[0].URI)
	assert.Equal(t, [2]string{"Gone Song", "uri-live"}, cache.resolved["ytsearch:gone song"], "stale entry overwritten")
	assert.Equal(t, []string{"uri-dead", "ytsearch:gone song"}, loader.calls)
}

func TestResolveAppleSong(t *testing.T) {
	apple := &fakeApple{songs: map[string]CatalogTrack{
		"1558533900": {ID: "1558533900", Title: "Song Title", Artist: "Some Artist"},
	}}
	loader := &fakeLoader{results: map[string]TrackList{
		"ytsearch:Song Title Some Artist": {Tracks: []TrackRef{track("y", "Song Title", "uri-y")}},
	}}
	cache := newFakeCache()
	r := &Resolver{Loader: loader, Apple: apple, Cache: cache}

	list, err := r.Resolve(context.Background(), "https://music.apple.com/no/song/song-title/1558533900")
	require.NoError(t, err)
	require.Len(t, list.Tracks, 1)
	assert.Equal(t, 1, apple.calls)
	assert.Equal(t, "ytsearch:Song Title Some Artist", cache.queries["apple:1558533900"])
}

func TestResolveSpotifyPlaylistCapped(t *testing.T) {
	items := make([]CatalogTrack, 30)
	loaderResults := map[string]TrackList{}
	for i := range items {
		id := fmt.Sprintf("sp%02d", i)
		items[i] = CatalogTrack{ID: id, Title: fmt.Sprintf("Song %02d", i), Artist: "Artist"}
		search := fmt.Sprintf("ytsearch:Song %02d Artist", i)
		loaderResults[search] = TrackList{Tracks: []TrackRef{track(id, items[i].Title, "uri-"+id)}}
	}
	spotify := &fakeSpotify{playlists: map[string][]CatalogTrack{"37i9dQZF1DX": items}}
	r := &Resolver{Loader: &fakeLoader{results: loaderResults}, Spotify: spotify, Cache: newFakeCache()}

	list, err := r.Resolve(context.Background(), "https://open.spotify.com/playlist/37i9dQZF1DX")
	require.NoError(t, err)
	assert.Len(t, list.Tracks, 20)
	// Tail of the playlist, newest first.
	assert.Equal(t, "Song 29", list.Tracks[0].Title)
	assert.Equal(t, "Song 10", list.Tracks[19].Title)
}

func TestResolveSpotifyPlaylistSkipsFailures(t *testing.T) {
	items := []CatalogTrack{
		{ID: "ok1", Title: "Good One", Artist: "A"},
		{ID: "bad", Title: "Broken", Artist: "B"},
		{ID: "ok2", Title: "Good Two", Artist: "C"},
	}
	loader := &fakeLoader{results: map[string]TrackList{
		"ytsearch:Good One A": {Tracks: []TrackRef{track("1", "Good One", "u1")}},
		"ytsearch:Good Two C": {Tracks: []TrackRef{track("2", "Good Two", "u2")}},
	}}
	spotify := &fakeSpotify{playlists: map[string][]CatalogTrack{"pl": items}}
	r := &Resolver{Loader: loader, Spotify: spotify}

	list, err := r.Resolve(context.Background(), "https://open.spotify.com/playlist/pl")
	require.NoError(t, err)
	require.Len(t, list.Tracks, 2)
	assert.Equal(t, "Good Two", list.Tracks[0].Title)
	assert.Equal(t, "Good One", list.Tracks[1].Title)
}

func TestResolveYouTubePlaylistUncapped(t *testing.T) {
	var tracks []TrackRef
	for i := 0; i < 30; i++ {
		tracks = append(tracks, track(fmt.Sprintf("v%02d", i), fmt.Sprintf("T%02d", i), fmt.Sprintf("u%02d", i)))
	}
	loader := &fakeLoader{results: map[string]TrackList{
		"https://www.youtube.com/playlist?list=PL123": {Tracks: tracks, PlaylistName: "Mix"},
	}}
	r := &Resolver{Loader: loader}

	list, err := r.Resolve(context.Background(), "https://www.youtube.com/playlist?list=PL123")
	require.NoError(t, err)
	assert.Len(t, list.Tracks, 30)
	assert.Equal(t, "Mix", list.PlaylistName)
}

func TestResolveSpotifyLinkWithoutCredentials(t *testing.T) {
	r := &Resolver{Loader: &fakeLoader{}}

	_, err := r.Resolve(context.Background(), "https://open.spotify.com/track/4uLU6hMCjMI75M1A2tKUQC")
	assert.ErrorIs(t, err, ErrNotFound)
}
