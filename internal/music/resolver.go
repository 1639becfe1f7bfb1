package music

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
)

const playlistCap = 20

// Resolver turns a user query into an ordered list of playable tracks.
// Spotify and Apple are optional; when nil the corresponding link shapes fail
// with a wrapped ErrNotFound. Cache is optional.
type Resolver struct {
	Loader  Loader
	Spotify SpotifyCatalog
	Apple   AppleCatalog
	Cache   QueryCache
}

// Resolve dispatches on query shape in priority order: spotify playlist,
// youtube playlist, apple song, spotify track, plain URL or free text.
func (r *Resolver) Resolve(ctx context.Context, query string) (TrackList, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return TrackList{}, ErrNotFound
	}

	if id, ok := SpotifyPlaylistID(query); ok {
		return r.resolveSpotifyPlaylist(ctx, id)
	}
	if IsYouTubePlaylist(query) {
		return r.loadNonEmpty(ctx, NormalizeURL(query))
	}
	if id, ok := AppleSongID(query); ok {
		return r.resolveCatalog(ctx, "apple:"+id, func(ctx context.Context) (CatalogTrack, error) {
			if r.Apple == nil {
				return CatalogTrack{}, fmt.Errorf("apple lookup unavailable: %w", ErrNotFound)
			}
			return r.Apple.Song(ctx, id)
		})
	}
	if id, ok := SpotifyTrackID(query); ok {
		return r.resolveCatalog(ctx, id, func(ctx context.Context) (CatalogTrack, error) {
			if r.Spotify == nil {
				return CatalogTrack{}, fmt.Errorf("spotify lookup unavailable: %w", ErrNotFound)
			}
			return r.Spotify.Track(ctx, id)
		})
	}
	if IsURL(query) {
		return r.loadNonEmpty(ctx, NormalizeURL(query))
	}
	return r.resolveSearch(ctx, "ytsearch:"+query)
}

// resolveCatalog handles single-item catalog links: cached search string
// first, catalog API on miss, then the search-string path.
func (r *Resolver) resolveCatalog(ctx context.Context, key string, lookup func(context.Context) (CatalogTrack, error)) (TrackList, error) {
	search, ok := r.cachedQuery(ctx, key)
	if !ok {
		ct, err := lookup(ctx)
		if err != nil {
			return TrackList{}, err
		}
		if ct.Title == "" {
			return TrackList{}, fmt.Errorf("catalog returned no metadata for %s: %w", key, ErrNotFound)
		}
		search = "ytsearch:" + ct.Title + " " + ct.Artist
		if r.Cache != nil {
			if err := r.Cache.SetQuery(ctx, key, search); err != nil {
				log.Warn().Err(err).Str("key", key).Msg("cache write failed")
			}
		}
	}
	return r.resolveSearch(ctx, search)
}

// resolveSearch resolves a ytsearch string to a single track, consulting the
// resolved-track cache first. A cached uri that no longer loads is stale and
// falls through to a fresh search.
func (r *Resolver) resolveSearch(ctx context.Context, search string) (TrackList, error) {
	if r.Cache != nil {
		if _, uri, ok := r.Cache.GetResolved(ctx, search); ok {
			list, err := r.Loader.LoadTracks(ctx, uri)
			if err == nil && len(list.Tracks) > 0 {
				return TrackList{Tracks: list.Tracks[:1]}, nil
			}
			log.Debug().Str("search", search).Msg("stale cache entry, searching fresh")
		}
	}

	list, err := r.Loader.LoadTracks(ctx, search)
	if err != nil {
		return TrackList{}, fmt.Errorf("load %q: %w", search, err)
	}
	if len(list.Tracks) == 0 {
		return TrackList{}, fmt.Errorf("%q: %w", search, ErrNotFound)
	}

	t := list.Tracks[0]
	if r.Cache != nil {
		if err := r.Cache.SetResolved(ctx, search, t.Title, t.URI); err != nil {
			log.Warn().Err(err).Str("search", search).Msg("cache write failed")
		}
	}
	return TrackList{Tracks: []TrackRef{t}}, nil
}

// resolveSpotifyPlaylist expands the tail of a spotify playlist, newest item
// first, skipping items that fail to resolve.
func (r *Resolver) resolveSpotifyPlaylist(ctx context.Context, id string) (TrackList, error) {
	if r.Spotify == nil {
		return TrackList{}, fmt.Errorf("spotify lookup unavailable: %w", ErrNotFound)
	}
	items, err := r.Spotify.PlaylistTail(ctx, id, playlistCap)
	if err != nil {
		return TrackList{}, fmt.Errorf("spotify playlist %s: %w", id, err)
	}

	var tracks []TrackRef
	for i := len(items) - 1; i >= 0; i-- {
		item := items[i]
		list, err := r.resolveCatalog(ctx, item.ID, func(context.Context) (CatalogTrack, error) {
			return item, nil
		})
		if err != nil {
			log.Warn().Err(err).Str("title", item.Title).Msg("skipping playlist item")
			continue
		}
		tracks = append(tracks, list.Tracks...)
	}
	if len(tracks) == 0 {
		return TrackList{}, fmt.Errorf("spotify playlist %s: %w", id, ErrNotFound)
	}
	return TrackList{Tracks: tracks, PlaylistName: "Spotify playlist"}, nil
}

// loadNonEmpty is the direct-URL path.
func (r *Resolver) loadNonEmpty(ctx context.Context, url string) (TrackList, error) {
	list, err := r.Loader.LoadTracks(ctx, url)
	if err != nil {
		return TrackList{}, fmt.Errorf("load %q: %w", url, err)
	}
	if len(list.Tracks) == 0 {
		return TrackList{}, fmt.Errorf("%q: %w", url, ErrNotFound)
	}
	return list, nil
}

func (r *Resolver) cachedQuery(ctx context.Context, key string) (string, bool) {
	if r.Cache == nil {
		return "", false
	}
	return r.Cache.GetQuery(ctx, key)
}
