package music

import "strings"

func IsURL(q string) bool {
	return strings.HasPrefix(q, "http://") || strings.HasPrefix(q, "https://")
}

// SpotifyPlaylistID extracts the playlist id from an open.spotify.com
// playlist link.
func SpotifyPlaylistID(q string) (string, bool) {
	if !strings.Contains(q, "open.spotify.com/playlist/") {
		return "", false
	}
	return spotifyPathID(q, "/playlist/")
}

// SpotifyTrackID extracts the track id from an open.spotify.com track link or
// a spotify:track: URI.
func SpotifyTrackID(q string) (string, bool) {
	if strings.HasPrefix(q, "spotify:track:") {
		id := strings.TrimPrefix(q, "spotify:track:")
		return id, id != ""
	}
	if !strings.Contains(q, "open.spotify.com/track/") {
		return "", false
	}
	return spotifyPathID(q, "/track/")
}

func spotifyPathID(q, marker string) (string, bool) {
	idx := strings.Index(q, marker)
	id := q[idx+len(marker):]
	if cut := strings.IndexAny(id, "?/&"); cut != -1 {
		id = id[:cut]
	}
	return id, id != ""
}

// AppleSongID extracts the numeric track id from a music.apple.com song link.
func AppleSongID(q string) (string, bool) {
	if !strings.Contains(q, "music.apple.com") || !strings.Contains(q, "/song/") {
		return "", false
	}
	q = strings.SplitN(q, "?", 2)[0]
	parts := strings.Split(strings.TrimRight(q, "/"), "/")
	id := parts[len(parts)-1]
	if id == "" || !allDigits(id) {
		return "", false
	}
	return id, true
}

func allDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return len(s) > 0
}

// IsYouTubePlaylist reports whether a YouTube link carries a playlist
// parameter.
func IsYouTubePlaylist(q string) bool {
	if !strings.Contains(q, "youtube.com") && !strings.Contains(q, "youtu.be") {
		return false
	}
	return strings.Contains(q, "list=")
}

// NormalizeURL rewrites YouTube link variants to the canonical
// www.youtube.com/watch form and strips trailing tracking parameters unless a
// playlist parameter is present.
func NormalizeURL(q string) string {
	q = strings.TrimSpace(q)
	q = strings.Replace(q, "music.youtube.com", "www.youtube.com", 1)
	q = strings.Replace(q, "m.youtube.com", "www.youtube.com", 1)

	if idx := strings.Index(q, "youtu.be/"); idx != -1 {
		rest := q[idx+len("youtu.be/"):]
		id, params, _ := strings.Cut(rest, "?")
		q = "https://www.youtube.com/watch?v=" + id
		if params != "" {
			q += "&" + params
		}
	}

	if strings.Contains(q, "watch?v=") && !strings.Contains(q, "list=") {
		if amp := strings.Index(q, "&"); amp != -1 {
			q = q[:amp]
		}
	}
	return q
}
