package music

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeURL(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "music.youtube watch link",
			input: "https://music.youtube.com/watch?v=dQw4w9WgXcQ",
			want:  "https://www.youtube.com/watch?v=dQw4w9WgXcQ",
		},
		{
			name:  "mobile watch link",
			input: "https://m.youtube.com/watch?v=dQw4w9WgXcQ",
			want:  "https://www.youtube.com/watch?v=dQw4w9WgXcQ",
		},
		{
			name:  "strips tracking params",
			input: "https://www.youtube.com/watch?v=dQw4w9WgXcQ&t=42&si=abc",
			want:  "https://www.youtube.com/watch?v=dQw4w9WgXcQ",
		},
		{
			name:  "keeps playlist params",
			input: "https://www.youtube.com/watch?v=dQw4w9WgXcQ&list=PL123",
			want:  "https://www.youtube.com/watch?v=dQw4w9WgXcQ&list=PL123",
		},
		{
			name:  "short link",
			input: "https://youtu.be/dQw4w9WgXcQ",
			want:  "https://www.youtube.com/watch?v=dQw4w9WgXcQ",
		},
		{
			name:  "short link with params",
			input: "https://youtu.be/dQw4w9WgXcQ?si=xyz&t=5",
			want:  "https://www.youtube.com/watch?v=dQw4w9WgXcQ",
		},
		{
			name:  "short link with playlist param",
			input: "https://youtu.be/dQw4w9WgXcQ?list=PL123",
			want:  "https://www.youtube.com/watch?v=dQw4w9WgXcQ&list=PL123",
		},
		{
			name:  "non-youtube url untouched",
			input: "https://soundcloud.com/artist/song",
			want:  "https://soundcloud.com/artist/song",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeURL(tt.input))
		})
	}
}

func TestSpotifyTrackID(t *testing.T) {
	id, ok := SpotifyTrackID("https://open.spotify.com/track/4uLU6hMCjMI75M1A2tKUQC?si=abc")
	assert.True(t, ok)
	assert.Equal(t, "4uLU6hMCjMI75M1A2tKUQC", id)

	id, ok = SpotifyTrackID("spotify:track:4uLU6hMCjMI75M1A2tKUQC")
	assert.True(t, ok)
	assert.Equal(t, "4uLU6hMCjMI75M1A2tKUQC", id)

	_, ok = SpotifyTrackID("https://open.spotify.com/playlist/37i9dQZF1DX0XUsuxWHRQd")
	assert.False(t, ok)
}

func TestSpotifyPlaylistID(t *testing.T) {
	id, ok := SpotifyPlaylistID("https://open.spotify.com/playlist/37i9dQZF1DX0XUsuxWHRQd?si=x")
	assert.True(t, ok)
	assert.Equal(t, "37i9dQZF1DX0XUsuxWHRQd", id)

	_, ok = SpotifyPlaylistID("https://open.spotify.com/track/4uLU6hMCjMI75M1A2tKUQC")
	assert.False(t, ok)
}

func TestAppleSongID(t *testing.T) {
	id, ok := AppleSongID("https://music.apple.com/no/song/never-gonna-give-you-up/1558533900")
	assert.True(t, ok)
	assert.Equal(t, "1558533900", id)

	id, ok = AppleSongID("https://music.apple.com/no/song/some-song/1558533900?i=1")
	assert.True(t, ok)
	assert.Equal(t, "1558533900", id)

	_, ok = AppleSongID("https://music.apple.com/no/album/whatever/1440833098")
	assert.False(t, ok)

	_, ok = AppleSongID("https://music.apple.com/no/song/not-numeric/abc123x")
	assert.False(t, ok)
}

func TestIsYouTubePlaylist(t *testing.T) {
	assert.True(t, IsYouTubePlaylist("https://www.youtube.com/playlist?list=PL123"))
	assert.True(t, IsYouTubePlaylist("https://youtu.be/dQw4w9WgXcQ?list=PL123"))
	assert.False(t, IsYouTubePlaylist("https://www.youtube.com/watch?v=dQw4w9WgXcQ"))
	assert.False(t, IsYouTubePlaylist("https://open.spotify.com/playlist/x?list=y"))
}
