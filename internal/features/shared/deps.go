// Package shared carries the dependency bundle and Discord helpers used by
// every feature package.
package shared

import (
	"github.com/oskarh/groovebox/config"
	"github.com/oskarh/groovebox/internal/cache"
	"github.com/oskarh/groovebox/internal/database"
	"github.com/oskarh/groovebox/internal/features/nowplaying"
	"github.com/oskarh/groovebox/internal/lavalink"
	"github.com/oskarh/groovebox/internal/music"
	"github.com/oskarh/groovebox/internal/player"
)

// Deps is the wiring bundle handed to command handlers.
type Deps struct {
	Cfg       *config.Config
	Resolver  *music.Resolver
	Players   *player.Manager
	Backend   *lavalink.Client
	Health    *lavalink.Manager
	Cache     *cache.Cache
	Repo      *database.NowPlayingRepository
	Presenter *nowplaying.Presenter
}
