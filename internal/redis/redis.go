package redis

import (
	"context"
	"fmt"
	"sync"
	"time"

	redislib "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

var (
	client *redislib.Client
	once   sync.Once
)

type Config struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// Init dials redis and pings it with exponential backoff. The client is a
// process-wide singleton; repeated calls return the first result.
func Init(ctx context.Context, cfg Config) (*redislib.Client, error) {
	var initErr error

	once.Do(func() {
		client = redislib.NewClient(&redislib.Options{
			Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
			Password: cfg.Password,
			DB:       cfg.DB,
		})

		backoff := 200 * time.Millisecond
		for attempt := 1; attempt <= 5; attempt++ {
			pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
			initErr = client.Ping(pingCtx).Err()
			cancel()

			if initErr == nil {
				log.Info().Str("addr", client.Options().Addr).Msg("redis connection established")
				return
			}

			log.Warn().Err(initErr).Int("attempt", attempt).Msg("redis ping failed")
			if attempt < 5 {
				time.Sleep(backoff)
				backoff *= 2
			}
		}

		_ = client.Close()
		client = nil
	})

	if client == nil && initErr == nil {
		return nil, fmt.Errorf("redis client not initialized")
	}

	return client, initErr
}

func Client() *redislib.Client {
	return client
}

// Healthy reports whether the connection currently answers PING.
func Healthy(ctx context.Context) bool {
	if client == nil {
		return false
	}
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return client.Ping(pingCtx).Err() == nil
}

func Close() error {
	if client == nil {
		return nil
	}
	return client.Close()
}
