// Package cache stores track resolution results in redis so repeated plays
// of the same link skip the catalog and search round-trips.
//
// Two key families:
//
//	cache:catalog:<key>    catalog id -> "title artist" search string
//	cache:search:<search>  search string -> resolved {title, uri}
package cache

import (
	"context"
	"encoding/json"
	"fmt"

	redislib "github.com/redis/go-redis/v9"
)

const (
	catalogPrefix = "cache:catalog:"
	searchPrefix  = "cache:search:"
)

type resolvedTrack struct {
	Title string `json:"title"`
	URI   string `json:"uri"`
}

type Cache struct {
	rdb *redislib.Client
}

func New(rdb *redislib.Client) *Cache {
	return &Cache{rdb: rdb}
}

// GetQuery returns the cached search string for a catalog key, or "" on miss.
func (c *Cache) GetQuery(ctx context.Context, key string) (string, bool) {
	if c == nil || c.rdb == nil || key == "" {
		return "", false
	}
	val, err := c.rdb.Get(ctx, catalogPrefix+key).Result()
	if err != nil {
		return "", false
	}
	return val, true
}

func (c *Cache) SetQuery(ctx context.Context, key, search string) error {
	if c == nil || c.rdb == nil || key == "" || search == "" {
		return nil
	}
	return c.rdb.Set(ctx, catalogPrefix+key, search, 0).Err()
}

// GetResolved returns the cached (title, uri) for a search string. A stored
// value that no longer parses counts as a miss.
func (c *Cache) GetResolved(ctx context.Context, search string) (title, uri string, ok bool) {
	if c == nil || c.rdb == nil || search == "" {
		return "", "", false
	}
	raw, err := c.rdb.Get(ctx, searchPrefix+search).Bytes()
	if err != nil {
		return "", "", false
	}
	var rt resolvedTrack
	if err := json.Unmarshal(raw, &rt); err != nil || rt.URI == "" {
		return "", "", false
	}
	return rt.Title, rt.URI, true
}

func (c *Cache) SetResolved(ctx context.Context, search, title, uri string) error {
	if c == nil || c.rdb == nil || search == "" || uri == "" {
		return nil
	}
	raw, err := json.Marshal(resolvedTrack{Title: title, URI: uri})
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, searchPrefix+search, raw, 0).Err()
}

// Counts reports how many entries each key family holds.
func (c *Cache) Counts(ctx context.Context) (catalog, search int64, err error) {
	if c == nil || c.rdb == nil {
		return 0, 0, nil
	}
	catalog, err = c.countPrefix(ctx, catalogPrefix)
	if err != nil {
		return 0, 0, err
	}
	search, err = c.countPrefix(ctx, searchPrefix)
	return catalog, search, err
}

func (c *Cache) countPrefix(ctx context.Context, prefix string) (int64, error) {
	var count int64
	iter := c.rdb.Scan(ctx, 0, prefix+"*", 200).Iterator()
	for iter.Next(ctx) {
		count++
	}
	return count, iter.Err()
}

// Clear drops every cache entry of both families.
func (c *Cache) Clear(ctx context.Context) (int64, error) {
	if c == nil || c.rdb == nil {
		return 0, nil
	}
	var dropped int64
	for _, prefix := range []string{catalogPrefix, searchPrefix} {
		iter := c.rdb.Scan(ctx, 0, prefix+"*", 200).Iterator()
		var keys []string
		for iter.Next(ctx) {
			keys = append(keys, iter.Val())
		}
		if err := iter.Err(); err != nil {
			return dropped, fmt.Errorf("scan %s: %w", prefix, err)
		}
		if len(keys) == 0 {
			continue
		}
		n, err := c.rdb.Del(ctx, keys...).Result()
		dropped += n
		if err != nil {
			return dropped, err
		}
	}
	return dropped, nil
}
