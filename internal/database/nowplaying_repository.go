package database

import (
	"context"
	"database/sql"
	"time"
)

const repoTimeout = 2 * time.Second

// NowPlayingRepository records which Discord message currently hosts a
// guild's player UI. All methods are nil-safe so the bot can run without
// postgres; the only cost is losing stale-message cleanup across restarts.
type NowPlayingRepository struct {
	db *sql.DB
}

func NewNowPlayingRepository() *NowPlayingRepository {
	return &NowPlayingRepository{db: GetDB()}
}

type NowPlayingEntry struct {
	GuildID   string
	ChannelID string
	MessageID string
}

func (r *NowPlayingRepository) Upsert(guildID, channelID, messageID string) error {
	if r == nil || r.db == nil {
		return nil
	}
	if guildID == "" || channelID == "" || messageID == "" {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), repoTimeout)
	defer cancel()

	const query = `
		INSERT INTO nowplaying_messages (guild_id, channel_id, message_id, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (guild_id)
		DO UPDATE SET
			channel_id = EXCLUDED.channel_id,
			message_id = EXCLUDED.message_id,
			updated_at = NOW();
	`

	_, err := r.db.ExecContext(ctx, query, guildID, channelID, messageID)
	return err
}

func (r *NowPlayingRepository) Get(guildID string) (NowPlayingEntry, bool, error) {
	if r == nil || r.db == nil || guildID == "" {
		return NowPlayingEntry{}, false, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), repoTimeout)
	defer cancel()

	const query = `
		SELECT channel_id, message_id
		FROM nowplaying_messages
		WHERE guild_id = $1
	`

	entry := NowPlayingEntry{GuildID: guildID}
	err := r.db.QueryRowContext(ctx, query, guildID).Scan(&entry.ChannelID, &entry.MessageID)
	if err != nil {
		if err == sql.ErrNoRows {
			return NowPlayingEntry{}, false, nil
		}
		return NowPlayingEntry{}, false, err
	}

	return entry, true, nil
}

func (r *NowPlayingRepository) Delete(guildID string) error {
	if r == nil || r.db == nil || guildID == "" {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), repoTimeout)
	defer cancel()

	_, err := r.db.ExecContext(ctx, `DELETE FROM nowplaying_messages WHERE guild_id = $1`, guildID)
	return err
}

// ListAll returns every registered message so stale ones can be deleted at
// startup.
func (r *NowPlayingRepository) ListAll() ([]NowPlayingEntry, error) {
	if r == nil || r.db == nil {
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), repoTimeout)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, `SELECT guild_id, channel_id, message_id FROM nowplaying_messages`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []NowPlayingEntry
	for rows.Next() {
		var e NowPlayingEntry
		if err := rows.Scan(&e.GuildID, &e.ChannelID, &e.MessageID); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
