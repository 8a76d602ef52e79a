package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// GetCursor returns the last processed message ID for a chat, zero when
// the chat has never been scanned.
func (db *DB) GetCursor(ctx context.Context, chatID int64) (int, error) {
	var lastMessageID int

	err := db.Pool.QueryRow(ctx,
		`SELECT last_message_id FROM chat_cursors WHERE chat_id = $1`,
		chatID).Scan(&lastMessageID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, nil
		}

		return 0, fmt.Errorf("query cursor: %w", err)
	}

	return lastMessageID, nil
}

// SetCursor advances the per-chat scan cursor. It never moves backwards,
// so concurrent workers cannot rewind each other.
func (db *DB) SetCursor(ctx context.Context, chatID int64, lastMessageID int) error {
	_, err := db.Pool.Exec(ctx, `
		INSERT INTO chat_cursors (chat_id, last_message_id)
		VALUES ($1, $2)
		ON CONFLICT (chat_id) DO UPDATE SET
			last_message_id = GREATEST(chat_cursors.last_message_id, EXCLUDED.last_message_id),
			updated_at = NOW()`,
		chatID, lastMessageID)
	if err != nil {
		return fmt.Errorf("set cursor: %w", err)
	}

	return nil
}
