package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"strava-challenge/internal/stats"
)

// SaveSnapshot replaces the stored stats snapshot wholesale. The snapshot
// is a derived cache of the credential set, so it shares no transaction
// with it.
func (d *DB) SaveSnapshot(ctx context.Context, snap *stats.Snapshot) error {
	payload, err := json.Marshal(snap)
	if err != nil {
		return storageErr("encode snapshot", err)
	}

	_, err = d.db.ExecContext(ctx, `
		INSERT INTO snapshot (id, payload, updated_at)
		VALUES (1, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(id) DO UPDATE SET
			payload = excluded.payload,
			updated_at = CURRENT_TIMESTAMP
	`, string(payload))
	if err != nil {
		return storageErr("write snapshot", err)
	}
	return nil
}

// LoadSnapshot returns the latest stats snapshot, or ErrNoSnapshot before
// the first collection run completes.
func (d *DB) LoadSnapshot(ctx context.Context) (*stats.Snapshot, error) {
	row := d.db.QueryRowContext(ctx, `SELECT payload FROM snapshot WHERE id = 1`)

	var payload string
	err := row.Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoSnapshot
	}
	if err != nil {
		return nil, storageErr("read snapshot", err)
	}

	var snap stats.Snapshot
	if err := json.Unmarshal([]byte(payload), &snap); err != nil {
		return nil, storageErr("decode snapshot", err)
	}
	return &snap, nil
}
