package store

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// Credential holds one athlete's OAuth material. AccessToken and ExpiresAt
// are only ever written together.
type Credential struct {
	AthleteID    int64
	DisplayName  string
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
	ConnectedAt  time.Time
}

// ReadAll returns every stored credential keyed by athlete id. A row that
// cannot be scanned fails the whole read rather than being dropped.
func (d *DB) ReadAll(ctx context.Context) (map[int64]*Credential, error) {
	rows, err := d.db.QueryContext(ctx, `
		SELECT athlete_id, display_name, access_token, refresh_token, expires_at, connected_at
		FROM credentials
	`)
	if err != nil {
		return nil, storageErr("read", err)
	}
	defer rows.Close()

	creds := make(map[int64]*Credential)
	for rows.Next() {
		var c Credential
		var expiresAt, connectedAt int64
		if err := rows.Scan(&c.AthleteID, &c.DisplayName, &c.AccessToken, &c.RefreshToken, &expiresAt, &connectedAt); err != nil {
			return nil, storageErr("scan", err)
		}
		c.ExpiresAt = time.Unix(expiresAt, 0).UTC()
		c.ConnectedAt = time.Unix(connectedAt, 0).UTC()
		creds[c.AthleteID] = &c
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("read", err)
	}

	return creds, nil
}

// WriteAll atomically replaces the entire credential set. Readers never
// observe a partially written set: the delete and inserts commit together
// or not at all.
func (d *DB) WriteAll(ctx context.Context, creds map[int64]*Credential) error {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return storageErr("write", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM credentials`); err != nil {
		return storageErr("write", err)
	}

	for _, c := range creds {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO credentials (athlete_id, display_name, access_token, refresh_token, expires_at, connected_at)
			VALUES (?, ?, ?, ?, ?, ?)
		`, c.AthleteID, c.DisplayName, c.AccessToken, c.RefreshToken, c.ExpiresAt.Unix(), c.ConnectedAt.Unix()); err != nil {
			return storageErr("write", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return storageErr("write", err)
	}
	return nil
}

// Upsert stores or updates a single athlete's credential. ConnectedAt is
// preserved for an athlete reconnecting through the OAuth flow.
func (d *DB) Upsert(ctx context.Context, c *Credential) error {
	_, err := d.db.ExecContext(ctx, `
		INSERT INTO credentials (athlete_id, display_name, access_token, refresh_token, expires_at, connected_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(athlete_id) DO UPDATE SET
			display_name = excluded.display_name,
			access_token = excluded.access_token,
			refresh_token = excluded.refresh_token,
			expires_at = excluded.expires_at
	`, c.AthleteID, c.DisplayName, c.AccessToken, c.RefreshToken, c.ExpiresAt.Unix(), c.ConnectedAt.Unix())
	if err != nil {
		return storageErr("upsert", err)
	}
	return nil
}

// Get retrieves one athlete's credential.
func (d *DB) Get(ctx context.Context, athleteID int64) (*Credential, error) {
	row := d.db.QueryRowContext(ctx, `
		SELECT athlete_id, display_name, access_token, refresh_token, expires_at, connected_at
		FROM credentials
		WHERE athlete_id = ?
	`, athleteID)

	var c Credential
	var expiresAt, connectedAt int64
	err := row.Scan(&c.AthleteID, &c.DisplayName, &c.AccessToken, &c.RefreshToken, &expiresAt, &connectedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrAthleteNotFound
	}
	if err != nil {
		return nil, storageErr("read", err)
	}
	c.ExpiresAt = time.Unix(expiresAt, 0).UTC()
	c.ConnectedAt = time.Unix(connectedAt, 0).UTC()
	return &c, nil
}

// Remove deletes one athlete's credential. Removing an unknown athlete
// returns ErrAthleteNotFound and changes nothing.
func (d *DB) Remove(ctx context.Context, athleteID int64) error {
	result, err := d.db.ExecContext(ctx, `DELETE FROM credentials WHERE athlete_id = ?`, athleteID)
	if err != nil {
		return storageErr("remove", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return storageErr("remove", err)
	}
	if rows == 0 {
		return ErrAthleteNotFound
	}
	return nil
}
