package db

import (
	"database/sql"
	"errors"
	"time"
)

// CreateSession records a session id. Recording an existing id is a no-op.
func (d *DB) CreateSession(id string) error {
	return d.WithLock(func() error {
		_, err := d.db.Exec(`INSERT OR IGNORE INTO sessions (id) VALUES (?)`, id)
		return err
	})
}

// SessionExists reports whether id was recorded by CreateSession
func (d *DB) SessionExists(id string) (bool, error) {
	return WithLockResult(d, func() (bool, error) {
		var count int
		err := d.db.QueryRow(`SELECT COUNT(*) FROM sessions WHERE id = ?`, id).Scan(&count)
		if err != nil {
			return false, err
		}
		return count > 0, nil
	})
}

// DeleteSession removes a session and every value stored under it
func (d *DB) DeleteSession(id string) error {
	return d.WithLock(func() error {
		tx, err := d.db.Begin()
		if err != nil {
			return err
		}
		defer tx.Rollback()

		if _, err := tx.Exec(`DELETE FROM kv WHERE scope = ?`, id); err != nil {
			return err
		}
		if _, err := tx.Exec(`DELETE FROM sessions WHERE id = ?`, id); err != nil {
			return err
		}
		return tx.Commit()
	})
}

// GetValue returns the raw value stored under scope/key, or ErrNotFound
func (d *DB) GetValue(scope, key string) (string, error) {
	return WithLockResult(d, func() (string, error) {
		var value string
		err := d.db.QueryRow(
			`SELECT value FROM kv WHERE scope = ? AND key = ?`,
			scope, key,
		).Scan(&value)
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrNotFound
		}
		if err != nil {
			return "", err
		}
		return value, nil
	})
}

// SetValue upserts the raw value stored under scope/key
func (d *DB) SetValue(scope, key, value string) error {
	return d.WithLock(func() error {
		_, err := d.db.Exec(`
			INSERT INTO kv (scope, key, value, updated_at) VALUES (?, ?, ?, ?)
			ON CONFLICT(scope, key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
		`, scope, key, value, time.Now().UTC())
		return err
	})
}
