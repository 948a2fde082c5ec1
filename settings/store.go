package settings

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"
)

// Store persists Settings as one row per option. Missing rows fall back to
// the defaults, so a fresh database loads the factory settings.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open opens (or creates) the settings database at path.
func Open(path string, logger *slog.Logger) (*Store, error) {
	db, err := openDB(path)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{db: db, logger: logger}, nil
}

// Close closes the database.
func (s *Store) Close() error { return s.db.Close() }

// Load returns the stored settings merged over the defaults. The result is
// always valid: when the stored options do not validate together, they are
// applied one at a time and each option that breaks validation is ignored
// in favour of its default.
func (s *Store) Load(ctx context.Context) (Settings, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT key, value FROM settings ORDER BY key`)
	if err != nil {
		return Defaults(), fmt.Errorf("settings: load: %w", err)
	}
	defer rows.Close()

	var stored [][2]string
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return Defaults(), fmt.Errorf("settings: scan: %w", err)
		}
		stored = append(stored, [2]string{key, value})
	}
	if err := rows.Err(); err != nil {
		return Defaults(), fmt.Errorf("settings: rows: %w", err)
	}

	all := Defaults()
	for _, kv := range stored {
		s.apply(&all, kv[0], kv[1])
	}
	err = all.Validate()
	if err == nil {
		return all, nil
	}
	s.logger.Warn("settings: stored options do not validate", "error", err)

	out := Defaults()
	for _, kv := range stored {
		next := out
		if !s.apply(&next, kv[0], kv[1]) {
			continue
		}
		if err := next.Validate(); err != nil {
			s.logger.Warn("settings: ignoring stored value", "key", kv[0], "value", kv[1], "error", err)
			continue
		}
		out = next
	}
	return out, nil
}

// apply decodes one stored option into dst.
func (s *Store) apply(dst *Settings, key, value string) bool {
	field, ok := dst.fields()[key]
	if !ok {
		s.logger.Debug("settings: ignoring unknown key", "key", key)
		return false
	}
	if err := json.Unmarshal([]byte(value), field); err != nil {
		s.logger.Warn("settings: bad stored value", "key", key, "error", err)
		return false
	}
	return true
}

// Save validates and stores every option.
func (s *Store) Save(ctx context.Context, in Settings) error {
	if err := in.Validate(); err != nil {
		return err
	}
	now := time.Now().UnixMilli()
	return s.tx(ctx, func(tx *sql.Tx) error {
		for key, v := range in.fields() {
			data, err := json.Marshal(v)
			if err != nil {
				return fmt.Errorf("settings: marshal %s: %w", key, err)
			}
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO settings (key, value, updated_at) VALUES (?, ?, ?)
				 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
				key, string(data), now); err != nil {
				return fmt.Errorf("settings: save %s: %w", key, err)
			}
		}
		return nil
	})
}

// Reset deletes all stored options, restoring the defaults.
func (s *Store) Reset(ctx context.Context) error {
	return s.tx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM settings`); err != nil {
			return fmt.Errorf("settings: reset: %w", err)
		}
		return nil
	})
}

// Revision returns the change counter bumped by every Save and Reset.
func (s *Store) Revision(ctx context.Context) (int64, error) {
	var v int64
	err := s.db.QueryRowContext(ctx, `SELECT revision FROM settings_meta WHERE id = 1`).Scan(&v)
	return v, err
}

func (s *Store) tx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("settings: begin: %w", err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	if _, err := tx.ExecContext(ctx, `UPDATE settings_meta SET revision = revision + 1 WHERE id = 1`); err != nil {
		tx.Rollback()
		return fmt.Errorf("settings: bump revision: %w", err)
	}
	return tx.Commit()
}

// fields maps storage keys to the struct fields.
func (s *Settings) fields() map[string]any {
	return map[string]any{
		"enabled":            &s.Enabled,
		"includeCode":        &s.IncludeCode,
		"warningThreshold":   &s.WarningThreshold,
		"minRemainingTokens": &s.MinRemainingTokens,
		"maxTokens":          &s.MaxTokens,
		"updateInterval":     &s.UpdateIntervalMS,
	}
}
