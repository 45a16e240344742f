package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// ValidatorEnabled returns the stored flag for id. found is false when the
// user never changed it.
func (s *Store) ValidatorEnabled(ctx context.Context, id string) (bool, bool, error) {
	ctx = ensureContext(ctx)
	var enabled int
	err := s.db.QueryRowContext(ctx, "SELECT enabled FROM validator_state WHERE id = ?", id).Scan(&enabled)
	if errors.Is(err, sql.ErrNoRows) {
		return false, false, nil
	}
	if err != nil {
		return false, false, fmt.Errorf("read validator state %s: %w", id, err)
	}
	return enabled != 0, true, nil
}

// SetValidatorEnabled stores the flag for id.
func (s *Store) SetValidatorEnabled(ctx context.Context, id string, enabled bool) error {
	value := 0
	if enabled {
		value = 1
	}
	_, err := s.exec(ctx,
		`INSERT INTO validator_state (id, enabled, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET enabled = excluded.enabled, updated_at = excluded.updated_at`,
		id, value, time.Now().UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("write validator state %s: %w", id, err)
	}
	return nil
}

// ResetValidator removes the stored flag so the default applies again.
func (s *Store) ResetValidator(ctx context.Context, id string) error {
	if _, err := s.exec(ctx, "DELETE FROM validator_state WHERE id = ?", id); err != nil {
		return fmt.Errorf("reset validator state %s: %w", id, err)
	}
	return nil
}
