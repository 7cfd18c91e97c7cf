package pg

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Vehix-Dev/Admin-Dashboard-sub002/internal/twofactor"
)

var _ twofactor.Store = (*Store)(nil)

// Get loads the enrollment record for username, nil when absent.
func (s *Store) Get(ctx context.Context, username string) (*twofactor.Record, error) {
	var (
		rec       twofactor.Record
		rawHashes []byte
	)
	row := s.db.QueryRowContext(ctx, `
		select username, secret, enabled, created_at, recovery_hashes
		from twofactor_records where username = $1
	`, username)
	err := row.Scan(&rec.Username, &rec.Secret, &rec.Enabled, &rec.CreatedAt, &rawHashes)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if len(rawHashes) > 0 {
		if err := json.Unmarshal(rawHashes, &rec.RecoveryHashes); err != nil {
			return nil, fmt.Errorf("decode recovery hashes: %w", err)
		}
	}
	return &rec, nil
}

// Put upserts the enrollment record. Last write per username wins, matching
// the single-writer-per-key contract.
func (s *Store) Put(ctx context.Context, rec *twofactor.Record) error {
	hashes := []byte("[]")
	if len(rec.RecoveryHashes) > 0 {
		data, err := json.Marshal(rec.RecoveryHashes)
		if err != nil {
			return fmt.Errorf("encode recovery hashes: %w", err)
		}
		hashes = data
	}
	_, err := s.db.ExecContext(ctx, `
		insert into twofactor_records (username, secret, enabled, created_at, recovery_hashes)
		values ($1, $2, $3, $4, $5)
		on conflict (username) do update
		set secret = excluded.secret,
		    enabled = excluded.enabled,
		    created_at = excluded.created_at,
		    recovery_hashes = excluded.recovery_hashes
	`, rec.Username, rec.Secret, rec.Enabled, rec.CreatedAt, hashes)
	return err
}
