package pg

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/Vehix-Dev/Admin-Dashboard-sub002/internal/audit"
)

var _ audit.Store = (*Store)(nil)

// Insert appends one audit entry.
func (s *Store) Insert(ctx context.Context, entry audit.Entry) error {
	oldValue, err := marshalValues(entry.OldValue)
	if err != nil {
		return err
	}
	newValue, err := marshalValues(entry.NewValue)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		insert into audit_entries (id, action, target, actor, ts, severity, module, old_value, new_value, user_agent)
		values ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, entry.ID, entry.Action, entry.Target, entry.Actor, entry.Timestamp,
		string(entry.Severity), entry.Module, oldValue, newValue, entry.UserAgent)
	return err
}

// List returns all retained entries newest first. Entry ids are ULIDs, so id
// order and creation order agree.
func (s *Store) List(ctx context.Context) ([]audit.Entry, error) {
	rows, err := s.db.QueryContext(ctx, `
		select id, action, target, actor, ts, severity, module, old_value, new_value, user_agent
		from audit_entries
		order by id desc
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []audit.Entry
	for rows.Next() {
		var (
			entry            audit.Entry
			severity         string
			oldValue, newVal []byte
			module, agent    sql.NullString
		)
		if err := rows.Scan(&entry.ID, &entry.Action, &entry.Target, &entry.Actor,
			&entry.Timestamp, &severity, &module, &oldValue, &newVal, &agent); err != nil {
			return nil, err
		}
		entry.Severity = audit.Severity(severity)
		entry.Module = module.String
		entry.UserAgent = agent.String
		if entry.OldValue, err = unmarshalValues(oldValue); err != nil {
			return nil, err
		}
		if entry.NewValue, err = unmarshalValues(newVal); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// Trim deletes the oldest entries beyond cap.
func (s *Store) Trim(ctx context.Context, cap int) error {
	_, err := s.db.ExecContext(ctx, `
		delete from audit_entries
		where id not in (
			select id from audit_entries order by id desc limit $1
		)
	`, cap)
	return err
}

// Purge deletes every entry.
func (s *Store) Purge(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `delete from audit_entries`)
	return err
}

func marshalValues(values map[string]any) ([]byte, error) {
	if values == nil {
		return nil, nil
	}
	data, err := json.Marshal(values)
	if err != nil {
		return nil, fmt.Errorf("encode audit values: %w", err)
	}
	return data, nil
}

func unmarshalValues(raw []byte) (map[string]any, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var values map[string]any
	if err := json.Unmarshal(raw, &values); err != nil {
		return nil, fmt.Errorf("decode audit values: %w", err)
	}
	return values, nil
}
