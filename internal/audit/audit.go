// Package audit records privileged admin actions in a single, append-only,
// size-capped log. Writes must never block or fail the action they record:
// a broken backing store drops the entry and moves on.
package audit

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Vehix-Dev/Admin-Dashboard-sub002/internal/ids"
	"github.com/Vehix-Dev/Admin-Dashboard-sub002/internal/obs"
)

// Severity classifies an audit entry.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// DefaultCap is the maximum number of retained entries.
const DefaultCap = 1000

// Entry is one immutable audit record. OldValue/NewValue are preserved
// verbatim for the diff view.
type Entry struct {
	ID        string         `json:"id"`
	Action    string         `json:"action"`
	Target    string         `json:"target"`
	Actor     string         `json:"actor"`
	Timestamp time.Time      `json:"timestamp"`
	Severity  Severity       `json:"severity"`
	Module    string         `json:"module,omitempty"`
	OldValue  map[string]any `json:"old_value,omitempty"`
	NewValue  map[string]any `json:"new_value,omitempty"`
	UserAgent string         `json:"user_agent,omitempty"`
}

// Details carries the optional fields of an entry.
type Details struct {
	Module    string
	Severity  Severity
	OldValue  map[string]any
	NewValue  map[string]any
	UserAgent string
}

// Store persists the single global log. List returns entries newest first;
// Trim evicts the oldest entries beyond cap.
type Store interface {
	Insert(ctx context.Context, entry Entry) error
	List(ctx context.Context) ([]Entry, error)
	Trim(ctx context.Context, cap int) error
	Purge(ctx context.Context) error
}

// Recorder is the append-only log over a Store.
type Recorder struct {
	store Store
	cap   int
	log   *zap.Logger
	now   func() time.Time
}

// Option configures the Recorder.
type Option func(*Recorder)

// WithCap overrides the retained-entry cap.
func WithCap(n int) Option {
	return func(r *Recorder) {
		if n > 0 {
			r.cap = n
		}
	}
}

// WithLogger overrides the shared logger.
func WithLogger(l *zap.Logger) Option {
	return func(r *Recorder) {
		if l != nil {
			r.log = l
		}
	}
}

// WithClock overrides the time source. Test use only.
func WithClock(now func() time.Time) Option {
	return func(r *Recorder) {
		if now != nil {
			r.now = now
		}
	}
}

// NewRecorder constructs a Recorder over the given store.
func NewRecorder(store Store, opts ...Option) (*Recorder, error) {
	if store == nil {
		return nil, errors.New("audit: store is required")
	}
	r := &Recorder{
		store: store,
		cap:   DefaultCap,
		log:   obs.Logger(),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Append constructs an entry, inserts it at the head of the log and evicts
// the oldest entries beyond the cap. Storage failure drops the entry
// silently; the returned Entry is what would have been stored either way.
func (r *Recorder) Append(ctx context.Context, action, target, actor string, details *Details) Entry {
	entry := Entry{
		ID:        ids.New(),
		Action:    strings.TrimSpace(action),
		Target:    strings.TrimSpace(target),
		Actor:     strings.TrimSpace(actor),
		Timestamp: r.now().UTC(),
		Severity:  SeverityInfo,
	}
	if details != nil {
		entry.Module = details.Module
		entry.OldValue = details.OldValue
		entry.NewValue = details.NewValue
		entry.UserAgent = details.UserAgent
		if details.Severity != "" {
			entry.Severity = details.Severity
		}
	}
	if details == nil || details.Severity == "" {
		entry.Severity = severityFor(entry.Action)
	}

	if err := r.store.Insert(ctx, entry); err != nil {
		r.drop(entry, err)
		return entry
	}
	if err := r.store.Trim(ctx, r.cap); err != nil {
		// The entry landed; a failed eviction only delays the cap.
		r.log.Warn("audit trim failed", zap.Error(err))
	}
	obs.CountAuditAppend()
	return entry
}

// List returns all retained entries, newest first.
func (r *Recorder) List(ctx context.Context) ([]Entry, error) {
	return r.store.List(ctx)
}

// Purge irreversibly deletes every entry. The audit-management permission
// check belongs to the caller.
func (r *Recorder) Purge(ctx context.Context) error {
	return r.store.Purge(ctx)
}

func (r *Recorder) drop(entry Entry, err error) {
	obs.CountAuditDrop()
	r.log.Warn("audit entry dropped",
		zap.String("action", entry.Action),
		zap.String("target", entry.Target),
		zap.Error(err))
}

// severityFor derives a default severity from the action verb.
func severityFor(action string) Severity {
	upper := strings.ToUpper(action)
	switch {
	case strings.Contains(upper, "DELETE"), strings.Contains(upper, "PURGE"):
		return SeverityCritical
	case strings.Contains(upper, "DEACTIVATE"),
		strings.Contains(upper, "SUSPEND"),
		strings.Contains(upper, "BLOCK"),
		strings.Contains(upper, "RESET"):
		return SeverityWarning
	default:
		return SeverityInfo
	}
}
