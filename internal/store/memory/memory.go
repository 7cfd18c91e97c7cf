// Package memory provides in-memory implementations of the storage ports.
// They back tests and single-node runs; production wiring swaps in the pg
// package without touching the consumers.
package memory

import (
	"context"
	"sync"

	"github.com/Vehix-Dev/Admin-Dashboard-sub002/internal/audit"
	"github.com/Vehix-Dev/Admin-Dashboard-sub002/internal/session"
	"github.com/Vehix-Dev/Admin-Dashboard-sub002/internal/twofactor"
)

// ArtifactStore is a process-local key-value store for session artifacts.
type ArtifactStore struct {
	mu   sync.RWMutex
	data map[string]string
}

var _ session.ArtifactStore = (*ArtifactStore)(nil)

// NewArtifactStore creates an empty artifact store.
func NewArtifactStore() *ArtifactStore {
	return &ArtifactStore{data: make(map[string]string)}
}

func (s *ArtifactStore) Get(key string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.data[key]
	return v, ok
}

func (s *ArtifactStore) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = value
	return nil
}

func (s *ArtifactStore) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
	return nil
}

// TwoFactorStore keeps enrollment records keyed by username.
type TwoFactorStore struct {
	mu      sync.RWMutex
	records map[string]twofactor.Record
}

var _ twofactor.Store = (*TwoFactorStore)(nil)

// NewTwoFactorStore creates an empty enrollment store.
func NewTwoFactorStore() *TwoFactorStore {
	return &TwoFactorStore{records: make(map[string]twofactor.Record)}
}

func (s *TwoFactorStore) Get(ctx context.Context, username string) (*twofactor.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[username]
	if !ok {
		return nil, nil
	}
	out := rec
	out.RecoveryHashes = append([]string(nil), rec.RecoveryHashes...)
	return &out, nil
}

func (s *TwoFactorStore) Put(ctx context.Context, rec *twofactor.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := *rec
	stored.RecoveryHashes = append([]string(nil), rec.RecoveryHashes...)
	s.records[rec.Username] = stored
	return nil
}

// AuditStore holds the audit log as one in-memory sequence, newest first.
type AuditStore struct {
	mu      sync.RWMutex
	entries []audit.Entry
}

var _ audit.Store = (*AuditStore)(nil)

// NewAuditStore creates an empty audit store.
func NewAuditStore() *AuditStore {
	return &AuditStore{}
}

func (s *AuditStore) Insert(ctx context.Context, entry audit.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append([]audit.Entry{entry}, s.entries...)
	return nil
}

func (s *AuditStore) List(ctx context.Context) ([]audit.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]audit.Entry(nil), s.entries...), nil
}

func (s *AuditStore) Trim(ctx context.Context, cap int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cap > 0 && len(s.entries) > cap {
		s.entries = s.entries[:cap]
	}
	return nil
}

func (s *AuditStore) Purge(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = nil
	return nil
}
