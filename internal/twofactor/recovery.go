package twofactor

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base32"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"

	"github.com/Vehix-Dev/Admin-Dashboard-sub002/internal/obs"
)

// ErrNoRecoveryCode indicates the submitted recovery code matched none of
// the unused codes on record.
var ErrNoRecoveryCode = errors.New("twofactor: recovery code not recognized")

// RecoveryCodeCount is how many single-use codes one generation yields.
const RecoveryCodeCount = 8

const (
	argonMemory      = 64 * 1024
	argonIterations  = 2
	argonParallelism = 1
	argonKeyLength   = 32
	argonSaltLength  = 16
)

// GenerateRecoveryCodes mints a fresh batch of single-use recovery codes for
// an enrolled account, replacing any previous batch. The plaintext codes are
// returned exactly once; only their hashes are persisted.
func (s *Service) GenerateRecoveryCodes(ctx context.Context, username string) ([]string, error) {
	username, err := normalizeUsername(username)
	if err != nil {
		return nil, err
	}
	rec, err := s.store.Get(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("load enrollment: %w", err)
	}
	if rec == nil || rec.Secret == "" {
		return nil, ErrNotEnrolled
	}

	codes := make([]string, 0, RecoveryCodeCount)
	hashes := make([]string, 0, RecoveryCodeCount)
	for i := 0; i < RecoveryCodeCount; i++ {
		code, err := newRecoveryCode()
		if err != nil {
			return nil, err
		}
		hash, err := hashRecoveryCode(code)
		if err != nil {
			return nil, err
		}
		codes = append(codes, code)
		hashes = append(hashes, hash)
	}
	rec.RecoveryHashes = hashes
	if err := s.store.Put(ctx, rec); err != nil {
		return nil, fmt.Errorf("persist recovery codes: %w", err)
	}
	return codes, nil
}

// UseRecoveryCode consumes one recovery code. A matched code is removed from
// the record before the call returns, so it cannot be replayed.
func (s *Service) UseRecoveryCode(ctx context.Context, username, code string) error {
	username, err := normalizeUsername(username)
	if err != nil {
		return err
	}
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return ErrNoRecoveryCode
	}
	rec, err := s.store.Get(ctx, username)
	if err != nil {
		return fmt.Errorf("load enrollment: %w", err)
	}
	if rec == nil || rec.Secret == "" {
		return ErrNotEnrolled
	}
	for i, hash := range rec.RecoveryHashes {
		if !verifyRecoveryCode(code, hash) {
			continue
		}
		rec.RecoveryHashes = append(rec.RecoveryHashes[:i], rec.RecoveryHashes[i+1:]...)
		if err := s.store.Put(ctx, rec); err != nil {
			return fmt.Errorf("persist recovery codes: %w", err)
		}
		obs.CountTwoFactorCheck("ok")
		return nil
	}
	obs.CountTwoFactorCheck("fail")
	return ErrNoRecoveryCode
}

func newRecoveryCode() (string, error) {
	raw := make([]byte, 5)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("generate recovery code: %w", err)
	}
	code := base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString(raw)
	return code[:4] + "-" + code[4:], nil
}

func hashRecoveryCode(code string) (string, error) {
	salt := make([]byte, argonSaltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}
	hash := argon2.IDKey([]byte(code), salt, argonIterations, argonMemory, argonParallelism, argonKeyLength)
	return fmt.Sprintf(
		"$argon2id$v=19$m=%d,t=%d,p=%d$%s$%s",
		argonMemory,
		argonIterations,
		argonParallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(hash),
	), nil
}

func verifyRecoveryCode(code, encoded string) bool {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		return false
	}
	var memory, iterations uint32
	var parallelism uint8
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &iterations, &parallelism); err != nil {
		return false
	}
	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return false
	}
	want, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return false
	}
	got := argon2.IDKey([]byte(code), salt, iterations, memory, parallelism, uint32(len(want)))
	return subtle.ConstantTimeCompare(got, want) == 1
}
