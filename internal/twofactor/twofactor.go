// Package twofactor implements the per-account TOTP enrollment lifecycle:
// Unenrolled -> PendingVerification -> Enabled, with re-initiation allowed
// from any state. Re-initiation always rotates the secret, so codes minted
// against a previous secret die immediately.
package twofactor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
	"go.uber.org/zap"

	"github.com/Vehix-Dev/Admin-Dashboard-sub002/internal/obs"
)

var (
	ErrNotEnrolled = errors.New("twofactor: not enrolled")
	ErrInvalidCode = errors.New("twofactor: invalid code")
)

// Fixed verification profile: 6 digits, 30-second period, SHA-1, one time
// step of tolerated clock skew.
const (
	DefaultIssuer = "Vehix Admin"
	codeDigits    = otp.DigitsSix
	codePeriod    = 30
	codeSkew      = 1
)

// WarningDuration is how long the login flow shows the compliance warning
// for accounts without 2FA enabled.
const WarningDuration = 10 * time.Second

// Record is the stored per-account enrollment state. RecoveryHashes hold
// argon2id digests of unused recovery codes; plaintext is never stored.
type Record struct {
	Username       string
	Secret         string
	Enabled        bool
	CreatedAt      time.Time
	RecoveryHashes []string
}

// Enrollment is the renderable artifact returned on initiation.
type Enrollment struct {
	Secret          string `json:"secret"`
	ProvisioningURL string `json:"provisioning_url"`
	Issuer          string `json:"issuer"`
	Account         string `json:"account"`
}

// StatusInfo is the read-only compliance probe result.
type StatusInfo struct {
	Enabled bool `json:"enabled"`
}

// Store persists enrollment records keyed by username. Records are
// single-writer per key; last write wins at the store level.
type Store interface {
	Get(ctx context.Context, username string) (*Record, error)
	Put(ctx context.Context, rec *Record) error
}

// Service runs the enrollment state machine over a Store. Store failures are
// surfaced to the caller: silently passing a security check is worse than
// failing it loudly.
type Service struct {
	store   Store
	issuer  string
	log     *zap.Logger
	now     func() time.Time
	warnFor time.Duration
}

// Option configures the Service.
type Option func(*Service)

// WithIssuer overrides the provisioning issuer name.
func WithIssuer(issuer string) Option {
	return func(s *Service) {
		if strings.TrimSpace(issuer) != "" {
			s.issuer = issuer
		}
	}
}

// WithLogger overrides the shared logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.log = l
		}
	}
}

// WithWarningDuration overrides how long compliance warnings stay visible.
func WithWarningDuration(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.warnFor = d
		}
	}
}

// WithClock overrides the time source. Test use only.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// NewService constructs the state machine over the given store.
func NewService(store Store, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, errors.New("twofactor: store is required")
	}
	s := &Service{
		store:   store,
		issuer:  DefaultIssuer,
		log:     obs.Logger(),
		now:     time.Now,
		warnFor: WarningDuration,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// InitiateEnrollment generates a fresh secret for the account and persists
// it with enabled=false. Any previous secret, pending or live, is
// overwritten and its codes stop validating immediately.
func (s *Service) InitiateEnrollment(ctx context.Context, username string) (Enrollment, error) {
	username, err := normalizeUsername(username)
	if err != nil {
		return Enrollment{}, err
	}
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      s.issuer,
		AccountName: username,
		Period:      codePeriod,
		Digits:      codeDigits,
		Algorithm:   otp.AlgorithmSHA1,
	})
	if err != nil {
		return Enrollment{}, fmt.Errorf("generate secret: %w", err)
	}
	rec := &Record{
		Username:  username,
		Secret:    key.Secret(),
		Enabled:   false,
		CreatedAt: s.now().UTC(),
	}
	if err := s.store.Put(ctx, rec); err != nil {
		return Enrollment{}, fmt.Errorf("persist enrollment: %w", err)
	}
	s.log.Info("twofactor enrollment initiated", zap.String("username", username))
	return Enrollment{
		Secret:          key.Secret(),
		ProvisioningURL: key.URL(),
		Issuer:          s.issuer,
		Account:         username,
	}, nil
}

// VerifyCode validates code against the stored secret without mutating
// state. ErrNotEnrolled when no secret exists, ErrInvalidCode on mismatch.
func (s *Service) VerifyCode(ctx context.Context, username, code string) error {
	username, err := normalizeUsername(username)
	if err != nil {
		return err
	}
	rec, err := s.store.Get(ctx, username)
	if err != nil {
		return fmt.Errorf("load enrollment: %w", err)
	}
	if rec == nil || rec.Secret == "" {
		return ErrNotEnrolled
	}
	if !s.validate(code, rec.Secret) {
		obs.CountTwoFactorCheck("fail")
		return ErrInvalidCode
	}
	obs.CountTwoFactorCheck("ok")
	return nil
}

// ConfirmEnrollment flips the pending record to enabled when code is valid.
// On an invalid code the record is unchanged and the caller may retry.
func (s *Service) ConfirmEnrollment(ctx context.Context, username, code string) error {
	username, err := normalizeUsername(username)
	if err != nil {
		return err
	}
	rec, err := s.store.Get(ctx, username)
	if err != nil {
		return fmt.Errorf("load enrollment: %w", err)
	}
	if rec == nil || rec.Secret == "" {
		return ErrNotEnrolled
	}
	if !s.validate(code, rec.Secret) {
		obs.CountTwoFactorCheck("fail")
		return ErrInvalidCode
	}
	if !rec.Enabled {
		rec.Enabled = true
		if err := s.store.Put(ctx, rec); err != nil {
			return fmt.Errorf("persist enrollment: %w", err)
		}
	}
	obs.CountTwoFactorCheck("ok")
	s.log.Info("twofactor enabled", zap.String("username", username))
	return nil
}

// Status reports whether the account has 2FA enabled. A missing record
// reports enabled=false rather than an error.
func (s *Service) Status(ctx context.Context, username string) (StatusInfo, error) {
	username, err := normalizeUsername(username)
	if err != nil {
		return StatusInfo{}, err
	}
	rec, err := s.store.Get(ctx, username)
	if err != nil {
		return StatusInfo{}, fmt.Errorf("load enrollment: %w", err)
	}
	if rec == nil {
		return StatusInfo{Enabled: false}, nil
	}
	return StatusInfo{Enabled: rec.Enabled}, nil
}

func (s *Service) validate(code, secret string) bool {
	code = strings.TrimSpace(code)
	if code == "" {
		return false
	}
	ok, err := totp.ValidateCustom(code, secret, s.now().UTC(), totp.ValidateOpts{
		Period:    codePeriod,
		Skew:      codeSkew,
		Digits:    codeDigits,
		Algorithm: otp.AlgorithmSHA1,
	})
	return err == nil && ok
}

func normalizeUsername(username string) (string, error) {
	username = strings.TrimSpace(strings.ToLower(username))
	if username == "" {
		return "", errors.New("twofactor: username is required")
	}
	return username, nil
}
