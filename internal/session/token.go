package session

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ErrInvalidToken indicates the token failed validation.
var ErrInvalidToken = errors.New("session: invalid token")

// Claims are the JWT claims carried by the session token artifact. The
// session id lets a server-authoritative epoch check be layered on later.
type Claims struct {
	Role      string `json:"role,omitempty"`
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}

// TokenIssuer signs and validates HS256 session tokens.
type TokenIssuer struct {
	secret []byte
	issuer string
	ttl    time.Duration
}

// NewTokenIssuer constructs an issuer with the given signing key and token
// lifetime.
func NewTokenIssuer(secret []byte, issuer string, ttl time.Duration) (*TokenIssuer, error) {
	if len(secret) == 0 {
		return nil, errors.New("session: signing secret is required")
	}
	if strings.TrimSpace(issuer) == "" {
		return nil, errors.New("session: issuer is required")
	}
	if ttl <= 0 {
		return nil, errors.New("session: token ttl must be greater than zero")
	}
	return &TokenIssuer{secret: secret, issuer: issuer, ttl: ttl}, nil
}

// Issue signs a token for the given user, role and session id.
func (t *TokenIssuer) Issue(userID, role, sessionID string) (string, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return "", errors.New("session: userID is required")
	}
	now := time.Now().UTC()
	claims := Claims{
		Role:      strings.TrimSpace(strings.ToLower(role)),
		SessionID: sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    t.issuer,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
			ID:        uuid.NewString(),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(t.secret)
	if err != nil {
		return "", err
	}
	return signed, nil
}

// Parse verifies the token signature and required claims.
func (t *TokenIssuer) Parse(token string) (*Claims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrInvalidToken
	}
	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(tok *jwt.Token) (any, error) {
		if tok.Method != jwt.SigningMethodHS256 {
			return nil, ErrInvalidToken
		}
		return t.secret, nil
	})
	if err != nil {
		return nil, ErrInvalidToken
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Issuer != t.issuer || strings.TrimSpace(claims.Subject) == "" {
		return nil, ErrInvalidToken
	}
	if claims.ExpiresAt == nil || claims.IssuedAt == nil {
		return nil, ErrInvalidToken
	}
	now := time.Now().UTC()
	if now.After(claims.ExpiresAt.Time) {
		return nil, ErrInvalidToken
	}
	// Allow a small clock skew of 5 seconds when validating issued-at.
	if claims.IssuedAt.Time.After(now.Add(5 * time.Second)) {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
