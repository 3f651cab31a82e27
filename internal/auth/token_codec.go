package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenKind distinguishes access tokens from refresh tokens.
type TokenKind string

const (
	KindAccess  TokenKind = "access"
	KindRefresh TokenKind = "refresh"
)

// Claims is the payload carried by session tokens. Access tokens carry the
// profile fields; refresh tokens carry only the subject.
type Claims struct {
	Kind     TokenKind `json:"kind"`
	Email    string    `json:"email,omitempty"`
	Username string    `json:"username,omitempty"`
	FullName string    `json:"fullName,omitempty"`
	jwt.RegisteredClaims
}

// UserID returns the subject of the token.
func (c Claims) UserID() string {
	return c.Subject
}

func jwtSubject(userID string) jwt.RegisteredClaims {
	return jwt.RegisteredClaims{Subject: userID}
}

// TokenConfig holds the signing secret and lifetime of each token kind.
type TokenConfig struct {
	AccessSecret  string
	AccessTTL     time.Duration
	RefreshSecret string
	RefreshTTL    time.Duration
}

// TokenCodec signs and verifies HS256 session tokens.
type TokenCodec struct {
	keys map[TokenKind][]byte
	ttls map[TokenKind]time.Duration
	now  func() time.Time
}

// NewTokenCodec constructs a codec from cfg. Both secrets must be non-empty.
func NewTokenCodec(cfg TokenConfig) (*TokenCodec, error) {
	if cfg.AccessSecret == "" || cfg.RefreshSecret == "" {
		return nil, errors.New("auth: token secrets must not be empty")
	}
	if cfg.AccessTTL <= 0 || cfg.RefreshTTL <= 0 {
		return nil, errors.New("auth: token lifetimes must be positive")
	}
	return &TokenCodec{
		keys: map[TokenKind][]byte{
			KindAccess:  []byte(cfg.AccessSecret),
			KindRefresh: []byte(cfg.RefreshSecret),
		},
		ttls: map[TokenKind]time.Duration{
			KindAccess:  cfg.AccessTTL,
			KindRefresh: cfg.RefreshTTL,
		},
		now: time.Now,
	}, nil
}

// Sign mints a token of the given kind for claims. The issue time, expiry and a
// random token id are filled in by the codec.
func (c *TokenCodec) Sign(claims Claims, kind TokenKind) (string, time.Time, error) {
	key, ok := c.keys[kind]
	if !ok {
		return "", time.Time{}, fmt.Errorf("auth: unknown token kind %q", kind)
	}
	if claims.Subject == "" {
		return "", time.Time{}, errors.New("auth: token subject must not be empty")
	}

	now := c.now().UTC()
	expiresAt := now.Add(c.ttls[kind])

	claims.Kind = kind
	claims.ID = uuid.NewString()
	claims.IssuedAt = jwt.NewNumericDate(now)
	claims.ExpiresAt = jwt.NewNumericDate(expiresAt)

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(key)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign %s token: %w", kind, err)
	}
	return signed, expiresAt, nil
}

// Verify checks the signature, expiry and kind of token and returns its claims.
func (c *TokenCodec) Verify(token string, kind TokenKind) (Claims, error) {
	key, ok := c.keys[kind]
	if !ok {
		return Claims{}, fmt.Errorf("auth: unknown token kind %q", kind)
	}

	var claims Claims
	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return key, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil {
		return Claims{}, fmt.Errorf("verify %s token: %w", kind, err)
	}
	if claims.Kind != kind {
		return Claims{}, fmt.Errorf("verify %s token: unexpected kind %q", kind, claims.Kind)
	}
	if claims.Subject == "" {
		return Claims{}, fmt.Errorf("verify %s token: missing subject", kind)
	}
	return claims, nil
}
