package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/vidshare/backend/internal/apperr"
	"github.com/vidshare/backend/internal/logging"
	"github.com/vidshare/backend/internal/models"
	"github.com/vidshare/backend/internal/repositories"
)

// UserFinder loads the accounts sessions are issued for.
type UserFinder interface {
	FindByID(ctx context.Context, id string) (models.User, error)
	FindByLogin(ctx context.Context, identifier string) (models.User, error)
}

// CredentialStore persists the single valid refresh credential of each user.
type CredentialStore interface {
	SetRefreshCredential(ctx context.Context, userID, token string) error
	SwapRefreshCredential(ctx context.Context, userID, expected, next string) (bool, error)
	ClearRefreshCredential(ctx context.Context, userID string) error
}

// Manager manages the lifecycle of issued session tokens. At most one refresh
// credential per user is valid at any time.
type Manager struct {
	codec  *TokenCodec
	users  UserFinder
	creds  CredentialStore
	hasher PasswordHasher
}

// NewManager constructs a Manager that signs tokens with codec and stores refresh credentials in creds.
func NewManager(codec *TokenCodec, users UserFinder, creds CredentialStore, hasher PasswordHasher) *Manager {
	if codec == nil || users == nil || creds == nil || hasher == nil {
		panic("auth: session manager dependencies must not be nil")
	}
	return &Manager{
		codec:  codec,
		users:  users,
		creds:  creds,
		hasher: hasher,
	}
}

// Issue mints a new token pair for userID and makes its refresh token the only valid one.
func (m *Manager) Issue(ctx context.Context, userID string) (tokens models.SessionTokens, err error) {
	ctx, span := logging.StartSpan(ctx, "session.issue", slog.String("user_id", userID))
	defer func() { span.Finish(err) }()

	user, err := m.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return models.SessionTokens{}, ErrUserNotFound
		}
		return models.SessionTokens{}, fmt.Errorf("load user: %w", err)
	}

	return m.issueFor(ctx, user)
}

// Login checks identifier and password and issues a session for the matching user.
// identifier is matched against username or email, ignoring case.
func (m *Manager) Login(ctx context.Context, identifier, password string) (user models.User, tokens models.SessionTokens, err error) {
	ctx, span := logging.StartSpan(ctx, "session.login")
	defer func() { span.Finish(err) }()

	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return models.User{}, models.SessionTokens{}, apperr.New(apperr.BadRequest, "username or email is required")
	}
	if password == "" {
		return models.User{}, models.SessionTokens{}, apperr.New(apperr.BadRequest, "password is required")
	}

	user, err = m.users.FindByLogin(ctx, identifier)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return models.User{}, models.SessionTokens{}, ErrUserNotFound
		}
		return models.User{}, models.SessionTokens{}, fmt.Errorf("load user: %w", err)
	}

	ok, err := m.hasher.Verify(user.Password, password)
	if err != nil {
		return models.User{}, models.SessionTokens{}, err
	}
	if !ok {
		return models.User{}, models.SessionTokens{}, ErrInvalidCredentials
	}

	tokens, err = m.issueFor(ctx, user)
	if err != nil {
		return models.User{}, models.SessionTokens{}, err
	}
	return user, tokens, nil
}

func (m *Manager) issueFor(ctx context.Context, user models.User) (models.SessionTokens, error) {
	tokens, err := m.mint(user)
	if err != nil {
		return models.SessionTokens{}, err
	}

	if err := m.creds.SetRefreshCredential(ctx, user.ID, tokens.RefreshToken); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return models.SessionTokens{}, ErrUserNotFound
		}
		return models.SessionTokens{}, fmt.Errorf("store refresh credential: %w", err)
	}
	return tokens, nil
}

// Rotate exchanges a refresh token for a new pair. The presented token must equal
// the stored credential; the replacement is a compare-and-swap so that of two
// concurrent rotations with the same token only one succeeds.
func (m *Manager) Rotate(ctx context.Context, refreshToken string) (tokens models.SessionTokens, err error) {
	ctx, span := logging.StartSpan(ctx, "session.rotate")
	defer func() { span.Finish(err) }()

	if refreshToken == "" {
		return models.SessionTokens{}, ErrNoCredential
	}

	claims, err := m.codec.Verify(refreshToken, KindRefresh)
	if err != nil {
		logging.FromContext(ctx).Debug("refresh token rejected", slog.Any("error", err))
		return models.SessionTokens{}, ErrInvalidRefreshToken
	}

	user, err := m.users.FindByID(ctx, claims.UserID())
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return models.SessionTokens{}, ErrInvalidRefreshToken
		}
		return models.SessionTokens{}, fmt.Errorf("load user: %w", err)
	}

	if user.RefreshCredential == "" || subtle.ConstantTimeCompare([]byte(user.RefreshCredential), []byte(refreshToken)) != 1 {
		return models.SessionTokens{}, ErrRefreshTokenReused
	}

	tokens, err = m.mint(user)
	if err != nil {
		return models.SessionTokens{}, err
	}

	swapped, err := m.creds.SwapRefreshCredential(ctx, user.ID, refreshToken, tokens.RefreshToken)
	if err != nil {
		return models.SessionTokens{}, fmt.Errorf("swap refresh credential: %w", err)
	}
	if !swapped {
		return models.SessionTokens{}, ErrRefreshTokenReused
	}

	return tokens, nil
}

// Revoke clears the stored refresh credential of userID. Access tokens already
// issued stay valid until they expire.
func (m *Manager) Revoke(ctx context.Context, userID string) (err error) {
	ctx, span := logging.StartSpan(ctx, "session.revoke", slog.String("user_id", userID))
	defer func() { span.Finish(err) }()

	if err := m.creds.ClearRefreshCredential(ctx, userID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("clear refresh credential: %w", err)
	}
	return nil
}

func (m *Manager) mint(user models.User) (models.SessionTokens, error) {
	access, accessExpiry, err := m.codec.Sign(Claims{
		Email:            user.Email,
		Username:         user.Username,
		FullName:         user.FullName,
		RegisteredClaims: jwtSubject(user.ID),
	}, KindAccess)
	if err != nil {
		return models.SessionTokens{}, err
	}

	refresh, refreshExpiry, err := m.codec.Sign(Claims{RegisteredClaims: jwtSubject(user.ID)}, KindRefresh)
	if err != nil {
		return models.SessionTokens{}, err
	}

	return models.SessionTokens{
		AccessToken:      access,
		AccessExpiresAt:  accessExpiry,
		RefreshToken:     refresh,
		RefreshExpiresAt: refreshExpiry,
	}, nil
}
