package auth

import "github.com/vidshare/backend/internal/apperr"

var (
	// ErrNoCredential indicates the request carried no access token at all.
	ErrNoCredential = apperr.New(apperr.Unauthorized, "unauthorized request")
	// ErrInvalidAccessToken indicates the access token failed signature, expiry or kind checks.
	ErrInvalidAccessToken = apperr.New(apperr.Unauthorized, "invalid access token")
	// ErrInvalidRefreshToken indicates the refresh token failed signature, expiry or kind checks.
	ErrInvalidRefreshToken = apperr.New(apperr.Unauthorized, "invalid or expired refresh token")
	// ErrRefreshTokenReused indicates a refresh token that no longer matches the stored credential.
	ErrRefreshTokenReused = apperr.New(apperr.Unauthorized, "refresh token reused or expired")
	// ErrInvalidCredentials indicates a wrong password at login.
	ErrInvalidCredentials = apperr.New(apperr.Unauthorized, "invalid user credentials")
	// ErrUserNotFound indicates the session subject does not exist.
	ErrUserNotFound = apperr.New(apperr.NotFound, "user does not exist")
)
