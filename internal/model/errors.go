package model

import "errors"

// Common errors used across the application
var (
	// Token validation errors
	ErrTokenNotFound   = errors.New("token not found")
	ErrTokenExpired    = errors.New("token expired")
	ErrQuotaExhausted  = errors.New("token quota exhausted")
	ErrVersionMismatch = errors.New("client version mismatch")
	ErrTokenInUse      = errors.New("token is in use by another session")

	// Issuance errors
	ErrMissingField = errors.New("missing required field")

	// Session binding errors
	ErrBindingNotFound = errors.New("session binding not found")

	// Player log errors
	ErrPlayerNotFound = errors.New("player not found")
	ErrMalformedInput = errors.New("malformed input")

	// Store / cache errors
	ErrCacheNotReady    = errors.New("token cache not loaded yet")
	ErrStoreUnavailable = errors.New("store unavailable")
)
