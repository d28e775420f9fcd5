package model

import "time"

// TokenID is the opaque license token string, compared by equality
type TokenID string

// SessionID is a caller-chosen identifier for one live use of a token
type SessionID string

// HealthProbeToken is a reserved token value used as a liveness probe.
// It never touches the cache or the store.
const HealthProbeToken TokenID = "HEALTH"

// Token represents a license credential granting a bounded number of
// validations before an expiry date
type Token struct {
	ID      TokenID
	User    string    // owning user label
	Version string    // optional client version tag; empty means unversioned
	Expires time.Time // expiry, compared at date granularity
	Uses    int       // validation quota
	Used    int       // validations consumed so far
	Created time.Time
}

// Remaining returns the number of validations left on the token
func (t *Token) Remaining() int {
	return t.Uses - t.Used
}

// Exhausted reports whether the token's quota is spent
func (t *Token) Exhausted() bool {
	return t.Used >= t.Uses
}

// ExpiredAt reports whether the token is expired as of now.
// Time-of-day is ignored: a token expires the day after its expiry date.
func (t *Token) ExpiredAt(now time.Time) bool {
	return dateOf(now).After(dateOf(t.Expires))
}

func dateOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// SessionBinding records which session currently holds a token.
// A token has zero or one binding; the binding dies with the token.
type SessionBinding struct {
	TokenID   TokenID
	SessionID SessionID
	BoundAt   time.Time
}
