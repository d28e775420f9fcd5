package request

// CheckRequest is the request body for validating and consuming a token
type CheckRequest struct {
	Token     string `json:"token"`
	SessionID string `json:"session_id"`
	// Version is optional; omitting it entirely differs from sending an
	// empty string only under strict version checking
	Version string `json:"version,omitempty"`
}

// LogoutRequest is the request body for releasing a session's claim
type LogoutRequest struct {
	Token     string `json:"token"`
	SessionID string `json:"session_id"`
}

// IssueTokenRequest is the request body for issuing a token
type IssueTokenRequest struct {
	// Token is optional; a FREE-prefixed value is generated when empty
	Token string `json:"token,omitempty"`
	User  string `json:"user"`
	// Expires is a date in YYYY-MM-DD form
	Expires string `json:"expires"`
	Uses    int    `json:"uses"`
	Version string `json:"version,omitempty"`
}

// ObserveEntry is one live telemetry observation
type ObserveEntry struct {
	FriendCode int64  `json:"friend_code"`
	Name       string `json:"name"`
}

// ObserveRequest is the request body for a telemetry batch
type ObserveRequest struct {
	Players []ObserveEntry `json:"players"`
}

// BlacklistRequest is the request body for flagging a friend-code
type BlacklistRequest struct {
	FriendCode int64  `json:"friend_code"`
	Label      string `json:"label"`
}
