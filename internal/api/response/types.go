package response

import (
	"time"

	"github.com/harutoki/licensegate/internal/model"
)

// CheckResponse is the outcome of a validation request. Rejections are
// structured outcomes on a 200, not HTTP errors: the client treats any
// invalid answer as "not authorized right now".
type CheckResponse struct {
	Valid     bool   `json:"valid"`
	Msg       string `json:"msg,omitempty"`
	Reason    string `json:"reason,omitempty"`
	SessionID string `json:"session_id,omitempty"`
	Remaining *int   `json:"remaining,omitempty"`
}

// Token represents a token in admin API responses
type Token struct {
	Token     string    `json:"token"`
	User      string    `json:"user"`
	Version   string    `json:"version,omitempty"`
	Expires   string    `json:"expires"`
	Uses      int       `json:"uses"`
	Used      int       `json:"used"`
	Remaining int       `json:"remaining"`
	Expired   bool      `json:"expired"`
	SessionID string    `json:"session_id,omitempty"`
	Created   time.Time `json:"created"`
}

// TokenFromModel converts a model.Token to a response Token
func TokenFromModel(t model.Token, bound model.SessionID, now time.Time) Token {
	return Token{
		Token:     string(t.ID),
		User:      t.User,
		Version:   t.Version,
		Expires:   t.Expires.UTC().Format("2006-01-02"),
		Uses:      t.Uses,
		Used:      t.Used,
		Remaining: t.Remaining(),
		Expired:   t.ExpiredAt(now),
		SessionID: string(bound),
		Created:   t.Created,
	}
}

// TokenList is the response for the admin token listing
type TokenList struct {
	Tokens []Token `json:"tokens"`
}

// RenameEntry is one name change in a player's history
type RenameEntry struct {
	From string    `json:"from"`
	To   string    `json:"to"`
	At   time.Time `json:"at"`
}

// PlayerRecord represents a player identity record in API responses
type PlayerRecord struct {
	FriendCode    int64         `json:"friend_code"`
	Name          string        `json:"name"`
	PastNames     []string      `json:"past_names,omitempty"`
	History       []RenameEntry `json:"history,omitempty"`
	Blacklisted   bool          `json:"blacklisted"`
	BlacklistName string        `json:"blacklist_name,omitempty"`
}

// PlayerRecordFromModel converts a model.PlayerRecord
func PlayerRecordFromModel(p *model.PlayerRecord) PlayerRecord {
	history := make([]RenameEntry, len(p.History))
	for i, h := range p.History {
		history[i] = RenameEntry{From: h.From, To: h.To, At: h.At}
	}
	return PlayerRecord{
		FriendCode:    int64(p.FriendCode),
		Name:          p.Name,
		PastNames:     p.PastNames,
		History:       history,
		Blacklisted:   p.Blacklisted,
		BlacklistName: p.BlacklistName,
	}
}

// PlayerList is the response for the admin player listing
type PlayerList struct {
	Players []PlayerRecord `json:"players"`
}

// ImportResult reports how many lines a bulk import applied
type ImportResult struct {
	Imported int `json:"imported"`
}
