package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"
)

// Output handles formatting output based on the configured format
type Output struct {
	format string
}

// NewOutput creates a new Output formatter
func NewOutput(format string) *Output {
	return &Output{format: format}
}

// Print outputs data in the configured format
func (o *Output) Print(data any) {
	if o.format == "json" {
		o.printJSON(data)
	} else {
		o.printText(data)
	}
}

// PrintError outputs an error
func (o *Output) PrintError(err error) {
	if o.format == "json" {
		errData := map[string]any{
			"error": map[string]string{
				"message": err.Error(),
			},
		}
		data, _ := json.Marshal(errData)
		fmt.Fprintln(os.Stderr, string(data))
	} else {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
	}
}

// PrintMessage outputs a simple message
func (o *Output) PrintMessage(msg string) {
	if o.format == "json" {
		data, _ := json.Marshal(map[string]string{"message": msg})
		fmt.Println(string(data))
	} else {
		fmt.Println(msg)
	}
}

func (o *Output) printJSON(data any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func (o *Output) printText(data any) {
	switch v := data.(type) {
	case CheckResult:
		o.printCheckResult(v)
	case TokenInfo:
		o.printToken(v)
	case TokenList:
		o.printTokenList(v)
	case PlayerRecord:
		o.printPlayerRecord(v)
	case PlayerList:
		o.printPlayerList(v)
	case ImportResult:
		fmt.Printf("Imported %d lines\n", v.Imported)
	case HealthResult:
		fmt.Printf("Status: %s\n", v.Status)
	default:
		// Fallback to JSON for unknown types
		o.printJSON(data)
	}
}

// CheckResult response type (matches API)
type CheckResult struct {
	Valid     bool   `json:"valid"`
	Msg       string `json:"msg,omitempty"`
	Reason    string `json:"reason,omitempty"`
	SessionID string `json:"session_id,omitempty"`
	Remaining *int   `json:"remaining,omitempty"`
}

// TokenInfo response type
type TokenInfo struct {
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

// TokenList response type
type TokenList struct {
	Tokens []TokenInfo `json:"tokens"`
}

// RenameEntry response type
type RenameEntry struct {
	From string    `json:"from"`
	To   string    `json:"to"`
	At   time.Time `json:"at"`
}

// PlayerRecord response type
type PlayerRecord struct {
	FriendCode    int64         `json:"friend_code"`
	Name          string        `json:"name"`
	PastNames     []string      `json:"past_names,omitempty"`
	History       []RenameEntry `json:"history,omitempty"`
	Blacklisted   bool          `json:"blacklisted"`
	BlacklistName string        `json:"blacklist_name,omitempty"`
}

// PlayerList response type
type PlayerList struct {
	Players []PlayerRecord `json:"players"`
}

// ImportResult response type
type ImportResult struct {
	Imported int `json:"imported"`
}

// HealthResult response type
type HealthResult struct {
	Status string `json:"status"`
}

func (o *Output) printCheckResult(c CheckResult) {
	if c.Valid {
		fmt.Println("Valid")
		if c.SessionID != "" {
			fmt.Printf("Session: %s\n", c.SessionID)
		}
		if c.Remaining != nil {
			fmt.Printf("Remaining: %d\n", *c.Remaining)
		}
		return
	}

	fmt.Println("Invalid")
	if c.Reason != "" {
		fmt.Printf("Reason: %s\n", c.Reason)
	}
	if c.Msg != "" {
		fmt.Printf("Message: %s\n", c.Msg)
	}
}

func (o *Output) printToken(t TokenInfo) {
	status := fmt.Sprintf("%d/%d used", t.Used, t.Uses)
	if t.Expired {
		status = "expired"
	}
	fmt.Printf("Token: %s\n", t.Token)
	fmt.Printf("User: %s\n", t.User)
	if t.Version != "" {
		fmt.Printf("Version: %s\n", t.Version)
	}
	fmt.Printf("Expires: %s\n", t.Expires)
	fmt.Printf("Status: %s\n", status)
	if t.SessionID != "" {
		fmt.Printf("Bound Session: %s\n", t.SessionID)
	}
}

func (o *Output) printTokenList(l TokenList) {
	fmt.Printf("Tokens (%d):\n", len(l.Tokens))
	for _, t := range l.Tokens {
		status := fmt.Sprintf("%d left", t.Remaining)
		if t.Expired {
			status = "expired"
		}
		bound := ""
		if t.SessionID != "" {
			bound = " [in use]"
		}
		fmt.Printf("  - %s - %s - %s - %s%s\n", t.Token, t.User, status, t.Expires, bound)
	}
}

func (o *Output) printPlayerRecord(p PlayerRecord) {
	fmt.Printf("Friend Code: %d\n", p.FriendCode)
	fmt.Printf("Name: %s\n", p.Name)
	if len(p.PastNames) > 0 {
		fmt.Printf("Past Names: %s\n", strings.Join(p.PastNames, ", "))
	}
	if p.Blacklisted {
		fmt.Printf("Blacklisted: yes (%s)\n", p.BlacklistName)
	}
	for _, h := range p.History {
		fmt.Printf("  %s -> %s (%s)\n", h.From, h.To, h.At.Format(time.RFC3339))
	}
}

func (o *Output) printPlayerList(l PlayerList) {
	fmt.Printf("Players (%d):\n", len(l.Players))
	for _, p := range l.Players {
		flag := ""
		if p.Blacklisted {
			flag = " [blacklisted]"
		}
		fmt.Printf("  - %d: %s%s\n", p.FriendCode, p.Name, flag)
	}
}
