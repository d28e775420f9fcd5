package playerlog

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/harutoki/licensegate/internal/model"
)

// The bulk log carries two line shapes:
//
//	12345: SomeName
//	(12345, cheater): (SomeName)
//
// The second marks the friend-code as blacklisted with the given label.
var (
	blacklistLineRe = regexp.MustCompile(`^\((\d+)\s*,\s*(.*?)\s*\)\s*:\s*\((.*)\)$`)
	plainLineRe     = regexp.MustCompile(`^(\d+)\s*:\s*(.*)$`)
)

var errBlankLine = errors.New("blank line")

// Line is one parsed import line
type Line struct {
	FriendCode    model.FriendCode
	Name          string
	Blacklist     bool
	BlacklistName string
}

// ParseLine parses a single import line into its triple
func ParseLine(raw string) (Line, error) {
	text := strings.TrimSpace(raw)
	if text == "" {
		return Line{}, errBlankLine
	}

	if m := blacklistLineRe.FindStringSubmatch(text); m != nil {
		fc, err := strconv.ParseInt(m[1], 10, 64)
		if err != nil {
			return Line{}, fmt.Errorf("%w: friend code %q", model.ErrMalformedInput, m[1])
		}
		return Line{
			FriendCode:    model.FriendCode(fc),
			Name:          m[3],
			Blacklist:     true,
			BlacklistName: m[2],
		}, nil
	}

	if m := plainLineRe.FindStringSubmatch(text); m != nil {
		fc, err := strconv.ParseInt(m[1], 10, 64)
		if err != nil {
			return Line{}, fmt.Errorf("%w: friend code %q", model.ErrMalformedInput, m[1])
		}
		return Line{
			FriendCode: model.FriendCode(fc),
			Name:       m[2],
		}, nil
	}

	return Line{}, fmt.Errorf("%w: %q", model.ErrMalformedInput, text)
}

// FormatLine renders a record in the import format
func FormatLine(record *model.PlayerRecord) string {
	if record.Blacklisted {
		return fmt.Sprintf("(%d, %s): (%s)", record.FriendCode, record.BlacklistName, record.Name)
	}
	return fmt.Sprintf("%d: %s", record.FriendCode, record.Name)
}
