package model

import (
	"slices"
	"time"
)

// FriendCode is the stable numeric identity of a player, independent of
// display name
type FriendCode int64

// RenameEntry is one observed display-name change
type RenameEntry struct {
	From string
	To   string
	At   time.Time
}

// PlayerRecord tracks a player's naming history and blacklist status.
// Records are created on first observation and never deleted.
type PlayerRecord struct {
	FriendCode    FriendCode
	Name          string   // current display name, possibly empty
	PastNames     []string // distinct prior names in insertion order
	History       []RenameEntry
	Blacklisted   bool
	BlacklistName string // name attached to the blacklist entry, independent of Name
}

// ObserveName merges an observed display name into the record, returning
// true if the record changed. The same rules apply whether the observation
// comes from live telemetry or a bulk import:
//   - observing the current name is a no-op
//   - a rename appends the old name to PastNames (deduplicated) and one
//     history entry, then removes the new name from PastNames so the current
//     name never appears among prior names
//   - a record that has no name yet (created by a blacklist entry) takes the
//     first observed name without recording a rename
func (p *PlayerRecord) ObserveName(name string, at time.Time) bool {
	if name == p.Name {
		return false
	}

	if p.Name != "" {
		if !slices.Contains(p.PastNames, p.Name) {
			p.PastNames = append(p.PastNames, p.Name)
		}
		p.History = append(p.History, RenameEntry{From: p.Name, To: name, At: at})
	}

	if i := slices.Index(p.PastNames, name); i >= 0 {
		p.PastNames = slices.Delete(p.PastNames, i, i+1)
	}

	p.Name = name
	return true
}
