// Package blackout keeps a quote's blackout dates as a deduplicated set and
// converts it to and from the comma-joined wire form.
package blackout

import (
	"strings"

	"github.com/crewzcontrol/quotesync/pkg/caldate"
	pkgerrors "github.com/crewzcontrol/quotesync/pkg/errors"
)

// PastDateMessage is the warning shown when a past day is toggled.
const PastDateMessage = "Blackout dates cannot be in the past."

// Set is an immutable, insertion-ordered set of calendar days. The zero value
// is an empty set.
type Set struct {
	days []caldate.Date
}

// New builds a set from days, dropping duplicates.
func New(days ...caldate.Date) Set {
	return Set{}.Merge(days...)
}

// Parse splits raw on commas and keeps every token that is a well formed
// MM/DD/YYYY day. Malformed tokens are dropped without error.
func Parse(raw string) Set {
	set, _ := ParseReport(raw)
	return set
}

// ParseReport is Parse that also returns the non-blank tokens it dropped.
func ParseReport(raw string) (Set, []string) {
	var days []caldate.Date
	var dropped []string
	for _, token := range strings.Split(raw, ",") {
		token = strings.TrimSpace(token)
		if token == "" {
			continue
		}
		day, err := caldate.Parse(token)
		if err != nil {
			dropped = append(dropped, token)
			continue
		}
		days = append(days, day)
	}
	return New(days...), dropped
}

// Len reports the number of days.
func (s Set) Len() int {
	return len(s.days)
}

// Contains reports whether day is in the set.
func (s Set) Contains(day caldate.Date) bool {
	return s.index(day) >= 0
}

// Days returns a copy of the days in insertion order.
func (s Set) Days() []caldate.Date {
	out := make([]caldate.Date, len(s.days))
	copy(out, s.days)
	return out
}

// Toggle removes day when present and inserts it otherwise. A day strictly
// before today is rejected: the set is returned unchanged with a
// VALIDATION_ERROR carrying PastDateMessage.
func (s Set) Toggle(day, today caldate.Date) (Set, error) {
	if day.Before(today) {
		return s, pkgerrors.New(pkgerrors.CodeValidation, PastDateMessage).
			WithDetails(map[string]any{"date": day.String()})
	}
	if i := s.index(day); i >= 0 {
		days := make([]caldate.Date, 0, len(s.days)-1)
		days = append(days, s.days[:i]...)
		days = append(days, s.days[i+1:]...)
		return Set{days: days}, nil
	}
	return s.Merge(day), nil
}

// Merge returns the union of s and incoming without duplicates.
func (s Set) Merge(incoming ...caldate.Date) Set {
	days := make([]caldate.Date, 0, len(s.days)+len(incoming))
	seen := make(map[caldate.Date]struct{}, cap(days))
	for _, group := range [][]caldate.Date{s.days, incoming} {
		for _, day := range group {
			if _, dup := seen[day]; dup {
				continue
			}
			seen[day] = struct{}{}
			days = append(days, day)
		}
	}
	return Set{days: days}
}

// Serialize renders the comma-joined wire form; empty for an empty set.
func (s Set) Serialize() string {
	parts := make([]string, 0, len(s.days))
	for _, day := range s.days {
		parts = append(parts, day.String())
	}
	return strings.Join(parts, ",")
}

// Equal compares membership, ignoring order.
func (s Set) Equal(other Set) bool {
	if s.Len() != other.Len() {
		return false
	}
	for _, day := range s.days {
		if !other.Contains(day) {
			return false
		}
	}
	return true
}

func (s Set) String() string {
	return s.Serialize()
}

func (s Set) index(day caldate.Date) int {
	for i, d := range s.days {
		if d == day {
			return i
		}
	}
	return -1
}
