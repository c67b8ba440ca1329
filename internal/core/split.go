package core

import (
	"strings"
	"unicode/utf8"
)

// Description markers appended to generated rows.
const (
	SplitMarker          = "(割り勘)"
	RecurringMarker      = "(定期)"
	RecurringSplitMarker = "(定期・割り勘)"
)

// MinSplitCents is the smallest amount that still leaves both partners a
// positive share.
const MinSplitCents = 2

// SplitShares divides original between the creator and the partner. The
// creator takes the ceiling of the half so that the two shares always sum
// to original.
func SplitShares(original Money) (owner, partner Money) {
	half := original.Cents / 2
	if original.Cents%2 != 0 {
		half++
	}
	return Money{Cents: half}, Money{Cents: original.Cents - half}
}

// Annotate appends marker to a description, yielding just the marker when
// the description is blank. The description is cut at a rune boundary so
// that the result never exceeds the description limit.
func Annotate(description, marker string) string {
	base := strings.TrimSpace(description)
	if room := maxDescriptionLen - len(marker) - 1; len(base) > room {
		base = truncateBytes(base, room)
	}
	return strings.TrimSpace(strings.TrimSpace(base) + " " + marker)
}

// truncateBytes returns the longest prefix of s of at most n bytes that
// does not split a rune.
func truncateBytes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
