package core

import (
	"regexp"
	"strings"
)

// phoneSeparators splits composite phone cells. Space and hyphen are not
// separators because they appear inside a single formatted number.
var phoneSeparators = regexp.MustCompile(`[/|,;&\\\n\r]+`)

// minDialLength drops fragments such as "ext" or a stray "12".
const minDialLength = 3

// SplitPhones splits a raw phone cell into dialable entries.
func SplitPhones(raw string) []PhoneEntry {
	var entries []PhoneEntry
	for _, seg := range phoneSeparators.Split(raw, -1) {
		display := strings.TrimSpace(seg)
		if display == "" {
			continue
		}
		dial := dialString(display)
		if len(dial) < minDialLength {
			continue
		}
		entries = append(entries, PhoneEntry{Display: display, Dial: dial})
	}
	return entries
}

// dialString keeps digits, plus a '+' only when no digit precedes it.
func dialString(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '+' && b.Len() == 0:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// AffordanceFor returns AffordanceList for two or more entries and
// AffordanceSingle otherwise.
func AffordanceFor(entries []PhoneEntry) Affordance {
	if len(entries) > 1 {
		return AffordanceList
	}
	return AffordanceSingle
}
