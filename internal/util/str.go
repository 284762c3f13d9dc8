package util

import (
	"fmt"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

const MaxNameLength = 64

// NormalizeName returns the canonical form of a player name: surrounding
// whitespace removed and inner runs of whitespace collapsed to one space.
func NormalizeName(str string) (string, error) {
	name := strings.Join(strings.Fields(str), " ")
	if name == "" {
		return "", ErrPublic("name: required")
	}

	if n := utf8.RuneCountInString(name); n > MaxNameLength {
		return "", ErrPublic(fmt.Sprintf("name: must be at most %d characters, got %d", MaxNameLength, n))
	}

	for _, r := range name {
		if !unicode.IsPrint(r) {
			return "", ErrPublic("name: must not contain control characters")
		}
	}

	return name, nil
}

// FormatDuration prettifies a duration by removing useless units.
// eg. 1h20m0s -> 1h20m
// It does not round/truncate the duration, it only works on the string.
func FormatDuration(d time.Duration) string {
	var prefix string
	if d > (24 * time.Hour) {
		prefix = fmt.Sprintf("%dd", d/(24*time.Hour))
		// Don't need minutes if its in more than a day
		d = (d % (24 * time.Hour)).Truncate(time.Hour)
	}

	ret := d.Truncate(time.Second).String()
	if strings.HasSuffix(ret, "m0s") {
		ret = strings.TrimSuffix(ret, "0s")
	}
	if strings.HasSuffix(ret, "h0m") {
		return prefix + strings.TrimSuffix(ret, "0m")
	}

	return prefix + ret
}
