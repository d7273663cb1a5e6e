// Package dates parses ISO-8601 timestamps and re-renders them through
// token-based patterns (the yyyy/MM/dd/HH/mm/ss family used by the
// settings file), translating patterns to Go reference layouts.
package dates

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrInvalidDate is returned when a value cannot be parsed as a date.
var ErrInvalidDate = errors.New("dates: invalid date")

// TimestampPattern is the canonical pattern for persisted sync timestamps.
const TimestampPattern = "yyyy-MM-dd'T'HH:mm:ss"

// timestampPatternNoSeconds is accepted on parse for values written by
// older settings files.
const timestampPatternNoSeconds = "yyyy-MM-dd'T'HH:mm"

// tokenLayouts maps pattern token runs to Go reference-layout fragments.
// Longest token first within each letter.
var tokenLayouts = map[string]string{
	"yyyy": "2006",
	"yy":   "06",
	"MMMM": "January",
	"MMM":  "Jan",
	"MM":   "01",
	"M":    "1",
	"dd":   "02",
	"d":    "2",
	"EEEE": "Monday",
	"EEE":  "Mon",
	"HH":   "15",
	"H":    "15",
	"hh":   "03",
	"h":    "3",
	"mm":   "04",
	"m":    "4",
	"ss":   "05",
	"s":    "5",
	"a":    "PM",
}

// Layout translates a token pattern into a Go time layout. Single-quoted
// spans are literals, with a doubled quote inside a span standing for a
// literal quote; token runs without a mapping pass through unchanged.
func Layout(pattern string) string {
	var b strings.Builder
	runes := []rune(pattern)
	for i := 0; i < len(runes); {
		c := runes[i]
		if c == '\'' {
			// Quoted literal.
			i++
			for i < len(runes) {
				if runes[i] == '\'' {
					if i+1 < len(runes) && runes[i+1] == '\'' {
						b.WriteRune('\'')
						i += 2
						continue
					}
					i++
					break
				}
				b.WriteRune(runes[i])
				i++
			}
			continue
		}
		if !isPatternLetter(c) {
			b.WriteRune(c)
			i++
			continue
		}
		j := i
		for j < len(runes) && runes[j] == c {
			j++
		}
		run := string(runes[i:j])
		if layout, ok := tokenLayouts[run]; ok {
			b.WriteString(layout)
		} else {
			b.WriteString(run)
		}
		i = j
	}
	return b.String()
}

func isPatternLetter(c rune) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

// Format renders t using a token pattern.
func Format(t time.Time, pattern string) string {
	return t.Format(Layout(pattern))
}

// Parse parses s against a token pattern.
func Parse(s, pattern string) (time.Time, error) {
	t, err := time.Parse(Layout(pattern), s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q does not match pattern %q", ErrInvalidDate, s, pattern)
	}
	return t, nil
}

// isoLayouts are the accepted shapes of remote timestamps, most specific
// first.
var isoLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseISO parses an ISO-8601 timestamp as delivered by the remote source.
func ParseISO(s string) (time.Time, error) {
	for _, layout := range isoLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
}

// FormatISO re-renders an ISO-8601 input through a token pattern.
func FormatISO(s, pattern string) (string, error) {
	t, err := ParseISO(s)
	if err != nil {
		return "", err
	}
	return Format(t, pattern), nil
}

// FormatTimestamp renders t in the canonical persisted-timestamp form.
func FormatTimestamp(t time.Time) string {
	return Format(t, TimestampPattern)
}

// ParseTimestamp parses a persisted sync timestamp, accepting the
// seconds-less form written by older settings files.
func ParseTimestamp(s string) (time.Time, error) {
	if t, err := Parse(s, TimestampPattern); err == nil {
		return t, nil
	}
	return Parse(s, timestampPatternNoSeconds)
}
