package duration

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// ErrInvalidDuration indicates a token that does not match the duration grammar.
var ErrInvalidDuration = errors.New("invalid duration")

// Value is a parsed access duration in integer milliseconds, or the
// lifetime sentinel meaning effectively unlimited access.
type Value struct {
	Millis   int64 // Duration in milliseconds; ignored when Lifetime is set.
	Lifetime bool  // Marks the unlimited-access sentinel.
}

// Millisecond counts for the supported units.
const (
	minuteMillis = int64(60 * 1000)
	hourMillis   = 60 * minuteMillis
	dayMillis    = 24 * hourMillis
	weekMillis   = 7 * dayMillis
)

// LifetimeSpan is the concrete span used when a lifetime duration has to be
// turned into an absolute expiry timestamp.
const LifetimeSpan = 100 * 365 * 24 * time.Hour

var tokenPattern = regexp.MustCompile(`^(\d+)([mhdw])$`)

// Lifetime returns the lifetime sentinel value.
func Lifetime() Value {
	return Value{Lifetime: true}
}

// FromMillis wraps a millisecond count in a Value.
func FromMillis(ms int64) Value {
	return Value{Millis: ms}
}

// IsBonus reports whether a raw token carries the leading bonus marker.
func IsBonus(token string) bool {
	return strings.HasPrefix(strings.TrimSpace(token), "+")
}

// Parse converts a compact duration token into a Value.
//
// Grammar: an optional leading "+" (stripped; see IsBonus), then either the
// literal "lifetime" (case-insensitive) or "<integer><unit>" with unit one of
// m, h, d, w. Anything else yields ErrInvalidDuration.
func Parse(token string) (Value, error) {
	trimmed := strings.TrimSpace(token)
	trimmed = strings.TrimPrefix(trimmed, "+")
	if trimmed == "" {
		return Value{}, ErrInvalidDuration
	}
	if strings.EqualFold(trimmed, "lifetime") {
		return Lifetime(), nil
	}

	match := tokenPattern.FindStringSubmatch(strings.ToLower(trimmed))
	if match == nil {
		return Value{}, ErrInvalidDuration
	}
	count, errParse := strconv.ParseInt(match[1], 10, 64)
	if errParse != nil {
		return Value{}, ErrInvalidDuration
	}

	switch match[2] {
	case "m":
		return FromMillis(count * minuteMillis), nil
	case "h":
		return FromMillis(count * hourMillis), nil
	case "d":
		return FromMillis(count * dayMillis), nil
	case "w":
		return FromMillis(count * weekMillis), nil
	default:
		return Value{}, ErrInvalidDuration
	}
}

// Valid reports whether token parses under the duration grammar.
func Valid(token string) bool {
	_, err := Parse(token)
	return err == nil
}

// Format renders a Value as a human string.
//
// Lifetime becomes "Lifetime", negative spans become "Expired", everything
// else is decomposed into days/hours/minutes with zero components omitted.
// Format is not a strict inverse of Parse: the bonus marker and sub-minute
// precision are lost.
func Format(v Value) string {
	if v.Lifetime {
		return "Lifetime"
	}
	if v.Millis < 0 {
		return "Expired"
	}

	days := v.Millis / dayMillis
	hours := (v.Millis % dayMillis) / hourMillis
	minutes := (v.Millis % hourMillis) / minuteMillis

	parts := make([]string, 0, 3)
	if days > 0 {
		parts = append(parts, fmt.Sprintf("%dd", days))
	}
	if hours > 0 {
		parts = append(parts, fmt.Sprintf("%dh", hours))
	}
	if minutes > 0 {
		parts = append(parts, fmt.Sprintf("%dm", minutes))
	}
	if len(parts) == 0 {
		return "0m"
	}
	return strings.Join(parts, " ")
}

// FormatUntil renders the remaining span between now and an absolute expiry.
func FormatUntil(expiresAt time.Time, now time.Time) string {
	return Format(FromMillis(expiresAt.Sub(now).Milliseconds()))
}

// ExpiryFrom converts a Value into an absolute expiry timestamp relative to now.
func ExpiryFrom(now time.Time, v Value) time.Time {
	if v.Lifetime {
		return now.Add(LifetimeSpan)
	}
	return now.Add(time.Duration(v.Millis) * time.Millisecond)
}

// Add sums two non-lifetime values; a lifetime operand is terminal.
func Add(a, b Value) Value {
	if a.Lifetime || b.Lifetime {
		return Lifetime()
	}
	return FromMillis(a.Millis + b.Millis)
}

// Less reports whether a is a strictly shorter span than b. Lifetime compares
// greater than any finite span.
func Less(a, b Value) bool {
	if a.Lifetime {
		return false
	}
	if b.Lifetime {
		return true
	}
	return a.Millis < b.Millis
}
