package slot

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// DefaultOperatingHours is used whenever a clinic's hours cannot be parsed.
const DefaultOperatingHours = "08:00-17:00"

var hoursPattern = regexp.MustCompile(`^(\d{2}):(\d{2})-(\d{2}):(\d{2})$`)

// Clock is a time of day expressed in minutes since midnight.
type Clock int

// NewClock clamps hour and minute into a valid time of day.
func NewClock(hour, minute int) Clock {
	return Clock(clamp(hour, 0, 23)*60 + clamp(minute, 0, 59))
}

// ParseClock parses "HH:MM" (or "HH:MM:SS", seconds ignored).
func ParseClock(s string) (Clock, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) < 2 || len(parts) > 3 || len(parts[0]) != 2 || len(parts[1]) != 2 {
		return 0, fmt.Errorf("invalid time of day %q", s)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return 0, fmt.Errorf("invalid hour in %q", s)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, fmt.Errorf("invalid minute in %q", s)
	}
	return Clock(h*60 + m), nil
}

func (c Clock) Hour() int   { return int(c) / 60 }
func (c Clock) Minute() int { return int(c) % 60 }

// String returns the 24-hour "HH:MM" form.
func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour(), c.Minute())
}

// Label returns the 12-hour display form, e.g. "02:30 PM".
func (c Clock) Label() string {
	h := c.Hour()
	suffix := "AM"
	if h >= 12 {
		suffix = "PM"
	}
	h %= 12
	if h == 0 {
		h = 12
	}
	return fmt.Sprintf("%02d:%02d %s", h, c.Minute(), suffix)
}

// OperatingHours is a clinic's open/close window for a day. Start <= End always holds.
type OperatingHours struct {
	Start Clock
	End   Clock
}

func (h OperatingHours) String() string {
	return h.Start.String() + "-" + h.End.String()
}

// ParseOperatingHours never fails: input that does not match HH:MM-HH:MM,
// or whose start is after its end, yields the 08:00-17:00 default.
func ParseOperatingHours(raw string) OperatingHours {
	if h, ok := parseHours(raw); ok {
		return h
	}
	h, _ := parseHours(DefaultOperatingHours)
	return h
}

// ParseOperatingHoursOr clamps raw like ParseOperatingHours but falls back to
// fallback, not the package default, when raw is malformed.
func ParseOperatingHoursOr(raw, fallback string) OperatingHours {
	if h, ok := parseHours(raw); ok {
		return h
	}
	return ParseOperatingHours(fallback)
}

// ValidOperatingHours reports whether raw is a well-formed, ordered range
// that ParseOperatingHours would accept without falling back.
func ValidOperatingHours(raw string) bool {
	m := hoursPattern.FindStringSubmatch(raw)
	if m == nil {
		return false
	}
	if atoi(m[1]) > 23 || atoi(m[2]) > 59 || atoi(m[3]) > 23 || atoi(m[4]) > 59 {
		return false
	}
	_, ok := parseHours(raw)
	return ok
}

func parseHours(raw string) (OperatingHours, bool) {
	m := hoursPattern.FindStringSubmatch(strings.TrimSpace(raw))
	if m == nil {
		return OperatingHours{}, false
	}
	h := OperatingHours{
		Start: NewClock(atoi(m[1]), atoi(m[2])),
		End:   NewClock(atoi(m[3]), atoi(m[4])),
	}
	if h.Start > h.End {
		return OperatingHours{}, false
	}
	return h, true
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
