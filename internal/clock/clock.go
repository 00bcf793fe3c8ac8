// Package clock converts between "HH:MM" clock strings and minute offsets
// from midnight, and parses the "HH:MM-HH:MM" interval strings stored with
// availability windows and schedule entries.
package clock

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// MaxMinute is the last minute of a day (23:59).
const MaxMinute = 23*60 + 59

// ToMinutes converts "HH:MM" to minutes from midnight. Parsing is permissive:
// missing or non-numeric components count as 0 and the resulting total is
// clamped to [0, MaxMinute], so "24:00" reads as 23:59.
func ToMinutes(hhmm string) int {
	hs, ms, _ := strings.Cut(strings.TrimSpace(hhmm), ":")
	total := float64(atoi(hs))*60 + float64(atoi(ms))
	return int(math.Max(0, math.Min(MaxMinute, total)))
}

// FromMinutes formats minutes from midnight as zero-padded "HH:MM".
func FromMinutes(mins int) string {
	mins = clamp(mins, 0, MaxMinute)
	return fmt.Sprintf("%02d:%02d", mins/60, mins%60)
}

// MinutesOf returns the wall-clock minute of day of t.
func MinutesOf(t time.Time) int {
	return t.Hour()*60 + t.Minute()
}

// Interval is a half-open [Start, End) range of minutes within a day.
type Interval struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// ParseInterval parses "HH:MM-HH:MM" or "HH:MM - HH:MM". ok is false when
// the string does not split into two time tokens or End is not after Start.
func ParseInterval(s string) (Interval, bool) {
	s = strings.TrimSpace(s)
	if strings.Count(s, "-") != 1 {
		return Interval{}, false
	}
	a, b, _ := strings.Cut(s, "-")
	a, b = strings.TrimSpace(a), strings.TrimSpace(b)
	if a == "" || b == "" {
		return Interval{}, false
	}
	iv := Interval{Start: ToMinutes(a), End: ToMinutes(b)}
	if iv.End <= iv.Start {
		return Interval{}, false
	}
	return iv, true
}

// Overlaps reports whether [aStart,aEnd) and [bStart,bEnd) intersect.
// Touching intervals do not overlap.
func Overlaps(aStart, aEnd, bStart, bEnd int) bool {
	return max(aStart, bStart) < min(aEnd, bEnd)
}

// Overlaps reports whether iv intersects o.
func (iv Interval) Overlaps(o Interval) bool {
	return Overlaps(iv.Start, iv.End, o.Start, o.End)
}

// Duration returns the length of iv in minutes.
func (iv Interval) Duration() int { return iv.End - iv.Start }

// Contains reports whether minute m falls inside iv, end inclusive.
func (iv Interval) Contains(m int) bool { return m >= iv.Start && m <= iv.End }

// String returns the canonical "HH:MM-HH:MM" form.
func (iv Interval) String() string {
	return FromMinutes(iv.Start) + "-" + FromMinutes(iv.End)
}

// Display returns the spaced "HH:MM - HH:MM" form used in replies.
func (iv Interval) Display() string {
	return FromMinutes(iv.Start) + " - " + FromMinutes(iv.End)
}

// Normalize rewrites any parsable interval string into canonical form.
// Unparsable input is returned unchanged.
func Normalize(s string) string {
	if iv, ok := ParseInterval(s); ok {
		return iv.String()
	}
	return s
}

func atoi(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0
	}
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
