package domain

import (
	"fmt"
	"strings"
	"time"
)

// OperatingWindow is the local time-of-day interval during which collection runs.
// Start is inclusive, End exclusive. End before Start wraps past midnight.
// The zero value is always open.
type OperatingWindow struct {
	Start time.Duration
	End   time.Duration
	set   bool
}

// ParseOperatingWindow builds a window from "HH:MM" bounds. Two empty bounds
// yield an always-open window.
func ParseOperatingWindow(startRaw, endRaw string) (OperatingWindow, error) {
	startRaw, endRaw = strings.TrimSpace(startRaw), strings.TrimSpace(endRaw)
	if startRaw == "" && endRaw == "" {
		return OperatingWindow{}, nil
	}
	start, err := parseClock(startRaw)
	if err != nil {
		return OperatingWindow{}, err
	}
	end, err := parseClock(endRaw)
	if err != nil {
		return OperatingWindow{}, err
	}
	if start == end {
		return OperatingWindow{}, fmt.Errorf("%w: start equals end (%s)", ErrInvalidWindow, startRaw)
	}
	return OperatingWindow{Start: start, End: end, set: true}, nil
}

func (w OperatingWindow) IsZero() bool {
	return !w.set
}

// Contains reports whether the wall clock of t falls inside the window.
func (w OperatingWindow) Contains(t time.Time) bool {
	if !w.set {
		return true
	}
	h, m, s := t.Clock()
	tod := time.Duration(h)*time.Hour + time.Duration(m)*time.Minute + time.Duration(s)*time.Second
	if w.Start < w.End {
		return tod >= w.Start && tod < w.End
	}
	return tod >= w.Start || tod < w.End
}

func (w OperatingWindow) String() string {
	if !w.set {
		return "always"
	}
	return formatClock(w.Start) + "-" + formatClock(w.End)
}

func parseClock(raw string) (time.Duration, error) {
	parsed, err := time.Parse("15:04", raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidWindow, raw)
	}
	return time.Duration(parsed.Hour())*time.Hour + time.Duration(parsed.Minute())*time.Minute, nil
}

func formatClock(d time.Duration) string {
	return fmt.Sprintf("%02d:%02d", int(d/time.Hour), int(d%time.Hour/time.Minute))
}
