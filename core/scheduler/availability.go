package scheduler

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/kilianp07/sortie/core/model"
)

// DateLayout is the calendar date format used in rosters.
const DateLayout = "2006-01-02"

// Window is a half-open [Start, End) interval in minutes after midnight.
type Window struct {
	Start int
	End   int
}

// Overlaps reports whether w and o share any minute.
func (w Window) Overlaps(o Window) bool {
	return w.Start < o.End && o.Start < w.End
}

// Contains reports whether o lies entirely inside w.
func (w Window) Contains(o Window) bool {
	return w.Start <= o.Start && o.End <= w.End
}

// Minutes returns the window length.
func (w Window) Minutes() int { return w.End - w.Start }

// Hours returns the window length in hours.
func (w Window) Hours() float64 { return float64(w.Minutes()) / 60 }

// ParseClock converts "HH:MM" to minutes after midnight.
func ParseClock(s string) (int, error) {
	hh, mm, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok || len(hh) == 0 || len(hh) > 2 || len(mm) != 2 {
		return 0, fmt.Errorf("invalid clock %q", s)
	}
	h, err := strconv.Atoi(hh)
	if err != nil || h < 0 || h > 23 {
		return 0, fmt.Errorf("invalid hour in %q", s)
	}
	m, err := strconv.Atoi(mm)
	if err != nil || m < 0 || m > 59 {
		return 0, fmt.Errorf("invalid minute in %q", s)
	}
	return h*60 + m, nil
}

// ParseWindow builds a Window from two clock strings. End must be after start.
func ParseWindow(start, end string) (Window, error) {
	s, err := ParseClock(start)
	if err != nil {
		return Window{}, err
	}
	e, err := ParseClock(end)
	if err != nil {
		return Window{}, err
	}
	if e <= s {
		return Window{}, fmt.Errorf("window %s-%s ends before it starts", start, end)
	}
	return Window{Start: s, End: e}, nil
}

// parseRange parses "HH:MM-HH:MM".
func parseRange(r string) (Window, error) {
	start, end, ok := strings.Cut(strings.TrimSpace(r), "-")
	if !ok {
		return Window{}, fmt.Errorf("invalid window %q", r)
	}
	return ParseWindow(start, end)
}

// DayName returns the short weekday name used as availability key.
func DayName(d time.Time) string { return d.Format("Mon") }

// WeekDates returns the Monday to Friday dates starting at weekStart.
func WeekDates(weekStart time.Time) []time.Time {
	out := make([]time.Time, 0, 5)
	for i := 0; i < 5; i++ {
		out = append(out, weekStart.AddDate(0, 0, i))
	}
	return out
}

// windowsFor looks the day up by short name, then by full name.
func windowsFor(av model.Availability, day string) model.Windows {
	if w, ok := av[day]; ok {
		return w
	}
	for k, w := range av {
		if len(k) > 3 && strings.EqualFold(k[:3], day) {
			return w
		}
	}
	return nil
}

// IsAvailable reports whether some listed window of the day fully contains
// the candidate. A missing day, an empty list, a maintenance sentinel or a
// malformed window never grants availability.
func IsAvailable(av model.Availability, day string, candidate Window) bool {
	for _, raw := range windowsFor(av, day) {
		if strings.EqualFold(strings.TrimSpace(raw), model.MaintenanceSentinel) {
			continue
		}
		w, err := parseRange(raw)
		if err != nil {
			continue
		}
		if w.Contains(candidate) {
			return true
		}
	}
	return false
}
