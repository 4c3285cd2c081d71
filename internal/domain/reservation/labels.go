package reservation

import (
	"fmt"
	"time"
)

// Dedupe drops repeated hours while keeping the caller's order.
// The first occurrence of an hour decides its priority.
func Dedupe(times []int) []int {
	if len(times) == 0 {
		return nil
	}
	seen := make(map[int]bool, len(times))
	out := make([]int, 0, len(times))
	for _, t := range times {
		if seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}

// HourLabel renders an hour of day the way the schedule table shows slot
// start times, e.g. "6:00 AM", "12:00 PM", "1:00 PM".
func HourLabel(hour int) string {
	switch {
	case hour < 12:
		return fmt.Sprintf("%d:00 AM", hour)
	case hour == 12:
		return "12:00 PM"
	default:
		return fmt.Sprintf("%d:00 PM", hour-12)
	}
}

// DateLabel renders a date the way the portal's date strip labels its cells ("Jun 1").
func DateLabel(d time.Time) string {
	return d.Format("Jan 2")
}

// DurationLabel is the duration dropdown label ("1 hour", "2 hours").
func DurationLabel(hours int) string {
	if hours == 1 {
		return "1 hour"
	}
	return fmt.Sprintf("%d hours", hours)
}

// DefaultDate picks the booking date when the caller gives none: daysAhead
// days from today, or from tomorrow once the daily cutoff has passed.
func DefaultDate(now time.Time, cutoff time.Duration, daysAhead int) time.Time {
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	if now.After(day.Add(cutoff)) {
		day = day.AddDate(0, 0, 1)
	}
	return day.AddDate(0, 0, daysAhead)
}
