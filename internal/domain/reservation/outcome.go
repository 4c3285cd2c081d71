package reservation

import (
	"fmt"
	"strings"
)

// Outcome is the result of trying one candidate hour.
type Outcome int

const (
	OutcomeSuccess Outcome = iota
	OutcomeSlotUnavailable
	OutcomeBookingFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeSlotUnavailable:
		return "slot unavailable"
	case OutcomeBookingFailed:
		return "booking failed"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// Attempt records what happened to one candidate hour.
type Attempt struct {
	Hour    int
	Outcome Outcome
	Reason  string
}

func (a Attempt) String() string {
	if a.Reason == "" {
		return fmt.Sprintf("%02d:00 %s", a.Hour, a.Outcome)
	}
	return fmt.Sprintf("%02d:00 %s: %s", a.Hour, a.Outcome, a.Reason)
}

// Result aggregates a run. Failures keep the request's priority order and
// list every candidate tried before the booked one (or all of them).
type Result struct {
	Booked     bool
	BookedHour int
	Failures   []Attempt
}

// FailedHours returns the hours that were not secured, in priority order.
func (r Result) FailedHours() []int {
	out := make([]int, 0, len(r.Failures))
	for _, f := range r.Failures {
		out = append(out, f.Hour)
	}
	return out
}

// Summary is a one-line description used for logs and notifications.
func (r Result) Summary() string {
	if r.Booked {
		return fmt.Sprintf("booked %02d:00", r.BookedHour)
	}
	parts := make([]string, 0, len(r.Failures))
	for _, f := range r.Failures {
		parts = append(parts, f.String())
	}
	return "nothing booked: " + strings.Join(parts, "; ")
}
