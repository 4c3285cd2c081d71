// Package report prints the outcome of a booking run for a person at a terminal.
package report

import (
	"fmt"
	"io"

	"github.com/fatih/color"

	"github.com/example/court-scheduler/internal/domain/reservation"
)

var (
	okColor   = color.New(color.FgGreen, color.Bold)
	failColor = color.New(color.FgRed, color.Bold)
	dimColor  = color.New(color.FgYellow)
)

func Print(w io.Writer, res reservation.Result) {
	if res.Booked {
		okColor.Fprintf(w, "Made a reservation at %02d:00.", res.BookedHour)
		fmt.Fprintln(w, " Check your email for more information")
		return
	}
	failColor.Fprintln(w, "Did not manage to book times:")
	for _, f := range res.Failures {
		fmt.Fprintf(w, "  - %02d:00 ", f.Hour)
		if f.Reason != "" {
			dimColor.Fprintf(w, "(%s: %s)\n", f.Outcome, f.Reason)
		} else {
			dimColor.Fprintf(w, "(%s)\n", f.Outcome)
		}
	}
}

// Error prints a run that aborted before any slot was tried.
func Error(w io.Writer, err error) {
	failColor.Fprint(w, "Booking aborted: ")
	fmt.Fprintln(w, err)
}
