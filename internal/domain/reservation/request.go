package reservation

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

const dateLayout = "2006-01-02"

// Bookable hours offered by the portal (6am to 10pm).
const (
	EarliestHour = 6
	LatestHour   = 22
)

var validate = validator.New()

// Request is a validated booking request. Times are in caller priority order:
// earlier entries win and are never re-sorted.
type Request struct {
	Date     time.Time `validate:"required"`
	Indoor   bool
	Duration int   `validate:"oneof=1 2"`
	Times    []int `validate:"min=1,unique,dive,min=6,max=22"`
}

// NewRequest parses and validates a request. Duplicate hours are dropped,
// keeping the first occurrence.
func NewRequest(date string, indoor bool, duration int, times []int) (Request, error) {
	d, err := time.Parse(dateLayout, date)
	if err != nil {
		return Request{}, fmt.Errorf("%w: invalid date %q (want YYYY-MM-DD)", ErrValidation, date)
	}
	req := Request{
		Date:     d,
		Indoor:   indoor,
		Duration: duration,
		Times:    Dedupe(times),
	}
	if err := req.Validate(); err != nil {
		return Request{}, err
	}
	return req, nil
}

func (r Request) Validate() error {
	if err := validate.Struct(r); err != nil {
		return fmt.Errorf("%w: %s", ErrValidation, describe(err))
	}
	return nil
}

// DateString is the ISO form of the request date.
func (r Request) DateString() string {
	return r.Date.Format(dateLayout)
}

func describe(err error) string {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok || len(verrs) == 0 {
		return err.Error()
	}
	fe := verrs[0]
	switch fe.StructField() {
	case "Duration":
		return fmt.Sprintf("duration can only be 1 or 2 hours (got %v)", fe.Value())
	case "Date":
		return "date must be provided"
	}
	if fe.Tag() == "unique" {
		return fmt.Sprintf("times must not repeat (got %v)", fe.Value())
	}
	if fe.Tag() == "min" && fe.Kind().String() == "slice" {
		return "times must be provided"
	}
	return fmt.Sprintf("time must be between %d and %d (hours, 6am to 10pm), got %v", EarliestHour, LatestHour, fe.Value())
}
