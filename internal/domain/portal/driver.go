package portal

import (
	"context"
	"errors"
	"time"
)

// ErrTimeout is returned by Driver.Locate when no element matched within the timeout.
var ErrTimeout = errors.New("element not found before timeout")

// Element is an opaque handle to a rendered node. Handles go stale after the
// page re-renders; callers re-query instead of holding them across steps.
type Element interface {
	ID() string
}

// Driver is the UI automation surface the booking flow needs. Implementations
// drive a single stateful browser session and are not safe for concurrent use.
type Driver interface {
	Navigate(ctx context.Context, url string) error
	// Locate waits up to timeout for the first element matching a CSS selector.
	Locate(ctx context.Context, selector string, timeout time.Duration) (Element, error)
	// ListElements returns the elements currently matching selector without waiting.
	ListElements(ctx context.Context, selector string) ([]Element, error)
	Click(ctx context.Context, el Element) error
	SendKeys(ctx context.Context, el Element, text string) error
	ReadText(ctx context.Context, el Element) (string, error)
}

// Credentials for the portal account. Both values are opaque.
type Credentials struct {
	Username string
	Password string
}

func (c Credentials) Empty() bool {
	return c.Username == "" || c.Password == ""
}

// Timeouts bounds every wait on the portal.
type Timeouts struct {
	Element  time.Duration
	PageLoad time.Duration
}

func DefaultTimeouts() Timeouts {
	return Timeouts{Element: time.Second, PageLoad: 5 * time.Second}
}
