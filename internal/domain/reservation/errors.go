package reservation

import "errors"

var (
	// ErrValidation marks a malformed request. Raised before any portal activity.
	ErrValidation = errors.New("invalid reservation request")

	// Structural failures. All of them abort the run.
	ErrNavigationTimeout    = errors.New("navigation timeout")
	ErrAuthenticationFailed = errors.New("authentication failed")
	ErrOptionNotFound       = errors.New("option not found")
	ErrDateNotFound         = errors.New("date not found")
)
