package profile

import (
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/example/court-scheduler/internal/domain/portal"
)

var (
	ErrNotFound    = errors.New("profile not found")
	ErrInvalidName = errors.New("invalid profile name")
)

var namePattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]{0,62}$`)

// Profile is a named set of portal credentials kept in the vault.
type Profile struct {
	Name        string
	Credentials portal.Credentials

	CreatedAt time.Time
	UpdatedAt time.Time
}

// ValidateName accepts lowercase names made of letters, digits, '-' and '_'.
func ValidateName(name string) error {
	if !namePattern.MatchString(name) {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}
