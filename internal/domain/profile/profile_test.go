package profile

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateName(t *testing.T) {
	for _, ok := range []string{"default", "club-2", "a", "me_and_you"} {
		assert.NoError(t, ValidateName(ok), ok)
	}
	for _, bad := range []string{"", "Default", "-lead", "has space", "semi;colon"} {
		assert.ErrorIs(t, ValidateName(bad), ErrInvalidName, bad)
	}
}
