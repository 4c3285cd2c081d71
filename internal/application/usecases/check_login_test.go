package usecases

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/example/court-scheduler/internal/application/session"
	"github.com/example/court-scheduler/internal/domain/portal"
	"github.com/example/court-scheduler/internal/domain/portal/portaltest"
	"github.com/example/court-scheduler/internal/domain/reservation"
)

func TestCheckLogin(t *testing.T) {
	p := portaltest.New(time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC), 7)
	u := CheckLogin{Session: session.New(p, portaltest.LoginURL, portal.DefaultSelectors(), portal.DefaultTimeouts(), nil)}

	assert.NoError(t, u.Execute(context.Background(), member))
	assert.Zero(t, p.Count("navigate "+portaltest.BookingURL))
}

func TestCheckLoginRejected(t *testing.T) {
	p := portaltest.New(time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC), 7)
	u := CheckLogin{Session: session.New(p, portaltest.LoginURL, portal.DefaultSelectors(), portal.DefaultTimeouts(), nil)}

	err := u.Execute(context.Background(), portal.Credentials{Username: "member", Password: "wrong"})
	assert.ErrorIs(t, err, reservation.ErrAuthenticationFailed)
	assert.ErrorIs(t, u.Execute(context.Background(), portal.Credentials{}), ErrMissingCredentials)
}
