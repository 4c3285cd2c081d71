package scheduler

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/example/court-scheduler/internal/application/options"
	"github.com/example/court-scheduler/internal/application/session"
	"github.com/example/court-scheduler/internal/application/timegate"
	"github.com/example/court-scheduler/internal/domain/portal"
	"github.com/example/court-scheduler/internal/domain/portal/portaltest"
	"github.com/example/court-scheduler/internal/domain/reservation"
)

var (
	member  = portal.Credentials{Username: "member", Password: "secret"}
	release = timegate.Instant{Hour: 6, Minute: 59, Second: 58}
)

type gateFunc func(ctx context.Context, in timegate.Instant) error

func (f gateFunc) WaitUntil(ctx context.Context, in timegate.Instant) error { return f(ctx, in) }

// fixture wires real session/options components to a fake portal whose date
// strip starts a week before 2025-06-01.
func fixture(t *testing.T) (*portaltest.Portal, *Scheduler) {
	t.Helper()
	p := portaltest.New(time.Date(2025, 5, 25, 0, 0, 0, 0, time.UTC), 14)
	sel := portal.DefaultSelectors()
	to := portal.DefaultTimeouts()
	log := zap.NewNop()

	s := &Scheduler{
		Session:   session.New(p, portaltest.LoginURL, sel, to, log),
		Options:   options.New(p, portaltest.BookingURL, sel, to, log),
		Driver:    p,
		Selectors: sel,
		Timeouts:  to,
		Release:   release,
		Log:       log,
		Gate: gateFunc(func(_ context.Context, in timegate.Instant) error {
			p.Calls = append(p.Calls, "gate "+in.String())
			return nil
		}),
	}
	return p, s
}

func request(t *testing.T, times ...int) reservation.Request {
	t.Helper()
	req, err := reservation.NewRequest("2025-06-01", true, 2, times)
	require.NoError(t, err)
	return req
}

func indexOf(calls []string, prefix string) int {
	for i, c := range calls {
		if strings.HasPrefix(c, prefix) {
			return i
		}
	}
	return -1
}

func TestRunEndToEnd(t *testing.T) {
	p, s := fixture(t)
	p.Slots["Jun 1"] = []portaltest.Tile{{Label: "9:00 AM", Confirmable: true, Succeeds: true}}

	res, err := s.Run(context.Background(), member, request(t, 8, 9))
	require.NoError(t, err)

	assert.True(t, res.Booked)
	assert.Equal(t, 9, res.BookedHour)
	assert.Equal(t, []reservation.Attempt{{Hour: 8, Outcome: reservation.OutcomeSlotUnavailable}}, res.Failures)
	assert.Equal(t, []string{"Jun 1 9:00 AM"}, p.Booked)
	assert.Equal(t, StageDone, s.Stage())

	assert.Equal(t, portal.CourtIndoorTennis, p.Values[portaltest.Court])
	assert.Equal(t, "2 hours", p.Values[portaltest.Duration])
	assert.Equal(t, portal.FilterAvailableOnly, p.Values[portaltest.Filter])
}

func TestRunWaitsBetweenConfigureAndRefresh(t *testing.T) {
	p, s := fixture(t)

	_, err := s.Run(context.Background(), member, request(t, 8))
	require.NoError(t, err)

	gate := indexOf(p.Calls, "gate 06:59:58")
	require.NotEqual(t, -1, gate)
	assert.Less(t, indexOf(p.Calls, "click pick:filter"), gate, "configure must finish before the wait")
	assert.Greater(t, indexOf(p.Calls, "click date:May 31"), gate, "refresh must follow the wait")
	assert.Greater(t, indexOf(p.Calls, "list div.start-time"), gate)
}

func TestAttemptStopsAtFirstSuccess(t *testing.T) {
	p, s := fixture(t)
	p.Slots["Jun 1"] = []portaltest.Tile{
		{Label: "7:00 AM", Confirmable: true, Succeeds: true},
		{Label: "8:00 AM", Confirmable: true, Succeeds: true},
	}

	res, err := s.Run(context.Background(), member, request(t, 9, 8, 7))
	require.NoError(t, err)

	assert.True(t, res.Booked)
	assert.Equal(t, 8, res.BookedHour)
	assert.Equal(t, []reservation.Attempt{{Hour: 9, Outcome: reservation.OutcomeSlotUnavailable}}, res.Failures)
	assert.Equal(t, 2, p.Count("list div.start-time"), "hour 7 must never be looked up")
	assert.Equal(t, "locate h1.banner-title.ng-scope", p.Calls[len(p.Calls)-1])
	assert.Equal(t, []string{"Jun 1 8:00 AM"}, p.Booked)
}

func TestFailureOrderFollowsPriority(t *testing.T) {
	for _, times := range [][]int{{10, 7, 9}, {9, 7, 10}} {
		_, s := fixture(t)
		res, err := s.Run(context.Background(), member, request(t, times...))
		require.NoError(t, err)
		assert.False(t, res.Booked)
		assert.Equal(t, times, res.FailedHours())
	}
}

func TestDuplicateTilesFailOver(t *testing.T) {
	p, s := fixture(t)
	p.Slots["Jun 1"] = []portaltest.Tile{
		{Label: "8:00 AM", Confirmable: false},
		{Label: "8:00 AM", Confirmable: true, Succeeds: false},
		{Label: "8:00 AM", Confirmable: true, Succeeds: true},
	}

	res, err := s.Run(context.Background(), member, request(t, 8))
	require.NoError(t, err)
	assert.True(t, res.Booked)
	assert.Equal(t, 8, res.BookedHour)
	assert.Empty(t, res.Failures)
	assert.Equal(t, 3, p.Count("click tile:"))
}

func TestAllTilesExhaustedIsBookingFailed(t *testing.T) {
	p, s := fixture(t)
	p.Slots["Jun 1"] = []portaltest.Tile{
		{Label: "8:00 AM", Confirmable: true},
		{Label: "8:00 AM", Confirmable: true},
		{Label: "9:00 AM", Confirmable: false},
	}

	res, err := s.Run(context.Background(), member, request(t, 8, 9, 10))
	require.NoError(t, err)
	require.False(t, res.Booked)
	require.Len(t, res.Failures, 3)

	assert.Equal(t, reservation.OutcomeBookingFailed, res.Failures[0].Outcome)
	assert.Contains(t, res.Failures[0].Reason, "success banner")
	assert.Equal(t, reservation.OutcomeBookingFailed, res.Failures[1].Outcome)
	assert.Contains(t, res.Failures[1].Reason, "book button")
	assert.Equal(t, reservation.Attempt{Hour: 10, Outcome: reservation.OutcomeSlotUnavailable}, res.Failures[2])
	assert.Equal(t, 2, p.Count("click book"))
}

func TestStageFailureAborts(t *testing.T) {
	p, s := fixture(t)
	gated := false
	s.Gate = gateFunc(func(context.Context, timegate.Instant) error { gated = true; return nil })

	res, err := s.Run(context.Background(), portal.Credentials{Username: "member", Password: "nope"}, request(t, 8))
	require.Error(t, err)

	var serr *StageError
	require.True(t, errors.As(err, &serr))
	assert.Equal(t, StageLoggedOut, serr.From)
	assert.Equal(t, StageLoggedIn, serr.To)
	assert.ErrorIs(t, err, reservation.ErrAuthenticationFailed)
	assert.Contains(t, err.Error(), "logged-out -> logged-in")
	assert.Contains(t, err.Error(), "divSignedIn")

	assert.Equal(t, reservation.Result{}, res)
	assert.False(t, gated)
	assert.Equal(t, -1, indexOf(p.Calls, "navigate "+portaltest.BookingURL))
	assert.Equal(t, StageLoggedOut, s.Stage())
}

func TestConfigureFailureCarriesStage(t *testing.T) {
	p, s := fixture(t)
	p.Options[portaltest.Court] = []string{portal.CourtOutdoorTennis}

	_, err := s.Run(context.Background(), member, request(t, 8))
	require.Error(t, err)

	var serr *StageError
	require.True(t, errors.As(err, &serr))
	assert.Equal(t, StageConfigured, serr.To)
	assert.ErrorIs(t, err, reservation.ErrOptionNotFound)
	assert.Equal(t, StageSurfaceOpen, s.Stage())
}

func TestGateCancellationAborts(t *testing.T) {
	_, s := fixture(t)
	s.Gate = gateFunc(func(ctx context.Context, _ timegate.Instant) error { return context.Canceled })

	_, err := s.Run(context.Background(), member, request(t, 8))
	var serr *StageError
	require.True(t, errors.As(err, &serr))
	assert.Equal(t, StageGated, serr.To)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRunRejectsInvalidRequest(t *testing.T) {
	p, s := fixture(t)
	req := reservation.Request{Date: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC), Indoor: true, Duration: 2, Times: []int{5}}

	_, err := s.Run(context.Background(), member, req)
	assert.ErrorIs(t, err, reservation.ErrValidation)
	assert.Empty(t, p.Calls)
}

func TestRunRejectsDuplicateTimes(t *testing.T) {
	p, s := fixture(t)
	req := reservation.Request{Date: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC), Indoor: true, Duration: 2, Times: []int{8, 8}}

	res, err := s.Run(context.Background(), member, req)
	assert.ErrorIs(t, err, reservation.ErrValidation)
	assert.Equal(t, reservation.Result{}, res)
	assert.Empty(t, p.Calls)
}

func TestCancelDuringAttemptsAborts(t *testing.T) {
	p, s := fixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s.Gate = gateFunc(func(context.Context, timegate.Instant) error {
		cancel()
		return nil
	})

	res, err := s.Run(ctx, member, request(t, 8, 9))
	require.Error(t, err)

	var serr *StageError
	require.True(t, errors.As(err, &serr))
	assert.Equal(t, StageAttempting, serr.From)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, res.Failures, "cancelled hours are not reported as portal failures")
	assert.Zero(t, p.Count("list div.start-time"))
	assert.Equal(t, StageAttempting, s.Stage())
}

func TestRunWithRealGate(t *testing.T) {
	p, s := fixture(t)
	p.Slots["Jun 1"] = []portaltest.Tile{{Label: "8:00 AM", Confirmable: true, Succeeds: true}}

	now := time.Date(2025, 5, 31, 6, 59, 50, 0, time.UTC)
	var slept time.Duration
	s.Gate = &timegate.Gate{
		Now: func() time.Time { return now },
		Sleep: func(_ context.Context, d time.Duration) error {
			slept += d
			now = now.Add(d)
			return nil
		},
	}

	res, err := s.Run(context.Background(), member, request(t, 8))
	require.NoError(t, err)
	assert.True(t, res.Booked)
	assert.Equal(t, 8*time.Second, slept)
}

func TestStageString(t *testing.T) {
	assert.Equal(t, "surface-open", StageSurfaceOpen.String())
	assert.Equal(t, "done", StageDone.String())
	assert.Equal(t, "stage(42)", Stage(42).String())
}
