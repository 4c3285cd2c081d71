package scheduler

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/example/court-scheduler/internal/application/timegate"
	"github.com/example/court-scheduler/internal/domain/portal"
	"github.com/example/court-scheduler/internal/domain/reservation"
)

// Stage is a step of a booking run. Runs only move forward.
type Stage int

const (
	StageLoggedOut Stage = iota
	StageLoggedIn
	StageSurfaceOpen
	StageConfigured
	StageGated
	StageRefreshed
	StageAttempting
	StageDone
)

var stageNames = [...]string{"logged-out", "logged-in", "surface-open", "configured", "gated", "refreshed", "attempting", "done"}

func (s Stage) String() string {
	if s < 0 || int(s) >= len(stageNames) {
		return fmt.Sprintf("stage(%d)", int(s))
	}
	return stageNames[s]
}

// StageError is a structural failure. It aborts the run; there is no partial result.
type StageError struct {
	From Stage
	To   Stage
	Err  error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s -> %s: %v", e.From, e.To, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

type Session interface {
	Login(ctx context.Context, creds portal.Credentials) error
}

type Options interface {
	OpenBookingSurface(ctx context.Context) error
	Configure(ctx context.Context, date time.Time, indoor bool, duration int) error
	Refresh(ctx context.Context, date time.Time) error
}

type Gate interface {
	WaitUntil(ctx context.Context, target timegate.Instant) error
}

// Scheduler runs one booking: log in, configure the page ahead of the
// release, wait for it, then try the candidate hours in priority order.
// A Scheduler drives a single browser session and must not be shared.
type Scheduler struct {
	Session   Session
	Options   Options
	Gate      Gate
	Driver    portal.Driver
	Selectors portal.Selectors
	Timeouts  portal.Timeouts
	Release   timegate.Instant
	Log       *zap.Logger

	stage Stage
}

// Stage reports how far the last run got.
func (s *Scheduler) Stage() Stage { return s.stage }

// Run executes the whole workflow. A validation or stage failure is returned
// as an error; candidate failures are reported in the Result.
func (s *Scheduler) Run(ctx context.Context, creds portal.Credentials, req reservation.Request) (reservation.Result, error) {
	log := s.logger()
	s.stage = StageLoggedOut
	if err := req.Validate(); err != nil {
		return reservation.Result{}, err
	}

	steps := []struct {
		to  Stage
		run func(context.Context) error
	}{
		{StageLoggedIn, func(ctx context.Context) error { return s.Session.Login(ctx, creds) }},
		{StageSurfaceOpen, s.Options.OpenBookingSurface},
		{StageConfigured, func(ctx context.Context) error {
			return s.Options.Configure(ctx, req.Date, req.Indoor, req.Duration)
		}},
		{StageGated, func(ctx context.Context) error { return s.Gate.WaitUntil(ctx, s.Release) }},
		{StageRefreshed, func(ctx context.Context) error { return s.Options.Refresh(ctx, req.Date) }},
	}
	for _, st := range steps {
		if err := st.run(ctx); err != nil {
			serr := &StageError{From: s.stage, To: st.to, Err: err}
			log.Error("run aborted", zap.Stringer("stage", s.stage), zap.Error(err))
			return reservation.Result{}, serr
		}
		s.advance(st.to)
	}

	s.advance(StageAttempting)
	res, err := s.Attempt(ctx, req.Times)
	if err != nil {
		log.Error("run aborted", zap.Stringer("stage", s.stage), zap.Error(err))
		return res, &StageError{From: StageAttempting, To: StageDone, Err: err}
	}
	s.advance(StageDone)
	return res, nil
}

// Attempt tries each hour in the given order and stops at the first booking.
// Nothing is touched for hours after the booked one. It returns ctx's error,
// with the attempts made so far, once ctx is cancelled.
func (s *Scheduler) Attempt(ctx context.Context, hours []int) (reservation.Result, error) {
	log := s.logger()
	var res reservation.Result
	for _, hour := range hours {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		a := s.attemptHour(ctx, hour)
		if a.Outcome == reservation.OutcomeSuccess {
			log.Info("booked", zap.Int("hour", hour))
			res.Booked = true
			res.BookedHour = hour
			return res, nil
		}
		if err := ctx.Err(); err != nil {
			// the failure was caused by the cancellation, not the portal
			return res, err
		}
		log.Info("candidate not booked", zap.Int("hour", hour), zap.Stringer("outcome", a.Outcome), zap.String("reason", a.Reason))
		res.Failures = append(res.Failures, a)
	}
	return res, nil
}

func (s *Scheduler) attemptHour(ctx context.Context, hour int) reservation.Attempt {
	label := reservation.HourLabel(hour)
	tiles, err := s.matchingTiles(ctx, label)
	if err != nil {
		return reservation.Attempt{Hour: hour, Outcome: reservation.OutcomeBookingFailed, Reason: err.Error()}
	}
	if len(tiles) == 0 {
		return reservation.Attempt{Hour: hour, Outcome: reservation.OutcomeSlotUnavailable}
	}

	var reason string
	for i, tile := range tiles {
		err := s.book(ctx, tile)
		if err == nil {
			return reservation.Attempt{Hour: hour, Outcome: reservation.OutcomeSuccess}
		}
		// this tile is spent; duplicates for other courts may still work
		s.logger().Warn("slot tile failed", zap.Int("hour", hour), zap.Int("tile", i), zap.Error(err))
		reason = err.Error()
	}
	return reservation.Attempt{Hour: hour, Outcome: reservation.OutcomeBookingFailed, Reason: reason}
}

func (s *Scheduler) matchingTiles(ctx context.Context, label string) ([]portal.Element, error) {
	all, err := s.Driver.ListElements(ctx, s.Selectors.SlotTile)
	if err != nil {
		return nil, fmt.Errorf("list slots: %w", err)
	}
	var out []portal.Element
	for _, el := range all {
		text, err := s.Driver.ReadText(ctx, el)
		if err != nil {
			continue
		}
		if text == label {
			out = append(out, el)
		}
	}
	return out, nil
}

// book opens a slot tile and confirms it.
func (s *Scheduler) book(ctx context.Context, tile portal.Element) error {
	if err := s.Driver.Click(ctx, tile); err != nil {
		return fmt.Errorf("open slot: %w", err)
	}
	confirm, err := s.Driver.Locate(ctx, s.Selectors.BookNow, s.Timeouts.Element)
	if err != nil {
		return fmt.Errorf("book button %q: %w", s.Selectors.BookNow, err)
	}
	if err := s.Driver.Click(ctx, confirm); err != nil {
		return fmt.Errorf("click book button: %w", err)
	}
	if _, err := s.Driver.Locate(ctx, s.Selectors.SuccessBanner, s.Timeouts.Element); err != nil {
		return fmt.Errorf("success banner %q: %w", s.Selectors.SuccessBanner, err)
	}
	return nil
}

func (s *Scheduler) advance(to Stage) {
	s.logger().Debug("stage", zap.Stringer("from", s.stage), zap.Stringer("to", to))
	s.stage = to
}

func (s *Scheduler) logger() *zap.Logger {
	if s.Log == nil {
		return zap.NewNop()
	}
	return s.Log
}
