package usecases

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/example/court-scheduler/internal/domain/portal"
	"github.com/example/court-scheduler/internal/domain/reservation"
)

var (
	ErrRunInProgress      = errors.New("another booking run for this account is in progress")
	ErrMissingCredentials = errors.New("portal username and password are required")
)

type Runner interface {
	Run(ctx context.Context, creds portal.Credentials, req reservation.Request) (reservation.Result, error)
}

type Locker interface {
	Lock(ctx context.Context, key string, ttl time.Duration) (token string, ok bool, err error)
	Unlock(ctx context.Context, key, token string) error
}

type Notifier interface {
	Notify(ctx context.Context, text string) error
}

type Screenshotter interface {
	Screenshot(ctx context.Context, dir, name string) (string, error)
}

// MakeReservation wraps one scheduler run with the operational extras: a
// per-account run lock, a screenshot when the run aborts, and a notification
// of the outcome. Locker, Notifier and Screenshots are optional.
type MakeReservation struct {
	Runner Runner

	Locker  Locker
	LockTTL time.Duration

	Notifier Notifier

	Screenshots   Screenshotter
	ScreenshotDir string

	Log *zap.Logger
	Now func() time.Time
}

func (u MakeReservation) Execute(ctx context.Context, creds portal.Credentials, req reservation.Request) (reservation.Result, error) {
	if u.Runner == nil {
		return reservation.Result{}, fmt.Errorf("runner is nil")
	}
	if creds.Empty() {
		return reservation.Result{}, ErrMissingCredentials
	}
	log := u.logger().With(zap.String("date", req.DateString()), zap.Ints("times", req.Times))

	if u.Locker != nil {
		token, ok, err := u.Locker.Lock(ctx, creds.Username, u.LockTTL)
		if err != nil {
			return reservation.Result{}, fmt.Errorf("acquire run lock: %w", err)
		}
		if !ok {
			return reservation.Result{}, ErrRunInProgress
		}
		defer func() {
			if err := u.Locker.Unlock(context.WithoutCancel(ctx), creds.Username, token); err != nil {
				log.Warn("release run lock", zap.Error(err))
			}
		}()
	}

	res, err := u.Runner.Run(ctx, creds, req)
	if err != nil {
		log.Error("booking run failed", zap.Error(err))
		u.capture(ctx, log)
		u.notify(ctx, log, fmt.Sprintf("Court booking for %s failed: %v", req.DateString(), err))
		return res, err
	}
	log.Info("booking run finished", zap.Bool("booked", res.Booked), zap.Ints("failed", res.FailedHours()))
	u.notify(ctx, log, fmt.Sprintf("Court booking for %s: %s", req.DateString(), res.Summary()))
	return res, nil
}

func (u MakeReservation) capture(ctx context.Context, log *zap.Logger) {
	if u.Screenshots == nil || u.ScreenshotDir == "" {
		return
	}
	name := "failure-" + u.now().Format("20060102-150405")
	if _, err := u.Screenshots.Screenshot(context.WithoutCancel(ctx), u.ScreenshotDir, name); err != nil {
		log.Warn("screenshot", zap.Error(err))
	}
}

// notify never fails the run; the result is already decided.
func (u MakeReservation) notify(ctx context.Context, log *zap.Logger, text string) {
	if u.Notifier == nil {
		return
	}
	if err := u.Notifier.Notify(context.WithoutCancel(ctx), text); err != nil {
		log.Warn("notify", zap.Error(err))
	}
}

func (u MakeReservation) now() time.Time {
	if u.Now != nil {
		return u.Now()
	}
	return time.Now()
}

func (u MakeReservation) logger() *zap.Logger {
	if u.Log == nil {
		return zap.NewNop()
	}
	return u.Log
}
