package timegate

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Instant is a wall-clock time of day.
type Instant struct {
	Hour   int
	Minute int
	Second int
}

// ParseInstant parses "HH:MM:SS" (or "HH:MM").
func ParseInstant(s string) (Instant, error) {
	for _, layout := range []string{"15:04:05", "15:04"} {
		t, err := time.Parse(layout, s)
		if err == nil {
			return Instant{Hour: t.Hour(), Minute: t.Minute(), Second: t.Second()}, nil
		}
	}
	return Instant{}, fmt.Errorf("invalid time of day %q (want HH:MM:SS)", s)
}

func (i Instant) String() string {
	return fmt.Sprintf("%02d:%02d:%02d", i.Hour, i.Minute, i.Second)
}

// Offset is the distance from midnight.
func (i Instant) Offset() time.Duration {
	return time.Duration(i.Hour)*time.Hour + time.Duration(i.Minute)*time.Minute + time.Duration(i.Second)*time.Second
}

// Next resolves the instant to its next occurrence after now, in now's
// location: today if still ahead, otherwise tomorrow. An instant equal to now
// resolves to tomorrow.
func (i Instant) Next(now time.Time) time.Time {
	y, m, d := now.Date()
	at := time.Date(y, m, d, i.Hour, i.Minute, i.Second, 0, now.Location())
	if !now.Before(at) {
		at = time.Date(y, m, d+1, i.Hour, i.Minute, i.Second, 0, now.Location())
	}
	return at
}

// CeilSeconds rounds d up to a whole number of seconds.
func CeilSeconds(d time.Duration) time.Duration {
	if d <= 0 {
		return 0
	}
	return ((d + time.Second - 1) / time.Second) * time.Second
}

// Gate blocks until a release instant. Every sleep is rounded up, so the gate
// may open late by under a second but never early.
type Gate struct {
	Now   func() time.Time
	Sleep func(ctx context.Context, d time.Duration) error
	Log   *zap.Logger
}

func New(loc *time.Location, log *zap.Logger) *Gate {
	if loc == nil {
		loc = time.Local
	}
	return &Gate{
		Now:   func() time.Time { return time.Now().In(loc) },
		Sleep: sleepContext,
		Log:   log,
	}
}

// WaitUntil blocks until the next occurrence of target. It only returns early
// when ctx is cancelled.
func (g *Gate) WaitUntil(ctx context.Context, target Instant) error {
	return g.Until(ctx, target.Next(g.Now()))
}

// Until blocks until the clock reaches at.
func (g *Gate) Until(ctx context.Context, at time.Time) error {
	log := g.logger()
	log.Info("waiting for release", zap.Time("release_at", at))

	for now := g.Now(); now.Before(at); now = g.Now() {
		d := CeilSeconds(at.Sub(now))
		log.Info("sleeping", zap.Duration("for", d))
		if err := g.Sleep(ctx, d); err != nil {
			return err
		}
	}
	return nil
}

func (g *Gate) logger() *zap.Logger {
	if g.Log == nil {
		return zap.NewNop()
	}
	return g.Log
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
