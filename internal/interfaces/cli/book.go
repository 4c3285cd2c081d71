package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/example/court-scheduler/internal/application/options"
	"github.com/example/court-scheduler/internal/application/scheduler"
	"github.com/example/court-scheduler/internal/application/session"
	"github.com/example/court-scheduler/internal/application/timegate"
	"github.com/example/court-scheduler/internal/application/usecases"
	"github.com/example/court-scheduler/internal/domain/portal"
	"github.com/example/court-scheduler/internal/domain/reservation"
	"github.com/example/court-scheduler/internal/infrastructure/notify"
	"github.com/example/court-scheduler/internal/infrastructure/redislock"
	"github.com/example/court-scheduler/internal/interfaces/report"
)

type bookFlags struct {
	date     string
	indoor   bool
	outdoor  bool
	duration int
	times    []int
	username string
	password string
	profile  string
}

func newBookCmd(configPath *string) *cobra.Command {
	var f bookFlags
	c := &cobra.Command{
		Use:   "book",
		Short: "Log in, wait for the release and book the first free preferred hour",
		Example: `  courtsched book --date 2025-06-01 -t 8 -t 9
  courtsched book --outdoor --duration 1 --profile default`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(*configPath)
			if err != nil {
				return err
			}
			defer a.close()

			req, err := f.request(a)
			if err != nil {
				return err
			}

			ctx, cancel := signalContext()
			defer cancel()

			creds, err := f.credentials(ctx, a)
			if err != nil {
				return err
			}
			return runBooking(ctx, a, creds, req)
		},
	}
	c.Flags().StringVar(&f.date, "date", "", "booking date YYYY-MM-DD (default: the date released next)")
	c.Flags().BoolVar(&f.indoor, "indoor", true, "book an indoor court")
	c.Flags().BoolVar(&f.outdoor, "outdoor", false, "book an outdoor court")
	c.Flags().IntVar(&f.duration, "duration", 2, "booking length in hours (1 or 2)")
	c.Flags().IntSliceVarP(&f.times, "times", "t", []int{7, 8}, "start hours in order of preference")
	c.Flags().StringVarP(&f.username, "username", "u", "", "portal username (default PORTAL_USERNAME)")
	c.Flags().StringVarP(&f.password, "password", "p", "", "portal password (default PORTAL_PASSWORD, else prompt)")
	c.Flags().StringVar(&f.profile, "profile", "", "use credentials stored with 'creds set'")
	c.MarkFlagsMutuallyExclusive("indoor", "outdoor")
	c.MarkFlagsMutuallyExclusive("profile", "username")
	c.MarkFlagsMutuallyExclusive("profile", "password")
	return c
}

// request builds and validates the booking request before any browser work.
func (f bookFlags) request(a *app) (reservation.Request, error) {
	date := f.date
	if date == "" {
		cutoff, err := a.cfg.Cutoff()
		if err != nil {
			return reservation.Request{}, err
		}
		date = reservation.DefaultDate(a.now(), cutoff, a.cfg.Portal.BookingDaysAhead).Format("2006-01-02")
	}
	return reservation.NewRequest(date, f.indoor && !f.outdoor, f.duration, f.times)
}

func (f bookFlags) credentials(ctx context.Context, a *app) (portal.Credentials, error) {
	if f.profile != "" {
		vault, closeVault, err := a.openVault(ctx)
		if err != nil {
			return portal.Credentials{}, err
		}
		defer closeVault()
		p, err := vault.Get(ctx, f.profile)
		if err != nil {
			return portal.Credentials{}, err
		}
		return p.Credentials, nil
	}

	creds := a.cfg.Credentials()
	if f.username != "" {
		creds.Username = f.username
	}
	if f.password != "" {
		creds.Password = f.password
	}
	if creds.Username == "" {
		return creds, usecases.ErrMissingCredentials
	}
	if creds.Password == "" {
		pw, err := promptPassword("Password for " + creds.Username)
		if err != nil {
			return creds, err
		}
		creds.Password = pw
	}
	return creds, nil
}

func runBooking(ctx context.Context, a *app, creds portal.Credentials, req reservation.Request) error {
	release, err := a.cfg.Release()
	if err != nil {
		return err
	}

	drv, err := a.openBrowser(ctx)
	if err != nil {
		return err
	}
	defer drv.Close()

	u := usecases.MakeReservation{
		Runner:        newScheduler(a, drv, release),
		LockTTL:       a.cfg.Redis.LockTTL,
		Screenshots:   drv,
		ScreenshotDir: a.cfg.Browser.ScreenshotDir,
		Log:           a.log,
		Now:           a.now,
	}
	if a.cfg.Redis.Addr != "" {
		lock, err := redislock.New(a.cfg.Redis.Addr, a.cfg.Redis.Password)
		if err != nil {
			return err
		}
		defer lock.Close()
		u.Locker = lock
	}
	if a.cfg.Telegram.BotToken != "" && a.cfg.Telegram.ChatID != 0 {
		tg, err := notify.NewTelegram(a.cfg.Telegram.BotToken, a.cfg.Telegram.ChatID)
		if err != nil {
			// a broken notifier must not cost the booking
			a.log.Warn("telegram disabled", zap.Error(err))
		} else {
			u.Notifier = tg
		}
	}

	res, err := u.Execute(ctx, creds, req)
	if err != nil {
		report.Error(os.Stderr, err)
		var serr *scheduler.StageError
		if errors.As(err, &serr) {
			return fmt.Errorf("booking aborted at %s", serr.To)
		}
		return err
	}
	report.Print(os.Stdout, res)
	return nil
}

func newScheduler(a *app, drv portal.Driver, release timegate.Instant) *scheduler.Scheduler {
	sel := portal.DefaultSelectors()
	to := a.cfg.Timeouts()
	return &scheduler.Scheduler{
		Session:   session.New(drv, a.cfg.LoginURL(), sel, to, a.log.Named("session")),
		Options:   options.New(drv, a.cfg.BookingURL(), sel, to, a.log.Named("options")),
		Gate:      timegate.New(a.loc, a.log.Named("gate")),
		Driver:    drv,
		Selectors: sel,
		Timeouts:  to,
		Release:   release,
		Log:       a.log,
	}
}
