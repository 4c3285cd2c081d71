package options

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/example/court-scheduler/internal/domain/portal"
	"github.com/example/court-scheduler/internal/domain/reservation"
)

// Configurator steers the booking page into the wanted configuration. It
// never remembers what the page shows: every decision re-reads the driver.
type Configurator struct {
	Driver     portal.Driver
	BookingURL string
	Selectors  portal.Selectors
	Timeouts   portal.Timeouts
	Log        *zap.Logger
}

func New(d portal.Driver, bookingURL string, sel portal.Selectors, to portal.Timeouts, log *zap.Logger) *Configurator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Configurator{Driver: d, BookingURL: bookingURL, Selectors: sel, Timeouts: to, Log: log}
}

// OpenBookingSurface loads the court booking page.
func (c *Configurator) OpenBookingSurface(ctx context.Context) error {
	if err := c.Driver.Navigate(ctx, c.BookingURL); err != nil {
		return fmt.Errorf("%w: open booking page %s: %v", reservation.ErrNavigationTimeout, c.BookingURL, err)
	}
	if _, err := c.Driver.Locate(ctx, c.Selectors.BookingLoaded, c.Timeouts.PageLoad); err != nil {
		return missing(reservation.ErrNavigationTimeout, "booking page marker", c.Selectors.BookingLoaded, err)
	}
	return nil
}

// Configure selects date, court type, duration and the available-only filter.
// Controls already showing the wanted value are left alone, so a second call
// against an unchanged page clicks nothing.
func (c *Configurator) Configure(ctx context.Context, date time.Time, indoor bool, duration int) error {
	if err := c.ensureDate(ctx, date); err != nil {
		return err
	}
	targets := []struct {
		control portal.Control
		label   string
	}{
		{portal.CourtControl, portal.CourtLabel(indoor)},
		{portal.DurationControl, reservation.DurationLabel(duration)},
		{portal.FilterControl, portal.FilterAvailableOnly},
	}
	for _, t := range targets {
		if err := c.setOption(ctx, t.control, t.label); err != nil {
			return err
		}
	}
	return nil
}

// SelectDate clicks the date strip cell for date and waits for the schedule.
func (c *Configurator) SelectDate(ctx context.Context, date time.Time) error {
	label := reservation.DateLabel(date)
	cells, err := c.Driver.ListElements(ctx, c.Selectors.DateCell)
	if err != nil {
		return fmt.Errorf("list date cells: %w", err)
	}
	for _, cell := range cells {
		text, err := c.Driver.ReadText(ctx, cell)
		if err != nil || text != label {
			continue
		}
		c.Log.Info("switching date", zap.String("date", label))
		if err := c.Driver.Click(ctx, cell); err != nil {
			return fmt.Errorf("click date %q: %w", label, err)
		}
		return c.waitSchedule(ctx)
	}
	return fmt.Errorf("%w: %s (%q) is not in the date strip", reservation.ErrDateNotFound, date.Format("2006-01-02"), label)
}

// Refresh forces the schedule table to re-fetch by moving to the previous
// day and back. The table rendered before the release does not update itself.
func (c *Configurator) Refresh(ctx context.Context, date time.Time) error {
	if err := c.SelectDate(ctx, date.AddDate(0, 0, -1)); err != nil {
		return err
	}
	return c.SelectDate(ctx, date)
}

func (c *Configurator) ensureDate(ctx context.Context, date time.Time) error {
	label := reservation.DateLabel(date)
	active, err := c.Driver.ListElements(ctx, c.Selectors.ActiveDate)
	if err == nil && len(active) > 0 {
		if text, err := c.Driver.ReadText(ctx, active[0]); err == nil && text == label {
			c.Log.Debug("date already selected", zap.String("date", label))
			return nil
		}
	}
	return c.SelectDate(ctx, date)
}

func (c *Configurator) setOption(ctx context.Context, ctrl portal.Control, target string) error {
	dropdown, current, err := c.findDropdown(ctx, ctrl)
	if err != nil {
		return fmt.Errorf("%w: %q: %v", reservation.ErrOptionNotFound, target, err)
	}
	if current == target {
		c.Log.Debug("option already set", zap.String("control", ctrl.Name), zap.String("value", target))
		return nil
	}

	if err := c.Driver.Click(ctx, dropdown); err != nil {
		return fmt.Errorf("open %s dropdown: %w", ctrl.Name, err)
	}
	if _, err := c.Driver.Locate(ctx, c.Selectors.DropdownOpen, c.Timeouts.Element); err != nil {
		return missing(reservation.ErrNavigationTimeout, ctrl.Name+" dropdown", c.Selectors.DropdownOpen, err)
	}

	opts, err := c.Driver.ListElements(ctx, c.Selectors.DropdownOption)
	if err != nil {
		return fmt.Errorf("list %s options: %w", ctrl.Name, err)
	}
	for _, o := range opts {
		text, err := c.Driver.ReadText(ctx, o)
		if err != nil || text != target {
			continue
		}
		c.Log.Info("switching option", zap.String("control", ctrl.Name), zap.String("from", current), zap.String("to", target))
		if err := c.Driver.Click(ctx, o); err != nil {
			return fmt.Errorf("pick %q: %w", target, err)
		}
		return c.waitSchedule(ctx)
	}
	return fmt.Errorf("%w: %q is not offered by the %s dropdown", reservation.ErrOptionNotFound, target, ctrl.Name)
}

// findDropdown returns the dropdown whose current label belongs to ctrl.
func (c *Configurator) findDropdown(ctx context.Context, ctrl portal.Control) (portal.Element, string, error) {
	dropdowns, err := c.Driver.ListElements(ctx, c.Selectors.Dropdown)
	if err != nil {
		return nil, "", err
	}
	for _, d := range dropdowns {
		text, err := c.Driver.ReadText(ctx, d)
		if err != nil {
			continue
		}
		if ctrl.Owns(text) {
			return d, text, nil
		}
	}
	return nil, "", fmt.Errorf("no %s dropdown on the page", ctrl.Name)
}

func (c *Configurator) waitSchedule(ctx context.Context) error {
	if _, err := c.Driver.Locate(ctx, c.Selectors.ScheduleLoaded, c.Timeouts.PageLoad); err != nil {
		return missing(reservation.ErrNavigationTimeout, "schedule table", c.Selectors.ScheduleLoaded, err)
	}
	return nil
}

func missing(kind error, what, selector string, err error) error {
	if errors.Is(err, portal.ErrTimeout) {
		return fmt.Errorf("%w: %s %q did not appear", kind, what, selector)
	}
	return fmt.Errorf("%w: %s %q: %w", kind, what, selector, err)
}
