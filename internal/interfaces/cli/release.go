package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/example/court-scheduler/internal/domain/reservation"
)

func newReleaseCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "release",
		Short: "Show when the next booking window opens and which date it releases",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(*configPath)
			if err != nil {
				return err
			}
			defer a.close()

			release, err := a.cfg.Release()
			if err != nil {
				return err
			}
			cutoff, err := a.cfg.Cutoff()
			if err != nil {
				return err
			}
			now := a.now()
			at := release.Next(now)
			date := reservation.DefaultDate(now, cutoff, a.cfg.Portal.BookingDaysAhead)

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "next release: %s (in %s)\n", at.Format("2006-01-02 15:04:05 MST"), at.Sub(now).Round(time.Second))
			fmt.Fprintf(out, "default date: %s\n", date.Format("2006-01-02"))
			return nil
		},
	}
}
