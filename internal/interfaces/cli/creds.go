package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/example/court-scheduler/internal/application/session"
	"github.com/example/court-scheduler/internal/application/usecases"
	"github.com/example/court-scheduler/internal/domain/portal"
)

func newCredsCmd(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "creds",
		Short: "Manage portal credentials stored in the vault",
	}
	cmd.AddCommand(newCredsSetCmd(configPath))
	cmd.AddCommand(newCredsDeleteCmd(configPath))
	cmd.AddCommand(newCredsCheckCmd(configPath))
	return cmd
}

func newCredsSetCmd(configPath *string) *cobra.Command {
	var name, username, password string
	c := &cobra.Command{
		Use:   "set",
		Short: "Store (or replace) credentials for a profile",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(*configPath)
			if err != nil {
				return err
			}
			defer a.close()

			if password == "" {
				if password, err = promptPassword("Password for " + username); err != nil {
					return err
				}
			}
			ctx, cancel := signalContext()
			defer cancel()
			vault, closeVault, err := a.openVault(ctx)
			if err != nil {
				return err
			}
			defer closeVault()

			if err := vault.Put(ctx, name, portal.Credentials{Username: username, Password: password}); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "stored profile:", name)
			return nil
		},
	}
	c.Flags().StringVar(&name, "profile", "default", "profile name")
	c.Flags().StringVarP(&username, "username", "u", "", "portal username")
	c.Flags().StringVarP(&password, "password", "p", "", "portal password (prompted when omitted)")
	_ = c.MarkFlagRequired("username")
	return c
}

func newCredsDeleteCmd(configPath *string) *cobra.Command {
	var name string
	c := &cobra.Command{
		Use:   "delete",
		Short: "Remove a stored profile",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(*configPath)
			if err != nil {
				return err
			}
			defer a.close()

			ctx, cancel := signalContext()
			defer cancel()
			vault, closeVault, err := a.openVault(ctx)
			if err != nil {
				return err
			}
			defer closeVault()

			if err := vault.Delete(ctx, name); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "deleted profile:", name)
			return nil
		},
	}
	c.Flags().StringVar(&name, "profile", "default", "profile name")
	return c
}

func newCredsCheckCmd(configPath *string) *cobra.Command {
	var f bookFlags
	c := &cobra.Command{
		Use:   "check",
		Short: "Sign in to the portal once to verify credentials",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(*configPath)
			if err != nil {
				return err
			}
			defer a.close()

			ctx, cancel := signalContext()
			defer cancel()
			creds, err := f.credentials(ctx, a)
			if err != nil {
				return err
			}

			drv, err := a.openBrowser(ctx)
			if err != nil {
				return err
			}
			defer drv.Close()

			sess := session.New(drv, a.cfg.LoginURL(), portal.DefaultSelectors(), a.cfg.Timeouts(), a.log.Named("session"))
			if err := (usecases.CheckLogin{Session: sess}).Execute(ctx, creds); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "login ok:", creds.Username)
			return nil
		},
	}
	c.Flags().StringVarP(&f.username, "username", "u", "", "portal username (default PORTAL_USERNAME)")
	c.Flags().StringVarP(&f.password, "password", "p", "", "portal password (default PORTAL_PASSWORD, else prompt)")
	c.Flags().StringVar(&f.profile, "profile", "", "check a stored profile")
	return c
}
