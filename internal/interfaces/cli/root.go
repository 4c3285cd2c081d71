package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	Version   = "dev"
	CommitSHA = "none"
	BuildDate = "unknown"
)

func NewRoot() *cobra.Command {
	var configPath string
	root := &cobra.Command{
		Use:           "courtsched",
		Short:         "Books club tennis courts the moment the booking window opens",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "YAML config file (environment variables override it)")

	root.AddCommand(newBookCmd(&configPath))
	root.AddCommand(newReleaseCmd(&configPath))
	root.AddCommand(newCredsCmd(&configPath))
	root.AddCommand(newKeysCmd())
	root.AddCommand(newVersionCmd())
	return root
}

func Execute() {
	if err := NewRoot().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "courtsched:", err)
		os.Exit(1)
	}
}
