package main

import (
	"github.com/spf13/cobra"
)

type rootFlags struct {
	verbose  bool
	logLevel string
	jsonLogs bool
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}
	app := &appContext{}

	cmd := &cobra.Command{
		Use:           "peakflow",
		Short:         "peakflow runs processing workflows over injections, segments, and groups",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			built, err := newAppContext(flags, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			*app = *built
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().StringVar(&flags.logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	cmd.PersistentFlags().BoolVar(&flags.jsonLogs, "json-logs", false, "Write logs as JSON lines")

	cmd.AddCommand(newRunCmd(app))
	cmd.AddCommand(newValidateCmd(app))
	cmd.AddCommand(newMethodsCmd(app))
	cmd.AddCommand(newVersionCmd())

	return cmd
}
