package main

import (
	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	var connectFlag string

	rootCmd := &cobra.Command{
		Use:           "shroudctl",
		Short:         "Debug CLI for a shroud routing daemon",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVar(&connectFlag, "connect", "",
		"Connection descriptor (unix:PATH, inet:HOST:PORT, or a TOML document)")

	rootCmd.AddCommand(newExecCommand(&connectFlag))
	rootCmd.AddCommand(newStatusesCommand())

	return rootCmd
}
