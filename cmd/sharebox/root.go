// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sharebox Contributors

package main

import (
	"github.com/spf13/cobra"
)

// Global flags available to all subcommands.
var configFile string

// NewRootCmd creates the root command for the Sharebox CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sharebox",
		Short: "Sharebox - a small personal file-sharing site",
		Long: `Sharebox is a small personal file-sharing site. This binary serves
user registration, login and logout with server-side sessions and
an audit log of login attempts.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (YAML)")

	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewMigrateCmd())
	cmd.AddCommand(NewHashPasswordCmd())

	return cmd
}
