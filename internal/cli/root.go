// Copyright (c) 2025 eLISA Mobile Team
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli implements the elisa command tree.
package cli

import (
	"github.com/spf13/cobra"
)

// Version is the client version, stamped at build time.
var Version = "1.0.0"

var rootCmd = &cobra.Command{
	Use:           "elisa",
	Short:         "eLISA - machine maintenance and support assistant",
	Long:          "eLISA is a chat client for the Lisec machine support assistant.\nIt answers maintenance, spare-part and diagnostics questions, online\nthrough the remote knowledge service and offline from a local answer set.",
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: false,
}

func init() {
	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(registerCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(backupCmd)
}

// Execute runs the command tree.
func Execute() error {
	return rootCmd.Execute()
}
