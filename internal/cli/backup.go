// Copyright (c) 2025 eLISA Mobile Team
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/elisa-mobile/elisa-tui/internal/config"
	"github.com/elisa-mobile/elisa-tui/internal/storage"
)

var backupCmd = &cobra.Command{
	Use:   "backup [file]",
	Short: "Write a JSON backup of stored preferences",
	Long:  "Writes auth and preference entries to a JSON file for support bundles.\nConversation messages are never stored, so none are exported.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runBackup,
}

func runBackup(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	dataDir, err := cfg.DataDir()
	if err != nil {
		return err
	}
	prefs, err := storage.Open(dataDir)
	if err != nil {
		return err
	}
	defer prefs.Close()

	path := "elisa-preferences.json"
	if len(args) == 1 {
		path = args[0]
	}
	if err := prefs.Export(path); err != nil {
		return err
	}
	fmt.Println(infoStyle.Render("Wrote " + path))
	return nil
}
