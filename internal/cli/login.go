// Copyright (c) 2025 eLISA Mobile Team
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"errors"
	"fmt"

	"github.com/peterh/liner"
	"github.com/spf13/cobra"

	"github.com/elisa-mobile/elisa-tui/internal/auth"
	"github.com/elisa-mobile/elisa-tui/internal/config"
	"github.com/elisa-mobile/elisa-tui/internal/storage"
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in and store a session",
	RunE:  runLogin,
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Clear the stored session",
	RunE:  runLogout,
}

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create an account and sign in",
	RunE:  runRegister,
}

func runLogin(cmd *cobra.Command, args []string) error {
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

	line := liner.NewLiner()
	defer line.Close()

	email, err := line.Prompt("Email: ")
	if err != nil {
		return err
	}
	password, err := line.PasswordPrompt("Password: ")
	if err != nil {
		return err
	}

	mgr := auth.NewManager(prefs, cfg.Auth.DemoMode)
	user, err := mgr.Login(email, password)
	if errors.Is(err, auth.ErrAuthUnavailable) {
		return fmt.Errorf("login is unavailable: %w (enable auth.demo_mode for evaluation use)", err)
	}
	if err != nil {
		return err
	}

	fmt.Println(infoStyle.Render("Signed in as " + user.Email))
	return nil
}

func runRegister(cmd *cobra.Command, args []string) error {
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

	line := liner.NewLiner()
	defer line.Close()

	name, err := line.Prompt("Name: ")
	if err != nil {
		return err
	}
	email, err := line.Prompt("Email: ")
	if err != nil {
		return err
	}
	password, err := line.PasswordPrompt("Password: ")
	if err != nil {
		return err
	}

	mgr := auth.NewManager(prefs, cfg.Auth.DemoMode)
	user, err := mgr.Register(name, email, password)
	if errors.Is(err, auth.ErrAuthUnavailable) {
		return fmt.Errorf("registration is unavailable: %w (enable auth.demo_mode for evaluation use)", err)
	}
	if err != nil {
		return err
	}

	fmt.Println(infoStyle.Render("Welcome, " + user.Name + " - signed in as " + user.Email))
	return nil
}

func runLogout(cmd *cobra.Command, args []string) error {
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

	mgr := auth.NewManager(prefs, cfg.Auth.DemoMode)
	if err := mgr.Logout(); err != nil {
		return err
	}
	fmt.Println(infoStyle.Render("Signed out."))
	return nil
}
