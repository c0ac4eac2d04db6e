// Copyright (c) 2025 eLISA Mobile Team
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package auth provides placeholder authentication for elisa.
//
// The real identity backend is not integrated yet. Demo mode - gated by
// configuration, never unconditional - accepts any syntactically valid
// credentials and persists a demo token through the preference store. With
// demo mode off every login fails with ErrAuthUnavailable, so nothing can
// silently pretend the integration exists.
package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/elisa-mobile/elisa-tui/internal/storage"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrAuthUnavailable is returned when demo mode is off: there is no real
	// authentication backend to talk to.
	ErrAuthUnavailable = errors.New("authentication backend not configured")

	// ErrInvalidCredentials is returned for syntactically invalid input.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrNotAuthenticated is returned when no session is stored.
	ErrNotAuthenticated = errors.New("not authenticated")
)

// =============================================================================
// USER TYPE
// =============================================================================

// User is the authenticated account.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// =============================================================================
// MANAGER
// =============================================================================

// Manager handles login state backed by the preference store.
type Manager struct {
	store    *storage.Store
	demoMode bool
}

// NewManager creates an auth manager. demoMode comes from configuration.
func NewManager(store *storage.Store, demoMode bool) *Manager {
	return &Manager{store: store, demoMode: demoMode}
}

// Login authenticates with email and password.
func (m *Manager) Login(email, password string) (*User, error) {
	if err := ValidateEmail(email); err != nil {
		return nil, err
	}
	if err := ValidatePassword(password); err != nil {
		return nil, err
	}
	return m.createSession(email, "Demo User")
}

// Register creates an account with a display name and signs it in.
func (m *Manager) Register(name, email, password string) (*User, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}
	if err := ValidateEmail(email); err != nil {
		return nil, err
	}
	if err := ValidatePassword(password); err != nil {
		return nil, err
	}
	return m.createSession(email, strings.TrimSpace(name))
}

// createSession mints and persists a demo session. Credentials are already
// validated by the caller.
func (m *Manager) createSession(email, name string) (*User, error) {
	if !m.demoMode {
		return nil, ErrAuthUnavailable
	}

	now := time.Now()
	user := &User{
		ID:        "demo-user-" + uuid.NewString(),
		Email:     email,
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}
	token := fmt.Sprintf("demo-token-%d", now.UnixMilli())

	if err := m.store.Set(storage.KeyAuthToken, token); err != nil {
		return nil, err
	}
	if err := m.store.SetJSON(storage.KeyUserData, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Logout clears the stored session.
func (m *Manager) Logout() error {
	if err := m.store.Delete(storage.KeyAuthToken); err != nil {
		return err
	}
	return m.store.Delete(storage.KeyUserData)
}

// Token returns the stored auth token.
func (m *Manager) Token() (string, error) {
	token, err := m.store.Get(storage.KeyAuthToken)
	if errors.Is(err, storage.ErrKeyNotFound) {
		return "", ErrNotAuthenticated
	}
	return token, err
}

// CurrentUser returns the stored account.
func (m *Manager) CurrentUser() (*User, error) {
	var user User
	err := m.store.GetJSON(storage.KeyUserData, &user)
	if errors.Is(err, storage.ErrKeyNotFound) {
		return nil, ErrNotAuthenticated
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// IsAuthenticated reports whether a session is stored.
func (m *Manager) IsAuthenticated() bool {
	_, err := m.Token()
	return err == nil
}
