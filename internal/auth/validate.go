// Copyright (c) 2025 eLISA Mobile Team
// SPDX-License-Identifier: AGPL-3.0-or-later

package auth

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/elisa-mobile/elisa-tui/internal/util"
)

// Credential validation rules.
const (
	MinPasswordLen = 8
	MinNameLen     = 2
)

// emailPattern is the client-side email shape check. The server owns real
// address validation; this only rejects obvious typos before a round trip.
var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ValidateEmail checks the basic shape of an email address.
func ValidateEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" || !emailPattern.MatchString(email) {
		return fmt.Errorf("%w: malformed email address", ErrInvalidCredentials)
	}
	return nil
}

// ValidatePassword enforces the minimum password length. Lengths count runes
// so multibyte characters are not undercounted.
func ValidatePassword(password string) error {
	if util.RuneLen(password) < MinPasswordLen {
		return fmt.Errorf("%w: password must be at least %d characters", ErrInvalidCredentials, MinPasswordLen)
	}
	return nil
}

// ValidateName enforces the minimum display-name length.
func ValidateName(name string) error {
	if util.RuneLen(strings.TrimSpace(name)) < MinNameLen {
		return fmt.Errorf("%w: name must be at least %d characters", ErrInvalidCredentials, MinNameLen)
	}
	return nil
}
