// elisa - chat client for the Lisec machine support assistant.
//
// Copyright (c) 2025 eLISA Mobile Team
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"os"

	"github.com/elisa-mobile/elisa-tui/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
