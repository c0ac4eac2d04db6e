// Copyright (c) 2025 eLISA Mobile Team
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
)

// =============================================================================
// STYLES
// =============================================================================

var (
	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#22D3EE")). // cyan
			Bold(true)

	assistantStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#A78BFA")). // purple
			Bold(true)

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#9CA3AF")) // gray

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FBBF24")) // amber

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F87171")) // red

	sourceStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#34D399")). // emerald
			Italic(true)
)

// renderMarkdown renders assistant text through glamour. On renderer failure
// the raw text comes back unchanged; a styling problem must never eat a
// reply.
func renderMarkdown(text string, enabled bool) string {
	if !enabled {
		return text
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(80),
	)
	if err != nil {
		return text
	}
	out, err := r.Render(text)
	if err != nil {
		return text
	}
	return out
}
