// Package ui provides terminal styling for raas CLI output.
// Uses the Ayu color theme with adaptive light/dark mode support.
package ui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/tarka-io/raas/internal/types"
)

// Ayu theme color palette
var (
	ColorPass = lipgloss.AdaptiveColor{
		Light: "#86b300",
		Dark:  "#c2d94c",
	}
	ColorWarn = lipgloss.AdaptiveColor{
		Light: "#f2ae49",
		Dark:  "#ffb454",
	}
	ColorFail = lipgloss.AdaptiveColor{
		Light: "#f07171",
		Dark:  "#f07178",
	}
	ColorMuted = lipgloss.AdaptiveColor{
		Light: "#828c99",
		Dark:  "#6c7680",
	}
	ColorAccent = lipgloss.AdaptiveColor{
		Light: "#399ee6",
		Dark:  "#59c2ff",
	}
)

var (
	PassStyle   = lipgloss.NewStyle().Foreground(ColorPass)
	WarnStyle   = lipgloss.NewStyle().Foreground(ColorWarn)
	FailStyle   = lipgloss.NewStyle().Foreground(ColorFail)
	MutedStyle  = lipgloss.NewStyle().Foreground(ColorMuted)
	AccentStyle = lipgloss.NewStyle().Foreground(ColorAccent)
)

// HeaderStyle for section headers - bold with accent color
var HeaderStyle = lipgloss.NewStyle().Bold(true).Foreground(ColorAccent)

// Status icons
const (
	IconPass = "✓"
	IconWarn = "⚠"
	IconFail = "✗"
	IconInfo = "ℹ"
)

// statusStyles maps lifecycle statuses to their display style: review work
// gets the accent color, approved is green, deprecated fades out.
var statusStyles = map[types.LifecycleStatus]lipgloss.Style{
	types.StatusDraft:      WarnStyle,
	types.StatusReview:     AccentStyle,
	types.StatusApproved:   PassStyle,
	types.StatusDeprecated: MutedStyle,
}

// RenderStatus renders a lifecycle status with its semantic color.
func RenderStatus(s types.LifecycleStatus) string {
	if style, ok := statusStyles[s]; ok {
		return style.Render(string(s))
	}
	return string(s)
}

// RenderHumanID renders a requirement's human-readable id.
func RenderHumanID(id string) string {
	return AccentStyle.Render(id)
}

// RenderError renders an error message line.
func RenderError(msg string) string {
	return FailStyle.Render(IconFail + " " + msg)
}

// RenderSuccess renders a success message line.
func RenderSuccess(msg string) string {
	return PassStyle.Render(IconPass + " " + msg)
}

// RenderWarning renders a warning message line.
func RenderWarning(msg string) string {
	return WarnStyle.Render(IconWarn + " " + msg)
}

// RenderMuted renders de-emphasized detail text.
func RenderMuted(msg string) string {
	return MutedStyle.Render(msg)
}
