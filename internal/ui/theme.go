// Package ui holds the shared terminal palette and the pipeline progress view.
package ui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/lakshaymaurya-felt/archmole/internal/oplog"
)

// ─── Palette ─────────────────────────────────────────────────────────────────

var (
	ColorPrimary   = lipgloss.AdaptiveColor{Light: "#1793d1", Dark: "#38bdf8"}
	ColorSecondary = lipgloss.AdaptiveColor{Light: "#7c3aed", Dark: "#a78bfa"}
	ColorSuccess   = lipgloss.AdaptiveColor{Light: "#16a34a", Dark: "#4ade80"}
	ColorWarning   = lipgloss.AdaptiveColor{Light: "#ca8a04", Dark: "#facc15"}
	ColorError     = lipgloss.AdaptiveColor{Light: "#dc2626", Dark: "#f87171"}
	ColorMuted     = lipgloss.AdaptiveColor{Light: "#6b7280", Dark: "#9ca3af"}
	ColorText      = lipgloss.AdaptiveColor{Light: "#111827", Dark: "#f3f4f6"}
)

// ─── Icons ───────────────────────────────────────────────────────────────────

const (
	IconPipe    = "│"
	IconBullet  = "•"
	IconChevron = "›"
	IconSuccess = "✓"
	IconError   = "✗"
	IconPending = "○"
	IconSkipped = "–"
)

// ─── Styles ──────────────────────────────────────────────────────────────────

var (
	TitleStyle   = lipgloss.NewStyle().Bold(true).Foreground(ColorPrimary)
	MutedStyle   = lipgloss.NewStyle().Foreground(ColorMuted)
	HintBarStyle = lipgloss.NewStyle().Foreground(ColorMuted).Italic(true)
	SuccessStyle = lipgloss.NewStyle().Foreground(ColorSuccess)
	ErrorStyle   = lipgloss.NewStyle().Foreground(ColorError)
)

// RenderLine styles a log line by severity for the TUI.
func RenderLine(l oplog.Line) string {
	stamp := MutedStyle.Render("[" + l.Time.Format(oplog.TimeFormat) + "]")
	var body string
	switch l.Severity {
	case oplog.Success:
		body = SuccessStyle.Render(l.Message)
	case oplog.Error:
		body = ErrorStyle.Render(l.Message)
	default:
		body = lipgloss.NewStyle().Foreground(ColorText).Render(l.Message)
	}
	return stamp + " " + body
}
