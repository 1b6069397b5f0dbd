package components

import (
	"fmt"
	"strings"
	"time"

	"github.com/theirongolddev/fincast/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
)

// StatusInfo is what the status bar reports about the poller.
type StatusInfo struct {
	State      string // loading, ready, error
	Source     string
	LastUpdate time.Time
	Interval   time.Duration
	Seq        uint64
}

// RenderStatusBar renders the bottom status bar.
func RenderStatusBar(width int, info StatusInfo) string {
	t := theme.Active

	style := lipgloss.NewStyle().
		Foreground(t.TextMuted).
		Background(t.Surface).
		Width(width)

	stateColor := t.TextMuted
	switch info.State {
	case "ready":
		stateColor = t.Green
	case "error":
		stateColor = t.Red
	case "loading":
		stateColor = t.Yellow
	}
	stateStyle := lipgloss.NewStyle().Foreground(stateColor).Background(t.Surface).Bold(true)
	mutedStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)

	left := mutedStyle.Render(" [?]help  [r]efresh  [q]uit")

	var right strings.Builder
	right.WriteString(stateStyle.Render("● " + info.State))
	if info.Source != "" {
		right.WriteString(mutedStyle.Render("  " + info.Source))
	}
	if !info.LastUpdate.IsZero() {
		right.WriteString(mutedStyle.Render(fmt.Sprintf("  #%d %s", info.Seq, info.LastUpdate.Format("15:04:05"))))
	}
	if info.Interval > 0 {
		right.WriteString(mutedStyle.Render(fmt.Sprintf("  every %s ", info.Interval)))
	}

	padding := width - lipgloss.Width(left) - lipgloss.Width(right.String())
	if padding < 0 {
		padding = 0
	}

	return style.Render(left + mutedStyle.Render(strings.Repeat(" ", padding)) + right.String())
}
