// Package tui provides the interactive Bubble Tea dashboard for fincast.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/theirongolddev/fincast/internal/advisor"
	"github.com/theirongolddev/fincast/internal/config"
	"github.com/theirongolddev/fincast/internal/model"
	"github.com/theirongolddev/fincast/internal/pipeline"
	"github.com/theirongolddev/fincast/internal/poller"
	"github.com/theirongolddev/fincast/internal/report"
	"github.com/theirongolddev/fincast/internal/store"
	"github.com/theirongolddev/fincast/internal/tui/components"
	"github.com/theirongolddev/fincast/internal/tui/theme"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
)

// Options wires the dashboard to its collaborators. Only Poller is required.
type Options struct {
	Poller     *poller.Poller
	SourceDesc string
	Advisor    advisor.Advisor
	Predictor  report.Predictor
	Appender   report.Appender // nil disables saving reports to the log
	History    *store.History  // nil disables the savings history
	Config     config.Config
	ExportDir  string
}

// PollMsg carries one applied poller update.
type PollMsg struct {
	Update poller.Update
}

// pollClosedMsg is sent once the poller subscription ends.
type pollClosedMsg struct{}

// HistoryMsg carries reloaded savings history.
type HistoryMsg struct {
	Snapshots []model.Snapshot
	Err       error
}

const (
	tabDashboard = iota
	tabSavings
	tabChat
	tabReport
	tabSettings
)

// App is the root Bubble Tea model.
type App struct {
	opts Options

	// Poller state
	current     poller.Update
	updates     <-chan poller.Update
	unsubscribe func()

	// Savings history
	snapshots  []model.Snapshot
	historyErr error

	// UI state
	width     int
	height    int
	activeTab int
	showHelp  bool
	spinner   spinner.Model

	// Per-tab state
	chat     chatState
	report   reportState
	settings settingsState

	// First-run setup (huh form)
	setupForm *huh.Form
	setupVals *setupValues
}

const (
	minTerminalWidth = 80
	compactWidth     = 120
	maxContentWidth  = 180

	minContentHeight = 5
)

// NewApp creates the TUI model and subscribes to the poller. The caller
// starts the poller; quitting the program stops it.
func NewApp(opts Options) App {
	if opts.Advisor == nil {
		opts.Advisor = advisor.CannedAdvisor{Delay: advisor.DefaultCannedDelay}
	}
	if opts.Predictor == nil {
		opts.Predictor = report.SimulatedPredictor{Delay: report.DefaultSimulatedDelay}
	}
	if opts.ExportDir == "" {
		opts.ExportDir = config.DataDir()
	}
	theme.SetActive(opts.Config.Appearance.Theme)

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(theme.Active.Accent).Background(theme.Active.Surface)

	updates, unsubscribe := opts.Poller.Subscribe(8)

	a := App{
		opts:        opts,
		current:     opts.Poller.Current(),
		updates:     updates,
		unsubscribe: unsubscribe,
		spinner:     sp,
		chat:        newChatState(),
		report:      newReportState(),
		setupVals:   &setupValues{},
	}
	if !config.Exists() {
		a.setupForm = newSetupForm(opts.Config, a.setupVals)
	}
	return a
}

// Init implements tea.Model.
func (a App) Init() tea.Cmd {
	cmds := []tea.Cmd{
		tea.EnableMouseCellMotion,
		waitForUpdate(a.updates),
		a.spinner.Tick,
		loadHistoryCmd(a.opts.History),
	}
	if a.setupForm != nil {
		cmds = append(cmds, a.setupForm.Init())
	}
	if a.report.form != nil {
		cmds = append(cmds, a.report.form.Init())
	}
	return tea.Batch(cmds...)
}

// waitForUpdate blocks until the poller applies the next result.
func waitForUpdate(ch <-chan poller.Update) tea.Cmd {
	return func() tea.Msg {
		u, ok := <-ch
		if !ok {
			return pollClosedMsg{}
		}
		return PollMsg{Update: u}
	}
}

// recordAndLoadCmd stores a ready view in the history and reloads it.
func recordAndLoadCmd(h *store.History, cfg config.Config, u poller.Update) tea.Cmd {
	if h == nil {
		return nil
	}
	return func() tea.Msg {
		if cfg.General.RecordHistory && u.Result.OK() {
			v := u.Result.View
			added, err := h.Record(model.SnapshotOf(v, v.Hash, u.At), v.PredictionID)
			if err != nil {
				return HistoryMsg{Err: err}
			}
			if added && cfg.General.HistoryKeep > 0 {
				if _, err := h.Prune(cfg.General.HistoryKeep); err != nil {
					return HistoryMsg{Err: err}
				}
			}
		}
		return loadHistory(h)
	}
}

func loadHistoryCmd(h *store.History) tea.Cmd {
	if h == nil {
		return nil
	}
	return func() tea.Msg { return loadHistory(h) }
}

func loadHistory(h *store.History) HistoryMsg {
	snaps, err := h.Recent(0)
	return HistoryMsg{Snapshots: snaps, Err: err}
}

// quit stops polling before leaving the program.
func (a App) quit() (tea.Model, tea.Cmd) {
	a.unsubscribe()
	a.opts.Poller.Stop()
	return a, tea.Quit
}

// Update implements tea.Model.
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		if a.setupForm != nil {
			a.setupForm = a.setupForm.WithWidth(msg.Width).WithHeight(msg.Height)
		}
		if a.report.form != nil {
			a.report.form = a.report.form.WithWidth(a.contentWidth() - 4)
		}
		return a, nil

	case PollMsg:
		a.current = msg.Update
		cmds := []tea.Cmd{waitForUpdate(a.updates)}
		if msg.Update.State == poller.Ready {
			cmds = append(cmds, recordAndLoadCmd(a.opts.History, a.opts.Config, msg.Update))
		}
		return a, tea.Batch(cmds...)

	case pollClosedMsg:
		return a, nil

	case HistoryMsg:
		a.historyErr = msg.Err
		if msg.Err == nil {
			a.snapshots = msg.Snapshots
		}
		return a, nil

	case chatReplyMsg:
		a.chat.applyReply(msg)
		return a, nil

	case reportDoneMsg, reportExportMsg, reportSavedMsg:
		return a.updateReportResult(msg)

	case spinner.TickMsg:
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd

	case tea.MouseMsg:
		if a.showHelp || a.setupForm != nil {
			return a, nil
		}
		if msg.Button == tea.MouseButtonLeft && msg.Action == tea.MouseActionPress && msg.Y == 0 {
			if tab := a.tabAtX(msg.X); tab >= 0 {
				a.activeTab = tab
			}
		}
		return a, nil

	case tea.KeyMsg:
		return a.updateKey(msg)
	}

	// Forward unhandled messages (cursor blinks, etc.) to active forms.
	if a.setupForm != nil {
		return a.updateSetupForm(msg)
	}
	if a.activeTab == tabReport && a.report.form != nil {
		return a.updateReportForm(msg)
	}
	if a.activeTab == tabChat && a.chat.typing {
		var cmd tea.Cmd
		a.chat.input, cmd = a.chat.input.Update(msg)
		return a, cmd
	}
	return a, nil
}

func (a App) updateKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	if key == "ctrl+c" {
		return a.quit()
	}

	// First-run setup wizard intercepts all keys
	if a.setupForm != nil {
		return a.updateSetupForm(msg)
	}

	// Modal inputs own the keyboard while active
	if a.activeTab == tabSettings && a.settings.editing {
		return a.updateSettingsInput(msg)
	}
	if a.activeTab == tabChat && a.chat.typing {
		return a.updateChatInput(msg)
	}
	if a.activeTab == tabReport && a.report.form != nil {
		if key == "esc" {
			a.activeTab = tabDashboard
			return a, nil
		}
		return a.updateReportForm(msg)
	}

	if key == "?" {
		a.showHelp = !a.showHelp
		return a, nil
	}
	if a.showHelp {
		a.showHelp = false
		return a, nil
	}

	// Per-tab keybindings
	switch a.activeTab {
	case tabChat:
		if m, cmd, handled := a.chatKey(key); handled {
			return m, cmd
		}
	case tabReport:
		if m, cmd, handled := a.reportKey(key); handled {
			return m, cmd
		}
	case tabSettings:
		switch key {
		case "j", "down":
			if a.settings.cursor < settingsFieldCount-1 {
				a.settings.cursor++
			}
			return a, nil
		case "k", "up":
			if a.settings.cursor > 0 {
				a.settings.cursor--
			}
			return a, nil
		case "enter":
			return a.settingsStartEdit()
		}
	}

	switch key {
	case "q":
		return a.quit()
	case "r":
		a.opts.Poller.Refresh()
		return a, nil
	case "left", "shift+tab":
		a.activeTab = (a.activeTab - 1 + len(components.Tabs)) % len(components.Tabs)
		return a, nil
	case "right", "tab":
		a.activeTab = (a.activeTab + 1) % len(components.Tabs)
		return a, nil
	}

	if len(msg.Runes) == 1 {
		if idx := components.TabIdxByKey(msg.Runes[0]); idx >= 0 {
			a.activeTab = idx
		}
	}
	return a, nil
}

func (a App) contentWidth() int {
	cw := a.width
	if cw > maxContentWidth {
		cw = maxContentWidth
	}
	return cw
}

func (a App) isCompactLayout() bool {
	return a.contentWidth() < compactWidth
}

// View implements tea.Model.
func (a App) View() string {
	if a.width == 0 {
		return ""
	}

	if a.width < minTerminalWidth {
		return a.viewTooNarrow()
	}

	if a.setupForm != nil {
		return a.setupForm.View()
	}

	if a.showHelp {
		return a.viewHelp()
	}

	return a.viewMain()
}

func (a App) viewTooNarrow() string {
	h := a.height
	if h < 5 {
		h = 5
	}

	msg := fmt.Sprintf(
		"\n  Terminal too narrow (%d cols)\n\n  fincast needs at least %d columns.\n",
		a.width,
		minTerminalWidth,
	)

	return padHeight(truncateHeight(msg, h), h)
}

func (a App) viewHelp() string {
	t := theme.Active

	cardStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.BorderAccent).
		Background(t.Surface).
		Padding(1, 3)

	titleStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.Surface).Bold(true)
	sectionStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)
	keyStyle := lipgloss.NewStyle().Foreground(t.Cyan).Background(t.Surface).Bold(true)
	descStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	dimStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)

	var b strings.Builder
	b.WriteString(titleStyle.Render("◈ Keyboard Shortcuts"))
	b.WriteString("\n\n")

	sections := []struct {
		name     string
		bindings []struct{ key, desc string }
	}{
		{"Navigation", []struct{ key, desc string }{
			{"d s c p x", "Jump to tab"},
			{"← → Tab", "Previous / Next tab"},
			{"j k", "Move in lists"},
		}},
		{"Dashboard", []struct{ key, desc string }{
			{"r", "Refresh now"},
		}},
		{"Chat", []struct{ key, desc string }{
			{"i Enter", "Type a question"},
			{"1-4", "Ask a suggested question"},
		}},
		{"Report", []struct{ key, desc string }{
			{"n", "New report"},
			{"e", "Export PDF and chart"},
			{"a", "Save to prediction log"},
		}},
		{"General", []struct{ key, desc string }{
			{"Esc", "Back / Cancel"},
			{"?", "Toggle help"},
			{"q", "Quit"},
		}},
	}
	for i, sec := range sections {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(sectionStyle.Render(sec.name))
		b.WriteString("\n")
		for _, bind := range sec.bindings {
			fmt.Fprintf(&b, "  %s  %s\n",
				keyStyle.Render(fmt.Sprintf("%-10s", bind.key)),
				descStyle.Render(bind.desc))
		}
	}

	b.WriteString("\n")
	b.WriteString(dimStyle.Render("Press any key to close"))

	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, cardStyle.Render(b.String()),
		lipgloss.WithWhitespaceBackground(t.Background))
}

func (a App) viewMain() string {
	t := theme.Active
	w := a.width
	cw := a.contentWidth()
	h := a.height

	header := components.RenderTabBar(a.activeTab, w)
	statusBar := components.RenderStatusBar(w, components.StatusInfo{
		State:      a.current.State.String(),
		Source:     a.opts.SourceDesc,
		LastUpdate: a.current.At,
		Interval:   a.opts.Poller.Interval(),
		Seq:        a.current.Seq,
	})

	contentH := h - lipgloss.Height(header) - lipgloss.Height(statusBar)
	if contentH < minContentHeight {
		contentH = minContentHeight
	}

	var content string
	switch a.activeTab {
	case tabDashboard:
		content = a.renderDashboardTab(cw, contentH)
	case tabSavings:
		content = a.renderSavingsTab(cw)
	case tabChat:
		content = a.renderChatTab(cw, contentH)
	case tabReport:
		content = a.renderReportTab(cw)
	case tabSettings:
		content = a.renderSettingsTab(cw)
	}

	content = padHeight(truncateHeight(content, contentH), contentH)
	content = fillLinesWithBackground(content, cw, t.Background)
	content = lipgloss.Place(w, contentH, lipgloss.Center, lipgloss.Top, content,
		lipgloss.WithWhitespaceBackground(t.Background))

	output := lipgloss.JoinVertical(lipgloss.Left, header, content, statusBar)
	return lipgloss.Place(w, h, lipgloss.Left, lipgloss.Top, output,
		lipgloss.WithWhitespaceBackground(t.Background))
}

// ─── Helpers ────────────────────────────────────────────────────

// currentView returns the dashboard view model, or nil unless ready.
func (a App) currentView() *model.ViewModel {
	if a.current.State != poller.Ready {
		return nil
	}
	return a.current.Result.View
}

// errorMessage returns the user-facing error line for the error state.
func (a App) errorMessage() string {
	if a.current.Result.Kind == pipeline.Ready {
		return ""
	}
	return a.current.Result.Message()
}

func withTimeout(d time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), d)
}

func truncStr(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit-1]) + "…"
}

func truncateHeight(s string, limit int) string {
	lines := strings.Split(s, "\n")
	if len(lines) <= limit {
		return s
	}
	return strings.Join(lines[:limit], "\n")
}

func padHeight(s string, h int) string {
	lines := strings.Split(s, "\n")
	if len(lines) >= h {
		return s
	}
	return s + strings.Repeat("\n", h-len(lines))
}

// fillLinesWithBackground pads each line to width w with background color.
func fillLinesWithBackground(s string, w int, bg lipgloss.Color) string {
	lines := strings.Split(s, "\n")

	var result strings.Builder
	for i, line := range lines {
		placed := lipgloss.PlaceHorizontal(w, lipgloss.Left, line,
			lipgloss.WithWhitespaceBackground(bg))
		result.WriteString(placed)
		if i < len(lines)-1 {
			result.WriteString("\n")
		}
	}
	return result.String()
}

// ─── Mouse Support ──────────────────────────────────────────────

// tabAtX returns the tab index at the given X coordinate, or -1 if none.
// Hitboxes are derived from the same width rules used by RenderTabBar.
func (a App) tabAtX(x int) int {
	pos := 0
	for i, tab := range components.Tabs {
		tabW := components.TabVisualWidth(tab, i == a.activeTab)
		if x >= pos && x < pos+tabW {
			return i
		}
		pos += tabW

		// Separator is one column between tabs.
		if i < len(components.Tabs)-1 {
			pos++
		}
	}
	return -1
}
