package tui

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/theirongolddev/fincast/internal/config"
	"github.com/theirongolddev/fincast/internal/store"
	"github.com/theirongolddev/fincast/internal/tui/components"
	"github.com/theirongolddev/fincast/internal/tui/theme"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// settingsField is one editable row. set validates and applies the input to cfg.
type settingsField struct {
	label       string
	placeholder string
	restart     bool // takes effect on next launch
	get         func(config.Config) string
	set         func(*config.Config, string) error
}

func oneOf(val string, allowed ...string) error {
	for _, a := range allowed {
		if val == a {
			return nil
		}
	}
	return fmt.Errorf("must be one of %s", strings.Join(allowed, ", "))
}

var settingsFields = []settingsField{
	{
		label:       "Theme",
		placeholder: strings.Join(theme.Names(), ", "),
		get:         func(c config.Config) string { return c.Appearance.Theme },
		set: func(c *config.Config, v string) error {
			if !theme.Valid(v) {
				return fmt.Errorf("unknown theme %q", v)
			}
			c.Appearance.Theme = v
			return nil
		},
	},
	{
		label:       "Refresh Interval",
		placeholder: "30 (seconds, minimum 2)",
		restart:     true,
		get:         func(c config.Config) string { return fmt.Sprintf("%ds", int(c.RefreshInterval().Seconds())) },
		set: func(c *config.Config, v string) error {
			n, err := strconv.Atoi(strings.TrimSuffix(v, "s"))
			if err != nil || n < 2 {
				return errors.New("interval must be a whole number of seconds, at least 2")
			}
			c.General.RefreshSeconds = n
			return nil
		},
	},
	{
		label:       "Source Kind",
		placeholder: "http, file or static",
		restart:     true,
		get:         func(c config.Config) string { return c.Source.Kind },
		set: func(c *config.Config, v string) error {
			if err := oneOf(v, config.SourceHTTP, config.SourceFile, config.SourceStatic); err != nil {
				return err
			}
			c.Source.Kind = v
			return nil
		},
	},
	{
		label:       "Source URL",
		placeholder: "http://127.0.0.1:5000/user_data.json",
		restart:     true,
		get:         func(c config.Config) string { return c.Source.URL },
		set:         func(c *config.Config, v string) error { c.Source.URL = v; return nil },
	},
	{
		label:       "Source File",
		placeholder: "/path/to/user_data.json",
		restart:     true,
		get:         func(c config.Config) string { return c.Source.File },
		set:         func(c *config.Config, v string) error { c.Source.File = v; return nil },
	},
	{
		label:       "Advisor Mode",
		placeholder: "canned or llm",
		restart:     true,
		get:         func(c config.Config) string { return c.Advisor.Mode },
		set: func(c *config.Config, v string) error {
			if err := oneOf(v, config.AdvisorCanned, config.AdvisorLLM); err != nil {
				return err
			}
			c.Advisor.Mode = v
			return nil
		},
	},
	{
		label:       "Predictor Mode",
		placeholder: "simulated or http",
		restart:     true,
		get:         func(c config.Config) string { return c.Predictor.Mode },
		set: func(c *config.Config, v string) error {
			if err := oneOf(v, config.PredictorSimulated, config.PredictorHTTP); err != nil {
				return err
			}
			c.Predictor.Mode = v
			return nil
		},
	},
}

var settingsFieldCount = len(settingsFields)

// settingsState tracks the settings tab state.
type settingsState struct {
	cursor  int
	editing bool
	input   textinput.Model
	saved   bool
	saveErr error
}

func (a App) settingsStartEdit() (tea.Model, tea.Cmd) {
	f := settingsFields[a.settings.cursor]
	a.settings.editing = true
	a.settings.saved = false
	a.settings.saveErr = nil

	ti := textinput.New()
	ti.CharLimit = 256
	ti.Width = 50
	ti.Placeholder = f.placeholder
	ti.SetValue(strings.TrimSuffix(f.get(a.opts.Config), "s"))
	ti.Focus()
	a.settings.input = ti
	return a, textinput.Blink
}

func (a App) updateSettingsInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		a.settings.editing = false
		a = a.settingsSave(strings.TrimSpace(a.settings.input.Value()))
		return a, nil
	case "esc":
		a.settings.editing = false
		return a, nil
	}

	var cmd tea.Cmd
	a.settings.input, cmd = a.settings.input.Update(msg)
	return a, cmd
}

// settingsSave applies val to the selected field and writes the config file.
// Invalid input leaves the config untouched.
func (a App) settingsSave(val string) App {
	cfg := a.opts.Config
	f := settingsFields[a.settings.cursor]
	if err := f.set(&cfg, val); err != nil {
		a.settings.saveErr = err
		a.settings.saved = false
		return a
	}
	if err := config.Save(cfg); err != nil {
		a.settings.saveErr = err
		a.settings.saved = false
		return a
	}
	a.opts.Config = cfg
	theme.SetActive(cfg.Appearance.Theme)
	a.settings.saveErr = nil
	a.settings.saved = true
	return a
}

func (a App) renderSettingsTab(cw int) string {
	t := theme.Active
	cfg := a.opts.Config

	labelStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	valueStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	selectedStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.SurfaceBright).Bold(true)
	selectedLabelStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.SurfaceBright).Bold(true)
	accentStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.Surface)
	greenStyle := lipgloss.NewStyle().Foreground(t.GreenBright).Background(t.Surface)
	markerStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.SurfaceBright)

	var formBody strings.Builder
	for i, f := range settingsFields {
		value := f.get(cfg)
		if value == "" {
			value = "(not set)"
		}
		if f.restart {
			value += " ↻"
		}

		if a.settings.editing && i == a.settings.cursor {
			formBody.WriteString(markerStyle.Render("▸ "))
			formBody.WriteString(accentStyle.Render(fmt.Sprintf("%-18s ", f.label)))
			formBody.WriteString(a.settings.input.View())
			formBody.WriteString("\n")
			continue
		}

		if i == a.settings.cursor {
			marker := markerStyle.Render("▸ ")
			label := selectedLabelStyle.Render(fmt.Sprintf("%-18s ", f.label+":"))
			val := selectedStyle.Render(value)
			formBody.WriteString(marker + label + val)
			padLen := components.CardInnerWidth(cw) - lipgloss.Width(marker) - lipgloss.Width(label) - lipgloss.Width(val)
			if padLen > 0 {
				formBody.WriteString(lipgloss.NewStyle().Background(t.SurfaceBright).Render(strings.Repeat(" ", padLen)))
			}
		} else {
			formBody.WriteString(lipgloss.NewStyle().Background(t.Surface).Render("  "))
			formBody.WriteString(labelStyle.Render(fmt.Sprintf("%-18s ", f.label+":")))
			formBody.WriteString(valueStyle.Render(value))
		}
		formBody.WriteString("\n")
	}

	if a.settings.saveErr != nil {
		warnStyle := lipgloss.NewStyle().Foreground(t.Orange).Background(t.Surface)
		formBody.WriteString("\n")
		formBody.WriteString(warnStyle.Render(fmt.Sprintf("Save failed: %s", a.settings.saveErr)))
	} else if a.settings.saved {
		formBody.WriteString("\n")
		formBody.WriteString(greenStyle.Render("Saved!"))
	}

	formBody.WriteString("\n")
	formBody.WriteString(labelStyle.Render("[j/k] navigate  [Enter] edit  [Esc] cancel  ↻ applies on restart"))

	historyPath := "(disabled)"
	if a.opts.History != nil {
		historyPath = store.DefaultPath()
	}

	var infoBody strings.Builder
	infoBody.WriteString(labelStyle.Render("Config file:  ") + valueStyle.Render(config.ConfigPath()) + "\n")
	infoBody.WriteString(labelStyle.Render("History DB:   ") + valueStyle.Render(historyPath) + "\n")
	infoBody.WriteString(labelStyle.Render("Export dir:   ") + valueStyle.Render(a.opts.ExportDir) + "\n")
	infoBody.WriteString(labelStyle.Render("Live source:  ") + valueStyle.Render(a.opts.SourceDesc))

	var b strings.Builder
	b.WriteString(components.ContentCard("Settings", formBody.String(), cw))
	b.WriteString("\n")
	b.WriteString(components.ContentCard("General", infoBody.String(), cw))
	return b.String()
}
