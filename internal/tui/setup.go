package tui

import (
	"fmt"

	"github.com/theirongolddev/fincast/internal/config"
	"github.com/theirongolddev/fincast/internal/tui/theme"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
)

// setupValues holds the first-run wizard answers.
type setupValues struct {
	sourceKind  string
	sourceURL   string
	sourceFile  string
	advisorMode string
	theme       string
}

// newSetupForm builds the first-run wizard, prefilled from cfg.
func newSetupForm(cfg config.Config, vals *setupValues) *huh.Form {
	vals.sourceKind = cfg.Source.Kind
	vals.sourceURL = cfg.Source.URL
	vals.sourceFile = cfg.Source.File
	if vals.sourceFile == "" {
		vals.sourceFile = config.DefaultLogFile()
	}
	vals.advisorMode = cfg.Advisor.Mode
	vals.theme = cfg.Appearance.Theme

	themeOpts := make([]huh.Option[string], 0, len(theme.All))
	for _, t := range theme.All {
		themeOpts = append(themeOpts, huh.NewOption(t.Name, t.Name))
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewNote().
				Title("Welcome to fincast").
				Description("Your savings predictions, refreshed every 30 seconds.\n\nLet's set up a few things."),
			huh.NewSelect[string]().
				Title("Where should predictions be read from?").
				Options(
					huh.NewOption("Prediction backend (HTTP)", config.SourceHTTP),
					huh.NewOption("Local prediction log (file)", config.SourceFile),
					huh.NewOption("Demo data", config.SourceStatic),
				).
				Value(&vals.sourceKind),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Backend URL").
				Description("GET endpoint returning the prediction log").
				Value(&vals.sourceURL),
		).WithHideFunc(func() bool { return vals.sourceKind != config.SourceHTTP }),
		huh.NewGroup(
			huh.NewInput().
				Title("Prediction log file").
				Value(&vals.sourceFile),
		).WithHideFunc(func() bool { return vals.sourceKind != config.SourceFile }),
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Chat advisor").
				Options(
					huh.NewOption("Offline (canned replies)", config.AdvisorCanned),
					huh.NewOption("LLM (OpenAI-compatible API)", config.AdvisorLLM),
				).
				Value(&vals.advisorMode),
			huh.NewSelect[string]().
				Title("Color theme").
				Options(themeOpts...).
				Value(&vals.theme),
		),
	).WithTheme(huh.ThemeDracula()).WithShowHelp(true)
}

func (a App) updateSetupForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	form, cmd := a.setupForm.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		a.setupForm = f
	}

	switch a.setupForm.State {
	case huh.StateCompleted:
		a.opts.Config = applySetup(a.opts.Config, a.setupVals)
		theme.SetActive(a.opts.Config.Appearance.Theme)
		if err := config.Save(a.opts.Config); err != nil {
			a.settings.saveErr = fmt.Errorf("setup: %w", err)
		}
		a.setupForm = nil
		return a, nil
	case huh.StateAborted:
		a.setupForm = nil
		return a, nil
	}

	return a, cmd
}

// applySetup copies the wizard answers onto cfg.
func applySetup(cfg config.Config, vals *setupValues) config.Config {
	cfg.Source.Kind = vals.sourceKind
	switch vals.sourceKind {
	case config.SourceHTTP:
		cfg.Source.URL = vals.sourceURL
	case config.SourceFile:
		cfg.Source.File = vals.sourceFile
	}
	cfg.Advisor.Mode = vals.advisorMode
	if theme.Valid(vals.theme) {
		cfg.Appearance.Theme = vals.theme
	}
	return cfg
}

// RunSetup runs the wizard outside the dashboard and returns cfg with the
// answers applied. An aborted wizard returns huh.ErrUserAborted.
func RunSetup(cfg config.Config) (config.Config, error) {
	vals := &setupValues{}
	if err := newSetupForm(cfg, vals).Run(); err != nil {
		return cfg, err
	}
	return applySetup(cfg, vals), nil
}
