package cmd

import (
	"context"
	"fmt"
	"log"

	"github.com/theirongolddev/fincast/internal/poller"
	"github.com/theirongolddev/fincast/internal/report"
	"github.com/theirongolddev/fincast/internal/source"
	"github.com/theirongolddev/fincast/internal/tui"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch the interactive dashboard",
	RunE:  runTUI,
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	src, desc, err := buildSource(cfg)
	if err != nil {
		return err
	}
	adv, err := buildAdvisor(cfg, src)
	if err != nil {
		return err
	}
	pred, err := buildPredictor(cfg)
	if err != nil {
		return err
	}

	// Force TrueColor profile so all background styling produces ANSI codes
	lipgloss.SetColorProfile(termenv.TrueColor)

	p := poller.New(src, poller.Config{Interval: cfg.RefreshInterval()})
	defer p.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var appender report.Appender
	if fs, ok := src.(*source.FileSource); ok {
		appender = fs
		if err := watchFile(ctx, fs, p); err != nil {
			log.Printf("fincast: file watch disabled: %v", err)
		}
	}

	history := openHistory()
	if history != nil {
		defer func() { _ = history.Close() }()
	}

	app := tui.NewApp(tui.Options{
		Poller:     p,
		SourceDesc: desc,
		Advisor:    adv,
		Predictor:  pred,
		Appender:   appender,
		History:    history,
		Config:     cfg,
	})
	p.Start()

	prog := tea.NewProgram(app, tea.WithAltScreen())
	if _, err := prog.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}
