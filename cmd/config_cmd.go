// Package cmd implements the fincast CLI commands.
package cmd

import (
	"fmt"

	"github.com/theirongolddev/fincast/internal/config"
	"github.com/theirongolddev/fincast/internal/store"

	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show current configuration",
	RunE:  runConfig,
}

func init() {
	rootCmd.AddCommand(configCmd)
}

func runConfig(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	fmt.Printf("  Config file: %s\n", config.ConfigPath())
	if config.Exists() {
		fmt.Println("  Status: loaded")
	} else {
		fmt.Println("  Status: using defaults (no config file)")
	}
	fmt.Println()

	fmt.Println("  [General]")
	fmt.Printf("    Refresh interval: %s\n", cfg.RefreshInterval())
	fmt.Printf("    Record history:   %v (keep %d)\n", cfg.General.RecordHistory, cfg.General.HistoryKeep)
	fmt.Printf("    History DB:       %s\n", store.DefaultPath())
	fmt.Println()

	fmt.Println("  [Source]")
	fmt.Printf("    Kind: %s\n", cfg.Source.Kind)
	switch cfg.Source.Kind {
	case config.SourceHTTP:
		fmt.Printf("    URL:  %s\n", cfg.Source.URL)
	case config.SourceFile:
		path := cfg.Source.File
		if path == "" {
			path = config.DefaultLogFile() + " (default)"
		}
		fmt.Printf("    File: %s\n", path)
	}
	fmt.Println()

	fmt.Println("  [Advisor]")
	fmt.Printf("    Mode: %s\n", cfg.Advisor.Mode)
	if cfg.Advisor.Mode == config.AdvisorLLM {
		if cfg.Advisor.BaseURL != "" {
			fmt.Printf("    Base URL: %s\n", cfg.Advisor.BaseURL)
		}
		fmt.Printf("    Model:    %s\n", cfg.Advisor.Model)
		if cfg.Advisor.APIKey != "" {
			fmt.Printf("    API key:  %s\n", maskAPIKey(cfg.Advisor.APIKey))
		} else {
			fmt.Println("    API key:  not configured")
		}
	}
	fmt.Println()

	fmt.Println("  [Predictor]")
	fmt.Printf("    Mode: %s\n", cfg.Predictor.Mode)
	if cfg.Predictor.Mode == config.PredictorHTTP {
		fmt.Printf("    URL:  %s\n", cfg.Predictor.URL)
	}
	fmt.Println()

	fmt.Println("  [Daemon]")
	fmt.Printf("    Address:       %s\n", cfg.Daemon.Addr)
	fmt.Printf("    Events buffer: %d\n", cfg.Daemon.EventsBuffer)
	fmt.Println()

	fmt.Println("  [Appearance]")
	fmt.Printf("    Theme: %s\n", cfg.Appearance.Theme)
	fmt.Println()

	fmt.Println("  Run `fincast setup` to reconfigure.")
	return nil
}
