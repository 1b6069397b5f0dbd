package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/theirongolddev/fincast/internal/advisor"
	"github.com/theirongolddev/fincast/internal/config"
	"github.com/theirongolddev/fincast/internal/poller"
	"github.com/theirongolddev/fincast/internal/report"
	"github.com/theirongolddev/fincast/internal/source"
	"github.com/theirongolddev/fincast/internal/store"

	"github.com/spf13/cobra"
)

var (
	flagSource   string
	flagURL      string
	flagFile     string
	flagInterval time.Duration
	flagQuiet    bool
)

var rootCmd = &cobra.Command{
	Use:   "fincast",
	Short: "Personal finance dashboard for savings predictions",
	Long:  "Track your latest ML savings prediction: expenses, savings potential, risk and advice.",
	RunE:  runSummary,
}

// Execute is the main entry point called from main.go.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagSource, "source", "", "Prediction source: http, file or static (default from config)")
	rootCmd.PersistentFlags().StringVar(&flagURL, "url", "", "Prediction log URL for the http source")
	rootCmd.PersistentFlags().StringVar(&flagFile, "file", "", "Prediction log path for the file source")
	rootCmd.PersistentFlags().DurationVar(&flagInterval, "interval", 0, "Refresh interval (default from config, 30s)")
	rootCmd.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "Suppress progress output")

	rootCmd.Flags().StringVarP(&flagFormat, "format", "f", "text", "Output format: text, json or yaml")
}

// loadConfig reads the config file and applies command-line overrides.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return cfg, err
	}
	if flagSource != "" {
		cfg.Source.Kind = flagSource
	}
	if flagURL != "" {
		cfg.Source.URL = flagURL
	}
	if flagFile != "" {
		cfg.Source.File = flagFile
	}
	if flagInterval > 0 {
		cfg.General.RefreshSeconds = int(flagInterval.Seconds())
	}
	return cfg, nil
}

// buildSource returns the configured prediction source and a short description.
func buildSource(cfg config.Config) (source.Source, string, error) {
	switch cfg.Source.Kind {
	case config.SourceHTTP, "":
		if cfg.Source.URL == "" {
			return nil, "", errors.New("http source needs a URL (--url or [source] url)")
		}
		return source.NewHTTPSource(cfg.Source.URL), cfg.Source.URL, nil
	case config.SourceFile:
		path := cfg.Source.File
		if path == "" {
			path = config.DefaultLogFile()
		}
		return source.NewFileSource(path), path, nil
	case config.SourceStatic:
		return source.StaticSource{}, "demo data", nil
	default:
		return nil, "", fmt.Errorf("unknown source %q (want http, file or static)", cfg.Source.Kind)
	}
}

// buildAdvisor returns the chat advisor. LLM mode reads predictions from src.
func buildAdvisor(cfg config.Config, src source.Source) (advisor.Advisor, error) {
	switch cfg.Advisor.Mode {
	case config.AdvisorCanned, "":
		return advisor.CannedAdvisor{Delay: advisor.DefaultCannedDelay}, nil
	case config.AdvisorLLM:
		if cfg.Advisor.APIKey == "" {
			return nil, errors.New("llm advisor needs an API key (FINCAST_ADVISOR_API_KEY or [advisor] api_key)")
		}
		llm, err := advisor.NewOpenAI(advisor.OpenAIConfig{
			BaseURL: cfg.Advisor.BaseURL,
			Token:   cfg.Advisor.APIKey,
			Model:   cfg.Advisor.Model,
		})
		if err != nil {
			return nil, err
		}
		return advisor.NewLLMAdvisor(llm, src), nil
	default:
		return nil, fmt.Errorf("unknown advisor mode %q (want canned or llm)", cfg.Advisor.Mode)
	}
}

func buildPredictor(cfg config.Config) (report.Predictor, error) {
	switch cfg.Predictor.Mode {
	case config.PredictorSimulated, "":
		return report.SimulatedPredictor{Delay: report.DefaultSimulatedDelay}, nil
	case config.PredictorHTTP:
		url := cfg.Predictor.URL
		if url == "" {
			url = report.DefaultPredictorURL
		}
		return report.NewHTTPPredictor(url), nil
	default:
		return nil, fmt.Errorf("unknown predictor mode %q (want simulated or http)", cfg.Predictor.Mode)
	}
}

// openHistory opens the snapshot database. Failure is reported and
// history is disabled rather than aborting the command.
func openHistory() *store.History {
	h, err := store.Open(store.DefaultPath())
	if err != nil {
		if !flagQuiet {
			fmt.Fprintf(os.Stderr, "  History unavailable: %v\n", err)
		}
		return nil
	}
	return h
}

func progress(format string, args ...any) {
	if !flagQuiet {
		fmt.Fprintf(os.Stderr, format, args...)
	}
}

// watchFile refreshes p whenever the file behind fs changes, until ctx ends.
func watchFile(ctx context.Context, fs *source.FileSource, p *poller.Poller) error {
	changes, err := fs.Watch(ctx)
	if err != nil {
		return err
	}
	p.RefreshOn(changes)
	return nil
}
