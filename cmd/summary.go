package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/theirongolddev/fincast/internal/cli"
	"github.com/theirongolddev/fincast/internal/model"
	"github.com/theirongolddev/fincast/internal/pipeline"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var flagFormat string

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Fetch the latest prediction once and print the dashboard",
	RunE:  runSummary,
}

func init() {
	summaryCmd.Flags().StringVarP(&flagFormat, "format", "f", "text", "Output format: text, json or yaml")
	rootCmd.AddCommand(summaryCmd)
}

func runSummary(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	src, desc, err := buildSource(cfg)
	if err != nil {
		return err
	}

	progress("  Fetching predictions from %s...\n", desc)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	res := pipeline.Run(ctx, src)
	if !res.OK() {
		if res.Err != nil {
			progress("  %v\n", res.Err)
		}
		return errors.New(res.Message())
	}
	v := res.View

	if cfg.General.RecordHistory {
		if h := openHistory(); h != nil {
			if _, err := h.Record(model.SnapshotOf(v, v.Hash, v.BuiltAt), v.PredictionID); err != nil {
				progress("  Could not record history: %v\n", err)
			}
			_ = h.Close()
		}
	}

	switch flagFormat {
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "yaml":
		return writeYAML(v)
	case "text", "":
		fmt.Println()
		fmt.Print(cli.RenderDashboard(v))
		return nil
	default:
		return fmt.Errorf("unknown format %q (want text, json or yaml)", flagFormat)
	}
}

// writeYAML emits v with the same keys as its JSON form.
func writeYAML(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	var generic any
	if err := json.Unmarshal(data, &generic); err != nil {
		return err
	}
	enc := yaml.NewEncoder(os.Stdout)
	enc.SetIndent(2)
	if err := enc.Encode(generic); err != nil {
		return err
	}
	return enc.Close()
}
