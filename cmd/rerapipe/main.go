// Command rerapipe is the offline QA tool for the extraction pipeline:
// it runs the sync stages (extract, map, normalize, validate) over saved
// registry HTML pages and writes the JSON output artifacts.
//
// Artifact capture needs a live, CAPTCHA-gated browser session and is
// driven by the orchestrator, not this tool.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/openrera/rerapipe/pipeline"
	"github.com/openrera/rerapipe/taxonomy"
)

var (
	flagTaxonomy string
	flagOut      string
	flagWorkers  int
	flagVerbose  bool
)

var rootCmd = &cobra.Command{
	Use:   "rerapipe",
	Short: "rerapipe — extract structured project data from saved RERA registry pages",
}

var extractCmd = &cobra.Command{
	Use:   "extract <file.html> [more.html ...]",
	Short: "Run extraction, mapping, and quality checks over saved HTML pages",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runExtract,
}

func init() {
	extractCmd.Flags().StringVarP(&flagTaxonomy, "taxonomy", "t", "", "taxonomy resource YAML (default: embedded CG RERA taxonomy)")
	extractCmd.Flags().StringVarP(&flagOut, "out", "o", "out", "output directory for JSON artifacts")
	extractCmd.Flags().IntVarP(&flagWorkers, "workers", "w", 4, "parallel workers")
	extractCmd.Flags().BoolVarP(&flagVerbose, "verbose", "v", false, "debug logging")
	rootCmd.AddCommand(extractCmd)
}

func runExtract(cmd *cobra.Command, args []string) error {
	level := slog.LevelInfo
	if flagVerbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	tax := taxonomy.Default()
	if flagTaxonomy != "" {
		var err error
		tax, err = taxonomy.LoadFile(flagTaxonomy)
		if err != nil {
			return err
		}
	}
	logger.Info("taxonomy loaded", "version", tax.Version())

	p, err := pipeline.New(pipeline.Config{
		Taxonomy:  tax,
		OutputDir: flagOut,
		Workers:   flagWorkers,
		Logger:    logger,
	})
	if err != nil {
		return err
	}

	inputs := make([]pipeline.Input, 0, len(args))
	for _, path := range args {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}
		id := filepath.Base(path)
		inputs = append(inputs, pipeline.Input{SourceID: id, HTML: string(data)})
	}

	results := p.ProcessAll(context.Background(), inputs)

	failed := 0
	for _, res := range results {
		if res.Err != nil {
			failed++
			logger.Error("page failed", "source", res.SourceID, "error", res.Err)
			continue
		}
		logger.Info("page processed",
			"source", res.SourceID,
			"fields", res.Raw.FieldCount(),
			"previews", len(res.Project.Previews),
			"validation", len(res.Validation))
		for _, msg := range res.Validation {
			logger.Warn("validation", "source", res.SourceID, "msg", msg)
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d pages failed", failed, len(results))
	}
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
