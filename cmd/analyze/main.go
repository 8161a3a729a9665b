// Command analyze runs the cleaning and analysis pipeline over a local file
// and writes the results to stdout as JSON. It is the one-shot counterpart
// of the web server for scripted use.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"tabcli/internal/cleaning"
	"tabcli/internal/dataset"
	"tabcli/internal/stats"
)

func main() {
	var (
		skipClean = flag.Bool("raw", false, "analyze the raw table without cleaning")
		logLevel  = flag.String("log-level", "warn", "log level (debug, info, warn, error)")
	)
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "usage: %s [flags] <file.csv|file.json|file.xlsx>\n", os.Args[0])
		flag.PrintDefaults()
		os.Exit(2)
	}
	path := flag.Arg(0)

	level := slog.LevelWarn
	_ = level.UnmarshalText([]byte(*logLevel))
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	if err := run(context.Background(), logger, path, *skipClean); err != nil {
		logger.Error("analysis failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

// output is the JSON document written to stdout.
type output struct {
	File     string                  `json:"file"`
	Missing  []dataset.ColumnMissing `json:"missing"`
	Cleaning *cleaning.Report        `json:"cleaning,omitempty"`
	Analysis *stats.Analysis         `json:"analysis"`
}

func run(ctx context.Context, logger *slog.Logger, path string, skipClean bool) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open input: %w", err)
	}
	defer f.Close()

	table, err := dataset.Read(path, f)
	if err != nil {
		return err
	}

	out := output{
		File:    path,
		Missing: dataset.MissingReport(table),
	}

	if !skipClean {
		cleaned, report, err := cleaning.NewCleaner(logger).Clean(ctx, table)
		if err != nil {
			return err
		}
		table = cleaned
		out.Cleaning = report
	}

	out.Analysis = stats.NewDescriber(logger).Describe(ctx, table)

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(out)
}
