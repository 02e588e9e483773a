package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/solari/curator/internal/config"
	"github.com/solari/curator/internal/record"
	"github.com/solari/curator/internal/schema"
	"github.com/solari/curator/internal/stats"
)

func runStats(args []string) error {
	fs := flag.NewFlagSet("stats", flag.ContinueOnError)
	in := fs.String("in", "", "input JSONL file")
	mode := fs.String("mode", "", "target format: chat or instruction")
	labelPath := fs.String("label-path", "", "dot-path of the label for imbalance stats")
	tokenizerPath := fs.String("tokenizer", "", "tokenizer.json for token-length stats")
	out := fs.String("out", "", "JSON report destination")
	configPath := fs.String("config", "", "config file path")
	ledgerPath := fs.String("ledger", "", "run ledger database path")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *in == "" || *mode == "" || *out == "" {
		return fmt.Errorf("usage: curator stats --in file.jsonl --mode chat|instruction --out report.json [--label-path meta.label] [--tokenizer tokenizer.json]")
	}
	format, err := schema.ParseFormat(*mode)
	if err != nil {
		return err
	}

	cfg, err := config.ResolveConfig(config.ResolveOptions{
		ConfigPath:   *configPath,
		CLILedger:    *ledgerPath,
		CLITokenizer: *tokenizerPath,
	})
	if err != nil {
		return err
	}

	opts := stats.Options{Format: format, LabelPath: *labelPath}
	if cfg.Tokenizer.Value != "" {
		tc, err := stats.NewTokenCounter(cfg.Tokenizer.Value)
		if err != nil {
			return err
		}
		opts.Tokens = tc.Count
	}

	started := time.Now()
	fin, err := os.Open(*in)
	if err != nil {
		return fmt.Errorf("opening %s: %w", *in, err)
	}
	defer fin.Close()

	report, err := stats.Collect(fin, opts)
	if err != nil {
		return err
	}

	encoded, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}
	f, err := record.Create(*out)
	if err != nil {
		return err
	}
	if _, err := f.Write(append(encoded, '\n')); err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", *out, err)
	}
	if err := f.Close(); err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "{\n  \"wrote\": %q,\n  \"count\": %d\n}\n", *out, report.Count)
	recordRun(cfg, "stats", *in, "ok", map[string]any{"wrote": *out, "count": report.Count}, started)
	return nil
}
