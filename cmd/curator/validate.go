package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/solari/curator/internal/config"
	"github.com/solari/curator/internal/record"
	"github.com/solari/curator/internal/schema"
)

func runValidate(args []string) error {
	fs := flag.NewFlagSet("validate", flag.ContinueOnError)
	in := fs.String("in", "", "input JSONL file")
	mode := fs.String("mode", "", "target format: chat or instruction")
	requireMeta := fs.String("require-meta", "", "dot-path that must resolve to a non-blank value")
	out := fs.String("out", "", "accepted rows destination (default stdout)")
	outBad := fs.String("out-bad", "", "rejected rows destination")
	configPath := fs.String("config", "", "config file path")
	ledgerPath := fs.String("ledger", "", "run ledger database path")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *in == "" || *mode == "" {
		return fmt.Errorf("usage: curator validate --in file.jsonl --mode chat|instruction [--require-meta meta.userId] [--out ok.jsonl] [--out-bad rejects.jsonl]")
	}
	format, err := schema.ParseFormat(*mode)
	if err != nil {
		return err
	}

	cfg, err := config.ResolveConfig(config.ResolveOptions{ConfigPath: *configPath, CLILedger: *ledgerPath})
	if err != nil {
		return err
	}

	started := time.Now()
	fin, err := os.Open(*in)
	if err != nil {
		return fmt.Errorf("opening %s: %w", *in, err)
	}
	defer fin.Close()

	var accepted io.Writer = os.Stdout
	if *out != "" {
		f, err := record.Create(*out)
		if err != nil {
			return err
		}
		defer f.Close()
		accepted = f
	}

	var rejects io.Writer
	if *outBad != "" {
		f, err := record.Create(*outBad)
		if err != nil {
			return err
		}
		defer f.Close()
		rejects = f
	}

	counters, err := schema.Run(fin, format, *requireMeta, accepted, rejects)
	if err != nil {
		return err
	}

	summary, _ := json.MarshalIndent(counters, "", "  ")
	fmt.Fprintln(os.Stderr, string(summary))
	recordRun(cfg, "validate", *in, "ok", counters, started)
	return nil
}
