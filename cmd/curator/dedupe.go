package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/solari/curator/internal/config"
	"github.com/solari/curator/internal/dedupe"
	"github.com/solari/curator/internal/record"
)

func runDedupe(args []string) error {
	fs := flag.NewFlagSet("dedupe", flag.ContinueOnError)
	in := fs.String("in", "", "input JSONL file")
	out := fs.String("out", "", "output JSONL file")
	configPath := fs.String("config", "", "config file path")
	ledgerPath := fs.String("ledger", "", "run ledger database path")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *in == "" || *out == "" {
		return fmt.Errorf("usage: curator dedupe --in file.jsonl --out file.jsonl")
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

	fout, err := record.Create(*out)
	if err != nil {
		return err
	}

	counters, err := dedupe.Dedupe(fin, fout)
	if cerr := fout.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return err
	}

	summary, _ := json.Marshal(counters)
	fmt.Fprintf(os.Stderr, "dedupe: %s\n", summary)
	recordRun(cfg, "dedupe", *in, "ok", counters, started)
	return nil
}
