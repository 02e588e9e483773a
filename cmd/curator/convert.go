package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/solari/curator/internal/config"
	"github.com/solari/curator/internal/convert"
	"github.com/solari/curator/internal/record"
	"github.com/solari/curator/internal/schema"
)

func runConvert(args []string) error {
	fs := flag.NewFlagSet("convert", flag.ContinueOnError)
	in := fs.String("in", "", "input JSONL file")
	out := fs.String("out", "", "output JSONL file")
	mode := fs.String("mode", "", "target format: chat or instruction")
	configPath := fs.String("config", "", "config file path")
	ledgerPath := fs.String("ledger", "", "run ledger database path")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *in == "" || *out == "" || *mode == "" {
		return fmt.Errorf("usage: curator convert --in file.jsonl --out file.jsonl --mode chat|instruction")
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

	fout, err := record.Create(*out)
	if err != nil {
		return err
	}

	counters, err := convert.Run(fin, fout, format)
	if cerr := fout.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return err
	}

	summary, _ := json.Marshal(counters)
	fmt.Fprintf(os.Stderr, "converted: %s\n", summary)
	recordRun(cfg, "convert", *in, "ok", counters, started)
	return nil
}
