package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/solari/curator/internal/config"
	"github.com/solari/curator/internal/split"
)

func runSplit(args []string) error {
	fs := flag.NewFlagSet("split", flag.ContinueOnError)
	in := fs.String("in", "", "input JSONL file")
	outdir := fs.String("outdir", "", "output directory for train/val/test files")
	groupKey := fs.String("group-key", "", "dot-path of the grouping key (empty = row-wise)")
	seedFlag := fs.String("seed", "", "shuffle seed")
	train := fs.Float64("train", -1, "train fraction")
	val := fs.Float64("val", -1, "validation fraction")
	test := fs.Float64("test", -1, "test fraction")
	configPath := fs.String("config", "", "config file path")
	ledgerPath := fs.String("ledger", "", "run ledger database path")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *in == "" || *outdir == "" {
		return fmt.Errorf("usage: curator split --in file.jsonl --outdir dir [--group-key meta.docId] [--seed 42] [--train 0.9 --val 0.1 --test 0.0]")
	}

	cfg, err := config.ResolveConfig(config.ResolveOptions{
		ConfigPath:  *configPath,
		CLILedger:   *ledgerPath,
		CLISeed:     *seedFlag,
		CLIGroupKey: *groupKey,
	})
	if err != nil {
		return err
	}

	seed, err := strconv.ParseInt(cfg.Seed.Value, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid seed %q: %w", cfg.Seed.Value, err)
	}

	opts := split.Options{
		GroupKey: cfg.GroupKey.Value,
		Seed:     seed,
		Train:    resolveFrac(*train, cfg.TrainFrac.Value),
		Val:      resolveFrac(*val, cfg.ValFrac.Value),
		Test:     resolveFrac(*test, cfg.TestFrac.Value),
	}
	// Configuration errors must surface before any output I/O.
	if err := opts.Validate(); err != nil {
		return err
	}

	started := time.Now()
	fin, err := os.Open(*in)
	if err != nil {
		return fmt.Errorf("opening %s: %w", *in, err)
	}
	defer fin.Close()

	res, err := split.Split(fin, opts)
	if err != nil {
		return err
	}
	if err := res.WriteDir(*outdir); err != nil {
		return err
	}

	summary, _ := json.MarshalIndent(res.Summary, "", "  ")
	fmt.Fprintln(os.Stderr, string(summary))
	recordRun(cfg, "split", *in, "ok", res.Summary, started)
	return nil
}

// resolveFrac prefers an explicit CLI fraction; -1 marks "not given",
// falling back to the resolved config value.
func resolveFrac(cli float64, resolved string) float64 {
	if cli >= 0 {
		return cli
	}
	f, err := strconv.ParseFloat(resolved, 64)
	if err != nil {
		return -1 // caught by Options.Validate as a configuration error
	}
	return f
}
