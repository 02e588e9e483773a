package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/solari/curator/internal/config"
	"github.com/solari/curator/internal/policy"
	"github.com/solari/curator/internal/record"
)

func runRetrain(args []string) (bool, error) {
	fs := flag.NewFlagSet("retrain", flag.ContinueOnError)
	results := fs.String("results", "", "evaluation results JSON file")
	out := fs.String("out", "", "harvest destination (appended JSONL)")
	minPass := fs.String("min-pass", "", "minimum acceptable pass rate")
	maxRepair := fs.String("max-repair", "", "maximum acceptable repaired rate")
	configPath := fs.String("config", "", "config file path")
	ledgerPath := fs.String("ledger", "", "run ledger database path")
	if err := fs.Parse(args); err != nil {
		return false, err
	}
	if *results == "" {
		return false, fmt.Errorf("usage: curator retrain --results results.json [--out harvest.jsonl] [--min-pass 0.95] [--max-repair 0.10]")
	}

	cfg, err := config.ResolveConfig(config.ResolveOptions{ConfigPath: *configPath, CLILedger: *ledgerPath})
	if err != nil {
		return false, err
	}

	thresholds, err := resolveThresholds(*minPass, *maxRepair, cfg)
	if err != nil {
		return false, err
	}

	started := time.Now()
	summary, err := policy.LoadSummary(*results)
	if err != nil {
		return false, err
	}

	decision := policy.Decide(summary, thresholds)
	if !decision.Triggered {
		fmt.Println("OK: thresholds satisfied. No retrain triggered.")
		recordRun(cfg, "retrain", *results, "no-trigger", decision, started)
		return false, nil
	}

	fmt.Printf("RETRAIN TRIGGERED: %s\n", strings.Join(decision.Reasons, ", "))
	snapshot, _ := json.Marshal(map[string]any{
		"passRate":     summary.PassRate,
		"repairedRate": summary.RepairedRate,
		"taxonomy":     summary.Taxonomy,
	})
	fmt.Printf("Snapshot: %s\n", snapshot)

	if *out != "" {
		f, err := record.OpenAppend(*out)
		if err != nil {
			return true, err
		}
		n, err := policy.Harvest(summary, f, time.Now())
		if cerr := f.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			return true, err
		}
		decision.Harvested = n
		fmt.Printf("harvested_failures=%d -> %s\n", n, *out)

		fmt.Println()
		fmt.Println("Suggested next commands (edit paths):")
		fmt.Printf("  curator validate --in %s --mode chat --out-bad rejects.jsonl\n", *out)
		fmt.Printf("  curator dedupe --in %s --out auto_failures.dedup.jsonl\n", *out)
		fmt.Printf("  curator split --in auto_failures.dedup.jsonl --outdir auto_splits --group-key meta.name --seed %s\n", cfg.Seed.Value)
	}

	recordRun(cfg, "retrain", *results, "triggered", decision, started)
	return true, nil
}

func resolveThresholds(minPass, maxRepair string, cfg config.ResolvedConfig) (policy.Thresholds, error) {
	var t policy.Thresholds
	var err error

	pick := func(cli, resolved string) string {
		if strings.TrimSpace(cli) != "" {
			return cli
		}
		return resolved
	}
	t.MinPass, err = strconv.ParseFloat(pick(minPass, cfg.MinPass.Value), 64)
	if err != nil {
		return t, fmt.Errorf("invalid min-pass: %w", err)
	}
	t.MaxRepair, err = strconv.ParseFloat(pick(maxRepair, cfg.MaxRepair.Value), 64)
	if err != nil {
		return t, fmt.Errorf("invalid max-repair: %w", err)
	}
	return t, nil
}
