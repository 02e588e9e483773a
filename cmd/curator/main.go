package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/solari/curator/internal/config"
	"github.com/solari/curator/internal/ledger"
)

const version = "0.1.0"

// exitRetrain signals "retrain triggered" to CI callers, distinct from
// both success (no trigger) and operational failure (1).
const exitRetrain = 3

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(0)
	}

	var err error
	switch os.Args[1] {
	case "dedupe":
		err = runDedupe(os.Args[2:])
	case "validate":
		err = runValidate(os.Args[2:])
	case "split":
		err = runSplit(os.Args[2:])
	case "stats":
		err = runStats(os.Args[2:])
	case "convert":
		err = runConvert(os.Args[2:])
	case "retrain":
		var triggered bool
		triggered, err = runRetrain(os.Args[2:])
		if err == nil && triggered {
			os.Exit(exitRetrain)
		}
	case "runs":
		err = runRuns(os.Args[2:])
	case "config":
		err = runConfig(os.Args[2:])
	case "version", "--version", "-v":
		fmt.Printf("curator %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// recordRun writes one row to the run ledger when one is configured.
// Ledger failures are reported but never fail the pipeline command
// whose work already completed.
func recordRun(cfg config.ResolvedConfig, command, input, outcome string, summary any, started time.Time) {
	if cfg.LedgerPath.Value == "" {
		return
	}
	l, err := ledger.Open(cfg.LedgerPath.Value)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: run ledger unavailable: %v\n", err)
		return
	}
	defer l.Close()
	_, err = l.Record(context.Background(), ledger.Run{
		Command:    command,
		Input:      input,
		Outcome:    outcome,
		Summary:    summary,
		StartedAt:  started,
		FinishedAt: time.Now(),
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: recording run: %v\n", err)
	}
}

func printUsage() {
	fmt.Printf(`curator %s — training-corpus curation and retrain triggering

Usage:
  curator <command> [flags]

Commands:
  dedupe     Drop exact-duplicate rows (canonical-form digest)
  validate   Check rows against the chat or instruction format
  split      Group-aware deterministic train/val/test split
  stats      Length-distribution and label-imbalance report
  convert    Normalize legacy row shapes into a target format
  retrain    Evaluate retrain thresholds and harvest failures
  runs       List recent pipeline runs from the run ledger
  config     Print the resolved configuration with provenance
  version    Print version

Common Flags:
  --config PATH     Config file (default ~/.curator/config.yaml)
  --ledger PATH     SQLite run ledger; every command records its run

Flags:
  -h, --help        Show this help message
  -v, --version     Print version

Exit codes:
  0  success (for retrain: thresholds satisfied)
  1  error
  3  retrain triggered
`, version)
}
