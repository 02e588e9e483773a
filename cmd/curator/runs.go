package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/solari/curator/internal/config"
	"github.com/solari/curator/internal/ledger"
)

func runRuns(args []string) error {
	fs := flag.NewFlagSet("runs", flag.ContinueOnError)
	limit := fs.Int("limit", 20, "maximum number of runs to list")
	asJSON := fs.Bool("json", false, "emit runs as JSON")
	configPath := fs.String("config", "", "config file path")
	ledgerPath := fs.String("ledger", "", "run ledger database path")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.ResolveConfig(config.ResolveOptions{ConfigPath: *configPath, CLILedger: *ledgerPath})
	if err != nil {
		return err
	}
	if cfg.LedgerPath.Value == "" {
		return fmt.Errorf("no run ledger configured (set --ledger, CURATOR_LEDGER, or ledger_path in %s)", cfg.ConfigPath)
	}

	l, err := ledger.Open(cfg.LedgerPath.Value)
	if err != nil {
		return err
	}
	defer l.Close()

	runs, err := l.List(context.Background(), *limit)
	if err != nil {
		return err
	}

	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(runs)
	}

	if len(runs) == 0 {
		fmt.Println("No runs recorded yet.")
		return nil
	}
	for _, r := range runs {
		summary, _ := json.Marshal(r.Summary)
		fmt.Printf("%s  %-8s  %-10s  %s  %s\n",
			r.StartedAt.Format("2006-01-02 15:04:05"), r.Command, r.Outcome, r.Input, summary)
	}
	return nil
}
