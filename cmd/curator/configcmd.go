package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/solari/curator/internal/config"
)

func runConfig(args []string) error {
	fs := flag.NewFlagSet("config", flag.ContinueOnError)
	asJSON := fs.Bool("json", false, "emit resolved config as JSON")
	configPath := fs.String("config", "", "config file path")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.ResolveConfig(config.ResolveOptions{ConfigPath: *configPath})
	if err != nil {
		return err
	}

	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(cfg)
	}

	fmt.Printf("config file: %s\n\n", cfg.ConfigPath)
	for _, row := range []struct {
		name string
		v    config.ResolvedValue
	}{
		{"ledger_path", cfg.LedgerPath},
		{"seed", cfg.Seed},
		{"group_key", cfg.GroupKey},
		{"tokenizer", cfg.Tokenizer},
		{"train_frac", cfg.TrainFrac},
		{"val_frac", cfg.ValFrac},
		{"test_frac", cfg.TestFrac},
		{"min_pass", cfg.MinPass},
		{"max_repair", cfg.MaxRepair},
	} {
		value := row.v.Value
		if value == "" {
			value = "(unset)"
		}
		source := string(row.v.Source)
		if source == "" {
			source = string(config.SourceUnknown)
		}
		fmt.Printf("  %-12s %-24s [%s", row.name, value, source)
		if row.v.From != "" {
			fmt.Printf(": %s", row.v.From)
		}
		fmt.Println("]")
	}
	return nil
}
