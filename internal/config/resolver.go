// Package config resolves curator settings from, in rising precedence,
// the YAML config file, CURATOR_* environment variables, and CLI flags.
// Every resolved value remembers where it came from so `curator config`
// can explain itself.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

type ValueSource string

const (
	SourceUnknown ValueSource = "unknown"
	SourceConfig  ValueSource = "config"
	SourceEnv     ValueSource = "env"
	SourceCLI     ValueSource = "cli"
	SourceDefault ValueSource = "default"
)

type ResolvedValue struct {
	Value  string      `json:"value"`
	Source ValueSource `json:"source"`
	From   string      `json:"from,omitempty"`
}

// ResolveOptions carries the CLI-level overrides into resolution.
type ResolveOptions struct {
	ConfigPath   string
	CLILedger    string
	CLISeed      string
	CLIGroupKey  string
	CLITokenizer string
}

// ResolvedConfig is the effective configuration with provenance.
type ResolvedConfig struct {
	ConfigPath string `json:"config_path"`

	LedgerPath ResolvedValue `json:"ledger_path"`
	Seed       ResolvedValue `json:"seed"`
	GroupKey   ResolvedValue `json:"group_key"`
	Tokenizer  ResolvedValue `json:"tokenizer"`

	TrainFrac ResolvedValue `json:"train_frac"`
	ValFrac   ResolvedValue `json:"val_frac"`
	TestFrac  ResolvedValue `json:"test_frac"`

	MinPass   ResolvedValue `json:"min_pass"`
	MaxRepair ResolvedValue `json:"max_repair"`
}

// scalar accepts any YAML scalar (42, 0.9, "0.9") as its literal text,
// so numeric config values do not have to be quoted.
type scalar string

func (s *scalar) UnmarshalYAML(node *yaml.Node) error {
	*s = scalar(node.Value)
	return nil
}

type fileConfig struct {
	LedgerPath string `yaml:"ledger_path"`
	Seed       scalar `yaml:"seed"`
	Split      struct {
		GroupKey string `yaml:"group_key"`
		Train    scalar `yaml:"train"`
		Val      scalar `yaml:"val"`
		Test     scalar `yaml:"test"`
	} `yaml:"split"`
	Stats struct {
		Tokenizer string `yaml:"tokenizer"`
	} `yaml:"stats"`
	Retrain struct {
		MinPass   scalar `yaml:"min_pass"`
		MaxRepair scalar `yaml:"max_repair"`
	} `yaml:"retrain"`
}

// DefaultConfigPath is where the config file lives unless overridden.
func DefaultConfigPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".curator", "config.yaml")
}

// Pipeline defaults, overridable at every layer.
const (
	DefaultSeed      = "42"
	DefaultTrainFrac = "0.9"
	DefaultValFrac   = "0.1"
	DefaultTestFrac  = "0.0"
	DefaultMinPass   = "0.95"
	DefaultMaxRepair = "0.10"
)

// ResolveConfig layers file, env, and CLI values. A missing config file
// is not an error; a malformed one is.
func ResolveConfig(opts ResolveOptions) (ResolvedConfig, error) {
	path := strings.TrimSpace(opts.ConfigPath)
	if path == "" {
		path = DefaultConfigPath()
	}

	out := ResolvedConfig{
		ConfigPath: path,
		Seed:       ResolvedValue{Value: DefaultSeed, Source: SourceDefault, From: "built-in default"},
		TrainFrac:  ResolvedValue{Value: DefaultTrainFrac, Source: SourceDefault, From: "built-in default"},
		ValFrac:    ResolvedValue{Value: DefaultValFrac, Source: SourceDefault, From: "built-in default"},
		TestFrac:   ResolvedValue{Value: DefaultTestFrac, Source: SourceDefault, From: "built-in default"},
		MinPass:    ResolvedValue{Value: DefaultMinPass, Source: SourceDefault, From: "built-in default"},
		MaxRepair:  ResolvedValue{Value: DefaultMaxRepair, Source: SourceDefault, From: "built-in default"},
	}

	cfg, err := loadConfig(path)
	if err != nil {
		return out, err
	}
	if cfg != nil {
		apply(&out.LedgerPath, cfg.LedgerPath, SourceConfig, path)
		apply(&out.Seed, string(cfg.Seed), SourceConfig, path)
		apply(&out.GroupKey, cfg.Split.GroupKey, SourceConfig, path)
		apply(&out.TrainFrac, string(cfg.Split.Train), SourceConfig, path)
		apply(&out.ValFrac, string(cfg.Split.Val), SourceConfig, path)
		apply(&out.TestFrac, string(cfg.Split.Test), SourceConfig, path)
		apply(&out.Tokenizer, cfg.Stats.Tokenizer, SourceConfig, path)
		apply(&out.MinPass, string(cfg.Retrain.MinPass), SourceConfig, path)
		apply(&out.MaxRepair, string(cfg.Retrain.MaxRepair), SourceConfig, path)
	}

	applyEnv(&out.LedgerPath, "CURATOR_LEDGER")
	applyEnv(&out.Seed, "CURATOR_SEED")
	applyEnv(&out.GroupKey, "CURATOR_GROUP_KEY")
	applyEnv(&out.Tokenizer, "CURATOR_TOKENIZER")
	applyEnv(&out.MinPass, "CURATOR_MIN_PASS")
	applyEnv(&out.MaxRepair, "CURATOR_MAX_REPAIR")

	apply(&out.LedgerPath, opts.CLILedger, SourceCLI, "--ledger")
	apply(&out.Seed, opts.CLISeed, SourceCLI, "--seed")
	apply(&out.GroupKey, opts.CLIGroupKey, SourceCLI, "--group-key")
	apply(&out.Tokenizer, opts.CLITokenizer, SourceCLI, "--tokenizer")

	if out.LedgerPath.Value != "" {
		out.LedgerPath.Value = expandUserPath(out.LedgerPath.Value)
	}
	if out.Tokenizer.Value != "" {
		out.Tokenizer.Value = expandUserPath(out.Tokenizer.Value)
	}

	return out, nil
}

func apply(dst *ResolvedValue, raw string, source ValueSource, from string) {
	v := strings.TrimSpace(raw)
	if v == "" {
		return
	}
	*dst = ResolvedValue{Value: v, Source: source, From: from}
}

func applyEnv(dst *ResolvedValue, envKey string) {
	if v := strings.TrimSpace(os.Getenv(envKey)); v != "" {
		*dst = ResolvedValue{Value: v, Source: SourceEnv, From: envKey}
	}
}

func loadConfig(path string) (*fileConfig, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	var cfg fileConfig
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return &cfg, nil
}

func expandUserPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}
