// Package split partitions a record file into train/val/test sets.
//
// When a group key is given, the unit of allocation is the group: every
// row whose key resolves to the same value lands in the same partition,
// so related rows can never leak across the train/eval boundary. With
// no group key each row is its own unit.
//
// Determinism contract: the shuffle is math/rand's Fisher-Yates
// (rand.New(rand.NewSource(seed)) + rand.Shuffle) applied to the
// lexically sorted unit list. Same binary, same seed, same input set
// implies byte-identical partition files. Bit-for-bit parity with other
// PRNG implementations is not promised.
package split

import (
	"fmt"
	"io"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"sort"

	"github.com/solari/curator/internal/record"
)

// MissingGroup is the sentinel bucket for rows whose group-key path
// does not resolve.
const MissingGroup = "__MISSING__"

// fractionTolerance for the train+val+test == 1 check.
const fractionTolerance = 1e-9

// Options configures one split run.
type Options struct {
	GroupKey string // dot-path; empty means row-wise allocation
	Seed     int64
	Train    float64
	Val      float64
	Test     float64
}

// Validate reports a configuration error before any I/O happens.
func (o Options) Validate() error {
	if math.Abs(o.Train+o.Val+o.Test-1.0) > fractionTolerance {
		return fmt.Errorf("train+val+test must sum to 1.0 (got %g+%g+%g)", o.Train, o.Val, o.Test)
	}
	if o.Train < 0 || o.Val < 0 || o.Test < 0 {
		return fmt.Errorf("split fractions must be non-negative")
	}
	return nil
}

// Summary reports the outcome of a split run.
type Summary struct {
	Rows      int    `json:"rows"`
	Groups    int    `json:"groups"`
	GroupKey  string `json:"group_key,omitempty"`
	TrainRows int    `json:"train_rows"`
	ValRows   int    `json:"val_rows"`
	TestRows  int    `json:"test_rows"`
}

// Result holds the allocated raw lines per partition, in emit order.
type Result struct {
	Train   []string
	Val     []string
	Test    []string
	Summary Summary
}

// Split reads every row from r, allocates units to partitions, and
// returns the partition contents. Malformed lines are skipped.
func Split(r io.Reader, opts Options) (*Result, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	// Accumulate rows per unit. Group mode keys by the resolved group;
	// row mode gives every row a unique synthetic key so the same
	// shuffle-and-truncate allocation covers both.
	groups := make(map[string][]string)
	var keys []string
	rows := 0

	sc := record.NewScanner(r)
	for sc.Scan() {
		line := sc.Line()
		rec, err := record.Parse(line)
		if err != nil {
			continue
		}
		rows++
		var key string
		if opts.GroupKey == "" {
			key = fmt.Sprintf("row:%09d", rows)
		} else {
			g, ok := rec.ResolveString(opts.GroupKey)
			if !ok {
				g = MissingGroup
			}
			key = g
		}
		if _, exists := groups[key]; !exists {
			keys = append(keys, key)
		}
		groups[key] = append(groups[key], line)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}

	// Map iteration order is randomized; sorting first makes the
	// shuffled order a pure function of (input set, seed).
	sort.Strings(keys)
	rng := rand.New(rand.NewSource(opts.Seed))
	rng.Shuffle(len(keys), func(i, j int) { keys[i], keys[j] = keys[j], keys[i] })

	total := len(keys)
	nTrain := int(math.Floor(float64(total) * opts.Train))
	nTrainVal := int(math.Floor(float64(total) * (opts.Train + opts.Val)))

	flatten := func(ks []string) []string {
		var out []string
		for _, k := range ks {
			out = append(out, groups[k]...)
		}
		return out
	}

	res := &Result{
		Train: flatten(keys[:nTrain]),
		Val:   flatten(keys[nTrain:nTrainVal]),
		Test:  flatten(keys[nTrainVal:]),
	}
	res.Summary = Summary{
		Rows:      rows,
		Groups:    total,
		GroupKey:  opts.GroupKey,
		TrainRows: len(res.Train),
		ValRows:   len(res.Val),
		TestRows:  len(res.Test),
	}
	return res, nil
}

// WriteDir writes the three partition files into outdir.
func (res *Result) WriteDir(outdir string) error {
	if err := os.MkdirAll(outdir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", outdir, err)
	}
	for _, part := range []struct {
		name  string
		lines []string
	}{
		{"train.jsonl", res.Train},
		{"val.jsonl", res.Val},
		{"test.jsonl", res.Test},
	} {
		if err := writeLines(filepath.Join(outdir, part.name), part.lines); err != nil {
			return err
		}
	}
	return nil
}

func writeLines(path string, lines []string) error {
	f, err := record.Create(path)
	if err != nil {
		return err
	}
	w := record.NewWriter(f)
	for _, ln := range lines {
		if err := w.WriteRaw(ln); err != nil {
			f.Close()
			return fmt.Errorf("writing %s: %w", path, err)
		}
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("flushing %s: %w", path, err)
	}
	return f.Close()
}
