// Package stats computes corpus health reports: length distribution
// and label imbalance over a record stream.
package stats

import (
	"encoding/json"
	"io"
	"sort"
	"unicode/utf8"

	"github.com/solari/curator/internal/record"
	"github.com/solari/curator/internal/schema"
)

// Distribution summarizes a sample of per-row lengths. With zero rows
// every field is 0 rather than an error.
type Distribution struct {
	Min  float64 `json:"min"`
	P50  float64 `json:"p50"`
	P90  float64 `json:"p90"`
	Max  float64 `json:"max"`
	Mean float64 `json:"mean"`
}

// LabelCount is one label with its frequency.
type LabelCount struct {
	Label string
	Count int
}

// Labels reports label-imbalance statistics for a dot-path.
type Labels struct {
	LabelPath string        `json:"label_path"`
	Missing   int           `json:"missing"`
	Counts    OrderedCounts `json:"counts"`
}

// OrderedCounts marshals as a JSON object with keys in descending
// frequency order (ties broken by label), which a plain map cannot do.
type OrderedCounts []LabelCount

// MarshalJSON emits the counts as an ordered object.
func (oc OrderedCounts) MarshalJSON() ([]byte, error) {
	buf := []byte{'{'}
	for i, c := range oc {
		if i > 0 {
			buf = append(buf, ',')
		}
		k, err := json.Marshal(c.Label)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(c.Count)
		if err != nil {
			return nil, err
		}
		buf = append(buf, k...)
		buf = append(buf, ':')
		buf = append(buf, v...)
	}
	return append(buf, '}'), nil
}

// Report is the JSON document written by `curator stats`.
type Report struct {
	Count        int           `json:"count"`
	LengthChars  Distribution  `json:"length_chars"`
	LengthTokens *Distribution `json:"length_tokens,omitempty"`
	Labels       *Labels       `json:"labels"`
}

// Options configures one stats run.
type Options struct {
	Format    schema.Format
	LabelPath string
	// Tokens, when non-nil, is called per row with its concatenated
	// text and contributes a token-length distribution.
	Tokens func(text string) (int, error)
}

// Collect streams rows from r and aggregates the report. Malformed
// lines are skipped; label paths that resolve to nothing land in the
// missing bucket.
func Collect(r io.Reader, opts Options) (*Report, error) {
	var lengths []float64
	var tokenLengths []float64
	labelCounts := make(map[string]int)
	count := 0
	missing := 0

	sc := record.NewScanner(r)
	for sc.Scan() {
		rec, err := record.Parse(sc.Line())
		if err != nil {
			continue
		}
		count++

		// length_chars counts code points, not bytes, so non-ASCII
		// corpora report the same distributions as ASCII ones.
		text := rowText(rec, opts.Format)
		lengths = append(lengths, float64(utf8.RuneCountInString(text)))

		if opts.Tokens != nil {
			n, err := opts.Tokens(text)
			if err != nil {
				return nil, err
			}
			tokenLengths = append(tokenLengths, float64(n))
		}

		if opts.LabelPath != "" {
			lab, ok := rec.ResolveString(opts.LabelPath)
			if !ok {
				missing++
			} else {
				labelCounts[lab]++
			}
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}

	report := &Report{Count: count, LengthChars: summarize(lengths)}
	if opts.Tokens != nil {
		d := summarize(tokenLengths)
		report.LengthTokens = &d
	}
	if opts.LabelPath != "" {
		report.Labels = &Labels{
			LabelPath: opts.LabelPath,
			Missing:   missing,
			Counts:    orderCounts(labelCounts),
		}
	}
	return report, nil
}

// rowText concatenates the row's trainable text: all turn contents for
// chat, the three fields for instruction rows. Missing fields read as
// empty, non-strings as their JSON form.
func rowText(rec record.Record, format schema.Format) string {
	if format == schema.FormatChat {
		msgs, _ := rec["messages"].([]any)
		text := ""
		for _, m := range msgs {
			turn, ok := m.(map[string]any)
			if !ok {
				continue
			}
			if content, ok := turn["content"].(string); ok {
				text += content
			}
		}
		return text
	}
	text := ""
	for _, k := range []string{"instruction", "input", "output"} {
		if v, ok := rec[k]; ok {
			text += record.Stringify(v)
		}
	}
	return text
}

func summarize(samples []float64) Distribution {
	if len(samples) == 0 {
		return Distribution{}
	}
	sorted := append([]float64(nil), samples...)
	sort.Float64s(sorted)

	sum := 0.0
	for _, v := range sorted {
		sum += v
	}
	return Distribution{
		Min:  sorted[0],
		P50:  median(sorted),
		P90:  p90(sorted),
		Max:  sorted[len(sorted)-1],
		Mean: sum / float64(len(sorted)),
	}
}

func median(sorted []float64) float64 {
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

// p90 uses the exclusive decile method (9th of ten quantile cut points)
// once there are at least 10 samples, falling back to max below that.
func p90(sorted []float64) float64 {
	n := len(sorted)
	if n < 10 {
		return sorted[n-1]
	}
	m := n + 1
	j := 9 * m / 10
	if j < 1 {
		j = 1
	}
	if j > n-1 {
		j = n - 1
	}
	delta := float64(9*m - j*10)
	return (sorted[j-1]*(10-delta) + sorted[j]*delta) / 10
}

func orderCounts(counts map[string]int) OrderedCounts {
	out := make(OrderedCounts, 0, len(counts))
	for k, v := range counts {
		out = append(out, LabelCount{Label: k, Count: v})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Label < out[j].Label
	})
	return out
}
