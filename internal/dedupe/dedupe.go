// Package dedupe removes exact-duplicate rows from a record stream.
// Identity is the SHA-256 digest of a row's canonical form, so two rows
// with the same fields in different key order collapse to one.
package dedupe

import (
	"io"

	"github.com/solari/curator/internal/record"
)

// Counters reports how many rows went in and how many survived.
// Malformed lines count toward In and are dropped silently.
type Counters struct {
	In  int `json:"in"`
	Out int `json:"out"`
}

// Dedupe streams rows from r to w, keeping the first occurrence of each
// canonical digest. The seen-set lives for this call only and grows with
// the number of distinct rows; corpora are batch-sized, so that is fine.
// Row order is preserved.
func Dedupe(r io.Reader, w io.Writer) (Counters, error) {
	var c Counters
	seen := make(map[string]struct{})

	out := record.NewWriter(w)
	sc := record.NewScanner(r)
	for sc.Scan() {
		c.In++
		rec, err := record.Parse(sc.Line())
		if err != nil {
			continue
		}
		digest, err := rec.Digest()
		if err != nil {
			continue
		}
		if _, dup := seen[digest]; dup {
			continue
		}
		seen[digest] = struct{}{}
		if err := out.Write(rec); err != nil {
			return c, err
		}
		c.Out++
	}
	if err := sc.Err(); err != nil {
		return c, err
	}
	return c, out.Flush()
}
