package schema

import (
	"io"

	"github.com/solari/curator/internal/record"
)

// Run streams rows from r, validating each against format. Accepted
// rows are re-emitted to accepted; rejected rows are paired with their
// reason and written to rejects. Either destination may be nil to
// discard that stream. Per-row failures never abort the run; the
// returned counters make the losses auditable.
func Run(r io.Reader, format Format, requireMeta string, accepted, rejects io.Writer) (Counters, error) {
	var c Counters

	var okOut, badOut *record.Writer
	if accepted != nil {
		okOut = record.NewWriter(accepted)
	}
	if rejects != nil {
		badOut = record.NewWriter(rejects)
	}

	sc := record.NewScanner(r)
	for sc.Scan() {
		c.In++
		rec, err := record.Parse(sc.Line())
		if err != nil {
			c.Bad++
			if badOut != nil {
				if werr := badOut.Write(Reject{Reason: "invalid_json", Raw: sc.Line()}); werr != nil {
					return c, werr
				}
			}
			continue
		}
		ok, reason := Validate(rec, format, requireMeta)
		if !ok {
			c.Bad++
			if badOut != nil {
				if werr := badOut.Write(Reject{Reason: reason, Row: rec}); werr != nil {
					return c, werr
				}
			}
			continue
		}
		c.OK++
		if okOut != nil {
			if werr := okOut.Write(rec); werr != nil {
				return c, werr
			}
		}
	}
	if err := sc.Err(); err != nil {
		return c, err
	}
	if okOut != nil {
		if err := okOut.Flush(); err != nil {
			return c, err
		}
	}
	if badOut != nil {
		if err := badOut.Flush(); err != nil {
			return c, err
		}
	}
	return c, nil
}
