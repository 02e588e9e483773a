// Package convert normalizes legacy dataset shapes (prompt/completion,
// user/assistant, system) into one of the two target training formats.
// Rows that cannot be converted are dropped and only counted.
package convert

import (
	"io"

	"github.com/solari/curator/internal/record"
	"github.com/solari/curator/internal/schema"
)

// Counters reports rows read and rows successfully converted.
type Counters struct {
	In  int `json:"in"`
	Out int `json:"out"`
}

// ToChat maps a legacy row to the chat format. Rows that already carry
// a messages field pass through with only that field kept. Returns nil
// when fewer than two turns can be assembled.
func ToChat(rec record.Record) record.Record {
	if msgs, ok := rec["messages"]; ok {
		return record.Record{"messages": msgs}
	}
	// A field counts as present only when its value is truthy: null,
	// false, 0, and empty strings/arrays/objects all read as absent,
	// so an empty "user" falls through to "prompt", and so on.
	content := func(key string) (string, bool) {
		v, ok := rec[key]
		if !ok || !truthy(v) {
			return "", false
		}
		return record.Stringify(v), true
	}

	var msgs []any
	turn := func(role, text string) {
		msgs = append(msgs, map[string]any{"role": role, "content": text})
	}
	if s, ok := content("system"); ok {
		turn("system", s)
	}
	if s, ok := content("user"); ok {
		turn("user", s)
	} else if s, ok := content("prompt"); ok {
		turn("user", s)
	}
	if s, ok := content("assistant"); ok {
		turn("assistant", s)
	} else if s, ok := content("completion"); ok {
		turn("assistant", s)
	}
	if len(msgs) < 2 {
		return nil
	}
	return record.Record{"messages": msgs}
}

// truthy reports whether a decoded JSON value carries content: null,
// false, zero, and empty strings/arrays/objects do not.
func truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case float64:
		return x != 0
	case string:
		return x != ""
	case []any:
		return len(x) > 0
	case map[string]any:
		return len(x) > 0
	default:
		return true
	}
}

// ToInstruction maps a legacy row to the instruction format. Returns
// nil when no known shape matches.
func ToInstruction(rec record.Record) record.Record {
	if _, ok1 := rec["instruction"]; ok1 {
		if _, ok2 := rec["input"]; ok2 {
			if _, ok3 := rec["output"]; ok3 {
				return record.Record{
					"instruction": rec["instruction"],
					"input":       rec["input"],
					"output":      rec["output"],
				}
			}
		}
	}
	if p, ok := rec["prompt"]; ok {
		if c, ok := rec["completion"]; ok {
			return record.Record{"instruction": "Follow the user request.", "input": p, "output": c}
		}
	}
	if u, ok := rec["user"]; ok {
		if a, ok := rec["assistant"]; ok {
			return record.Record{"instruction": "Follow the user request.", "input": u, "output": a}
		}
	}
	return nil
}

// Run streams rows from r through the converter for format and writes
// the converted rows to w. Malformed and unconvertible rows are skipped.
func Run(r io.Reader, w io.Writer, format schema.Format) (Counters, error) {
	conv := ToChat
	if format == schema.FormatInstruction {
		conv = ToInstruction
	}

	var c Counters
	out := record.NewWriter(w)
	sc := record.NewScanner(r)
	for sc.Scan() {
		c.In++
		rec, err := record.Parse(sc.Line())
		if err != nil {
			continue
		}
		converted := conv(rec)
		if converted == nil {
			continue
		}
		if err := out.Write(converted); err != nil {
			return c, err
		}
		c.Out++
	}
	if err := sc.Err(); err != nil {
		return c, err
	}
	return c, out.Flush()
}
