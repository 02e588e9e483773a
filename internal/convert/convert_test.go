package convert

import (
	"bytes"
	"strings"
	"testing"

	"github.com/solari/curator/internal/record"
	"github.com/solari/curator/internal/schema"
)

func TestToChatFromPromptCompletion(t *testing.T) {
	rec, _ := record.Parse(`{"prompt":"hi","completion":"hello"}`)
	out := ToChat(rec)
	if out == nil {
		t.Fatal("conversion failed")
	}
	if ok, reason := schema.Validate(out, schema.FormatChat, ""); !ok {
		t.Fatalf("converted row fails chat validation: %s", reason)
	}
	msgs := out["messages"].([]any)
	if len(msgs) != 2 {
		t.Fatalf("turns = %d", len(msgs))
	}
}

func TestToChatPassthroughKeepsOnlyMessages(t *testing.T) {
	rec, _ := record.Parse(`{"messages":[{"role":"user","content":"a"},{"role":"assistant","content":"b"}],"extra":1}`)
	out := ToChat(rec)
	if out == nil {
		t.Fatal("passthrough failed")
	}
	if _, kept := out["extra"]; kept {
		t.Fatal("extra field leaked through")
	}
}

func TestToChatWithSystem(t *testing.T) {
	rec, _ := record.Parse(`{"system":"be terse","user":"hi","assistant":"ok"}`)
	out := ToChat(rec)
	if out == nil {
		t.Fatal("conversion failed")
	}
	msgs := out["messages"].([]any)
	if len(msgs) != 3 {
		t.Fatalf("turns = %d, want 3", len(msgs))
	}
	first := msgs[0].(map[string]any)
	if first["role"] != "system" {
		t.Fatalf("first role = %v", first["role"])
	}
}

func TestToChatSkipsFalsyFields(t *testing.T) {
	// Falsy legacy fields read as absent: a zero system is skipped and
	// an empty user falls through to prompt.
	rec, _ := record.Parse(`{"system":0,"user":"","prompt":"hi","assistant":"ok"}`)
	out := ToChat(rec)
	if out == nil {
		t.Fatal("conversion failed")
	}
	msgs := out["messages"].([]any)
	if len(msgs) != 2 {
		t.Fatalf("turns = %d, want 2", len(msgs))
	}
	first := msgs[0].(map[string]any)
	if first["role"] != "user" || first["content"] != "hi" {
		t.Fatalf("first turn = %v", first)
	}

	rec, _ = record.Parse(`{"user":"hi","assistant":false}`)
	if out := ToChat(rec); out != nil {
		t.Fatalf("false assistant should leave too few turns, got %v", out)
	}
}

func TestToChatInsufficientTurns(t *testing.T) {
	rec, _ := record.Parse(`{"prompt":"hi"}`)
	if out := ToChat(rec); out != nil {
		t.Fatalf("expected nil for single-turn row, got %v", out)
	}
}

func TestToInstruction(t *testing.T) {
	rec, _ := record.Parse(`{"prompt":"ask","completion":"answer"}`)
	out := ToInstruction(rec)
	if out == nil {
		t.Fatal("conversion failed")
	}
	if out["instruction"] != "Follow the user request." {
		t.Fatalf("instruction = %v", out["instruction"])
	}
	if out["input"] != "ask" || out["output"] != "answer" {
		t.Fatalf("fields = %v", out)
	}

	passthrough, _ := record.Parse(`{"instruction":"do","input":"x","output":"y","junk":true}`)
	out = ToInstruction(passthrough)
	if out == nil || out["instruction"] != "do" {
		t.Fatalf("passthrough = %v", out)
	}
	if _, kept := out["junk"]; kept {
		t.Fatal("junk field leaked through")
	}

	unknown, _ := record.Parse(`{"question":"?"}`)
	if out := ToInstruction(unknown); out != nil {
		t.Fatalf("expected nil for unknown shape, got %v", out)
	}
}

func TestRunCounts(t *testing.T) {
	input := strings.Join([]string{
		`{"prompt":"a","completion":"b"}`,
		`garbage`,
		`{"unconvertible":true}`,
	}, "\n")
	var out bytes.Buffer
	c, err := Run(strings.NewReader(input), &out, schema.FormatChat)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if c.In != 3 || c.Out != 1 {
		t.Fatalf("counters = %+v", c)
	}
}
