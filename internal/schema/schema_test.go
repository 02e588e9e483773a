package schema

import (
	"bytes"
	"strings"
	"testing"

	"github.com/solari/curator/internal/record"
)

func mustParse(t *testing.T, line string) record.Record {
	t.Helper()
	rec, err := record.Parse(line)
	if err != nil {
		t.Fatalf("Parse(%q): %v", line, err)
	}
	return rec
}

func TestValidateChatAccepts(t *testing.T) {
	rec := mustParse(t, `{"messages":[{"role":"user","content":"hi"},{"role":"assistant","content":"ok"}]}`)
	if ok, reason := Validate(rec, FormatChat, ""); !ok {
		t.Fatalf("rejected valid chat row: %s", reason)
	}
}

func TestValidateChatRejections(t *testing.T) {
	cases := []struct {
		name   string
		row    string
		reason string
	}{
		{"no messages", `{"x":1}`, "missing/invalid messages"},
		{"messages not list", `{"messages":"hi"}`, "missing/invalid messages"},
		{"too few turns", `{"messages":[{"role":"user","content":"hi"}]}`, "missing/invalid messages"},
		{"turn not object", `{"messages":[{"role":"user","content":"hi"},"oops"]}`, "message[1] not object"},
		{"bad role", `{"messages":[{"role":"user","content":"hi"},{"role":"narrator","content":"ok"}]}`, "message[1] invalid role"},
		{"empty content", `{"messages":[{"role":"user","content":""},{"role":"assistant","content":"ok"}]}`, "message[0] missing content"},
		{"non-string content", `{"messages":[{"role":"user","content":3},{"role":"assistant","content":"ok"}]}`, "message[0] missing content"},
		{"only user turns", `{"messages":[{"role":"user","content":"a"},{"role":"user","content":"b"}]}`, "need at least one user and one assistant message"},
	}
	for _, tc := range cases {
		ok, reason := Validate(mustParse(t, tc.row), FormatChat, "")
		if ok {
			t.Fatalf("%s: accepted invalid row", tc.name)
		}
		if reason != tc.reason {
			t.Fatalf("%s: reason = %q, want %q", tc.name, reason, tc.reason)
		}
	}
}

func TestValidateInstruction(t *testing.T) {
	ok, _ := Validate(mustParse(t, `{"instruction":"do","input":"x","output":"y"}`), FormatInstruction, "")
	if !ok {
		t.Fatal("rejected valid instruction row")
	}

	cases := []struct {
		row    string
		reason string
	}{
		{`{"input":"x","output":"y"}`, "missing/invalid instruction"},
		{`{"instruction":"do","input":2,"output":"y"}`, "missing/invalid input"},
		{`{"instruction":"do","input":"x","output":"   "}`, "empty output"},
	}
	for _, tc := range cases {
		ok, reason := Validate(mustParse(t, tc.row), FormatInstruction, "")
		if ok || reason != tc.reason {
			t.Fatalf("row %s: got (%v, %q), want reason %q", tc.row, ok, reason, tc.reason)
		}
	}
}

func TestValidateRequireMeta(t *testing.T) {
	row := `{"instruction":"do","input":"x","output":"y","meta":{"userId":"u1","blank":"  "}}`

	if ok, _ := Validate(mustParse(t, row), FormatInstruction, "meta.userId"); !ok {
		t.Fatal("rejected row with required meta present")
	}
	ok, reason := Validate(mustParse(t, row), FormatInstruction, "meta.docId")
	if ok || reason != "missing required field: meta.docId" {
		t.Fatalf("got (%v, %q)", ok, reason)
	}
	if ok, _ := Validate(mustParse(t, row), FormatInstruction, "meta.blank"); ok {
		t.Fatal("accepted blank required meta value")
	}
}

func TestValidateRequireMetaNull(t *testing.T) {
	row := `{"instruction":"do","input":"x","output":"y","meta":{"userId":null}}`
	ok, reason := Validate(mustParse(t, row), FormatInstruction, "meta.userId")
	if ok {
		t.Fatal("accepted explicit null at required meta path")
	}
	if reason != "missing required field: meta.userId" {
		t.Fatalf("reason = %q", reason)
	}
}

func TestRunRoutesAcceptedAndRejected(t *testing.T) {
	input := strings.Join([]string{
		`{"messages":[{"role":"user","content":"hi"},{"role":"assistant","content":"ok"}]}`,
		`not json at all`,
		`{"messages":[{"role":"user","content":"hi"}]}`,
	}, "\n")

	var accepted, rejects bytes.Buffer
	c, err := Run(strings.NewReader(input), FormatChat, "", &accepted, &rejects)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if c.In != 3 || c.OK != 1 || c.Bad != 2 {
		t.Fatalf("counters = %+v", c)
	}

	okLines := nonBlank(accepted.String())
	if len(okLines) != 1 {
		t.Fatalf("accepted lines = %d", len(okLines))
	}

	badLines := nonBlank(rejects.String())
	if len(badLines) != 2 {
		t.Fatalf("reject lines = %d", len(badLines))
	}
	first, err := record.Parse(badLines[0])
	if err != nil {
		t.Fatalf("reject row not JSON: %v", err)
	}
	if first["reason"] != "invalid_json" {
		t.Fatalf("reason = %v, want invalid_json", first["reason"])
	}
	if first["raw"] != "not json at all" {
		t.Fatalf("raw line not preserved: %v", first["raw"])
	}
	second, _ := record.Parse(badLines[1])
	if second["reason"] != "missing/invalid messages" {
		t.Fatalf("reason = %v", second["reason"])
	}
	if _, hasRow := second["row"]; !hasRow {
		t.Fatal("schema reject should carry the parsed row")
	}
}

func TestParseFormat(t *testing.T) {
	if f, err := ParseFormat(" Chat "); err != nil || f != FormatChat {
		t.Fatalf("ParseFormat chat: %v %v", f, err)
	}
	if _, err := ParseFormat("tabular"); err == nil {
		t.Fatal("accepted unknown format")
	}
}

func nonBlank(s string) []string {
	var out []string
	for _, ln := range strings.Split(s, "\n") {
		if strings.TrimSpace(ln) != "" {
			out = append(out, ln)
		}
	}
	return out
}
