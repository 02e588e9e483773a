package split

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/solari/curator/internal/record"
)

func groupRows(n, perGroup int) string {
	var sb strings.Builder
	for g := 0; g < n; g++ {
		for r := 0; r < perGroup; r++ {
			fmt.Fprintf(&sb, `{"meta":{"docId":"doc-%03d"},"row":%d}`+"\n", g, r)
		}
	}
	return sb.String()
}

func partitionGroups(t *testing.T, lines []string) map[string]bool {
	t.Helper()
	out := map[string]bool{}
	for _, ln := range lines {
		rec, err := record.Parse(ln)
		if err != nil {
			t.Fatalf("partition line not JSON: %q", ln)
		}
		g, ok := rec.ResolveString("meta.docId")
		if !ok {
			g = MissingGroup
		}
		out[g] = true
	}
	return out
}

func TestSplitGroupsAreDisjointAndExhaustive(t *testing.T) {
	input := groupRows(20, 3)
	for _, seed := range []int64{0, 1, 42, 12345} {
		res, err := Split(strings.NewReader(input), Options{
			GroupKey: "meta.docId", Seed: seed, Train: 0.6, Val: 0.2, Test: 0.2,
		})
		if err != nil {
			t.Fatalf("seed %d: %v", seed, err)
		}

		train := partitionGroups(t, res.Train)
		val := partitionGroups(t, res.Val)
		test := partitionGroups(t, res.Test)

		total := 0
		for _, part := range []map[string]bool{train, val, test} {
			total += len(part)
		}
		if total != 20 {
			t.Fatalf("seed %d: groups not exhaustive/disjoint: train=%d val=%d test=%d",
				seed, len(train), len(val), len(test))
		}
		for g := range train {
			if val[g] || test[g] {
				t.Fatalf("seed %d: group %s straddles partitions", seed, g)
			}
		}
		for g := range val {
			if test[g] {
				t.Fatalf("seed %d: group %s in val and test", seed, g)
			}
		}
	}
}

func TestSplitHalfHalf(t *testing.T) {
	// 10 single-record groups at {0.5, 0.5, 0} must land exactly 5/5/0.
	input := groupRows(10, 1)
	res, err := Split(strings.NewReader(input), Options{
		GroupKey: "meta.docId", Seed: 42, Train: 0.5, Val: 0.5, Test: 0,
	})
	if err != nil {
		t.Fatalf("Split: %v", err)
	}
	if len(res.Train) != 5 || len(res.Val) != 5 || len(res.Test) != 0 {
		t.Fatalf("got train=%d val=%d test=%d", len(res.Train), len(res.Val), len(res.Test))
	}
}

func TestSplitDeterministicAcrossRuns(t *testing.T) {
	input := groupRows(15, 2)
	opts := Options{GroupKey: "meta.docId", Seed: 7, Train: 0.8, Val: 0.1, Test: 0.1}

	dirA := t.TempDir()
	dirB := t.TempDir()
	for _, dir := range []string{dirA, dirB} {
		res, err := Split(strings.NewReader(input), opts)
		if err != nil {
			t.Fatalf("Split: %v", err)
		}
		if err := res.WriteDir(dir); err != nil {
			t.Fatalf("WriteDir: %v", err)
		}
	}

	for _, name := range []string{"train.jsonl", "val.jsonl", "test.jsonl"} {
		a, err := os.ReadFile(filepath.Join(dirA, name))
		if err != nil {
			t.Fatalf("read %s: %v", name, err)
		}
		b, err := os.ReadFile(filepath.Join(dirB, name))
		if err != nil {
			t.Fatalf("read %s: %v", name, err)
		}
		if string(a) != string(b) {
			t.Fatalf("%s differs between identical runs", name)
		}
	}
}

func TestSplitSeedChangesAllocation(t *testing.T) {
	input := groupRows(50, 1)
	a, err := Split(strings.NewReader(input), Options{GroupKey: "meta.docId", Seed: 1, Train: 0.5, Val: 0.5})
	if err != nil {
		t.Fatalf("Split: %v", err)
	}
	b, err := Split(strings.NewReader(input), Options{GroupKey: "meta.docId", Seed: 2, Train: 0.5, Val: 0.5})
	if err != nil {
		t.Fatalf("Split: %v", err)
	}
	if strings.Join(a.Train, "\n") == strings.Join(b.Train, "\n") {
		t.Fatal("different seeds produced identical train partitions (50 groups)")
	}
}

func TestSplitMissingGroupKeyUsesSentinel(t *testing.T) {
	input := `{"meta":{"docId":"a"},"v":1}` + "\n" +
		`{"v":2}` + "\n" +
		`{"v":3}` + "\n"
	res, err := Split(strings.NewReader(input), Options{GroupKey: "meta.docId", Seed: 42, Train: 1, Val: 0, Test: 0})
	if err != nil {
		t.Fatalf("Split: %v", err)
	}
	if res.Summary.Groups != 2 {
		t.Fatalf("groups = %d, want 2 (doc a + sentinel)", res.Summary.Groups)
	}
	// Sentinel rows stay together.
	if len(res.Train) != 3 {
		t.Fatalf("train rows = %d", len(res.Train))
	}
}

func TestSplitNullGroupKeyUsesSentinel(t *testing.T) {
	// An explicit null group key buckets with the sentinel, not as a
	// "null" group of its own.
	input := `{"meta":{"docId":null},"v":1}` + "\n" +
		`{"v":2}` + "\n" +
		`{"meta":{"docId":"a"},"v":3}` + "\n"
	res, err := Split(strings.NewReader(input), Options{GroupKey: "meta.docId", Seed: 42, Train: 1, Val: 0, Test: 0})
	if err != nil {
		t.Fatalf("Split: %v", err)
	}
	if res.Summary.Groups != 2 {
		t.Fatalf("groups = %d, want 2 (doc a + sentinel)", res.Summary.Groups)
	}
}

func TestSplitRowWise(t *testing.T) {
	var sb strings.Builder
	for i := 0; i < 10; i++ {
		fmt.Fprintf(&sb, `{"v":%d}`+"\n", i)
	}
	res, err := Split(strings.NewReader(sb.String()), Options{Seed: 42, Train: 0.5, Val: 0.5})
	if err != nil {
		t.Fatalf("Split: %v", err)
	}
	if res.Summary.Groups != 10 {
		t.Fatalf("row-wise groups = %d, want 10", res.Summary.Groups)
	}
	if len(res.Train) != 5 || len(res.Val) != 5 || len(res.Test) != 0 {
		t.Fatalf("got train=%d val=%d test=%d", len(res.Train), len(res.Val), len(res.Test))
	}
}

func TestSplitFractionSumError(t *testing.T) {
	_, err := Split(strings.NewReader(`{"a":1}`), Options{Seed: 1, Train: 0.5, Val: 0.4, Test: 0.2})
	if err == nil {
		t.Fatal("expected configuration error for fractions summing to 1.1")
	}
	if !strings.Contains(err.Error(), "sum to 1.0") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestSplitSkipsMalformedLines(t *testing.T) {
	input := `{"v":1}` + "\nnot json\n" + `{"v":2}` + "\n"
	res, err := Split(strings.NewReader(input), Options{Seed: 42, Train: 1, Val: 0, Test: 0})
	if err != nil {
		t.Fatalf("Split: %v", err)
	}
	if res.Summary.Rows != 2 {
		t.Fatalf("rows = %d, want 2", res.Summary.Rows)
	}
}
