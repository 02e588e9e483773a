// Package policy evaluates evaluation summaries against retrain
// thresholds and harvests failing cases back into training rows.
package policy

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/solari/curator/internal/record"
)

// Detail is one evaluated case from the results file.
type Detail struct {
	OK     bool   `json:"ok"`
	Name   string `json:"name"`
	Suite  string `json:"suite"`
	Status string `json:"status"`
	Error  string `json:"error"`
}

// Summary is the evaluation-results document the policy reads.
//
// Missing fields decode to their zero values on purpose: a results file
// with no passRate reads as passRate 0 and always triggers. That is the
// intended conservative posture, not lax validation.
type Summary struct {
	PassRate     float64        `json:"passRate"`
	RepairedRate float64        `json:"repairedRate"`
	Taxonomy     map[string]int `json:"taxonomy"`
	Details      []Detail       `json:"details"`
}

// Thresholds are the retrain trigger levels.
type Thresholds struct {
	MinPass   float64
	MaxRepair float64
}

// Decision is the policy outcome. Triggered false with empty Reasons is
// the healthy case, not an error.
type Decision struct {
	Triggered bool     `json:"triggered"`
	Reasons   []string `json:"reasons,omitempty"`
	Harvested int      `json:"harvested,omitempty"`
}

// LoadSummary reads and decodes a results file.
func LoadSummary(path string) (*Summary, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	var s Summary
	if err := json.Unmarshal(b, &s); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return &s, nil
}

// Decide evaluates the trigger conditions. Any one violation is enough.
func Decide(s *Summary, t Thresholds) Decision {
	var reasons []string
	if s.PassRate < t.MinPass {
		reasons = append(reasons, fmt.Sprintf("passRate<%g", t.MinPass))
	}
	if s.RepairedRate > t.MaxRepair {
		reasons = append(reasons, fmt.Sprintf("repairedRate>%g", t.MaxRepair))
	}
	if s.Taxonomy["SCHEMA"] > 0 {
		reasons = append(reasons, "SCHEMA>0")
	}
	if s.Taxonomy["JSON_PARSE"] > 0 {
		reasons = append(reasons, "JSON_PARSE>0")
	}
	return Decision{Triggered: len(reasons) > 0, Reasons: reasons}
}

// fallbackReport is the fixed schema-valid payload the remediation
// template puts in the final assistant turn. Field order is part of the
// template, hence a struct rather than a map.
type fallbackReport struct {
	Title     string   `json:"title"`
	Summary   string   `json:"summary"`
	Bullets   []string `json:"bullets"`
	Actions   []string `json:"actions"`
	Cautions  []string `json:"cautions"`
	Citations []string `json:"citations"`
}

var fallback = fallbackReport{
	Title:   "Fallback report",
	Summary: "Schema-safe fallback because the previous attempt failed.",
	Bullets: []string{
		"Add targeted training examples for this failure",
		"Run evals after training",
		"Keep tool grounding strict",
	},
	Actions: []string{
		"Harvest failures into JSONL",
		"Fine-tune with QLoRA SFT",
		"Re-run edge-case suites",
	},
	Cautions: []string{
		"Do not output non-JSON",
		"Do not fabricate facts",
	},
	Citations: []string{},
}

// HarvestRow builds one conversational training row from a failing
// case using the fixed 5-turn remediation template.
func HarvestRow(d Detail, now time.Time) record.Record {
	fb, _ := json.Marshal(fallback)
	turn := func(role, content string) map[string]any {
		return map[string]any{"role": role, "content": content}
	}
	return record.Record{
		"messages": []any{
			turn("system", "You MUST output valid JSON matching the report schema and nothing else."),
			turn("user", fmt.Sprintf("Produce a schema-valid report for test: %s", d.Name)),
			turn("assistant", d.Error),
			turn("user", "Fix it. Return JSON only. Include all required keys, even if citations is empty."),
			turn("assistant", string(fb)),
		},
		"meta": map[string]any{
			"suite":  d.Suite,
			"name":   d.Name,
			"status": d.Status,
			"ts":     now.UTC().Format(time.RFC3339),
		},
	}
}

// Harvest appends one remediation row per failing detail to w and
// returns how many were written.
func Harvest(s *Summary, w io.Writer, now time.Time) (int, error) {
	out := record.NewWriter(w)
	n := 0
	for _, d := range s.Details {
		if d.OK {
			continue
		}
		if err := out.Write(HarvestRow(d, now)); err != nil {
			return n, err
		}
		n++
	}
	return n, out.Flush()
}
