// Package schema validates dataset rows against one of the two target
// training formats. Validation is a pure predicate per format; routing
// of accepted and rejected rows is left to the caller.
package schema

import (
	"fmt"
	"strings"

	"github.com/solari/curator/internal/record"
)

// Format selects which rule set a row is checked against.
type Format string

const (
	// FormatChat expects a "messages" array of role/content turns.
	FormatChat Format = "chat"
	// FormatInstruction expects instruction/input/output string fields.
	FormatInstruction Format = "instruction"
)

// ParseFormat validates a --mode flag value.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case FormatChat:
		return FormatChat, nil
	case FormatInstruction:
		return FormatInstruction, nil
	default:
		return "", fmt.Errorf("invalid mode %q (valid: chat, instruction)", s)
	}
}

// Roles permitted in a chat turn.
var chatRoles = map[string]struct{}{
	"system":    {},
	"user":      {},
	"assistant": {},
	"tool":      {},
}

// Reject is one rejected row, as written to the reject stream.
// Exactly one of Row and Raw is set: Row for schema failures, Raw for
// lines that never parsed.
type Reject struct {
	Reason string        `json:"reason"`
	Row    record.Record `json:"row,omitempty"`
	Raw    string        `json:"raw,omitempty"`
}

// Counters summarizes a validation pass.
type Counters struct {
	In  int `json:"in"`
	OK  int `json:"ok"`
	Bad int `json:"bad"`
}

// Validate checks one row against the format rules plus, when
// requireMeta is non-empty, the required-metadata-path rule. It returns
// ok and, when not ok, the rejection reason.
func Validate(rec record.Record, format Format, requireMeta string) (bool, string) {
	var ok bool
	var reason string
	switch format {
	case FormatChat:
		ok, reason = validateChat(rec)
	case FormatInstruction:
		ok, reason = validateInstruction(rec)
	default:
		return false, fmt.Sprintf("unknown format %q", format)
	}
	if ok && requireMeta != "" {
		v, found := rec.Resolve(requireMeta)
		if !found || isBlankString(v) {
			return false, "missing required field: " + requireMeta
		}
	}
	return ok, reason
}

func validateChat(rec record.Record) (bool, string) {
	raw, ok := rec["messages"]
	msgs, isList := raw.([]any)
	if !ok || !isList || len(msgs) < 2 {
		return false, "missing/invalid messages"
	}
	hasUser, hasAssistant := false, false
	for i, m := range msgs {
		turn, isObj := m.(map[string]any)
		if !isObj {
			return false, fmt.Sprintf("message[%d] not object", i)
		}
		role, _ := turn["role"].(string)
		if _, valid := chatRoles[role]; !valid {
			return false, fmt.Sprintf("message[%d] invalid role", i)
		}
		content, isStr := turn["content"].(string)
		if !isStr || strings.TrimSpace(content) == "" {
			return false, fmt.Sprintf("message[%d] missing content", i)
		}
		switch role {
		case "user":
			hasUser = true
		case "assistant":
			hasAssistant = true
		}
	}
	if !hasUser || !hasAssistant {
		return false, "need at least one user and one assistant message"
	}
	return true, ""
}

func validateInstruction(rec record.Record) (bool, string) {
	for _, k := range []string{"instruction", "input", "output"} {
		if _, isStr := rec[k].(string); !isStr {
			return false, "missing/invalid " + k
		}
	}
	if strings.TrimSpace(rec["output"].(string)) == "" {
		return false, "empty output"
	}
	return true, ""
}

// isBlankString reports whether v is a string of only whitespace.
// Non-string values at a required meta path are accepted as present.
func isBlankString(v any) bool {
	s, isStr := v.(string)
	return isStr && strings.TrimSpace(s) == ""
}
