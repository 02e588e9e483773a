// Package record provides the shared representation of dataset rows:
// generic JSON objects read from line-delimited files, plus the
// canonical-form digest and dot-path lookups the pipeline stages share.
package record

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"strings"
)

// Record is one row of a dataset file. There is no fixed schema at this
// layer; format rules are enforced by the schema package.
type Record map[string]any

// Parse decodes a single JSONL line into a Record. The line must be a
// JSON object; arrays and scalars are not valid rows.
func Parse(line string) (Record, error) {
	var rec Record
	if err := json.Unmarshal([]byte(line), &rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// Canonical returns the canonical serialization of a JSON value:
// encoding/json output with object keys in sorted order (the stdlib
// guarantee for maps). Two structurally equal values canonicalize to
// the same bytes regardless of original key order.
func Canonical(v any) ([]byte, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("canonicalizing record: %w", err)
	}
	return b, nil
}

// Digest computes the SHA-256 hex digest of a record's canonical form.
// This is the dedup identity: collisions are treated as true duplicates.
func (r Record) Digest() (string, error) {
	b, err := Canonical(map[string]any(r))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%x", sha256.Sum256(b)), nil
}

// Resolve walks a dot-separated path of object field names and returns
// the value it lands on. The second return is false when any segment is
// missing, the walk hits a non-object before the final segment, or the
// path lands on an explicit JSON null — a null field resolves to
// nothing, same as an absent one.
func (r Record) Resolve(path string) (any, bool) {
	var cur any = map[string]any(r)
	for _, part := range strings.Split(path, ".") {
		obj, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = obj[part]
		if !ok {
			return nil, false
		}
	}
	if cur == nil {
		return nil, false
	}
	return cur, true
}

// ResolveString resolves a dot-path and stringifies the result.
// Non-string scalars are rendered via their canonical JSON form.
func (r Record) ResolveString(path string) (string, bool) {
	v, ok := r.Resolve(path)
	if !ok {
		return "", false
	}
	return Stringify(v), true
}

// Stringify renders a JSON value as a plain string: strings pass
// through unquoted, everything else uses canonical JSON.
func Stringify(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(b)
}
