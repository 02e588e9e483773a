package record

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// maxLineBytes bounds a single JSONL line. Training rows are chat
// transcripts, not documents; 16 MiB is far past anything legitimate.
const maxLineBytes = 16 * 1024 * 1024

// Scanner iterates non-blank lines of a JSONL stream. Blank lines are
// skipped on read and never counted.
type Scanner struct {
	sc   *bufio.Scanner
	line string
	err  error
}

// NewScanner wraps a reader in a JSONL line scanner.
func NewScanner(r io.Reader) *Scanner {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	return &Scanner{sc: sc}
}

// Scan advances to the next non-blank line.
func (s *Scanner) Scan() bool {
	for s.sc.Scan() {
		line := strings.TrimSpace(s.sc.Text())
		if line == "" {
			continue
		}
		s.line = line
		return true
	}
	s.err = s.sc.Err()
	return false
}

// Line returns the current raw line, whitespace-trimmed.
func (s *Scanner) Line() string { return s.line }

// Err reports any underlying read error after Scan returns false.
func (s *Scanner) Err() error { return s.err }

// Writer emits one JSON object per line.
type Writer struct {
	w   *bufio.Writer
	enc *json.Encoder
}

// NewWriter wraps an io.Writer for JSONL output.
func NewWriter(w io.Writer) *Writer {
	bw := bufio.NewWriter(w)
	return &Writer{w: bw, enc: json.NewEncoder(bw)}
}

// Write encodes a single value as one line.
func (w *Writer) Write(v any) error {
	return w.enc.Encode(v)
}

// WriteRaw emits an already-serialized line verbatim plus a newline.
func (w *Writer) WriteRaw(line string) error {
	if _, err := w.w.WriteString(line); err != nil {
		return err
	}
	return w.w.WriteByte('\n')
}

// Flush drains buffered output to the underlying writer.
func (w *Writer) Flush() error { return w.w.Flush() }

// OpenAppend opens a JSONL file for appending, creating parent
// directories as needed. Used by the harvest path, which must never
// clobber previously harvested rows.
func OpenAppend(path string) (*os.File, error) {
	if err := ensureParentDir(path); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening %s for append: %w", path, err)
	}
	return f, nil
}

// Create opens a JSONL file for writing, truncating any existing
// content and creating parent directories as needed.
func Create(path string) (*os.File, error) {
	if err := ensureParentDir(path); err != nil {
		return nil, err
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("creating %s: %w", path, err)
	}
	return f, nil
}

func ensureParentDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "" || dir == "." {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating directory %s: %w", dir, err)
	}
	return nil
}
