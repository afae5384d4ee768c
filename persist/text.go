package persist

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/SaxonRah/Linen/errors"
)

// textState is the mutable store shared by a TextWriter and its prefixed
// views.
type textState struct {
	keys   []string
	values map[string]string
	err    error
}

// TextWriter accumulates flat key=value pairs and renders them as
// newline-separated lines in insertion order. Compound structures are
// flattened by the caller into synthetic keys (indexed prefixes plus an
// explicit count).
//
// The format defines no escaping: keys containing '=' and keys or values
// containing a newline are rejected at write time rather than corrupting
// the stream.
type TextWriter struct {
	state  *textState
	prefix string
}

// NewTextWriter creates an empty text writer
func NewTextWriter() *TextWriter {
	return &TextWriter{state: &textState{values: make(map[string]string)}}
}

// Prefixed returns a view of the writer that transparently prepends prefix
// to every key. Views share the underlying store and error state.
func (t *TextWriter) Prefixed(prefix string) *TextWriter {
	return &TextWriter{state: t.state, prefix: t.prefix + prefix}
}

// Err returns the first write error encountered, if any
func (t *TextWriter) Err() error {
	return t.state.err
}

// Len returns the number of keys written so far, across all views
func (t *TextWriter) Len() int {
	return len(t.state.keys)
}

// WriteString records a key/value pair
func (t *TextWriter) WriteString(key, value string) {
	if t.state.err != nil {
		return
	}
	full := t.prefix + key
	if full == "" || strings.ContainsAny(full, "=\n") {
		msg := fmt.Errorf("%w: %q", errors.ErrInvalidKey, full)
		t.state.err = errors.WrapInvalid(msg, "TextWriter", "WriteString", "key validation")
		return
	}
	if strings.Contains(value, "\n") {
		msg := fmt.Errorf("%w: value for %q contains newline", errors.ErrInvalidValue, full)
		t.state.err = errors.WrapInvalid(msg, "TextWriter", "WriteString", "value validation")
		return
	}
	if _, exists := t.state.values[full]; !exists {
		t.state.keys = append(t.state.keys, full)
	}
	t.state.values[full] = value
}

// WriteInt records an integer value
func (t *TextWriter) WriteInt(key string, v int) {
	t.WriteString(key, strconv.Itoa(v))
}

// WriteInt32 records a 32-bit integer value
func (t *TextWriter) WriteInt32(key string, v int32) {
	t.WriteString(key, strconv.FormatInt(int64(v), 10))
}

// WriteFloat64 records a float value
func (t *TextWriter) WriteFloat64(key string, v float64) {
	t.WriteString(key, strconv.FormatFloat(v, 'g', -1, 64))
}

// WriteBool records a boolean value
func (t *TextWriter) WriteBool(key string, v bool) {
	t.WriteString(key, strconv.FormatBool(v))
}

// Flush renders all recorded pairs as key=value lines in insertion order
func (t *TextWriter) Flush(w io.Writer) error {
	if t.state.err != nil {
		return t.state.err
	}
	bw := bufio.NewWriter(w)
	for _, key := range t.state.keys {
		if _, err := fmt.Fprintf(bw, "%s=%s\n", key, t.state.values[key]); err != nil {
			return errors.WrapInternal(err, "TextWriter", "Flush", "stream write")
		}
	}
	if err := bw.Flush(); err != nil {
		return errors.WrapInternal(err, "TextWriter", "Flush", "stream flush")
	}
	return nil
}

// TextReader exposes typed lookups over a parsed key=value stream. Lookups
// for absent keys report ok=false and leave the caller's destination
// untouched, so a reader tolerates records written by older writers.
type TextReader struct {
	values map[string]string
	prefix string
}

// NewTextReader parses newline-separated key=value lines. Blank lines are
// ignored; a non-blank line without '=' is corruption.
func NewTextReader(r io.Reader) (*TextReader, error) {
	values := make(map[string]string)
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		key, value, found := strings.Cut(line, "=")
		if !found || key == "" {
			msg := fmt.Errorf("%w: malformed line %q", errors.ErrCorruptSave, line)
			return nil, errors.WrapInternal(msg, "TextReader", "New", "line parsing")
		}
		values[key] = value
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.WrapInternal(err, "TextReader", "New", "stream read")
	}
	return &TextReader{values: values}, nil
}

// Prefixed returns a view of the reader that transparently prepends prefix
// to every key.
func (t *TextReader) Prefixed(prefix string) *TextReader {
	return &TextReader{values: t.values, prefix: t.prefix + prefix}
}

// String returns the value for key
func (t *TextReader) String(key string) (string, bool) {
	v, ok := t.values[t.prefix+key]
	return v, ok
}

// Int returns the value for key parsed as an integer
func (t *TextReader) Int(key string) (int, bool) {
	raw, ok := t.String(key)
	if !ok {
		return 0, false
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return v, true
}

// Int32 returns the value for key parsed as a 32-bit integer
func (t *TextReader) Int32(key string) (int32, bool) {
	raw, ok := t.String(key)
	if !ok {
		return 0, false
	}
	v, err := strconv.ParseInt(raw, 10, 32)
	if err != nil {
		return 0, false
	}
	return int32(v), true
}

// Float64 returns the value for key parsed as a float
func (t *TextReader) Float64(key string) (float64, bool) {
	raw, ok := t.String(key)
	if !ok {
		return 0, false
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// Bool returns the value for key parsed as a boolean
func (t *TextReader) Bool(key string) (bool, bool) {
	raw, ok := t.String(key)
	if !ok {
		return false, false
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, false
	}
	return v, true
}
