package llm

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Record is a JSON object that remembers the order of its keys.
// A repeated key keeps its first position and takes the last value.
type Record struct {
	keys   []string
	values map[string]json.RawMessage
}

// NewRecord returns an empty record
func NewRecord() *Record {
	return &Record{values: make(map[string]json.RawMessage)}
}

// UnmarshalJSON decodes a JSON object. Any other top-level value is an error.
func (r *Record) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("expected object, got %s", describeToken(tok))
	}

	r.keys = r.keys[:0]
	r.values = make(map[string]json.RawMessage)

	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("expected object key, got %s", describeToken(tok))
		}

		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return err
		}
		r.set(key, value)
	}

	// closing brace
	if _, err := dec.Token(); err != nil {
		return err
	}
	return nil
}

// MarshalJSON encodes the record with keys in their original order
func (r Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, key := range r.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(key)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(r.values[key])
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Set stores value under key, encoding it as JSON
func (r *Record) Set(key string, value any) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(value); err != nil {
		return err
	}
	raw := json.RawMessage(bytes.TrimRight(buf.Bytes(), "\n"))
	if r.values == nil {
		r.values = make(map[string]json.RawMessage)
	}
	r.set(key, raw)
	return nil
}

func (r *Record) set(key string, value json.RawMessage) {
	if _, exists := r.values[key]; !exists {
		r.keys = append(r.keys, key)
	}
	r.values[key] = value
}

// Get returns the raw JSON stored under key
func (r *Record) Get(key string) (json.RawMessage, bool) {
	v, ok := r.values[key]
	return v, ok
}

// Keys returns the keys in order
func (r *Record) Keys() []string {
	return append([]string(nil), r.keys...)
}

// Len returns the number of keys
func (r *Record) Len() int {
	return len(r.keys)
}

// String returns the value under key if it is a JSON string, otherwise ""
func (r *Record) String(key string) string {
	var s string
	if err := json.Unmarshal(r.values[key], &s); err != nil {
		return ""
	}
	return s
}

// StringSlice returns the string elements of an array value. Non-string
// elements are skipped.
func (r *Record) StringSlice(key string) []string {
	var items []json.RawMessage
	if err := json.Unmarshal(r.values[key], &items); err != nil {
		return nil
	}
	var out []string
	for _, item := range items {
		var s string
		if len(item) > 0 && item[0] == '"' && json.Unmarshal(item, &s) == nil {
			out = append(out, s)
		}
	}
	return out
}

// Truthy reports whether key holds a value other than null, false, 0, "" or an empty array/object
func (r *Record) Truthy(key string) bool {
	raw, ok := r.values[key]
	if !ok {
		return false
	}
	switch v := strings.TrimSpace(string(raw)); v {
	case "", "null", "false", `""`:
		return false
	default:
		if v[0] == '[' || v[0] == '{' {
			return !isEmptyContainer(v)
		}
		var f float64
		if json.Unmarshal([]byte(v), &f) == nil {
			return f != 0
		}
		return true
	}
}

// Label returns the value under key as display text, or fallback when the value is falsy.
// Non-string values are rendered as compact JSON.
func (r *Record) Label(key, fallback string) string {
	if !r.Truthy(key) {
		return fallback
	}
	if s := r.String(key); s != "" {
		return s
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, r.values[key]); err != nil {
		return fallback
	}
	return buf.String()
}

// Indent renders the record as 2-space indented JSON without HTML escaping
func (r *Record) Indent() ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

func isEmptyContainer(v string) bool {
	inner := strings.TrimSpace(v[1 : len(v)-1])
	return inner == ""
}

func describeToken(tok json.Token) string {
	switch t := tok.(type) {
	case json.Delim:
		if t == '[' {
			return "array"
		}
		return fmt.Sprintf("%q", t.String())
	case string:
		return "string"
	case float64, json.Number:
		return "number"
	case bool:
		return "boolean"
	case nil:
		return "null"
	default:
		return fmt.Sprintf("%T", tok)
	}
}
