// Package formdata decodes buffered multipart/form-data request bodies.
package formdata

import (
	"fmt"
	"strings"
)

// FilePart is an uploaded file. Filename is whatever the client declared and must not be trusted.
type FilePart struct {
	FieldName string
	Filename  string
	Content   []byte
}

// Value is either a text field or a file part
type Value struct {
	Text string
	File *FilePart
}

// IsFile reports whether the value is a file part
func (v Value) IsFile() bool {
	return v.File != nil
}

// Submission maps field names to their decoded values. A repeated field
// name overwrites the earlier occurrence.
type Submission map[string]Value

// Text returns the text value of field, or "" when missing or a file
func (s Submission) Text(field string) string {
	v, ok := s[field]
	if !ok || v.IsFile() {
		return ""
	}
	return v.Text
}

// TextOr returns the text value of field, or def when the field is absent
func (s Submission) TextOr(field, def string) string {
	v, ok := s[field]
	if !ok || v.IsFile() {
		return def
	}
	return v.Text
}

// File returns the file part of field, or nil
func (s Submission) File(field string) *FilePart {
	v, ok := s[field]
	if !ok {
		return nil
	}
	return v.File
}

// Bool interprets a text field as a flag. 1, true, yes and on (any case) are true.
func (s Submission) Bool(field string, def bool) bool {
	v, ok := s[field]
	if !ok || v.IsFile() {
		return def
	}
	switch strings.ToLower(strings.TrimSpace(v.Text)) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}

// Diagnostic describes a section that was dropped while decoding
type Diagnostic struct {
	Index  int    `json:"index"`
	Field  string `json:"field,omitempty"`
	Reason string `json:"reason"`
}

func (d Diagnostic) String() string {
	if d.Field != "" {
		return fmt.Sprintf("section %d (%s): %s", d.Index, d.Field, d.Reason)
	}
	return fmt.Sprintf("section %d: %s", d.Index, d.Reason)
}
