package formdata

import (
	"bytes"
	"errors"
	"strings"

	"golang.org/x/text/encoding/unicode"
)

var (
	crlf          = []byte("\r\n")
	headerEnd     = []byte("\r\n\r\n")
	closeSentinel = []byte("--")
)

// Reasons recorded in diagnostics
const (
	ReasonNoHeaderSeparator = "missing header/content separator"
	ReasonNoDisposition     = "missing content-disposition header"
	ReasonNoName            = "content-disposition has no name"
	ReasonOverwritten       = "overwritten by a later section with the same name"
)

// ErrNoBoundary is returned when a Content-Type has no usable boundary
var ErrNoBoundary = errors.New("multipart boundary not found")

// Decode parses body as multipart/form-data delimited by boundary.
// Malformed sections are skipped, so Decode always returns a submission.
func Decode(body []byte, boundary string) Submission {
	submission, _ := DecodeWithDiagnostics(body, boundary)
	return submission
}

// DecodeWithDiagnostics is Decode plus a record of every section that was
// dropped or overwritten and why.
func DecodeWithDiagnostics(body []byte, boundary string) (Submission, []Diagnostic) {
	submission := make(Submission)
	var diagnostics []Diagnostic
	if boundary == "" {
		return submission, diagnostics
	}

	delimiter := []byte("--" + boundary)
	sections := bytes.Split(body, delimiter)
	indexOf := make(map[string]int)

	// sections[0] is the preamble
	for i, section := range sections[1:] {
		index := i + 1
		if bytes.HasPrefix(section, closeSentinel) {
			break
		}

		section = bytes.TrimPrefix(section, crlf)
		section = bytes.TrimSuffix(section, crlf)

		header, content, found := bytes.Cut(section, headerEnd)
		if !found {
			diagnostics = append(diagnostics, Diagnostic{Index: index, Reason: ReasonNoHeaderSeparator})
			continue
		}

		disposition, ok := parseHeaders(header)["content-disposition"]
		if !ok {
			diagnostics = append(diagnostics, Diagnostic{Index: index, Reason: ReasonNoDisposition})
			continue
		}

		params := parseParams(disposition)
		name, ok := params["name"]
		if !ok || name == "" {
			diagnostics = append(diagnostics, Diagnostic{Index: index, Reason: ReasonNoName})
			continue
		}

		if prev, seen := indexOf[name]; seen {
			diagnostics = append(diagnostics, Diagnostic{Index: prev, Field: name, Reason: ReasonOverwritten})
		}
		indexOf[name] = index

		if filename, isFile := params["filename"]; isFile {
			submission[name] = Value{File: &FilePart{
				FieldName: name,
				Filename:  filename,
				Content:   bytes.Clone(content),
			}}
			continue
		}
		submission[name] = Value{Text: decodeText(content)}
	}

	return submission, diagnostics
}

// BoundaryFromContentType extracts the boundary parameter of a
// multipart/form-data Content-Type header. The value may be quoted.
func BoundaryFromContentType(contentType string) (string, error) {
	mediaType, rest, _ := strings.Cut(contentType, ";")
	if !strings.EqualFold(strings.TrimSpace(mediaType), "multipart/form-data") {
		return "", ErrNoBoundary
	}
	boundary := parseParams(rest)["boundary"]
	if boundary == "" {
		return "", ErrNoBoundary
	}
	return boundary, nil
}

// parseHeaders reads "Name: value" lines, lower-casing names
func parseHeaders(block []byte) map[string]string {
	headers := make(map[string]string)
	for _, line := range strings.Split(string(block), "\r\n") {
		name, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		headers[strings.ToLower(strings.TrimSpace(name))] = strings.TrimSpace(value)
	}
	return headers
}

// parseParams splits a header value such as
// `form-data; name="cv"; filename="a;b.pdf"` into lower-cased keys and
// unquoted values. Semicolons inside quotes do not split.
func parseParams(value string) map[string]string {
	params := make(map[string]string)
	for _, item := range splitUnquoted(value, ';') {
		key, val, ok := strings.Cut(item, "=")
		if !ok {
			continue
		}
		key = strings.ToLower(strings.TrimSpace(key))
		if key == "" {
			continue
		}
		params[key] = unquote(strings.TrimSpace(val))
	}
	return params
}

func splitUnquoted(s string, sep byte) []string {
	var parts []string
	inQuotes := false
	escaped := false
	start := 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case escaped:
			escaped = false
		case c == '\\' && inQuotes:
			escaped = true
		case c == '"':
			inQuotes = !inQuotes
		case c == sep && !inQuotes:
			parts = append(parts, s[start:i])
			start = i + 1
		}
	}
	return append(parts, s[start:])
}

// unquote strips surrounding double quotes and resolves \" and \\ escapes
func unquote(s string) string {
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return s
	}
	s = s[1 : len(s)-1]
	if !strings.Contains(s, `\`) {
		return s
	}

	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) && (s[i+1] == '"' || s[i+1] == '\\') {
			i++
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

// decodeText decodes content as UTF-8, replacing invalid bytes, and trims whitespace
func decodeText(content []byte) string {
	decoded, err := unicode.UTF8.NewDecoder().Bytes(content)
	if err != nil {
		decoded = bytes.ToValidUTF8(content, []byte("\uFFFD"))
	}
	return strings.TrimSpace(string(decoded))
}
