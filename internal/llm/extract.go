package llm

import (
	"bytes"
	"encoding/json"
	"strings"
)

const fence = "```"

// ExtractObject recovers a JSON object from generated text. Fenced code
// blocks are tried first and the first one holding a valid object wins.
// Otherwise the first JSON value starting at the earliest '{' or '[' is
// decoded and any trailing commentary is ignored. That value must be an object.
func ExtractObject(raw string) (*Record, error) {
	text := strings.TrimSpace(raw)

	if strings.Contains(text, fence) {
		if record, ok := firstFencedObject(text); ok {
			return record, nil
		}
	}

	start := firstValueStart(text)
	if start < 0 {
		return nil, &ExtractionError{Message: "no JSON object/array found"}
	}

	var value json.RawMessage
	dec := json.NewDecoder(strings.NewReader(text[start:]))
	if err := dec.Decode(&value); err != nil {
		return nil, &ExtractionError{Message: "failed to decode JSON", Cause: err}
	}

	value = bytes.TrimSpace(value)
	if len(value) == 0 || value[0] != '{' {
		return nil, &ExtractionError{Message: "expected object"}
	}

	record := NewRecord()
	if err := json.Unmarshal(value, record); err != nil {
		return nil, &ExtractionError{Message: "failed to decode JSON", Cause: err}
	}
	return record, nil
}

// firstFencedObject scans the odd segments of text split on fence markers
func firstFencedObject(text string) (*Record, bool) {
	parts := strings.Split(text, fence)
	for i := 1; i < len(parts); i += 2 {
		block := strings.TrimSpace(parts[i])
		if len(block) >= 4 && strings.EqualFold(block[:4], "json") {
			block = strings.TrimSpace(block[4:])
		}
		if !strings.HasPrefix(block, "{") || !json.Valid([]byte(block)) {
			continue
		}

		record := NewRecord()
		if err := json.Unmarshal([]byte(block), record); err != nil {
			continue
		}
		return record, true
	}
	return nil, false
}

func firstValueStart(text string) int {
	obj := strings.IndexByte(text, '{')
	arr := strings.IndexByte(text, '[')
	switch {
	case obj < 0:
		return arr
	case arr < 0:
		return obj
	default:
		return min(obj, arr)
	}
}
