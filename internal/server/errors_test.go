package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/job-tailor/internal/llm"
)

func TestErrValidation(t *testing.T) {
	err := &ErrValidation{Field: "cv_file", Message: "Upload a CV file."}
	assert.Equal(t, "validation error: cv_file - Upload a CV file.", err.Error())
	assert.Equal(t, http.StatusBadRequest, HTTPStatus(err))
	assert.Equal(t, "Upload a CV file.", clientMessage(err))
}

func TestErrNotFound(t *testing.T) {
	err := &ErrNotFound{Path: "outputs/a.md"}
	assert.Equal(t, "not found: outputs/a.md", err.Error())
	assert.Equal(t, http.StatusNotFound, HTTPStatus(err))
}

func TestHTTPStatus_Wrapped(t *testing.T) {
	err := fmt.Errorf("decode: %w", &http.MaxBytesError{Limit: 10})
	assert.Equal(t, http.StatusRequestEntityTooLarge, HTTPStatus(err))
	assert.Equal(t, "Request body exceeds 10 bytes.", clientMessage(err))

	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(errors.New("boom")))
	assert.Equal(t, "boom", clientMessage(errors.New("boom")))
}

func TestFormatAuditPreview(t *testing.T) {
	many := make([]string, 15)
	for i := range many {
		many[i] = fmt.Sprintf("kw%d", i)
	}
	manyJSON, err := json.Marshal(many)
	require.NoError(t, err)

	tests := []struct {
		name     string
		raw      string
		expected string
	}{
		{
			name:     "empty audit",
			raw:      `{"revised_cv": "# CV"}`,
			expected: "ATS AUDIT",
		},
		{
			name:     "sections in order",
			raw:      `{"proposed_edits": ["c"], "missing_keywords": ["a", "b"], "formatting_risks": []}`,
			expected: "ATS AUDIT\n\nMissing keywords:\n- a\n- b\n\nProposed edits:\n- c",
		},
		{
			name:     "non-string items skipped",
			raw:      `{"formatting_risks": ["tables", 3, null]}`,
			expected: "ATS AUDIT\n\nFormatting risks:\n- tables",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			audit := llm.NewRecord()
			require.NoError(t, json.Unmarshal([]byte(tt.raw), audit))
			assert.Equal(t, tt.expected, FormatAuditPreview(audit))
		})
	}

	t.Run("capped at twelve", func(t *testing.T) {
		audit := llm.NewRecord()
		require.NoError(t, json.Unmarshal([]byte(`{"missing_keywords": `+string(manyJSON)+`}`), audit))
		preview := FormatAuditPreview(audit)
		assert.Contains(t, preview, "- kw11")
		assert.NotContains(t, preview, "- kw12")
	})
}
