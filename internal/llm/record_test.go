package llm

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustMarshal(t *testing.T, record *Record) string {
	t.Helper()
	data, err := json.Marshal(record)
	require.NoError(t, err)
	return string(data)
}

func TestRecord_UnmarshalRejectsNonObjects(t *testing.T) {
	for _, input := range []string{`[1]`, `"s"`, `1`, `true`} {
		t.Run(input, func(t *testing.T) {
			record := NewRecord()
			err := json.Unmarshal([]byte(input), record)
			assert.Error(t, err)
		})
	}
}

func TestRecord_DuplicateKeys(t *testing.T) {
	record := NewRecord()
	require.NoError(t, json.Unmarshal([]byte(`{"a": 1, "b": 2, "a": 3}`), record))

	assert.Equal(t, []string{"a", "b"}, record.Keys())
	assert.Equal(t, 2, record.Len())
	raw, ok := record.Get("a")
	require.True(t, ok)
	assert.Equal(t, "3", string(raw))
}

func TestRecord_Accessors(t *testing.T) {
	record := NewRecord()
	require.NoError(t, json.Unmarshal([]byte(`{
		"company": "Acme",
		"title": "",
		"skills": ["go", 7, "sql"],
		"years": 5,
		"remote": false,
		"meta": {},
		"missing": null
	}`), record))

	assert.Equal(t, "Acme", record.String("company"))
	assert.Equal(t, "", record.String("years"))
	assert.Equal(t, "", record.String("absent"))
	assert.Equal(t, []string{"go", "sql"}, record.StringSlice("skills"))
	assert.Nil(t, record.StringSlice("company"))

	_, ok := record.Get("absent")
	assert.False(t, ok)
}

func TestRecord_Truthy(t *testing.T) {
	record := NewRecord()
	require.NoError(t, json.Unmarshal([]byte(`{
		"s": "x", "empty": "", "zero": 0, "zerof": 0.0, "n": 2, "t": true, "f": false,
		"null": null, "arr": [], "arr1": [0], "obj": {}, "obj1": {"k": 1}, "space": " "
	}`), record))

	truthy := []string{"s", "n", "t", "arr1", "obj1", "space"}
	falsy := []string{"empty", "zero", "zerof", "f", "null", "arr", "obj", "absent"}

	for _, key := range truthy {
		assert.True(t, record.Truthy(key), key)
	}
	for _, key := range falsy {
		assert.False(t, record.Truthy(key), key)
	}
}

func TestRecord_Label(t *testing.T) {
	record := NewRecord()
	require.NoError(t, json.Unmarshal([]byte(`{"company": "Acme", "title": null, "level": 3}`), record))

	assert.Equal(t, "Acme", record.Label("company", "unknown-company"))
	assert.Equal(t, "unknown-role", record.Label("title", "unknown-role"))
	assert.Equal(t, "3", record.Label("level", "x"))
}

func TestRecord_SetAndIndent(t *testing.T) {
	record := NewRecord()
	require.NoError(t, record.Set("b", "<tag>"))
	require.NoError(t, record.Set("a", []int{1, 2}))

	out, err := record.Indent()
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"b\": \"<tag>\",\n  \"a\": [\n    1,\n    2\n  ]\n}", string(out))
}

func TestRecord_ZeroValueMarshals(t *testing.T) {
	var record Record
	data, err := json.Marshal(record)
	require.NoError(t, err)
	assert.Equal(t, "{}", string(data))
}
