package rendering

import (
	"bytes"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
)

var previewPolicy = bluemonday.UGCPolicy()

// PreviewHTML converts markdown to HTML that is safe to embed in the UI.
// Raw HTML in the source is dropped.
func PreviewHTML(markdown string) (string, error) {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(markdown), &buf); err != nil {
		return "", &RenderError{Message: "failed to convert markdown", Cause: err}
	}
	return previewPolicy.Sanitize(buf.String()), nil
}
