// Package rendering turns Markdown-like documents into laid-out PDF pages.
package rendering

import "fmt"

// RenderError represents a failure of the PDF backend
type RenderError struct {
	Message string
	Path    string
	Cause   error
}

func (e *RenderError) Error() string {
	msg := e.Message
	if e.Path != "" {
		msg = fmt.Sprintf("%s (%s)", e.Message, e.Path)
	}
	if e.Cause != nil {
		return fmt.Sprintf("render error: %s: %v", msg, e.Cause)
	}
	return fmt.Sprintf("render error: %s", msg)
}

func (e *RenderError) Unwrap() error {
	return e.Cause
}
