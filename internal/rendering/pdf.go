package rendering

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"

	"github.com/go-pdf/fpdf"
)

// Page setup in points
const (
	pageBreakMargin = 54
	fontFamily      = "Helvetica"
)

// WritePDF draws doc onto A4 pages and writes the result to w
func WritePDF(doc Document, w io.Writer) error {
	pdf := fpdf.New("P", "pt", "A4", "")
	pdf.SetAutoPageBreak(true, pageBreakMargin)
	pdf.AddPage()

	// Core fonts are cp1252; anything the normalizer left behind is mapped here
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	left, _, _, _ := pdf.GetMargins()

	for _, run := range doc.Runs {
		if run.Kind == KindSpacing {
			pdf.Ln(run.Height)
			continue
		}

		style := ""
		if run.Bold {
			style = "B"
		}
		pdf.SetFont(fontFamily, style, run.Size)
		if run.Indent > 0 {
			pdf.SetX(left + run.Indent)
		}
		pdf.MultiCell(0, run.Height, tr(run.Text), "", "L", false)
	}

	if err := pdf.Error(); err != nil {
		return &RenderError{Message: "failed to lay out document", Cause: err}
	}
	if err := pdf.Output(w); err != nil {
		return &RenderError{Message: "failed to write PDF", Cause: err}
	}
	return nil
}

// RenderPDF lays out markdown and returns the PDF bytes
func RenderPDF(markdown string) ([]byte, error) {
	var buf bytes.Buffer
	if err := WritePDF(Layout(markdown), &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// RenderPDFFile renders markdown to a PDF at path, creating parent directories
func RenderPDFFile(markdown, path string) error {
	data, err := RenderPDF(markdown)
	if err != nil {
		var renderErr *RenderError
		if errors.As(err, &renderErr) {
			renderErr.Path = path
		}
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return &RenderError{Message: "failed to create output directory", Path: path, Cause: err}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return &RenderError{Message: "failed to write PDF file", Path: path, Cause: err}
	}
	return nil
}
