package rendering

import "strings"

// RunKind classifies a laid-out line
type RunKind string

const (
	KindSpacing RunKind = "spacing"
	KindHeading RunKind = "heading"
	KindBullet  RunKind = "bullet"
	KindBody    RunKind = "body"
)

// Font sizes and offsets in points
const (
	heading1Size  = 18
	heading2Size  = 14
	heading3Size  = 12
	bodySize      = 11
	bulletIndent  = 10
	blankSpacing  = 6
	lineExtraLead = 6
)

// Run is one page-local write operation. Spacing runs carry no text and
// only advance the cursor by Height.
type Run struct {
	Kind   RunKind `json:"kind"`
	Level  int     `json:"level,omitempty"`
	Text   string  `json:"text,omitempty"`
	Size   float64 `json:"size,omitempty"`
	Bold   bool    `json:"bold,omitempty"`
	Indent float64 `json:"indent,omitempty"`
	Height float64 `json:"height"`
}

// Document is the ordered sequence of runs produced from Markdown text
type Document struct {
	Runs []Run `json:"runs"`
}

// Layout classifies each line of markdown and returns the styled runs.
// It never fails: anything unrecognised becomes a body run.
func Layout(markdown string) Document {
	lines := splitLines(markdown)
	doc := Document{Runs: make([]Run, 0, len(lines))}

	for _, line := range lines {
		doc.Runs = append(doc.Runs, classifyLine(line))
	}

	return doc
}

func classifyLine(line string) Run {
	switch {
	case strings.TrimSpace(line) == "":
		return Run{Kind: KindSpacing, Height: blankSpacing}
	case strings.HasPrefix(line, "# "):
		return textRun(KindHeading, 1, line[2:], heading1Size, true, 0)
	case strings.HasPrefix(line, "## "):
		return textRun(KindHeading, 2, line[3:], heading2Size, true, 0)
	case strings.HasPrefix(line, "### "):
		return textRun(KindHeading, 3, line[4:], heading3Size, true, 0)
	case strings.HasPrefix(line, "- "):
		return textRun(KindBullet, 0, "- "+strings.TrimSpace(line[2:]), bodySize, false, bulletIndent)
	default:
		return textRun(KindBody, 0, line, bodySize, false, 0)
	}
}

func textRun(kind RunKind, level int, text string, size float64, bold bool, indent float64) Run {
	return Run{
		Kind:   kind,
		Level:  level,
		Text:   NormalizeText(strings.TrimSpace(text)),
		Size:   size,
		Bold:   bold,
		Indent: indent,
		Height: size + lineExtraLead,
	}
}

// splitLines splits on \n, \r\n and \r, dropping a single trailing terminator
func splitLines(text string) []string {
	if text == "" {
		return nil
	}
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	text = strings.TrimSuffix(text, "\n")
	return strings.Split(text, "\n")
}
