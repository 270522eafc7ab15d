package rendering

import "strings"

// MaxTokenLength is the longest run of non-space characters left intact by BreakLongWords
const MaxTokenLength = 60

// substitutions maps typographic punctuation to ASCII. Applied in order.
var substitutions = []struct {
	from string
	to   string
}{
	{"–", "-"},  // en dash
	{"—", "--"}, // em dash
	{"•", "-"},  // bullet
	{"→", "->"},
	{"←", "<-"},
	{"“", `"`},
	{"”", `"`},
	{"‘", "'"},
	{"’", "'"},
	{"\u2011", "-"}, // non-breaking hyphen
	{"\u00a0", " "},
}

// NormalizeText replaces exotic punctuation with ASCII equivalents and then
// breaks tokens longer than MaxTokenLength so fixed-width wrapping always has
// a place to split.
func NormalizeText(text string) string {
	if text == "" {
		return ""
	}
	for _, s := range substitutions {
		text = strings.ReplaceAll(text, s.from, s.to)
	}
	return BreakLongWords(text, MaxTokenLength)
}

// BreakLongWords chops every space-separated token longer than maxLen
// characters into maxLen-sized chunks joined by single spaces.
func BreakLongWords(text string, maxLen int) string {
	if maxLen <= 0 {
		return text
	}

	tokens := strings.Split(text, " ")
	for i, token := range tokens {
		runes := []rune(token)
		if len(runes) <= maxLen {
			continue
		}

		var b strings.Builder
		b.Grow(len(token) + len(runes)/maxLen)
		for start := 0; start < len(runes); start += maxLen {
			if start > 0 {
				b.WriteByte(' ')
			}
			end := min(start+maxLen, len(runes))
			b.WriteString(string(runes[start:end]))
		}
		tokens[i] = b.String()
	}

	return strings.Join(tokens, " ")
}
