package analysis

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// wordPattern matches letter runs, keeping internal hyphens and apostrophes so
// that "user-friendly" and "system's" stay one token.
var wordPattern = regexp.MustCompile(`\p{L}+(?:['\-]\p{L}+)*`)

// Preprocessor splits requirement text into requirements, sentences and words
type Preprocessor struct {
	delimiter string
}

// NewPreprocessor creates a new preprocessor splitting sentences on delimiter
func NewPreprocessor(delimiter string) *Preprocessor {
	if strings.TrimSpace(delimiter) == "" {
		delimiter = "."
	}
	return &Preprocessor{delimiter: delimiter}
}

// SplitRequirements returns one requirement per non-blank line, trimmed
func (p *Preprocessor) SplitRequirements(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	var requirements []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			requirements = append(requirements, line)
		}
	}
	return requirements
}

// SplitSentences splits text on the delimiter. A delimiter only ends a
// sentence when followed by whitespace or the end of text, so "1.5" survives.
// Blank fragments are dropped.
func (p *Preprocessor) SplitSentences(text string) []string {
	var sentences []string
	emit := func(s string) {
		if s = strings.TrimSpace(s); s != "" {
			sentences = append(sentences, s)
		}
	}

	start := 0
	for i := 0; i < len(text); {
		idx := strings.Index(text[i:], p.delimiter)
		if idx < 0 {
			break
		}
		end := i + idx + len(p.delimiter)
		if end == len(text) || startsWithSpace(text[end:]) {
			emit(text[start : i+idx])
			start = end
		}
		i = end
	}
	emit(text[start:])

	return sentences
}

// Tokenize lowercases text and returns its words
func (p *Preprocessor) Tokenize(text string) []string {
	words := wordPattern.FindAllString(strings.ToLower(text), -1)
	if words == nil {
		return []string{}
	}
	return words
}

func startsWithSpace(s string) bool {
	r, _ := utf8.DecodeRuneInString(s)
	return unicode.IsSpace(r)
}
