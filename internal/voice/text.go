package voice

import (
	"regexp"
	"strings"
)

var (
	_abbreviations = []struct {
		re   *regexp.Regexp
		repl string
	}{
		{regexp.MustCompile(`(?i)\bdr\.`), "doktor"},
		{regexp.MustCompile(`(?i)\bprof\.`), "professor"},
		{regexp.MustCompile(`(?i)\bkr\.`), "kroner"},
	}

	_amountKr     = regexp.MustCompile(`(?i)(\d+)\s*kr\b`)
	_amountDashed = regexp.MustCompile(`(\d+)\s*,-`)
	_whitespace   = regexp.MustCompile(`\s+`)
)

// PreprocessNorwegianText spells out abbreviations and amounts so the
// multilingual model reads them the Norwegian way.
func PreprocessNorwegianText(text string) string {
	for _, a := range _abbreviations {
		text = a.re.ReplaceAllString(text, a.repl)
	}
	text = _amountKr.ReplaceAllString(text, "$1 kroner")
	text = _amountDashed.ReplaceAllString(text, "$1 kroner")
	text = _whitespace.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}
