package normalize

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Language codes with a lexicon. Codes without one get an empty lexicon layer.
const (
	Spanish = "spa"
)

// confusables maps glyphs OCR engines commonly emit in place of plain
// punctuation and letters. No replacement value contains any key, so the
// table can be applied any number of times with the same result.
var confusables = []Replacement{
	{"[", "("},
	{"]", ")"},
	{"{", "("},
	{"}", ")"},
	{"|", "I"},
	{`\`, "/"},
	{"´", "'"},
	{"‘", "'"},
	{"’", "'"},
	{"“", `"`},
	{"”", `"`},
	{"¬", "-"},
	{"¦", "I"},
	{"ﬁ", "fi"},
	{"ﬂ", "fl"},
	{"ﬀ", "ff"},
	{"ﬃ", "ffi"},
	{"ﬄ", "ffl"},
	{"ﬅ", "st"},
	{"ﬆ", "st"},
}

// lexicons holds the space-bounded shorthand and misreads for each
// language, applied in order.
var lexicons = map[string][]Replacement{
	Spanish: {
		{" q ", " que "},
		{" x ", " por "},
		{" dl ", " del "},
		{" 1a ", " la "},
		{" d ", " de "},
		{" m ", " más "},
		{" tb ", " también "},
	},
}

// Lexicon returns a copy of the lexicon for lang, or nil when the language
// has none.
func Lexicon(lang string) []Replacement {
	table := lexicons[lang]
	if table == nil {
		return nil
	}
	out := make([]Replacement, len(table))
	copy(out, table)
	return out
}

// Confusables returns a copy of the character confusion table.
func Confusables() []Replacement {
	out := make([]Replacement, len(confusables))
	copy(out, confusables)
	return out
}

// Whitespace classes. RE2's \s is ASCII-only, so these spell out the
// Unicode white space (NBSP, thin space, ideographic space...) that text
// copied from screens often carries. hspace excludes the newline: spacing
// repairs must never join lines.
const (
	hspace   = `[\t\v\f\r\x{1c}-\x{1f}\x{85}\p{Zs}]`
	space    = `[\t\n\v\f\r\x{1c}-\x{1f}\x{85}\p{Z}]`
	nonSpace = `[^\t\n\v\f\r\x{1c}-\x{1f}\x{85}\p{Z}]`
)

var (
	confusionLayer = Layer{
		Name:  "confusables",
		Rules: append([]Rule{RuleFunc(norm.NFC.String)}, replacements(confusables)...),
	}

	spacingLayer = Layer{
		Name: "spacing",
		Rules: []Rule{
			rewrite(hspace+`+([.,;:!?])`, "$1"),
			rewrite(`([.,;:!?])(`+nonSpace+`)`, "$1 $2"),
			rewrite(hspace+`*\n`+hspace+`*`, "\n"),
			rewrite(hspace+`+`, " "),
		},
	}

	patternLayer = Layer{
		Name: "patterns",
		Rules: []Rule{
			rewrite(`(\d)`+hspace+`*([.,])`+hspace+`*(\d)`, "$1$2$3"),
			rewrite(`([a-zA-Z])`+hspace+`*([.,])`+hspace+`*([a-zA-Z])`, "$1$2 $3"),
		},
	}

	structureLayer = Layer{
		Name: "structure",
		Rules: []Rule{
			rewrite(`(?m)^(\d+)`+hspace, "$1. "),
			rewrite(`\n(\p{Lu}\p{Ll}+):`, "\n\n$1:"),
		},
	}

	blankLineLayer = Layer{
		Name: "blank-lines",
		Rules: []Rule{
			rewrite(`\n`+space+`+\n`, "\n\n"),
			RuleFunc(strings.TrimSpace),
		},
	}
)

func lexiconLayer(lang string) Layer {
	return Layer{Name: "lexicon", Rules: replacements(lexicons[lang])}
}
