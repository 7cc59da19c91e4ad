package normalize

// Normalizer repairs raw OCR output by running a fixed sequence of
// correction layers. It holds no mutable state and is safe for concurrent
// use.
type Normalizer struct {
	lang   string
	layers []Layer
}

// New returns a Normalizer whose lexicon layer matches lang. Languages
// without a lexicon still get the five language-neutral layers.
func New(lang string) *Normalizer {
	return &Normalizer{lang: lang, layers: Layers(lang)}
}

// Language reports the language code the Normalizer was built for.
func (n *Normalizer) Language() string {
	return n.lang
}

// Layers returns the correction layers for lang in the order they run:
//
//  1. confusables: Unicode NFC, then glyph substitutions
//  2. spacing: whitespace around punctuation, runs collapsed
//  3. patterns: split decimals and abbreviations rejoined
//  4. structure: numbered lists and headings
//  5. lexicon: per-language shorthand expansion
//  6. blank-lines: blank runs collapsed, ends trimmed
//
// The order matters. Later layers assume the spacing produced by earlier
// ones.
func Layers(lang string) []Layer {
	return []Layer{
		confusionLayer,
		spacingLayer,
		patternLayer,
		structureLayer,
		lexiconLayer(lang),
		blankLineLayer,
	}
}

// Clean runs every layer over raw and returns the repaired text. It never
// fails; Clean("") returns "".
func (n *Normalizer) Clean(raw string) string {
	if raw == "" {
		return ""
	}
	text := raw
	for _, l := range n.layers {
		text = l.Apply(text)
	}
	return text
}

// Stage records the text as it left one layer.
type Stage struct {
	Layer  string `json:"layer"`
	Output string `json:"output"`
}

// Trace is Clean, but returns the intermediate text after every layer.
// The last stage's Output equals Clean(raw).
func (n *Normalizer) Trace(raw string) []Stage {
	stages := make([]Stage, 0, len(n.layers))
	text := raw
	for _, l := range n.layers {
		text = l.Apply(text)
		stages = append(stages, Stage{Layer: l.Name, Output: text})
	}
	return stages
}

var spanish = New(Spanish)

// Clean repairs raw with the Spanish lexicon.
func Clean(raw string) string {
	return spanish.Clean(raw)
}

// FixConfusables composes text to NFC and replaces glyphs that OCR commonly
// confuses with plain punctuation or letters.
func FixConfusables(text string) string {
	return confusionLayer.Apply(text)
}

// NormalizeSpacing removes whitespace before punctuation, ensures one space
// after it, and collapses horizontal whitespace. Line breaks are kept.
func NormalizeSpacing(text string) string {
	return spacingLayer.Apply(text)
}

// RepairPatterns rejoins decimals split by OCR ("10 . 5" becomes "10.5")
// and re-spaces abbreviations ("p . ej" becomes "p. ej").
func RepairPatterns(text string) string {
	return patternLayer.Apply(text)
}

// FormatStructure turns a leading line number into "N. " and puts a blank
// line before capitalized "Heading:" lines.
func FormatStructure(text string) string {
	return structureLayer.Apply(text)
}

// ExpandLexicon applies the lexicon for lang. Unknown languages are a no-op.
func ExpandLexicon(text, lang string) string {
	return lexiconLayer(lang).Apply(text)
}

// CollapseBlankLines reduces whitespace-only lines between paragraphs to a
// single blank line and trims the ends.
func CollapseBlankLines(text string) string {
	return blankLineLayer.Apply(text)
}
