// Package normalize turns raw OCR output into readable text.
//
// OCR engines make predictable mistakes on screenshots: brackets read as
// pipes, ligatures left as single glyphs, stray spaces around punctuation,
// decimals split in two. Normalizer repairs these with six ordered layers
// of literal and regular-expression rules. See Layers for the order.
//
// Correction tables are ordered slices, never maps, so results do not
// depend on iteration order. All functions are pure and total.
package normalize
