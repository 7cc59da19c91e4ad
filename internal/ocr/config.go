package ocr

import (
	"fmt"
	"time"
)

// Languages the recognizer is configured for. Each needs the matching
// <code>.traineddata installed for Tesseract.
const (
	DefaultLanguage = "spa"

	// DefaultTimeout bounds a single recognition call.
	DefaultTimeout = 15 * time.Second

	// DefaultBlacklist lists characters Tesseract must never emit. On
	// screenshots these come almost exclusively from borders and UI chrome.
	DefaultBlacklist = `|\~<>`
)

// SupportedLanguages lists the accepted language codes, default first.
var SupportedLanguages = []string{"spa", "eng", "fra", "por"}

// IsSupported reports whether lang is one of SupportedLanguages.
func IsSupported(lang string) bool {
	for _, l := range SupportedLanguages {
		if l == lang {
			return true
		}
	}
	return false
}

// EngineMode selects the Tesseract recognition engine.
type EngineMode int

const (
	// EngineDefault lets Tesseract pick based on the installed models,
	// which is LSTM for current traineddata files.
	EngineDefault EngineMode = iota
)

func (m EngineMode) String() string {
	return "default"
}

// PageSegMode is the layout assumption handed to Tesseract. Values match
// Tesseract's own numbering.
type PageSegMode int

const (
	// PSMAuto is fully automatic page segmentation.
	PSMAuto PageSegMode = 3
	// PSMSingleBlock treats the image as a single uniform block of text.
	PSMSingleBlock PageSegMode = 6
)

// Config controls a single recognition call. It is a plain value: engines
// read it and never modify it.
type Config struct {
	Language                string        `json:"language"`
	EngineMode              EngineMode    `json:"engine_mode"`
	PageSegMode             PageSegMode   `json:"page_seg_mode"`
	Blacklist               string        `json:"blacklist"`
	PreserveInterwordSpaces bool          `json:"preserve_interword_spaces"`
	Timeout                 time.Duration `json:"timeout"`

	// TessdataPrefix overrides the directory Tesseract loads models from.
	// Empty uses the engine's default search path.
	TessdataPrefix string `json:"tessdata_prefix,omitempty"`
}

// NewConfig returns the capture pipeline's configuration for lang. An empty
// lang selects DefaultLanguage.
func NewConfig(lang string) (Config, error) {
	if lang == "" {
		lang = DefaultLanguage
	}
	cfg := Config{
		Language:                lang,
		EngineMode:              EngineDefault,
		PageSegMode:             PSMSingleBlock,
		Blacklist:               DefaultBlacklist,
		PreserveInterwordSpaces: true,
		Timeout:                 DefaultTimeout,
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks that the language is supported and the timeout positive.
func (c Config) Validate() error {
	if !IsSupported(c.Language) {
		return fmt.Errorf("unsupported language %q (supported: %v)", c.Language, SupportedLanguages)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %s", c.Timeout)
	}
	return nil
}
