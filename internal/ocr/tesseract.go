package ocr

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
	"github.com/otiai10/gosseract/v2"
)

// Recognizer turns an image into raw text.
//
// Implementations must honour ctx and cfg.Timeout, returning a
// *RecognitionError of KindTimeout rather than blocking past the deadline.
type Recognizer interface {
	Recognize(ctx context.Context, img image.Image, cfg Config) (string, error)
}

// RecognizerFunc adapts a plain function to the Recognizer interface.
type RecognizerFunc func(ctx context.Context, img image.Image, cfg Config) (string, error)

// Recognize implements Recognizer.
func (f RecognizerFunc) Recognize(ctx context.Context, img image.Image, cfg Config) (string, error) {
	return f(ctx, img, cfg)
}

// Tesseract recognizes text with the Tesseract engine through gosseract.
// The zero value is ready to use. Every call gets its own engine client, so
// a Tesseract may be shared between goroutines.
type Tesseract struct{}

// NewTesseract returns a Tesseract recognizer.
func NewTesseract() *Tesseract {
	return &Tesseract{}
}

type recognition struct {
	text string
	err  error
}

// Recognize runs Tesseract over img with the settings in cfg.
//
// The engine runs on its own goroutine. If it has not answered when
// cfg.Timeout elapses (or ctx is done first), Recognize returns a
// KindTimeout error; the abandoned engine call finishes in the background
// and its client is closed when it does.
func (t *Tesseract) Recognize(ctx context.Context, img image.Image, cfg Config) (string, error) {
	if err := cfg.Validate(); err != nil {
		return "", newError(KindEngineFailure, err, "invalid configuration")
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return "", newError(KindEngineFailure, err, "failed to encode image")
	}

	ctx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	done := make(chan recognition, 1)
	go func() {
		text, err := runTesseract(buf.Bytes(), cfg)
		done <- recognition{text: text, err: err}
	}()

	select {
	case r := <-done:
		if r.err != nil {
			return "", newError(KindEngineFailure, r.err, "tesseract failed")
		}
		return r.text, nil
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", newError(KindTimeout, ctx.Err(), "no answer within %s", cfg.Timeout)
		}
		return "", newError(KindTimeout, ctx.Err(), "cancelled")
	}
}

func runTesseract(png []byte, cfg Config) (string, error) {
	client := gosseract.NewClient()
	defer client.Close()

	if cfg.TessdataPrefix != "" {
		if err := client.SetTessdataPrefix(cfg.TessdataPrefix); err != nil {
			return "", fmt.Errorf("failed to set tessdata prefix: %w", err)
		}
	}
	if err := client.SetLanguage(cfg.Language); err != nil {
		return "", fmt.Errorf("failed to set language: %w", err)
	}
	if err := client.SetPageSegMode(gosseract.PageSegMode(cfg.PageSegMode)); err != nil {
		return "", fmt.Errorf("failed to set page segmentation mode: %w", err)
	}
	if cfg.Blacklist != "" {
		if err := client.SetBlacklist(cfg.Blacklist); err != nil {
			return "", fmt.Errorf("failed to set blacklist: %w", err)
		}
	}
	if cfg.PreserveInterwordSpaces {
		if err := client.SetVariable("preserve_interword_spaces", "1"); err != nil {
			return "", fmt.Errorf("failed to set preserve_interword_spaces: %w", err)
		}
	}
	if err := client.SetImageFromBytes(png); err != nil {
		return "", fmt.Errorf("failed to set image: %w", err)
	}

	text, err := client.Text()
	if err != nil {
		return "", fmt.Errorf("OCR failed: %w", err)
	}
	return text, nil
}

// EngineInfo describes the local OCR engine.
type EngineInfo struct {
	Available bool     `json:"available"`
	Version   string   `json:"version,omitempty"`
	Languages []string `json:"languages,omitempty"`
	Missing   []string `json:"missing,omitempty"`
	Error     string   `json:"error,omitempty"`
	Backend   string   `json:"backend"`
}

// Info reports whether Tesseract can be reached, its version, and which of
// SupportedLanguages have no installed model.
func Info() EngineInfo {
	info := EngineInfo{Backend: "gosseract"}

	client := gosseract.NewClient()
	defer client.Close()

	info.Version = client.Version()
	if info.Version == "" {
		info.Error = "tesseract did not report a version"
		return info
	}

	langs, err := gosseract.GetAvailableLanguages()
	if err != nil {
		info.Error = fmt.Sprintf("failed to list languages: %v", err)
		return info
	}
	info.Available = true
	info.Languages = langs

	installed := make(map[string]bool, len(langs))
	for _, l := range langs {
		installed[l] = true
	}
	for _, l := range SupportedLanguages {
		if !installed[l] {
			info.Missing = append(info.Missing, l)
		}
	}
	return info
}
