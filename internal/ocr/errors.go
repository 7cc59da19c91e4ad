package ocr

import (
	"errors"
	"fmt"
	"strings"
)

// ErrRecognitionFailed matches every *RecognitionError via errors.Is.
var ErrRecognitionFailed = errors.New("recognition failed")

// Kind sentinels. A *RecognitionError matches the one for its Kind.
var (
	ErrTimeout       = errors.New("ocr timed out")
	ErrEngineFailure = errors.New("ocr engine failure")
	ErrEmptyResult   = errors.New("ocr returned no text")
)

// Kind classifies a recognition failure.
type Kind int

const (
	KindTimeout Kind = iota + 1
	KindEngineFailure
	KindEmptyResult
)

func (k Kind) String() string {
	switch k {
	case KindTimeout:
		return "timeout"
	case KindEngineFailure:
		return "engine failure"
	case KindEmptyResult:
		return "empty result"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

func (k Kind) sentinel() error {
	switch k {
	case KindTimeout:
		return ErrTimeout
	case KindEngineFailure:
		return ErrEngineFailure
	case KindEmptyResult:
		return ErrEmptyResult
	}
	return nil
}

// RecognitionError reports why the engine produced no usable text.
type RecognitionError struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *RecognitionError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = ErrRecognitionFailed.Error()
		if s := e.Kind.sentinel(); s != nil {
			msg = s.Error()
		}
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, msg)
}

func (e *RecognitionError) Unwrap() error {
	return e.Err
}

// Is matches ErrRecognitionFailed and the sentinel for e.Kind.
func (e *RecognitionError) Is(target error) bool {
	if target == ErrRecognitionFailed {
		return true
	}
	s := e.Kind.sentinel()
	return s != nil && target == s
}

func newError(kind Kind, err error, format string, args ...any) *RecognitionError {
	return &RecognitionError{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}

// CheckResult rejects engine output that carries no text: the empty string,
// whitespace, or nothing but '|' characters (Tesseract's reading of a bare
// border). The caller must not normalize text that fails this check.
func CheckResult(text string) error {
	stripped := strings.TrimSpace(strings.Map(func(r rune) rune {
		if r == '|' {
			return -1
		}
		return r
	}, text))
	if stripped == "" {
		return newError(KindEmptyResult, nil, "engine returned %q", strings.TrimSpace(text))
	}
	return nil
}
