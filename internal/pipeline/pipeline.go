package pipeline

import (
	"context"
	"fmt"
	"image"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ironsheep/textsnap/internal/imaging"
	"github.com/ironsheep/textsnap/internal/logging"
	"github.com/ironsheep/textsnap/internal/normalize"
	"github.com/ironsheep/textsnap/internal/ocr"
)

// Result is the outcome of one successful pipeline run.
type Result struct {
	// Text is the normalized, clipboard-ready text.
	Text string `json:"text"`

	// Raw is the engine output before normalization.
	Raw string `json:"raw"`

	// Language is the OCR language used.
	Language string `json:"language"`

	// Summary describes the capture as it arrived.
	Summary *imaging.CaptureSummary `json:"summary"`

	// Processed is the binarized image handed to the engine.
	Processed *image.Gray `json:"-"`

	// Timings in milliseconds.
	PreprocessMs int64 `json:"preprocess_ms"`
	RecognizeMs  int64 `json:"recognize_ms"`
	NormalizeMs  int64 `json:"normalize_ms"`
}

// Options configures a Pipeline. Zero values select the production
// components.
type Options struct {
	Preprocessor   *imaging.Preprocessor
	Recognizer     ocr.Recognizer
	TessdataPrefix string

	// SkipNormalize returns the engine's text unchanged in Result.Text.
	SkipNormalize bool

	Logger *logrus.Logger
}

// Pipeline runs capture → preprocess → recognize → validate → normalize.
//
// A Pipeline holds no per-run state. It may be shared between goroutines
// and is reusable after any failure.
type Pipeline struct {
	pre            imaging.Preprocessor
	recognizer     ocr.Recognizer
	tessdataPrefix string
	skipNormalize  bool
	logger         *logrus.Logger
}

// New creates a Pipeline from opts.
func New(opts Options) *Pipeline {
	p := &Pipeline{
		pre:            imaging.DefaultPreprocessor(),
		recognizer:     opts.Recognizer,
		tessdataPrefix: opts.TessdataPrefix,
		skipNormalize:  opts.SkipNormalize,
		logger:         opts.Logger,
	}
	if opts.Preprocessor != nil {
		p.pre = *opts.Preprocessor
	}
	if p.recognizer == nil {
		p.recognizer = ocr.NewTesseract()
	}
	if p.logger == nil {
		p.logger = logging.Discard()
	}
	return p
}

// Run extracts text from img in language lang ("" selects the default).
//
// Errors are imaging.ErrEmptyImage for a zero-sized capture, a config error
// for an unsupported language, or an *ocr.RecognitionError. When the engine
// output is empty, normalization is skipped and ocr.ErrEmptyResult returned.
func (p *Pipeline) Run(ctx context.Context, img image.Image, lang string) (*Result, error) {
	cfg, err := ocr.NewConfig(lang)
	if err != nil {
		return nil, err
	}
	cfg.TessdataPrefix = p.tessdataPrefix

	log := p.logger.WithField("language", cfg.Language)

	summary, err := imaging.Summarize(img)
	if err != nil {
		return nil, err
	}
	log = log.WithFields(logrus.Fields{
		"width":  summary.Width,
		"height": summary.Height,
	})
	log.WithFields(logrus.Fields{
		"background":      summary.Background,
		"dark_background": summary.DarkBackground,
	}).Debug("Capture received")

	result := &Result{Language: cfg.Language, Summary: summary}

	start := time.Now()
	processed, err := p.pre.Process(img)
	if err != nil {
		return nil, fmt.Errorf("preprocess: %w", err)
	}
	result.Processed = processed
	result.PreprocessMs = time.Since(start).Milliseconds()

	start = time.Now()
	raw, err := p.recognizer.Recognize(ctx, processed, cfg)
	result.RecognizeMs = time.Since(start).Milliseconds()
	if err != nil {
		log.WithError(err).Warn("Recognition failed")
		return nil, err
	}
	if err := ocr.CheckResult(raw); err != nil {
		log.WithError(err).Info("No text recognized")
		return nil, err
	}
	result.Raw = raw

	start = time.Now()
	if p.skipNormalize {
		result.Text = raw
	} else {
		result.Text = normalize.New(cfg.Language).Clean(raw)
	}
	result.NormalizeMs = time.Since(start).Milliseconds()

	log.WithFields(logrus.Fields{
		"chars":         len(result.Text),
		"preprocess_ms": result.PreprocessMs,
		"recognize_ms":  result.RecognizeMs,
	}).Info("Text extracted")

	return result, nil
}
