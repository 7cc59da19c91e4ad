// Package ocr is the boundary between the capture pipeline and the OCR
// engine.
//
// The engine is treated as a black box: a binarized image and a Config go
// in, raw text or a *RecognitionError comes out. Tesseract, reached through
// gosseract, is the production Recognizer.
//
// # Prerequisites
//
// Tesseract and the traineddata for each language in use must be installed:
//   - Ubuntu/Debian: apt-get install tesseract-ocr tesseract-ocr-spa
//   - macOS: brew install tesseract tesseract-lang
//   - Windows: https://github.com/UB-Mannheim/tesseract/wiki
//
// Config.TessdataPrefix points the engine at a non-standard model directory.
//
// # Engine Settings
//
// Every call uses page segmentation mode 6 (single uniform block), the
// default engine mode, interword spacing preserved, and a blacklist of
// |, \, ~, < and > which on screenshots are nearly always UI chrome.
//
// # Error Handling
//
// All failures are *RecognitionError values and match ErrRecognitionFailed
// with errors.Is, plus one of:
//   - ErrTimeout: no answer within Config.Timeout (15 seconds by default)
//   - ErrEngineFailure: the engine could not be configured or crashed
//   - ErrEmptyResult: CheckResult found no text in the engine's output
package ocr
