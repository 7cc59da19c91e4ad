// Package pipeline composes preprocessing, recognition and normalization
// into a single call.
//
// Run validates the language, summarizes the capture, binarizes it, hands
// the result to the Recognizer, rejects empty engine output with
// ocr.ErrEmptyResult, and finally cleans the text. Nothing is retried here;
// retries of whole runs belong to the caller (see package jobs).
package pipeline
