// Package jobs runs capture pipelines on background workers.
//
// Each submitted image becomes a job with a UUID. Workers pull jobs from a
// bounded queue and publish one Result per run on the Results channel. The
// original image of a job is retained so the whole pipeline can be re-run
// with Retry until the caller calls Forget.
//
// Engine timeouts may be retried automatically (Config.Attempts); other
// failures, empty results included, are reported as-is.
//
// A Queue lives as long as the context passed to New. Cancelling that
// context, or calling Close, cancels the run in progress on every worker and
// discards queued jobs.
package jobs
