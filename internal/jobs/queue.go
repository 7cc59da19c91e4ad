package jobs

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sync"
	"time"

	retry "github.com/avast/retry-go/v4"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ironsheep/textsnap/internal/logging"
	"github.com/ironsheep/textsnap/internal/ocr"
	"github.com/ironsheep/textsnap/internal/pipeline"
)

var (
	ErrQueueFull  = errors.New("job queue is full")
	ErrClosed     = errors.New("job queue is closed")
	ErrUnknownJob = errors.New("unknown job")
)

// Runner runs the capture pipeline on one image.
type Runner interface {
	Run(ctx context.Context, img image.Image, lang string) (*pipeline.Result, error)
}

// RunnerFunc adapts a plain function to the Runner interface.
type RunnerFunc func(ctx context.Context, img image.Image, lang string) (*pipeline.Result, error)

// Run implements Runner.
func (f RunnerFunc) Run(ctx context.Context, img image.Image, lang string) (*pipeline.Result, error) {
	return f(ctx, img, lang)
}

// Request is one image to extract text from.
type Request struct {
	Image    image.Image
	Language string

	// Label is echoed back in the Result, typically a file name.
	Label string
}

// Result reports the outcome of one job run.
type Result struct {
	JobID    string
	Label    string
	Text     string
	Output   *pipeline.Result
	Err      error
	Attempts int
	Duration time.Duration
}

// Config configures a Queue.
type Config struct {
	Workers   int // Default 2
	QueueSize int // Default 64

	// Attempts is the number of times a run is tried when the engine
	// times out. 1 disables retries. Other failures are never retried.
	Attempts   int
	RetryDelay time.Duration // Default 500ms

	Logger *logrus.Logger
}

type job struct {
	id  string
	req Request
}

// Queue runs pipeline jobs on a fixed set of background workers.
//
// The source image of every job is kept until Forget is called so the whole
// pipeline can be re-run with Retry.
type Queue struct {
	runner     Runner
	attempts   int
	retryDelay time.Duration
	logger     *logrus.Logger

	queue   chan *job
	results chan Result

	mu     sync.Mutex
	jobs   map[string]Request
	closed bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New starts a Queue whose workers call runner. Runs are cancelled when ctx
// is done or Close is called.
func New(ctx context.Context, runner Runner, cfg Config) *Queue {
	if cfg.Workers <= 0 {
		cfg.Workers = 2
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 64
	}
	if cfg.Attempts <= 0 {
		cfg.Attempts = 1
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = 500 * time.Millisecond
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Discard()
	}

	ctx, cancel := context.WithCancel(ctx)
	q := &Queue{
		runner:     runner,
		attempts:   cfg.Attempts,
		retryDelay: cfg.RetryDelay,
		logger:     cfg.Logger,
		queue:      make(chan *job, cfg.QueueSize),
		results:    make(chan Result, cfg.QueueSize),
		jobs:       make(map[string]Request),
		ctx:        ctx,
		cancel:     cancel,
	}

	for i := 0; i < cfg.Workers; i++ {
		q.wg.Add(1)
		go q.worker(i)
	}
	q.logger.WithField("workers", cfg.Workers).Debug("Job queue started")
	return q
}

// Submit queues req and returns its job ID.
func (q *Queue) Submit(req Request) (string, error) {
	id := uuid.NewString()
	if err := q.enqueue(&job{id: id, req: req}, true); err != nil {
		return "", err
	}
	return id, nil
}

// Retry queues the job with the given ID again, from its original image.
func (q *Queue) Retry(id string) error {
	q.mu.Lock()
	req, ok := q.jobs[id]
	q.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownJob, id)
	}
	return q.enqueue(&job{id: id, req: req}, false)
}

// Forget drops the stored image of a job. Later Retry calls fail.
func (q *Queue) Forget(id string) {
	q.mu.Lock()
	delete(q.jobs, id)
	q.mu.Unlock()
}

// Stored returns the number of jobs whose image is still held.
func (q *Queue) Stored() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.jobs)
}

// Pending returns the number of jobs waiting for a worker.
func (q *Queue) Pending() int {
	return len(q.queue)
}

// Results delivers one Result per finished run. It is closed by Close once
// the workers have stopped. Results not received before the queue is
// cancelled are dropped.
func (q *Queue) Results() <-chan Result {
	return q.results
}

// Close stops accepting jobs, cancels running and queued jobs, waits for
// the workers to exit and closes the Results channel. Collect the results
// you need before calling Close.
func (q *Queue) Close() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	close(q.queue)
	q.mu.Unlock()

	q.cancel()
	q.wg.Wait()
	close(q.results)
	q.logger.Debug("Job queue stopped")
}

func (q *Queue) enqueue(j *job, store bool) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return ErrClosed
	}
	if err := q.ctx.Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrClosed, err)
	}
	select {
	case q.queue <- j:
	default:
		return fmt.Errorf("%w (%d pending)", ErrQueueFull, len(q.queue))
	}
	if store {
		q.jobs[j.id] = j.req
	}
	q.logger.WithFields(logrus.Fields{"job_id": j.id, "label": j.req.Label}).Debug("Job queued")
	return nil
}

func (q *Queue) worker(n int) {
	defer q.wg.Done()
	for j := range q.queue {
		var res Result
		if err := q.ctx.Err(); err != nil {
			res = Result{JobID: j.id, Label: j.req.Label, Err: err}
		} else {
			res = q.process(j, n)
		}

		select {
		case q.results <- res:
		case <-q.ctx.Done():
			q.logger.WithField("job_id", j.id).Debug("Result dropped, queue cancelled")
		}
	}
}

func (q *Queue) process(j *job, worker int) Result {
	log := q.logger.WithFields(logrus.Fields{
		"job_id": j.id,
		"label":  j.req.Label,
		"worker": worker,
	})

	start := time.Now()
	out, attempts, err := runWithRetry(q.ctx, q.runner, j.req, q.attempts, q.retryDelay, log)

	result := Result{
		JobID:    j.id,
		Label:    j.req.Label,
		Attempts: attempts,
		Duration: time.Since(start),
	}
	if err != nil {
		result.Err = err
		log.WithError(err).WithField("attempts", attempts).Info("Job failed")
		return result
	}

	result.Output = out
	result.Text = out.Text
	log.WithField("duration_ms", result.Duration.Milliseconds()).Debug("Job completed")
	return result
}

// runWithRetry runs req through runner, retrying engine timeouts until
// attempts runs have been made. It returns the number of runs made.
func runWithRetry(ctx context.Context, runner Runner, req Request, attempts int, delay time.Duration, log logrus.FieldLogger) (*pipeline.Result, int, error) {
	made := 0
	var out *pipeline.Result

	err := retry.Do(
		func() error {
			made++
			res, err := runner.Run(ctx, req.Image, req.Language)
			if err != nil {
				return err
			}
			out = res
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(uint(attempts)),
		retry.Delay(delay),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool {
			return errors.Is(err, ocr.ErrTimeout) && ctx.Err() == nil
		}),
		retry.OnRetry(func(n uint, err error) {
			log.WithError(err).WithField("attempt", n+1).Warn("Recognition timed out")
		}),
	)
	return out, made, err
}

// Retrying wraps runner so each call is retried on engine timeouts the way
// queued jobs are. Only Attempts, RetryDelay and Logger of cfg are used.
//
// It suits callers that need one result synchronously, such as a request
// handler, and would otherwise have to route Results by job ID.
func Retrying(runner Runner, cfg Config) Runner {
	if cfg.Attempts <= 1 {
		return runner
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = 500 * time.Millisecond
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Discard()
	}
	return RunnerFunc(func(ctx context.Context, img image.Image, lang string) (*pipeline.Result, error) {
		out, _, err := runWithRetry(ctx, runner, Request{Image: img, Language: lang}, cfg.Attempts, cfg.RetryDelay, cfg.Logger)
		return out, err
	})
}
