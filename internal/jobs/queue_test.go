package jobs

import (
	"context"
	"errors"
	"image"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ironsheep/textsnap/internal/ocr"
	"github.com/ironsheep/textsnap/internal/pipeline"
)

func echoRunner() RunnerFunc {
	return func(_ context.Context, img image.Image, lang string) (*pipeline.Result, error) {
		return &pipeline.Result{Text: lang, Language: lang}, nil
	}
}

func testImage() image.Image {
	return image.NewGray(image.Rect(0, 0, 30, 30))
}

// collect reads n results or fails after a timeout.
func collect(t *testing.T, q *Queue, n int) []Result {
	t.Helper()

	var out []Result
	timeout := time.After(5 * time.Second)
	for len(out) < n {
		select {
		case r := <-q.Results():
			out = append(out, r)
		case <-timeout:
			t.Fatalf("timed out after %d of %d results", len(out), n)
		}
	}
	return out
}

func TestQueue_SubmitAndCollect(t *testing.T) {
	q := New(context.Background(), echoRunner(), Config{Workers: 3})
	defer q.Close()

	ids := make(map[string]string)
	for _, lang := range []string{"spa", "eng", "fra", "por", "spa"} {
		id, err := q.Submit(Request{Image: testImage(), Language: lang, Label: "img-" + lang})
		if err != nil {
			t.Fatalf("Submit failed: %v", err)
		}
		if _, dup := ids[id]; dup {
			t.Fatalf("duplicate job ID %s", id)
		}
		ids[id] = lang
	}

	for _, r := range collect(t, q, len(ids)) {
		if r.Err != nil {
			t.Errorf("job %s failed: %v", r.JobID, r.Err)
			continue
		}
		lang, ok := ids[r.JobID]
		if !ok {
			t.Errorf("unexpected job ID %s", r.JobID)
			continue
		}
		if r.Text != lang || r.Label != "img-"+lang {
			t.Errorf("job %s: got text %q label %q", r.JobID, r.Text, r.Label)
		}
		if r.Attempts != 1 {
			t.Errorf("job %s: attempts %d, want 1", r.JobID, r.Attempts)
		}
	}
}

func TestQueue_RetriesTimeouts(t *testing.T) {
	var calls atomic.Int32
	runner := RunnerFunc(func(_ context.Context, _ image.Image, _ string) (*pipeline.Result, error) {
		if calls.Add(1) < 3 {
			return nil, &ocr.RecognitionError{Kind: ocr.KindTimeout, Message: "slow"}
		}
		return &pipeline.Result{Text: "ok"}, nil
	})

	q := New(context.Background(), runner, Config{Workers: 1, Attempts: 3, RetryDelay: time.Millisecond})
	defer q.Close()

	if _, err := q.Submit(Request{Image: testImage()}); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	r := collect(t, q, 1)[0]
	if r.Err != nil {
		t.Fatalf("job failed: %v", r.Err)
	}
	if r.Attempts != 3 || r.Text != "ok" {
		t.Errorf("got attempts=%d text=%q, want 3 and ok", r.Attempts, r.Text)
	}
}

func TestQueue_TimeoutExhaustsAttempts(t *testing.T) {
	runner := RunnerFunc(func(_ context.Context, _ image.Image, _ string) (*pipeline.Result, error) {
		return nil, &ocr.RecognitionError{Kind: ocr.KindTimeout, Message: "slow"}
	})

	q := New(context.Background(), runner, Config{Workers: 1, Attempts: 2, RetryDelay: time.Millisecond})
	defer q.Close()

	q.Submit(Request{Image: testImage()})
	r := collect(t, q, 1)[0]
	if !errors.Is(r.Err, ocr.ErrTimeout) {
		t.Errorf("got %v, want ErrTimeout", r.Err)
	}
	if r.Attempts != 2 {
		t.Errorf("attempts: got %d, want 2", r.Attempts)
	}
}

func TestQueue_OtherErrorsNotRetried(t *testing.T) {
	var calls atomic.Int32
	runner := RunnerFunc(func(_ context.Context, _ image.Image, _ string) (*pipeline.Result, error) {
		calls.Add(1)
		return nil, ocr.CheckResult("")
	})

	q := New(context.Background(), runner, Config{Workers: 1, Attempts: 5, RetryDelay: time.Millisecond})
	defer q.Close()

	q.Submit(Request{Image: testImage()})
	r := collect(t, q, 1)[0]
	if !errors.Is(r.Err, ocr.ErrEmptyResult) {
		t.Errorf("got %v, want ErrEmptyResult", r.Err)
	}
	if r.Attempts != 1 || calls.Load() != 1 {
		t.Errorf("attempts=%d calls=%d, want 1 and 1", r.Attempts, calls.Load())
	}
}

func TestQueue_RetryAndForget(t *testing.T) {
	var mu sync.Mutex
	var seen []image.Image
	runner := RunnerFunc(func(_ context.Context, img image.Image, _ string) (*pipeline.Result, error) {
		mu.Lock()
		seen = append(seen, img)
		mu.Unlock()
		return &pipeline.Result{Text: "x"}, nil
	})

	q := New(context.Background(), runner, Config{Workers: 1})
	defer q.Close()

	src := testImage()
	id, err := q.Submit(Request{Image: src})
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	collect(t, q, 1)

	if err := q.Retry(id); err != nil {
		t.Fatalf("Retry failed: %v", err)
	}
	if r := collect(t, q, 1)[0]; r.JobID != id {
		t.Errorf("retry result ID: got %s, want %s", r.JobID, id)
	}

	mu.Lock()
	if len(seen) != 2 || seen[0] != src || seen[1] != src {
		t.Errorf("runner should see the original image twice, saw %d", len(seen))
	}
	mu.Unlock()

	if q.Stored() != 1 {
		t.Errorf("Stored: got %d, want 1", q.Stored())
	}
	q.Forget(id)
	if q.Stored() != 0 {
		t.Errorf("Stored after Forget: got %d", q.Stored())
	}
	if err := q.Retry(id); !errors.Is(err, ErrUnknownJob) {
		t.Errorf("got %v, want ErrUnknownJob", err)
	}
}

func TestQueue_Full(t *testing.T) {
	started := make(chan struct{}, 1)
	release := make(chan struct{})
	runner := RunnerFunc(func(_ context.Context, _ image.Image, _ string) (*pipeline.Result, error) {
		select {
		case started <- struct{}{}:
		default:
		}
		<-release
		return &pipeline.Result{}, nil
	})

	q := New(context.Background(), runner, Config{Workers: 1, QueueSize: 1})

	if _, err := q.Submit(Request{Image: testImage()}); err != nil {
		t.Fatalf("first Submit failed: %v", err)
	}
	<-started
	if _, err := q.Submit(Request{Image: testImage()}); err != nil {
		t.Fatalf("second Submit failed: %v", err)
	}
	if _, err := q.Submit(Request{Image: testImage()}); !errors.Is(err, ErrQueueFull) {
		t.Errorf("got %v, want ErrQueueFull", err)
	}
	if q.Pending() != 1 {
		t.Errorf("Pending: got %d, want 1", q.Pending())
	}

	close(release)
	collect(t, q, 2)
	q.Close()
}

func TestQueue_Close(t *testing.T) {
	q := New(context.Background(), echoRunner(), Config{Workers: 2})

	for i := 0; i < 4; i++ {
		if _, err := q.Submit(Request{Image: testImage(), Language: "spa"}); err != nil {
			t.Fatalf("Submit failed: %v", err)
		}
	}
	collect(t, q, 4)

	q.Close()
	if _, ok := <-q.Results(); ok {
		t.Error("Results should be closed after Close")
	}
	if _, err := q.Submit(Request{Image: testImage()}); !errors.Is(err, ErrClosed) {
		t.Errorf("got %v, want ErrClosed", err)
	}
	q.Close()
}

// closeWithin fails the test when q.Close does not return within d.
func closeWithin(t *testing.T, q *Queue, d time.Duration) {
	t.Helper()

	done := make(chan struct{})
	go func() {
		q.Close()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(d):
		t.Fatalf("Close did not return within %s", d)
	}
}

func TestQueue_CloseWithUndrainedResults(t *testing.T) {
	runner := RunnerFunc(func(ctx context.Context, _ image.Image, lang string) (*pipeline.Result, error) {
		select {
		case <-time.After(5 * time.Millisecond):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		return &pipeline.Result{Text: lang}, nil
	})

	q := New(context.Background(), runner, Config{Workers: 2})

	submitted := 0
	for i := 0; i < 200; i++ {
		if _, err := q.Submit(Request{Image: testImage()}); err != nil {
			if !errors.Is(err, ErrQueueFull) {
				t.Fatalf("Submit failed: %v", err)
			}
			break
		}
		submitted++
	}
	if submitted == 200 {
		t.Fatal("default queue should not hold 200 jobs")
	}

	// Let the workers fill the results buffer, which nobody reads.
	time.Sleep(100 * time.Millisecond)
	closeWithin(t, q, 2*time.Second)
}

func TestQueue_LargeBatch(t *testing.T) {
	const n = 200
	q := New(context.Background(), echoRunner(), Config{Workers: 2, QueueSize: n})

	for i := 0; i < n; i++ {
		if _, err := q.Submit(Request{Image: testImage(), Language: "spa"}); err != nil {
			t.Fatalf("Submit %d failed: %v", i, err)
		}
	}
	for _, r := range collect(t, q, n) {
		if r.Err != nil {
			t.Fatalf("job %s failed: %v", r.JobID, r.Err)
		}
	}
	closeWithin(t, q, 2*time.Second)
}

func TestQueue_CloseCancelsRunningJob(t *testing.T) {
	started := make(chan struct{})
	var sawCancel atomic.Bool
	runner := RunnerFunc(func(ctx context.Context, _ image.Image, _ string) (*pipeline.Result, error) {
		close(started)
		select {
		case <-ctx.Done():
			sawCancel.Store(true)
			return nil, ctx.Err()
		case <-time.After(10 * time.Second):
			return &pipeline.Result{}, nil
		}
	})

	q := New(context.Background(), runner, Config{Workers: 1})
	if _, err := q.Submit(Request{Image: testImage()}); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	<-started

	closeWithin(t, q, 2*time.Second)
	if !sawCancel.Load() {
		t.Error("running job did not see cancellation")
	}
}

func TestQueue_ParentContextCancels(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	started := make(chan struct{}, 1)
	runner := RunnerFunc(func(ctx context.Context, _ image.Image, _ string) (*pipeline.Result, error) {
		started <- struct{}{}
		<-ctx.Done()
		return nil, ctx.Err()
	})

	q := New(ctx, runner, Config{Workers: 1})
	defer q.Close()

	if _, err := q.Submit(Request{Image: testImage()}); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	<-started
	cancel()

	if _, err := q.Submit(Request{Image: testImage()}); !errors.Is(err, ErrClosed) {
		t.Errorf("Submit after cancel: got %v, want ErrClosed", err)
	}
	closeWithin(t, q, 2*time.Second)
}

func TestRetrying(t *testing.T) {
	var calls atomic.Int32
	runner := RunnerFunc(func(_ context.Context, _ image.Image, lang string) (*pipeline.Result, error) {
		if calls.Add(1) < 3 {
			return nil, &ocr.RecognitionError{Kind: ocr.KindTimeout}
		}
		return &pipeline.Result{Text: "ok", Language: lang}, nil
	})

	res, err := Retrying(runner, Config{Attempts: 3, RetryDelay: time.Millisecond}).Run(context.Background(), testImage(), "spa")
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if res.Text != "ok" || calls.Load() != 3 {
		t.Errorf("got %q after %d calls", res.Text, calls.Load())
	}
}

func TestRetrying_SingleAttemptPassesThrough(t *testing.T) {
	var calls atomic.Int32
	runner := RunnerFunc(func(_ context.Context, _ image.Image, _ string) (*pipeline.Result, error) {
		calls.Add(1)
		return nil, &ocr.RecognitionError{Kind: ocr.KindTimeout}
	})

	_, err := Retrying(runner, Config{Attempts: 1}).Run(context.Background(), testImage(), "spa")
	if !errors.Is(err, ocr.ErrTimeout) {
		t.Errorf("got %v, want ErrTimeout", err)
	}
	if calls.Load() != 1 {
		t.Errorf("calls: got %d, want 1", calls.Load())
	}
}
