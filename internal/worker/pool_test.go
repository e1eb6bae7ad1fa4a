package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

type fakeResult struct {
	caseID string
	err    error
}

func (r *fakeResult) GetError() error { return r.err }

type fakeJob struct {
	caseID   string
	fail     bool
	executed *int32
	duration time.Duration
	started  chan struct{}
}

func (j *fakeJob) Execute(ctx context.Context) Result {
	if j.executed != nil {
		atomic.AddInt32(j.executed, 1)
	}
	if j.started != nil {
		close(j.started)
	}
	if j.duration > 0 {
		select {
		case <-time.After(j.duration):
		case <-ctx.Done():
			return &fakeResult{caseID: j.caseID, err: ctx.Err()}
		}
	}
	if j.fail {
		return &fakeResult{caseID: j.caseID, err: errors.New("analysis failed")}
	}
	return &fakeResult{caseID: j.caseID}
}

func TestNewPoolWorkerFloor(t *testing.T) {
	for _, n := range []int{0, -3} {
		if p := NewPool(n); p.workers != 1 {
			t.Errorf("NewPool(%d) workers = %d, want 1", n, p.workers)
		}
	}
	if p := NewPool(6); p.workers != 6 {
		t.Errorf("NewPool(6) workers = %d", p.workers)
	}
}

func TestPoolRunsEveryJob(t *testing.T) {
	pool := NewPool(3)
	pool.Start()

	var executed int32
	const jobs = 12
	for i := 0; i < jobs; i++ {
		pool.Submit(&fakeJob{caseID: "case", executed: &executed})
	}

	results := pool.Wait()
	if len(results) != jobs {
		t.Fatalf("got %d results, want %d", len(results), jobs)
	}
	if got := atomic.LoadInt32(&executed); got != jobs {
		t.Errorf("executed %d jobs, want %d", got, jobs)
	}
}

func TestPoolCollectsFailures(t *testing.T) {
	pool := NewPool(2)
	pool.Start()

	pool.Submit(&fakeJob{caseID: "good"})
	pool.Submit(&fakeJob{caseID: "bad", fail: true})

	results := pool.Wait()
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}

	failures := 0
	for _, r := range results {
		if r.GetError() != nil {
			failures++
		}
	}
	if failures != 1 {
		t.Errorf("failures = %d, want 1 (one case fails, the other still completes)", failures)
	}
}

type jobFunc func(ctx context.Context) Result

func (f jobFunc) Execute(ctx context.Context) Result { return f(ctx) }

func TestPoolBoundsConcurrency(t *testing.T) {
	const workers = 4
	pool := NewPool(workers)
	pool.Start()

	var current, peak int32
	for i := 0; i < 20; i++ {
		pool.Submit(jobFunc(func(ctx context.Context) Result {
			n := atomic.AddInt32(&current, 1)
			for {
				old := atomic.LoadInt32(&peak)
				if n <= old || atomic.CompareAndSwapInt32(&peak, old, n) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			atomic.AddInt32(&current, -1)
			return &fakeResult{}
		}))
	}
	pool.Wait()

	if p := atomic.LoadInt32(&peak); p > workers {
		t.Errorf("peak concurrency %d exceeded %d workers", p, workers)
	}
}

func TestPoolSubmitAfterShutdown(t *testing.T) {
	pool := NewPool(2)
	pool.Start()
	pool.Shutdown()

	done := make(chan struct{})
	go func() {
		pool.Submit(&fakeJob{caseID: "late"})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Submit blocked after Shutdown")
	}
}

func TestPoolShutdownCancelsRunningJob(t *testing.T) {
	pool := NewPool(1)
	pool.Start()

	started := make(chan struct{})
	pool.Submit(&fakeJob{caseID: "slow", duration: time.Second, started: started})
	<-started

	finished := make(chan struct{})
	go func() {
		pool.Shutdown()
		close(finished)
	}()

	select {
	case <-finished:
	case <-time.After(time.Second):
		t.Fatal("Shutdown did not cancel the running job")
	}
}
