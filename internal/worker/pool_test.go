package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

type mockResult struct {
	value int
	err   error
}

func (r *mockResult) GetError() error {
	return r.err
}

type mockJob struct {
	value     int
	duration  time.Duration
	shouldErr bool
	executed  *int32
}

func (j *mockJob) Execute(ctx context.Context) Result {
	if j.executed != nil {
		atomic.AddInt32(j.executed, 1)
	}
	if j.duration > 0 {
		select {
		case <-time.After(j.duration):
		case <-ctx.Done():
			return &mockResult{value: j.value, err: ctx.Err()}
		}
	}
	if j.shouldErr {
		return &mockResult{value: j.value, err: errors.New("job error")}
	}
	return &mockResult{value: j.value}
}

func TestNewPool(t *testing.T) {
	if got := NewPool(5).Workers(); got != 5 {
		t.Errorf("expected 5 workers, got %d", got)
	}
	if got := NewPool(0).Workers(); got != 1 {
		t.Errorf("expected 1 worker for 0 input, got %d", got)
	}
	if got := NewPool(-3).Workers(); got != 1 {
		t.Errorf("expected 1 worker for negative input, got %d", got)
	}
}

func TestPool_RunPreservesOrder(t *testing.T) {
	var executed int32
	jobs := make([]Job, 20)
	for i := range jobs {
		// Earlier jobs sleep longer so completion order differs from submission order.
		jobs[i] = &mockJob{value: i, duration: time.Duration(20-i) * time.Millisecond, executed: &executed}
	}

	results := NewPool(4).Run(context.Background(), jobs)

	if len(results) != len(jobs) {
		t.Fatalf("expected %d results, got %d", len(jobs), len(results))
	}
	if atomic.LoadInt32(&executed) != int32(len(jobs)) {
		t.Errorf("expected %d executions, got %d", len(jobs), executed)
	}
	for i, r := range results {
		if got := r.(*mockResult).value; got != i {
			t.Errorf("results[%d] came from job %d", i, got)
		}
	}
}

type concurrencyJob struct {
	current *int32
	max     *int32
}

func (j *concurrencyJob) Execute(ctx context.Context) Result {
	n := atomic.AddInt32(j.current, 1)
	for {
		m := atomic.LoadInt32(j.max)
		if n <= m || atomic.CompareAndSwapInt32(j.max, m, n) {
			break
		}
	}
	time.Sleep(5 * time.Millisecond)
	atomic.AddInt32(j.current, -1)
	return &mockResult{}
}

func TestPool_BoundedConcurrency(t *testing.T) {
	var current, max int32
	jobs := make([]Job, 30)
	for i := range jobs {
		jobs[i] = &concurrencyJob{current: &current, max: &max}
	}

	NewPool(3).Run(context.Background(), jobs)

	if got := atomic.LoadInt32(&max); got > 3 {
		t.Errorf("max concurrency %d exceeded 3 workers", got)
	}
}

func TestPool_Errors(t *testing.T) {
	jobs := []Job{&mockJob{shouldErr: true}, &mockJob{}, &mockJob{shouldErr: true}}
	results := NewPool(2).Run(context.Background(), jobs)

	if errs := Errors(results); len(errs) != 2 {
		t.Errorf("expected 2 errors, got %d", len(errs))
	}
}

func TestPool_EmptyJobs(t *testing.T) {
	results := NewPool(2).Run(context.Background(), nil)
	if len(results) != 0 {
		t.Errorf("expected no results, got %d", len(results))
	}
}

func TestPool_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var executed int32
	jobs := make([]Job, 10)
	for i := range jobs {
		jobs[i] = &mockJob{executed: &executed}
	}

	results := NewPool(2).Run(ctx, jobs)
	if len(results) != 10 {
		t.Fatalf("expected a slot per job, got %d", len(results))
	}
	if n := atomic.LoadInt32(&executed); n == int32(len(jobs)) {
		t.Errorf("expected cancellation to skip some jobs, all %d ran", n)
	}
}
