package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/sena-asistencia/backend/pkg/queue"
)

type fakeQueue struct {
	mu   sync.Mutex
	jobs []*queue.Job
	dlq  []*queue.Job
}

func (q *fakeQueue) Dequeue(ctx context.Context) (*queue.Job, error) {
	q.mu.Lock()
	if len(q.jobs) == 0 {
		q.mu.Unlock()
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(time.Millisecond):
			return nil, nil
		}
	}
	defer q.mu.Unlock()
	j := q.jobs[0]
	q.jobs = q.jobs[1:]
	return j, nil
}

func (q *fakeQueue) Retry(_ context.Context, job *queue.Job) (bool, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	job.Attempt++
	if job.Attempt >= queue.MaxRetries {
		q.dlq = append(q.dlq, job)
		return true, nil
	}
	q.jobs = append(q.jobs, job)
	return false, nil
}

type flakyProcessor struct {
	mu        sync.Mutex
	failFirst int
	calls     int
	done      chan struct{}
	abandoned []error
}

func (p *flakyProcessor) Process(context.Context, *queue.Job) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	if p.calls <= p.failFirst {
		if p.calls == p.failFirst && p.failFirst >= queue.MaxRetries {
			defer close(p.done)
		}
		return errors.New("transient")
	}
	close(p.done)
	return nil
}

func (p *flakyProcessor) Abandon(_ context.Context, _ *queue.Job, cause error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.abandoned = append(p.abandoned, cause)
}

func runUntil(t *testing.T, q *fakeQueue, p *flakyProcessor) {
	t.Helper()
	r := NewRunner(q, p, nil)
	r.backoff = time.Millisecond
	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		r.Run(ctx)
		close(stopped)
	}()
	select {
	case <-p.done:
	case <-time.After(5 * time.Second):
		t.Fatal("processor never finished")
	}
	// Give the runner a moment to record the outcome of the last attempt.
	time.Sleep(20 * time.Millisecond)
	cancel()
	<-stopped
}

func TestRunner_RetriesUntilSuccess(t *testing.T) {
	q := &fakeQueue{jobs: []*queue.Job{{ID: "1", Type: queue.JobTypeAttendanceExport}}}
	p := &flakyProcessor{failFirst: 1, done: make(chan struct{})}

	runUntil(t, q, p)

	require.Equal(t, 2, p.calls)
	require.Empty(t, q.dlq)
	require.Empty(t, p.abandoned)
}

func TestRunner_DeadLettersAndAbandons(t *testing.T) {
	q := &fakeQueue{jobs: []*queue.Job{{ID: "1", Type: queue.JobTypeAttendanceExport}}}
	p := &flakyProcessor{failFirst: queue.MaxRetries, done: make(chan struct{})}

	runUntil(t, q, p)

	require.Equal(t, queue.MaxRetries, p.calls)
	q.mu.Lock()
	require.Len(t, q.dlq, 1)
	q.mu.Unlock()
	p.mu.Lock()
	require.Len(t, p.abandoned, 1)
	p.mu.Unlock()
}
