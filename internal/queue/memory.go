package queue

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// MemoryQueue is an in-process Queue used by tests.
type MemoryQueue struct {
	mu       sync.Mutex
	Enqueued []Payload
}

// NewMemoryQueue creates an empty in-memory queue.
func NewMemoryQueue() *MemoryQueue {
	return &MemoryQueue{}
}

func (q *MemoryQueue) Enqueue(ctx context.Context, jobName string) (string, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	payload := Payload{JobID: uuid.NewString(), JobName: jobName}
	q.Enqueued = append(q.Enqueued, payload)
	return payload.JobID, nil
}

// Names returns the job names enqueued so far, in order.
func (q *MemoryQueue) Names() []string {
	q.mu.Lock()
	defer q.mu.Unlock()
	names := make([]string, len(q.Enqueued))
	for i, p := range q.Enqueued {
		names[i] = p.JobName
	}
	return names
}
