package queue

import (
	"context"
	"slices"
	"sync"
)

// MemoryBroker keeps jobs in process. Used by tests and single-binary development runs.
type MemoryBroker struct {
	mu       sync.Mutex
	jobs     []Job
	outcomes []Outcome
	ready    chan struct{}
}

func NewMemoryBroker() *MemoryBroker {
	return &MemoryBroker{ready: make(chan struct{})}
}

func (m *MemoryBroker) Enqueue(_ context.Context, job Job) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.jobs = append(m.jobs, job)
	m.signalLocked()
	return nil
}

func (m *MemoryBroker) Claim(_ context.Context, queues []string) (*Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, job := range m.jobs {
		if len(queues) > 0 && !slices.Contains(queues, job.Queue) {
			continue
		}
		m.jobs = slices.Delete(m.jobs, i, i+1)
		job.Attempts++
		return &job, nil
	}
	return nil, nil
}

func (m *MemoryBroker) Finish(_ context.Context, job *Job, outcome Outcome) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.outcomes = append(m.outcomes, outcome)
	if outcome.Retry {
		m.jobs = append(m.jobs, *job)
		m.signalLocked()
	}
	return nil
}

func (m *MemoryBroker) Ready() <-chan struct{} {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ready
}

// Pending returns queued jobs for queue/name; an empty name matches every job of the queue.
func (m *MemoryBroker) Pending(queue, name string) []Job {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Job
	for _, job := range m.jobs {
		if job.Queue == queue && (name == "" || job.Name == name) {
			out = append(out, job)
		}
	}
	return out
}

func (m *MemoryBroker) Outcomes() []Outcome {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.outcomes)
}

// signalLocked wakes every waiter by closing the current ready channel.
func (m *MemoryBroker) signalLocked() {
	close(m.ready)
	m.ready = make(chan struct{})
}
