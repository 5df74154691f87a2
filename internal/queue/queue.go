// Package queue is a small typed job queue. Producers publish JSON payloads to a
// (queue, name) pair, a Broker stores them, and a Worker claims and dispatches them
// to registered handlers, reporting every run as an Outcome.
package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusQueued    Status = "queued"
	StatusRunning   Status = "running"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
	StatusAbandoned Status = "abandoned"
	StatusSkipped   Status = "skipped"
)

type Job struct {
	ID          uuid.UUID
	Queue       string
	Name        string
	Payload     []byte
	Attempts    int
	MaxAttempts int
	EnqueuedAt  time.Time
}

func (j Job) Key() string {
	return j.Queue + "/" + j.Name
}

type Outcome struct {
	JobID    uuid.UUID
	Queue    string
	Name     string
	Status   Status
	Reason   string
	Attempt  int
	Retry    bool
	Duration time.Duration
}

// Broker stores jobs between Publish and processing.
type Broker interface {
	Enqueue(ctx context.Context, job Job) error
	// Claim returns the next ready job of one of the queues, or nil when none is ready.
	Claim(ctx context.Context, queues []string) (*Job, error)
	Finish(ctx context.Context, job *Job, outcome Outcome) error
}

// Notifier is implemented by brokers that can wake idle workers without polling.
type Notifier interface {
	Ready() <-chan struct{}
}

// Recoverer is implemented by brokers whose claims can outlive a crashed worker.
type Recoverer interface {
	RecoverStale(ctx context.Context) (int64, error)
}

type Producer interface {
	Publish(ctx context.Context, queue, name string, payload any) error
}

type Client struct {
	broker      Broker
	maxAttempts int
}

func NewClient(broker Broker, maxAttempts int) *Client {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &Client{broker: broker, maxAttempts: maxAttempts}
}

func (c *Client) Publish(ctx context.Context, queue, name string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode %s/%s payload: %w", queue, name, err)
	}
	job := Job{
		ID:          uuid.New(),
		Queue:       queue,
		Name:        name,
		Payload:     data,
		MaxAttempts: c.maxAttempts,
		EnqueuedAt:  time.Now().UTC(),
	}
	if err := c.broker.Enqueue(ctx, job); err != nil {
		return fmt.Errorf("enqueue %s/%s: %w", queue, name, err)
	}
	return nil
}

// Topic binds a job kind to its payload type.
type Topic[T any] struct {
	Queue string
	Name  string
}

func (t Topic[T]) Publish(ctx context.Context, p Producer, payload T) error {
	return p.Publish(ctx, t.Queue, t.Name, payload)
}

func (t Topic[T]) Key() string {
	return t.Queue + "/" + t.Name
}

// Decode reads a job payload published on this topic.
func (t Topic[T]) Decode(job Job) (T, error) {
	var payload T
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return payload, fmt.Errorf("decode %s payload: %w", t.Key(), err)
	}
	return payload, nil
}

// Handle registers fn for the topic. Undecodable payloads are abandoned.
func Handle[T any](w *Worker, t Topic[T], fn func(ctx context.Context, payload T) error) {
	w.register(t.Queue, t.Name, func(ctx context.Context, job Job) error {
		payload, err := t.Decode(job)
		if err != nil {
			return Abandon("%v", err)
		}
		return fn(ctx, payload)
	})
}
