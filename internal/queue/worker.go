package queue

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

const recoverInterval = time.Minute

type HandlerFunc func(ctx context.Context, job Job) error

// OutcomeHook observes every finished job. Alerting and metrics attach here.
type OutcomeHook func(ctx context.Context, job Job, outcome Outcome)

type Worker struct {
	broker       Broker
	log          zerolog.Logger
	concurrency  int
	pollInterval time.Duration
	handlers     map[string]HandlerFunc
	hooks        []OutcomeHook
}

func NewWorker(broker Broker, log zerolog.Logger, concurrency int, pollInterval time.Duration) *Worker {
	if concurrency < 1 {
		concurrency = 1
	}
	if pollInterval <= 0 {
		pollInterval = time.Second
	}
	return &Worker{
		broker:       broker,
		log:          log,
		concurrency:  concurrency,
		pollInterval: pollInterval,
		handlers:     make(map[string]HandlerFunc),
	}
}

func (w *Worker) OnOutcome(hook OutcomeHook) {
	w.hooks = append(w.hooks, hook)
}

func (w *Worker) register(queue, name string, fn HandlerFunc) {
	w.handlers[queue+"/"+name] = fn
}

// Queues lists the queues that have at least one handler.
func (w *Worker) Queues() []string {
	seen := make(map[string]struct{})
	var queues []string
	for key := range w.handlers {
		queue, _, _ := strings.Cut(key, "/")
		if _, ok := seen[queue]; ok {
			continue
		}
		seen[queue] = struct{}{}
		queues = append(queues, queue)
	}
	sort.Strings(queues)
	return queues
}

// Run processes jobs until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	queues := w.Queues()
	w.log.Info().Strs("queues", queues).Int("concurrency", w.concurrency).Msg("worker started")

	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < w.concurrency; i++ {
		g.Go(func() error {
			return w.loop(ctx, queues)
		})
	}
	if r, ok := w.broker.(Recoverer); ok {
		g.Go(func() error {
			return w.recoverLoop(ctx, r)
		})
	}
	err := g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// Drain processes ready jobs until none is left and returns how many ran.
func (w *Worker) Drain(ctx context.Context) (int, error) {
	queues := w.Queues()
	processed := 0
	for {
		job, err := w.broker.Claim(ctx, queues)
		if err != nil {
			return processed, err
		}
		if job == nil {
			return processed, nil
		}
		w.process(ctx, *job)
		processed++
	}
}

func (w *Worker) loop(ctx context.Context, queues []string) error {
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	for {
		var ready <-chan struct{}
		if n, ok := w.broker.(Notifier); ok {
			ready = n.Ready()
		}

		job, err := w.broker.Claim(ctx, queues)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			w.log.Error().Err(err).Msg("claim job failed")
		}
		if job != nil {
			w.process(ctx, *job)
			continue
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ready:
		case <-ticker.C:
		}
	}
}

func (w *Worker) recoverLoop(ctx context.Context, r Recoverer) error {
	ticker := time.NewTicker(recoverInterval)
	defer ticker.Stop()

	for {
		recovered, err := r.RecoverStale(ctx)
		switch {
		case err != nil && ctx.Err() == nil:
			w.log.Error().Err(err).Msg("recover stale jobs failed")
		case recovered > 0:
			w.log.Warn().Int64("jobs", recovered).Msg("recovered stale jobs")
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (w *Worker) process(ctx context.Context, job Job) {
	start := time.Now()
	err := w.dispatch(ctx, job)
	status, reason := classify(err)

	outcome := Outcome{
		JobID:    job.ID,
		Queue:    job.Queue,
		Name:     job.Name,
		Status:   status,
		Reason:   reason,
		Attempt:  job.Attempts,
		Retry:    status == StatusFailed && job.Attempts < job.MaxAttempts,
		Duration: time.Since(start),
	}

	event := w.log.Info()
	switch status {
	case StatusFailed, StatusAbandoned:
		event = w.log.Error()
	case StatusSkipped:
		event = w.log.Warn()
	}
	event.
		Str("job_id", job.ID.String()).
		Str("job", job.Key()).
		Str("status", string(status)).
		Int("attempt", job.Attempts).
		Bool("retry", outcome.Retry).
		Dur("duration", outcome.Duration).
		Str("reason", reason).
		Msg("job finished")

	// The job's own context may be gone on shutdown; the outcome still has to be stored.
	if err := w.broker.Finish(context.WithoutCancel(ctx), &job, outcome); err != nil {
		w.log.Error().Err(err).Str("job_id", job.ID.String()).Msg("store job outcome failed")
	}
	for _, hook := range w.hooks {
		hook(ctx, job, outcome)
	}
}

func (w *Worker) dispatch(ctx context.Context, job Job) (err error) {
	fn, ok := w.handlers[job.Key()]
	if !ok {
		return Abandon("no handler for %s", job.Key())
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()
	return fn(ctx, job)
}
