package processor

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/nurpe/rentflow/internal/queue"
	"github.com/nurpe/rentflow/internal/workflow"
)

type RentalProcessor struct {
	producer queue.Producer
	log      zerolog.Logger
}

func NewRentalProcessor(producer queue.Producer, log zerolog.Logger) *RentalProcessor {
	return &RentalProcessor{producer: producer, log: log}
}

func (p *RentalProcessor) Register(w *queue.Worker) {
	queue.Handle(w, workflow.RentalsTopic, p.handleDecision)
}

func (p *RentalProcessor) handleDecision(ctx context.Context, job workflow.RentalDecision) error {
	cmds, err := workflow.Decide(job.RentalApplication, job.Status)
	if err != nil {
		return queue.Abandon("%v", err)
	}
	p.log.Debug().
		Str("rental_application_id", job.RentalApplication.ID.String()).
		Str("status", string(job.Status)).
		Int("commands", len(cmds)).
		Msg("rental decision expanded")
	return workflow.PublishAll(ctx, p.producer, cmds)
}
