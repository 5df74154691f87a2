package processor

import (
	"context"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/nurpe/rentflow/internal/model"
	"github.com/nurpe/rentflow/internal/queue"
	"github.com/nurpe/rentflow/internal/repository"
	"github.com/nurpe/rentflow/internal/workflow"
)

type NotificationProcessor struct {
	repo     *repository.NotificationRepository
	validate *validator.Validate
	log      zerolog.Logger
}

func NewNotificationProcessor(repo *repository.NotificationRepository, log zerolog.Logger) *NotificationProcessor {
	return &NotificationProcessor{repo: repo, validate: newValidator(), log: log}
}

func (p *NotificationProcessor) Register(w *queue.Worker) {
	queue.Handle(w, workflow.NotifyTopic, p.handleNotify)
}

func (p *NotificationProcessor) handleNotify(ctx context.Context, job workflow.Notify) error {
	draft := job.NotificationDto
	if err := p.validate.Struct(draft); err != nil {
		return queue.Abandon("invalid notification: %v", err)
	}

	notification := &model.Notification{
		UserID:  draft.UserID,
		Title:   draft.Title,
		Message: draft.Message,
		Type:    draft.Type,
	}
	if err := p.repo.Create(ctx, notification); err != nil {
		return err
	}
	p.log.Debug().
		Str("notification_id", notification.ID.String()).
		Str("user_id", notification.UserID.String()).
		Str("type", string(notification.Type)).
		Msg("notification stored")
	return nil
}
