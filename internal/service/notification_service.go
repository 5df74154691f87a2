package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/nurpe/rentflow/internal/model"
	"github.com/nurpe/rentflow/internal/repository"
)

type NotificationService struct {
	repo *repository.NotificationRepository
}

func NewNotificationService(repo *repository.NotificationRepository) *NotificationService {
	return &NotificationService{repo: repo}
}

func (s *NotificationService) List(ctx context.Context, principal model.Principal) ([]model.Notification, error) {
	return s.repo.ListByUser(ctx, principal.UserID)
}

func (s *NotificationService) MarkAllRead(ctx context.Context, principal model.Principal) (int64, error) {
	return s.repo.MarkAllRead(ctx, principal.UserID)
}

func (s *NotificationService) Delete(ctx context.Context, principal model.Principal, id uuid.UUID) error {
	deleted, err := s.repo.Delete(ctx, principal.UserID, id)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrNotFound
	}
	return nil
}
