package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nurpe/rentflow/internal/model"
	"github.com/nurpe/rentflow/internal/repository"
)

type ReviewService struct {
	reviews    *repository.ReviewRepository
	properties *repository.PropertyRepository
}

func NewReviewService(reviews *repository.ReviewRepository, properties *repository.PropertyRepository) *ReviewService {
	return &ReviewService{reviews: reviews, properties: properties}
}

type CreateReviewInput struct {
	PropertyID uuid.UUID
	Rating     int
	Content    string
	Principal  model.Principal
}

func (s *ReviewService) Create(ctx context.Context, input CreateReviewInput) (*model.Review, error) {
	if !input.Principal.IsTenant() {
		return nil, ErrPermissionDenied
	}
	if input.Rating < model.MinRating || input.Rating > model.MaxRating {
		return nil, fmt.Errorf("%w: rating must be between %d and %d", ErrInvalidInput, model.MinRating, model.MaxRating)
	}
	content := strings.TrimSpace(input.Content)
	if content == "" {
		return nil, fmt.Errorf("%w: content is required", ErrInvalidInput)
	}
	if _, err := s.properties.Get(ctx, input.PropertyID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	review := &model.Review{
		PropertyID: input.PropertyID,
		TenantID:   input.Principal.UserID,
		Rating:     input.Rating,
		Content:    content,
	}
	if err := s.reviews.Create(ctx, review); err != nil {
		return nil, err
	}
	return review, nil
}

func (s *ReviewService) ListForProperty(ctx context.Context, propertyID uuid.UUID) ([]model.Review, error) {
	return s.reviews.ListByProperty(ctx, propertyID)
}

// Delete removes a review. Tenants may only delete their own.
func (s *ReviewService) Delete(ctx context.Context, principal model.Principal, id uuid.UUID) error {
	if !principal.IsAdmin() && !principal.IsTenant() {
		return ErrPermissionDenied
	}
	review, err := s.reviews.Get(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}
	if principal.IsTenant() && review.TenantID != principal.UserID {
		return ErrPermissionDenied
	}
	deleted, err := s.reviews.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrNotFound
	}
	return nil
}
