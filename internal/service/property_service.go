package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/nurpe/rentflow/internal/model"
	"github.com/nurpe/rentflow/internal/repository"
)

type PropertyService struct {
	repo *repository.PropertyRepository
}

func NewPropertyService(repo *repository.PropertyRepository) *PropertyService {
	return &PropertyService{repo: repo}
}

type CreatePropertyInput struct {
	Title         string
	Description   string
	Street        string
	City          string
	State         string
	Country       string
	Zipcode       string
	Latitude      *float64
	Longitude     *float64
	PropertyType  string
	Bedrooms      int
	Bathrooms     int
	AreaSqft      int
	RentAmount    decimal.Decimal
	DepositAmount decimal.Decimal
	Features      []model.PropertyFeature
	Principal     model.Principal
}

func (s *PropertyService) Create(ctx context.Context, input CreatePropertyInput) (*model.Property, error) {
	if !input.Principal.IsOwner() {
		return nil, ErrPermissionDenied
	}
	if strings.TrimSpace(input.Title) == "" {
		return nil, fmt.Errorf("%w: title is required", ErrInvalidInput)
	}
	if !input.RentAmount.IsPositive() {
		return nil, fmt.Errorf("%w: rent amount must be positive", ErrInvalidInput)
	}
	if input.DepositAmount.IsNegative() {
		return nil, fmt.Errorf("%w: deposit amount must not be negative", ErrInvalidInput)
	}
	if (input.Latitude == nil) != (input.Longitude == nil) {
		return nil, fmt.Errorf("%w: latitude and longitude go together", ErrInvalidInput)
	}
	if input.Latitude != nil && (*input.Latitude < -90 || *input.Latitude > 90) {
		return nil, fmt.Errorf("%w: latitude out of range", ErrInvalidInput)
	}
	if input.Longitude != nil && (*input.Longitude < -180 || *input.Longitude > 180) {
		return nil, fmt.Errorf("%w: longitude out of range", ErrInvalidInput)
	}
	features, err := normalizeFeatures(input.Features)
	if err != nil {
		return nil, err
	}

	property := &model.Property{
		OwnerID:       input.Principal.UserID,
		Title:         strings.TrimSpace(input.Title),
		Description:   strings.TrimSpace(input.Description),
		Street:        input.Street,
		City:          input.City,
		State:         input.State,
		Country:       input.Country,
		Zipcode:       input.Zipcode,
		Latitude:      input.Latitude,
		Longitude:     input.Longitude,
		PropertyType:  input.PropertyType,
		Bedrooms:      input.Bedrooms,
		Bathrooms:     input.Bathrooms,
		AreaSqft:      input.AreaSqft,
		RentAmount:    input.RentAmount,
		DepositAmount: input.DepositAmount,
		Features:      features,
	}
	if err := s.repo.Create(ctx, property); err != nil {
		return nil, err
	}
	return property, nil
}

func (s *PropertyService) Get(ctx context.Context, id uuid.UUID) (*model.Property, error) {
	property, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return property, nil
}

func (s *PropertyService) ListMine(ctx context.Context, principal model.Principal) ([]model.Property, error) {
	if !principal.IsOwner() {
		return nil, ErrPermissionDenied
	}
	return s.repo.ListByOwner(ctx, principal.UserID)
}

func normalizeFeatures(in []model.PropertyFeature) (datatypes.JSONSlice[model.PropertyFeature], error) {
	out := make(datatypes.JSONSlice[model.PropertyFeature], 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, f := range in {
		f.Name = strings.TrimSpace(f.Name)
		if f.Name == "" {
			return nil, fmt.Errorf("%w: feature name is required", ErrInvalidInput)
		}
		if f.Type == "" {
			f.Type = model.FeatureTypeAmenity
		}
		if f.Type != model.FeatureTypeAmenity && f.Type != model.FeatureTypeUtility {
			return nil, fmt.Errorf("%w: unknown feature type %q", ErrInvalidInput, f.Type)
		}
		key := strings.ToLower(f.Name)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, f)
	}
	return out, nil
}
