package medicine

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/mediconnect/mediconnect-api/internal/model"
	"github.com/mediconnect/mediconnect-api/internal/repository"
	apperrors "github.com/mediconnect/mediconnect-api/pkg/errors"
	"github.com/mediconnect/mediconnect-api/pkg/logger"
)

var ErrMedicineNotFound = apperrors.NotFound("medicine")

// Service manages the pharmacy catalogue. Stock mutations from orders
// live in the order store; this service only edits catalogue fields
// and absolute stock levels.
type Service struct {
	repo   repository.MedicineRepository
	logger *logger.Logger
}

func NewService(repo repository.MedicineRepository, logger *logger.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

func (s *Service) Create(ctx context.Context, req *model.CreateMedicineRequest) (*model.Medicine, error) {
	m := &model.Medicine{
		Base:         model.Base{ID: uuid.New()},
		Name:         req.Name,
		Description:  req.Description,
		Manufacturer: req.Manufacturer,
		PriceCents:   req.PriceCents,
		Stock:        req.Stock,
		RequiresRx:   req.RequiresRx,
	}
	if err := s.repo.Create(ctx, m); err != nil {
		return nil, apperrors.Internal(err)
	}
	s.logger.Info("medicine added", "medicine_id", m.ID.String(), "name", m.Name)
	return m, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.Medicine, error) {
	m, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrMedicineNotFound
		}
		return nil, apperrors.Internal(err)
	}
	return m, nil
}

func (s *Service) List(ctx context.Context, filters *model.MedicineFilters) ([]*model.Medicine, error) {
	out, err := s.repo.List(ctx, filters)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return out, nil
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, req *model.UpdateMedicineRequest) (*model.Medicine, error) {
	m, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Description != nil {
		m.Description = *req.Description
	}
	if req.PriceCents != nil {
		m.PriceCents = *req.PriceCents
	}
	if req.Stock != nil {
		m.Stock = *req.Stock
	}
	if req.RequiresRx != nil {
		m.RequiresRx = *req.RequiresRx
	}

	if err := s.repo.Update(ctx, m); err != nil {
		return nil, apperrors.Internal(err)
	}
	return m, nil
}
