package doctor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/patrickmn/go-cache"

	"github.com/mediconnect/mediconnect-api/internal/model"
	"github.com/mediconnect/mediconnect-api/internal/repository"
	"github.com/mediconnect/mediconnect-api/internal/schedule"
	apperrors "github.com/mediconnect/mediconnect-api/pkg/errors"
	"github.com/mediconnect/mediconnect-api/pkg/logger"
)

const (
	listCacheTTL     = 5 * time.Minute
	cacheSweepPeriod = 10 * time.Minute
)

var (
	ErrDoctorNotFound  = apperrors.NotFound("doctor")
	ErrInvalidTimeSpec = apperrors.BadRequest("invalid working hours")
)

// Service serves the public doctor directory. Listings are cached;
// profile writes flush the cache so directory reads never serve a
// doctor's stale hours.
type Service struct {
	repo   repository.DoctorRepository
	cache  *cache.Cache
	logger *logger.Logger
}

func NewService(repo repository.DoctorRepository, logger *logger.Logger) *Service {
	return &Service{
		repo:   repo,
		cache:  cache.New(listCacheTTL, cacheSweepPeriod),
		logger: logger,
	}
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.Doctor, error) {
	doctor, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrDoctorNotFound
		}
		return nil, apperrors.Internal(err)
	}
	return doctor, nil
}

func (s *Service) List(ctx context.Context, filters *model.DoctorFilters) ([]*model.Doctor, error) {
	key := listCacheKey(filters)
	if cached, ok := s.cache.Get(key); ok {
		return cached.([]*model.Doctor), nil
	}

	doctors, err := s.repo.List(ctx, filters)
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	s.cache.Set(key, doctors, cache.DefaultExpiration)
	return doctors, nil
}

// UpdateProfile validates and stores the doctor's directory entry.
// Hours must form a non-empty window and both ends must be set together.
func (s *Service) UpdateProfile(ctx context.Context, doctorID uuid.UUID, req *model.UpdateDoctorProfileRequest) (*model.Doctor, error) {
	doctor, err := s.Get(ctx, doctorID)
	if err != nil {
		return nil, err
	}

	profile := doctor.DoctorProfile
	profile.UserID = doctorID
	if req.Specialization != "" {
		profile.Specialization = req.Specialization
	}
	if req.Bio != "" {
		profile.Bio = req.Bio
	}
	if req.FeeCents > 0 {
		profile.FeeCents = req.FeeCents
	}
	if req.WorkingDays != nil {
		profile.WorkingDays = pq.StringArray(req.WorkingDays)
	}
	if req.SlotMinutes > 0 {
		profile.SlotMinutes = req.SlotMinutes
	}

	if req.WorkStart != "" || req.WorkEnd != "" {
		start, err := schedule.Parse(req.WorkStart)
		if err != nil {
			return nil, ErrInvalidTimeSpec
		}
		end, err := schedule.Parse(req.WorkEnd)
		if err != nil {
			return nil, ErrInvalidTimeSpec
		}
		if end <= start {
			return nil, ErrInvalidTimeSpec
		}
		profile.WorkStart = start
		profile.WorkEnd = end
	}

	if err := s.repo.UpsertProfile(ctx, &profile); err != nil {
		return nil, apperrors.Internal(err)
	}

	s.cache.Flush()
	s.logger.Info("doctor profile updated", "doctor_id", doctorID.String())

	doctor.DoctorProfile = profile
	return doctor, nil
}

func listCacheKey(filters *model.DoctorFilters) string {
	if filters == nil {
		return "doctors:all"
	}
	return fmt.Sprintf("doctors:%s:%s", filters.Specialization, filters.SearchTerm)
}
