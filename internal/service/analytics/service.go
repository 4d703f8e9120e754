package analytics

import (
	"context"
	"time"

	"github.com/mediconnect/mediconnect-api/internal/model"
	"github.com/mediconnect/mediconnect-api/internal/repository"
	apperrors "github.com/mediconnect/mediconnect-api/pkg/errors"
)

const defaultTopMedicines = 10

// Report is the admin dashboard snapshot over one time window.
type Report struct {
	From                 time.Time            `json:"from"`
	To                   time.Time            `json:"to"`
	AppointmentsByStatus []model.StatusCount  `json:"appointments_by_status"`
	AppointmentsPerDay   []model.DayCount     `json:"appointments_per_day"`
	TopMedicines         []model.MedicineCount `json:"top_medicines"`
	Orders               *model.OrderTotals   `json:"orders"`
}

type Service struct {
	repo repository.AnalyticsRepository
}

func NewService(repo repository.AnalyticsRepository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Report(ctx context.Context, from, to time.Time) (*Report, error) {
	byStatus, err := s.repo.AppointmentCountsByStatus(ctx)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	perDay, err := s.repo.AppointmentsPerDay(ctx, from, to)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	top, err := s.repo.TopMedicines(ctx, defaultTopMedicines)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	totals, err := s.repo.OrderTotals(ctx, from, to)
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	return &Report{
		From:                 from,
		To:                   to,
		AppointmentsByStatus: byStatus,
		AppointmentsPerDay:   perDay,
		TopMedicines:         top,
		Orders:               totals,
	}, nil
}
