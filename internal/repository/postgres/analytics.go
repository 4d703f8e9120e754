package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/mediconnect/mediconnect-api/internal/model"
	"github.com/mediconnect/mediconnect-api/internal/repository"
)

type analyticsRepository struct {
	BaseRepository
}

func NewAnalyticsRepository(base BaseRepository) repository.AnalyticsRepository {
	return &analyticsRepository{base}
}

func (r *analyticsRepository) AppointmentCountsByStatus(ctx context.Context) ([]model.StatusCount, error) {
	query := `
		SELECT status, count(*) AS count
		FROM appointments
		GROUP BY status
		ORDER BY count DESC
	`
	var counts []model.StatusCount
	if err := r.db.SelectContext(ctx, &counts, query); err != nil {
		return nil, fmt.Errorf("failed to count appointments by status: %w", err)
	}
	return counts, nil
}

func (r *analyticsRepository) AppointmentsPerDay(ctx context.Context, from, to time.Time) ([]model.DayCount, error) {
	query := `
		SELECT date AS day, count(*) AS count
		FROM appointments
		WHERE date >= $1 AND date <= $2
		GROUP BY date
		ORDER BY date ASC
	`
	var counts []model.DayCount
	if err := r.db.SelectContext(ctx, &counts, query, from, to); err != nil {
		return nil, fmt.Errorf("failed to count appointments per day: %w", err)
	}
	return counts, nil
}

func (r *analyticsRepository) TopMedicines(ctx context.Context, limit int) ([]model.MedicineCount, error) {
	query := `
		SELECT m.id AS medicine_id, m.name, sum(i.quantity) AS quantity
		FROM order_items i
		JOIN orders o ON o.id = i.order_id
		JOIN medicines m ON m.id = i.medicine_id
		WHERE o.status <> $1
		GROUP BY m.id, m.name
		ORDER BY quantity DESC
		LIMIT $2
	`
	var counts []model.MedicineCount
	if err := r.db.SelectContext(ctx, &counts, query, model.OrderStatusCancelled, limit); err != nil {
		return nil, fmt.Errorf("failed to rank medicines: %w", err)
	}
	return counts, nil
}

func (r *analyticsRepository) OrderTotals(ctx context.Context, from, to time.Time) (*model.OrderTotals, error) {
	query := `
		SELECT count(*) AS orders, coalesce(sum(total_cents), 0) AS revenue_cents
		FROM orders
		WHERE status <> $1
		AND created_at >= $2 AND created_at < $3
	`
	var totals model.OrderTotals
	if err := r.db.GetContext(ctx, &totals, query, model.OrderStatusCancelled, from, to); err != nil {
		return nil, fmt.Errorf("failed to total orders: %w", err)
	}
	return &totals, nil
}
