package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/mediconnect/mediconnect-api/internal/model"
	"github.com/mediconnect/mediconnect-api/internal/repository"
	"github.com/mediconnect/mediconnect-api/internal/schedule"
)

type appointmentRepository struct {
	BaseRepository
}

func NewAppointmentRepository(base BaseRepository) repository.AppointmentRepository {
	return &appointmentRepository{base}
}

const appointmentColumns = `
	id, doctor_id, patient_id, date, time_slot, status, reason,
	cancel_reason, created_at, updated_at
`

func (r *appointmentRepository) Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	query := `SELECT ` + appointmentColumns + ` FROM appointments WHERE id = $1`

	var apt model.Appointment
	if err := r.db.GetContext(ctx, &apt, query, id); err != nil {
		return nil, mapGetErr(err, "get appointment")
	}
	return &apt, nil
}

func (r *appointmentRepository) List(ctx context.Context, filters *model.AppointmentFilters) ([]*model.Appointment, error) {
	query := `SELECT ` + appointmentColumns + ` FROM appointments WHERE 1=1`
	var args []interface{}
	argCount := 1

	if filters.DoctorID != uuid.Nil {
		query += fmt.Sprintf(" AND doctor_id = $%d", argCount)
		args = append(args, filters.DoctorID)
		argCount++
	}
	if filters.PatientID != uuid.Nil {
		query += fmt.Sprintf(" AND patient_id = $%d", argCount)
		args = append(args, filters.PatientID)
		argCount++
	}
	if filters.Status != "" {
		query += fmt.Sprintf(" AND status = $%d", argCount)
		args = append(args, filters.Status)
		argCount++
	}
	if !filters.From.IsZero() {
		query += fmt.Sprintf(" AND date >= $%d", argCount)
		args = append(args, filters.From)
		argCount++
	}
	if !filters.To.IsZero() {
		query += fmt.Sprintf(" AND date <= $%d", argCount)
		args = append(args, filters.To)
		argCount++
	}

	query += " ORDER BY date ASC, time_slot ASC"

	var appointments []*model.Appointment
	if err := r.db.SelectContext(ctx, &appointments, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list appointments: %w", err)
	}
	return appointments, nil
}

func (r *appointmentRepository) ListForDoctorDay(ctx context.Context, doctorID uuid.UUID, date time.Time) ([]*model.Appointment, error) {
	query := `
		SELECT ` + appointmentColumns + `
		FROM appointments
		WHERE doctor_id = $1
		AND date = $2
		AND status <> $3
		ORDER BY time_slot ASC
	`
	var appointments []*model.Appointment
	err := r.db.SelectContext(ctx, &appointments, query, doctorID, date, model.AppointmentStatusCancelled)
	if err != nil {
		return nil, fmt.Errorf("failed to list doctor appointments: %w", err)
	}
	return appointments, nil
}

func (r *appointmentRepository) HasConflict(ctx context.Context, doctorID uuid.UUID, date time.Time, slot schedule.TimeOfDay) (bool, error) {
	// Checks every label spelling so legacy 12-hour rows, padded or
	// not, still block the slot. The partial unique index remains the
	// authoritative guard for canonical rows.
	query := `
		SELECT EXISTS (
			SELECT 1 FROM appointments
			WHERE doctor_id = $1
			AND date = $2
			AND time_slot = ANY($3)
			AND status <> $4
		)
	`
	var hasConflict bool
	err := r.db.GetContext(ctx, &hasConflict, query,
		doctorID, date, pq.Array(slot.Labels()), model.AppointmentStatusCancelled)
	if err != nil {
		return false, fmt.Errorf("failed to check conflicts: %w", err)
	}
	return hasConflict, nil
}

func (r *appointmentRepository) Book(ctx context.Context, apt *model.Appointment, events []*model.OutboxEvent) error {
	if apt.ID == uuid.Nil {
		apt.ID = uuid.New()
	}
	apt.CreatedAt = time.Now()
	apt.UpdatedAt = time.Now()

	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		query := `
			INSERT INTO appointments (
				id, doctor_id, patient_id, date, time_slot, status,
				reason, created_at, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		`
		_, err := tx.ExecContext(ctx, query,
			apt.ID,
			apt.DoctorID,
			apt.PatientID,
			apt.Date,
			apt.TimeSlot,
			apt.Status,
			apt.Reason,
			apt.CreatedAt,
			apt.UpdatedAt,
		)
		if err != nil {
			if isUniqueViolation(err) {
				return repository.ErrDuplicate
			}
			return fmt.Errorf("failed to create appointment: %w", err)
		}

		return insertOutboxEvents(ctx, tx, events)
	})
}

func (r *appointmentRepository) UpdateWithEvents(ctx context.Context, apt *model.Appointment, events []*model.OutboxEvent) error {
	apt.UpdatedAt = time.Now()

	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		query := `
			UPDATE appointments
			SET status = $1, cancel_reason = $2, updated_at = $3
			WHERE id = $4
		`
		result, err := tx.ExecContext(ctx, query,
			apt.Status,
			apt.CancelReason,
			apt.UpdatedAt,
			apt.ID,
		)
		if err != nil {
			return fmt.Errorf("failed to update appointment: %w", err)
		}

		rows, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if rows == 0 {
			return repository.ErrNotFound
		}

		return insertOutboxEvents(ctx, tx, events)
	})
}
