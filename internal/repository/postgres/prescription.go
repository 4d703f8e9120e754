package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/mediconnect/mediconnect-api/internal/model"
	"github.com/mediconnect/mediconnect-api/internal/repository"
)

type prescriptionRepository struct {
	BaseRepository
}

func NewPrescriptionRepository(base BaseRepository) repository.PrescriptionRepository {
	return &prescriptionRepository{base}
}

const prescriptionColumns = `
	id, patient_id, doctor_id, file_ref, notes, status,
	reviewed_by, review_note, reviewed_at, created_at, updated_at
`

func (r *prescriptionRepository) Create(ctx context.Context, p *model.Prescription) error {
	query := `
		INSERT INTO prescriptions (
			id, patient_id, doctor_id, file_ref, notes, status,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	p.CreatedAt = time.Now()
	p.UpdatedAt = time.Now()
	if p.Status == "" {
		p.Status = model.PrescriptionStatusPending
	}

	_, err := r.db.ExecContext(ctx, query,
		p.ID,
		p.PatientID,
		p.DoctorID,
		p.FileRef,
		p.Notes,
		p.Status,
		p.CreatedAt,
		p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create prescription: %w", err)
	}
	return nil
}

func (r *prescriptionRepository) Get(ctx context.Context, id uuid.UUID) (*model.Prescription, error) {
	query := `SELECT ` + prescriptionColumns + ` FROM prescriptions WHERE id = $1`

	var p model.Prescription
	if err := r.db.GetContext(ctx, &p, query, id); err != nil {
		return nil, mapGetErr(err, "get prescription")
	}
	return &p, nil
}

func (r *prescriptionRepository) ListForPatient(ctx context.Context, patientID uuid.UUID) ([]*model.Prescription, error) {
	query := `
		SELECT ` + prescriptionColumns + `
		FROM prescriptions
		WHERE patient_id = $1
		ORDER BY created_at DESC
	`
	var prescriptions []*model.Prescription
	if err := r.db.SelectContext(ctx, &prescriptions, query, patientID); err != nil {
		return nil, fmt.Errorf("failed to list prescriptions: %w", err)
	}
	return prescriptions, nil
}

func (r *prescriptionRepository) ListByStatus(ctx context.Context, status model.PrescriptionStatus) ([]*model.Prescription, error) {
	query := `
		SELECT ` + prescriptionColumns + `
		FROM prescriptions
		WHERE status = $1
		ORDER BY created_at ASC
	`
	var prescriptions []*model.Prescription
	if err := r.db.SelectContext(ctx, &prescriptions, query, status); err != nil {
		return nil, fmt.Errorf("failed to list prescriptions by status: %w", err)
	}
	return prescriptions, nil
}

func (r *prescriptionRepository) UpdateWithEvents(ctx context.Context, p *model.Prescription, events []*model.OutboxEvent) error {
	p.UpdatedAt = time.Now()

	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		query := `
			UPDATE prescriptions
			SET status = $1, reviewed_by = $2, review_note = $3,
				reviewed_at = $4, updated_at = $5
			WHERE id = $6
		`
		result, err := tx.ExecContext(ctx, query,
			p.Status,
			p.ReviewedBy,
			p.ReviewNote,
			p.ReviewedAt,
			p.UpdatedAt,
			p.ID,
		)
		if err != nil {
			return fmt.Errorf("failed to update prescription: %w", err)
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
