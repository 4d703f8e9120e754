package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/mediconnect/mediconnect-api/internal/model"
	"github.com/mediconnect/mediconnect-api/internal/repository"
)

type medicineRepository struct {
	BaseRepository
}

func NewMedicineRepository(base BaseRepository) repository.MedicineRepository {
	return &medicineRepository{base}
}

const medicineColumns = `
	id, name, description, manufacturer, price_cents, stock,
	requires_prescription, created_at, updated_at
`

func (r *medicineRepository) Create(ctx context.Context, m *model.Medicine) error {
	query := `
		INSERT INTO medicines (
			id, name, description, manufacturer, price_cents, stock,
			requires_prescription, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	m.CreatedAt = time.Now()
	m.UpdatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		m.ID,
		m.Name,
		m.Description,
		m.Manufacturer,
		m.PriceCents,
		m.Stock,
		m.RequiresRx,
		m.CreatedAt,
		m.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create medicine: %w", err)
	}
	return nil
}

func (r *medicineRepository) Get(ctx context.Context, id uuid.UUID) (*model.Medicine, error) {
	query := `SELECT ` + medicineColumns + ` FROM medicines WHERE id = $1`

	var m model.Medicine
	if err := r.db.GetContext(ctx, &m, query, id); err != nil {
		return nil, mapGetErr(err, "get medicine")
	}
	return &m, nil
}

func (r *medicineRepository) GetBatch(ctx context.Context, ids []uuid.UUID) ([]*model.Medicine, error) {
	query := `SELECT ` + medicineColumns + ` FROM medicines WHERE id = ANY($1)`

	var medicines []*model.Medicine
	if err := r.db.SelectContext(ctx, &medicines, query, pq.Array(ids)); err != nil {
		return nil, fmt.Errorf("failed to get medicines: %w", err)
	}
	return medicines, nil
}

func (r *medicineRepository) Update(ctx context.Context, m *model.Medicine) error {
	query := `
		UPDATE medicines
		SET description = $1, price_cents = $2, stock = $3,
			requires_prescription = $4, updated_at = $5
		WHERE id = $6
	`
	m.UpdatedAt = time.Now()

	result, err := r.db.ExecContext(ctx, query,
		m.Description,
		m.PriceCents,
		m.Stock,
		m.RequiresRx,
		m.UpdatedAt,
		m.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update medicine: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *medicineRepository) List(ctx context.Context, filters *model.MedicineFilters) ([]*model.Medicine, error) {
	query := `SELECT ` + medicineColumns + ` FROM medicines WHERE 1=1`
	var args []interface{}
	argCount := 1

	if filters != nil && filters.SearchTerm != "" {
		query += fmt.Sprintf(" AND name ILIKE $%d", argCount)
		args = append(args, "%"+filters.SearchTerm+"%")
		argCount++
	}
	if filters != nil && filters.InStock {
		query += " AND stock > 0"
	}

	query += " ORDER BY name ASC"

	var medicines []*model.Medicine
	if err := r.db.SelectContext(ctx, &medicines, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list medicines: %w", err)
	}
	return medicines, nil
}
