package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/mediconnect/mediconnect-api/internal/model"
	"github.com/mediconnect/mediconnect-api/internal/repository"
)

type doctorRepository struct {
	BaseRepository
}

func NewDoctorRepository(base BaseRepository) repository.DoctorRepository {
	return &doctorRepository{base}
}

const doctorColumns = `
	u.id, u.email, u.name, u.password_hash, u.phone, u.role, u.status,
	u.login_attempts, u.last_login_attempt, u.last_login_at,
	u.created_at, u.updated_at,
	p.user_id, p.specialization, p.bio, p.consultation_fee_cents,
	p.working_days, p.work_start, p.work_end, p.slot_minutes
`

func (r *doctorRepository) Get(ctx context.Context, userID uuid.UUID) (*model.Doctor, error) {
	query := `
		SELECT ` + doctorColumns + `
		FROM users u
		JOIN doctor_profiles p ON p.user_id = u.id
		WHERE u.id = $1 AND u.role = $2
	`
	var doctor model.Doctor
	if err := r.db.GetContext(ctx, &doctor, query, userID, model.RoleDoctor); err != nil {
		return nil, mapGetErr(err, "get doctor")
	}
	return &doctor, nil
}

func (r *doctorRepository) List(ctx context.Context, filters *model.DoctorFilters) ([]*model.Doctor, error) {
	query := `
		SELECT ` + doctorColumns + `
		FROM users u
		JOIN doctor_profiles p ON p.user_id = u.id
		WHERE u.role = $1 AND u.status = $2
	`
	args := []interface{}{model.RoleDoctor, model.UserStatusActive}
	argCount := 3

	if filters != nil && filters.Specialization != "" {
		query += fmt.Sprintf(" AND lower(p.specialization) = lower($%d)", argCount)
		args = append(args, filters.Specialization)
		argCount++
	}

	if filters != nil && filters.SearchTerm != "" {
		query += fmt.Sprintf(" AND u.name ILIKE $%d", argCount)
		args = append(args, "%"+filters.SearchTerm+"%")
		argCount++
	}

	query += " ORDER BY u.name ASC"

	var doctors []*model.Doctor
	if err := r.db.SelectContext(ctx, &doctors, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list doctors: %w", err)
	}
	return doctors, nil
}

func (r *doctorRepository) UpsertProfile(ctx context.Context, profile *model.DoctorProfile) error {
	query := `
		INSERT INTO doctor_profiles (
			user_id, specialization, bio, consultation_fee_cents,
			working_days, work_start, work_end, slot_minutes,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now(), now())
		ON CONFLICT (user_id) DO UPDATE SET
			specialization = EXCLUDED.specialization,
			bio = EXCLUDED.bio,
			consultation_fee_cents = EXCLUDED.consultation_fee_cents,
			working_days = EXCLUDED.working_days,
			work_start = EXCLUDED.work_start,
			work_end = EXCLUDED.work_end,
			slot_minutes = EXCLUDED.slot_minutes,
			updated_at = now()
	`
	_, err := r.db.ExecContext(ctx, query,
		profile.UserID,
		profile.Specialization,
		profile.Bio,
		profile.FeeCents,
		profile.WorkingDays,
		profile.WorkStart,
		profile.WorkEnd,
		profile.SlotMinutes,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert doctor profile: %w", err)
	}
	return nil
}
