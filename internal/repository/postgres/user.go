package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mediconnect/mediconnect-api/internal/model"
	"github.com/mediconnect/mediconnect-api/internal/repository"
)

type userRepository struct {
	BaseRepository
}

func NewUserRepository(base BaseRepository) repository.UserRepository {
	return &userRepository{base}
}

func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	query := `
		INSERT INTO users (
			id, email, name, password_hash, phone, role, status,
			login_attempts, last_login_attempt, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	user.CreatedAt = time.Now()
	user.UpdatedAt = time.Now()
	if user.Status == "" {
		user.Status = model.UserStatusActive
	}

	_, err := r.db.ExecContext(ctx, query,
		user.ID,
		user.Email,
		user.Name,
		user.PasswordHash,
		user.Phone,
		user.Role,
		user.Status,
		user.LoginAttempts,
		user.LastLoginAttempt,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return repository.ErrDuplicate
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (r *userRepository) Get(ctx context.Context, id uuid.UUID) (*model.User, error) {
	query := `
		SELECT id, email, name, password_hash, phone, role, status,
			   login_attempts, last_login_attempt, last_login_at,
			   created_at, updated_at
		FROM users
		WHERE id = $1
	`
	var user model.User
	if err := r.db.GetContext(ctx, &user, query, id); err != nil {
		return nil, mapGetErr(err, "get user")
	}
	return &user, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	query := `
		SELECT id, email, name, password_hash, phone, role, status,
			   login_attempts, last_login_attempt, last_login_at,
			   created_at, updated_at
		FROM users
		WHERE lower(email) = lower($1)
	`
	var user model.User
	if err := r.db.GetContext(ctx, &user, query, email); err != nil {
		return nil, mapGetErr(err, "get user by email")
	}
	return &user, nil
}

func (r *userRepository) Update(ctx context.Context, user *model.User) error {
	query := `
		UPDATE users
		SET name = $1, phone = $2, status = $3, login_attempts = $4,
			last_login_attempt = $5, last_login_at = $6, updated_at = $7
		WHERE id = $8
	`
	user.UpdatedAt = time.Now()

	result, err := r.db.ExecContext(ctx, query,
		user.Name,
		user.Phone,
		user.Status,
		user.LoginAttempts,
		user.LastLoginAttempt,
		user.LastLoginAt,
		user.UpdatedAt,
		user.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
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

func (r *userRepository) CreatePatientProfile(ctx context.Context, profile *model.PatientProfile) error {
	query := `
		INSERT INTO patient_profiles (
			user_id, date_of_birth, gender, blood_group, address, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, now(), now())
	`
	_, err := r.db.ExecContext(ctx, query,
		profile.UserID,
		profile.DateOfBirth,
		profile.Gender,
		profile.BloodGroup,
		profile.Address,
	)
	if err != nil {
		return fmt.Errorf("failed to create patient profile: %w", err)
	}
	return nil
}

func (r *userRepository) GetPatientProfile(ctx context.Context, userID uuid.UUID) (*model.PatientProfile, error) {
	query := `
		SELECT user_id, date_of_birth, gender, blood_group, address
		FROM patient_profiles
		WHERE user_id = $1
	`
	var profile model.PatientProfile
	if err := r.db.GetContext(ctx, &profile, query, userID); err != nil {
		return nil, mapGetErr(err, "get patient profile")
	}
	return &profile, nil
}
