package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/mediconnect/mediconnect-api/internal/schedule"
)

// User roles. The role tag discriminates which profile record a user
// carries; role-specific fields never live on the base row.
const (
	RolePatient    = "patient"
	RoleDoctor     = "doctor"
	RolePharmacist = "pharmacist"
	RoleAdmin      = "admin"
)

// User status constants
const (
	UserStatusActive   = "active"
	UserStatusInactive = "inactive"
	UserStatusLocked   = "locked"
)

// User represents the common account record shared by all roles.
type User struct {
	Base
	Email            string     `json:"email" db:"email"`
	Name             string     `json:"name" db:"name"`
	PasswordHash     string     `json:"-" db:"password_hash"`
	Phone            *string    `json:"phone,omitempty" db:"phone"`
	Role             string     `json:"role" db:"role"`
	Status           string     `json:"status" db:"status"`
	LoginAttempts    int        `json:"-" db:"login_attempts"`
	LastLoginAttempt time.Time  `json:"-" db:"last_login_attempt"`
	LastLoginAt      *time.Time `json:"last_login_at,omitempty" db:"last_login_at"`
}

func ValidRole(role string) bool {
	switch role {
	case RolePatient, RoleDoctor, RolePharmacist, RoleAdmin:
		return true
	}
	return false
}

// DoctorProfile holds the doctor-only fields, keyed by the user row.
type DoctorProfile struct {
	UserID         uuid.UUID         `json:"user_id" db:"user_id"`
	Specialization string            `json:"specialization" db:"specialization"`
	Bio            string            `json:"bio" db:"bio"`
	FeeCents       int64             `json:"consultation_fee_cents" db:"consultation_fee_cents"`
	WorkingDays    pq.StringArray    `json:"working_days" db:"working_days"`
	WorkStart      schedule.TimeOfDay `json:"work_start" db:"work_start"`
	WorkEnd        schedule.TimeOfDay `json:"work_end" db:"work_end"`
	SlotMinutes    int               `json:"slot_minutes" db:"slot_minutes"`
}

// WorksOn reports whether the weekday is in the doctor's working-day set.
// Day names are stored as English weekday names, matched case-insensitively.
func (p *DoctorProfile) WorksOn(day time.Weekday) bool {
	for _, name := range p.WorkingDays {
		if strings.EqualFold(name, day.String()) {
			return true
		}
	}
	return false
}

// SlotInterval returns the configured slot length, falling back to the
// default when unset.
func (p *DoctorProfile) SlotInterval() time.Duration {
	if p.SlotMinutes <= 0 {
		return schedule.DefaultSlotInterval
	}
	return time.Duration(p.SlotMinutes) * time.Minute
}

// Doctor is the joined view of a doctor's account and profile.
type Doctor struct {
	User
	DoctorProfile
}

// PatientProfile holds the patient-only fields.
type PatientProfile struct {
	UserID      uuid.UUID  `json:"user_id" db:"user_id"`
	DateOfBirth *time.Time `json:"date_of_birth,omitempty" db:"date_of_birth"`
	Gender      *string    `json:"gender,omitempty" db:"gender"`
	BloodGroup  *string    `json:"blood_group,omitempty" db:"blood_group"`
	Address     string     `json:"address" db:"address"`
}

// DoctorFilters narrows directory listings.
type DoctorFilters struct {
	Specialization string `form:"specialization"`
	SearchTerm     string `form:"q"`
}

// UpdateDoctorProfileRequest carries the editable directory fields.
// Working hours are labels like "09:00" or "5:30 PM".
type UpdateDoctorProfileRequest struct {
	Specialization string   `json:"specialization" binding:"omitempty,max=100"`
	Bio            string   `json:"bio" binding:"omitempty,max=2000"`
	FeeCents       int64    `json:"consultation_fee_cents" binding:"omitempty,min=0"`
	WorkingDays    []string `json:"working_days" binding:"omitempty,dive,oneof=Monday Tuesday Wednesday Thursday Friday Saturday Sunday"`
	WorkStart      string   `json:"work_start" binding:"omitempty,clock"`
	WorkEnd        string   `json:"work_end" binding:"omitempty,clock"`
	SlotMinutes    int      `json:"slot_minutes" binding:"omitempty,min=5,max=120"`
}
