package model

import (
	"time"

	"github.com/google/uuid"
)

type PrescriptionStatus string

const (
	PrescriptionStatusPending  PrescriptionStatus = "pending"
	PrescriptionStatusVerified PrescriptionStatus = "verified"
	PrescriptionStatusRejected PrescriptionStatus = "rejected"
)

// Prescription records an uploaded prescription awaiting pharmacist
// review. FileRef is an opaque pointer into blob storage.
type Prescription struct {
	Base
	PatientID  uuid.UUID          `json:"patient_id" db:"patient_id"`
	DoctorID   *uuid.UUID         `json:"doctor_id,omitempty" db:"doctor_id"`
	FileRef    string             `json:"file_ref" db:"file_ref"`
	Notes      string             `json:"notes,omitempty" db:"notes"`
	Status     PrescriptionStatus `json:"status" db:"status"`
	ReviewedBy *uuid.UUID         `json:"reviewed_by,omitempty" db:"reviewed_by"`
	ReviewNote *string            `json:"review_note,omitempty" db:"review_note"`
	ReviewedAt *time.Time         `json:"reviewed_at,omitempty" db:"reviewed_at"`
}

type SubmitPrescriptionRequest struct {
	DoctorID string `json:"doctor_id" binding:"omitempty,uuid"`
	FileRef  string `json:"file_ref" binding:"required"`
	Notes    string `json:"notes" binding:"max=2000"`
}

type ReviewPrescriptionRequest struct {
	Approve bool   `json:"approve"`
	Note    string `json:"note" binding:"max=2000"`
}
