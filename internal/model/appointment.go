package model

import (
	"time"

	"github.com/google/uuid"

	"github.com/mediconnect/mediconnect-api/internal/schedule"
)

type AppointmentStatus string

const (
	AppointmentStatusScheduled  AppointmentStatus = "scheduled"
	AppointmentStatusConfirmed  AppointmentStatus = "confirmed"
	AppointmentStatusCheckedIn  AppointmentStatus = "checked_in"
	AppointmentStatusInProgress AppointmentStatus = "in_progress"
	AppointmentStatusCompleted  AppointmentStatus = "completed"
	AppointmentStatusCancelled  AppointmentStatus = "cancelled"
	AppointmentStatusNoShow     AppointmentStatus = "no_show"
)

// statusTransitions is the forward workflow; cancelled and no_show are
// reachable from every non-terminal state.
var statusTransitions = map[AppointmentStatus][]AppointmentStatus{
	AppointmentStatusScheduled:  {AppointmentStatusConfirmed, AppointmentStatusCancelled, AppointmentStatusNoShow},
	AppointmentStatusConfirmed:  {AppointmentStatusCheckedIn, AppointmentStatusCancelled, AppointmentStatusNoShow},
	AppointmentStatusCheckedIn:  {AppointmentStatusInProgress, AppointmentStatusCancelled, AppointmentStatusNoShow},
	AppointmentStatusInProgress: {AppointmentStatusCompleted, AppointmentStatusCancelled, AppointmentStatusNoShow},
}

// CanTransitionTo reports whether the workflow permits moving to next.
func (s AppointmentStatus) CanTransitionTo(next AppointmentStatus) bool {
	for _, allowed := range statusTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Terminal reports whether no further transition is modeled.
func (s AppointmentStatus) Terminal() bool {
	return len(statusTransitions[s]) == 0
}

type Appointment struct {
	Base
	DoctorID     uuid.UUID          `json:"doctor_id" db:"doctor_id"`
	PatientID    uuid.UUID          `json:"patient_id" db:"patient_id"`
	Date         time.Time          `json:"date" db:"date"`
	TimeSlot     schedule.TimeOfDay `json:"time_slot" db:"time_slot"`
	Status       AppointmentStatus  `json:"status" db:"status"`
	Reason       string             `json:"reason,omitempty" db:"reason"`
	CancelReason *string            `json:"cancel_reason,omitempty" db:"cancel_reason"`
}

// StartsAt reconstructs the absolute start instant from the booking day
// and the slot label.
func (a *Appointment) StartsAt() time.Time {
	return a.TimeSlot.At(a.Date)
}

// SlotAvailability is one entry of an availability map.
type SlotAvailability struct {
	Time      schedule.TimeOfDay `json:"time"`
	Available bool               `json:"available"`
}

type BookAppointmentRequest struct {
	DoctorID string `json:"doctor_id" binding:"required,uuid"`
	Date     string `json:"date" binding:"required"`
	TimeSlot string `json:"time_slot" binding:"required,clock"`
	Reason   string `json:"reason" binding:"max=1000"`
}

type CancelAppointmentRequest struct {
	Reason string `json:"reason" binding:"max=1000"`
}

type UpdateAppointmentStatusRequest struct {
	Status AppointmentStatus `json:"status" binding:"required"`
}

type AppointmentFilters struct {
	DoctorID  uuid.UUID
	PatientID uuid.UUID
	Status    AppointmentStatus
	From      time.Time
	To        time.Time
}
