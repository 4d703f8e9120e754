package appointment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mediconnect/mediconnect-api/internal/model"
	"github.com/mediconnect/mediconnect-api/internal/repository"
	"github.com/mediconnect/mediconnect-api/internal/schedule"
	apperrors "github.com/mediconnect/mediconnect-api/pkg/errors"
	"github.com/mediconnect/mediconnect-api/pkg/logger"
)

// Patients must cancel at least this long before the scheduled start.
// Exactly at the boundary still passes; only strictly less is rejected.
const MinCancelNotice = 3 * time.Hour

const defaultCancelReason = "cancelled by user"

var (
	ErrDoctorNotFound      = apperrors.NotFound("doctor")
	ErrPatientNotFound     = apperrors.NotFound("patient")
	ErrAppointmentNotFound = apperrors.NotFound("appointment")
	ErrSlotConflict        = apperrors.Conflict("time slot is already booked")
	ErrSlotOutsideHours    = apperrors.BadRequest("time slot is outside the doctor's working hours")
	ErrSlotInPast          = apperrors.BadRequest("appointment time is in the past")
	ErrNotParticipant      = apperrors.Forbidden("not a participant in this appointment")
	ErrAlreadyCancelled    = apperrors.BadRequest("appointment is already cancelled")
	ErrInvalidTransition   = apperrors.BadRequest("invalid status transition")
	ErrTooLateToCancel     = apperrors.BadRequest("appointments must be cancelled at least 3 hours before the scheduled start")
)

type Service struct {
	repo    repository.AppointmentRepository
	doctors repository.DoctorRepository
	users   repository.UserRepository
	logger  *logger.Logger

	now func() time.Time
}

func NewService(repo repository.AppointmentRepository, doctors repository.DoctorRepository,
	users repository.UserRepository, logger *logger.Logger) *Service {
	return &Service{
		repo:    repo,
		doctors: doctors,
		users:   users,
		logger:  logger,
		now:     time.Now,
	}
}

// Book places an appointment for the patient. The slot must fall inside
// the doctor's working window and be free; the uniqueness guarantee is
// carried by the store, the pre-check only gives a friendlier error.
func (s *Service) Book(ctx context.Context, patientID uuid.UUID, req *model.BookAppointmentRequest) (*model.Appointment, error) {
	doctorID, err := uuid.Parse(req.DoctorID)
	if err != nil {
		return nil, apperrors.BadRequest("invalid doctor ID")
	}

	date, err := parseDate(req.Date)
	if err != nil {
		return nil, apperrors.BadRequest("invalid date, expected YYYY-MM-DD")
	}

	slot, err := schedule.Parse(req.TimeSlot)
	if err != nil {
		return nil, apperrors.BadRequest("invalid time slot")
	}

	doctor, err := s.doctors.Get(ctx, doctorID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrDoctorNotFound
		}
		return nil, apperrors.Internal(err)
	}

	patient, err := s.users.Get(ctx, patientID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrPatientNotFound
		}
		return nil, apperrors.Internal(err)
	}

	if !doctor.WorksOn(date.Weekday()) {
		return nil, ErrSlotOutsideHours
	}
	if !schedule.Contains(doctor.WorkStart, doctor.WorkEnd, doctor.SlotInterval(), slot) {
		return nil, ErrSlotOutsideHours
	}
	if slot.At(date).Before(s.now()) {
		return nil, ErrSlotInPast
	}

	booked, err := s.repo.HasConflict(ctx, doctorID, date, slot)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	if booked {
		return nil, ErrSlotConflict
	}

	apt := &model.Appointment{
		DoctorID:  doctorID,
		PatientID: patientID,
		Date:      date,
		TimeSlot:  slot,
		Status:    model.AppointmentStatusScheduled,
		Reason:    req.Reason,
	}

	events, err := bookingEvents(apt, doctor, patient)
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	if err := s.repo.Book(ctx, apt, events); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			// Lost the race after the pre-check; same outcome.
			return nil, ErrSlotConflict
		}
		return nil, apperrors.Internal(err)
	}

	s.logger.Info("appointment booked",
		"appointment_id", apt.ID.String(),
		"doctor_id", doctorID.String(),
		"slot", apt.TimeSlot.String())

	return apt, nil
}

// GetAvailability returns the doctor's per-slot availability map for a
// day. A day off or unconfigured hours yields an empty map, not an
// error.
func (s *Service) GetAvailability(ctx context.Context, doctorID uuid.UUID, date time.Time) ([]model.SlotAvailability, error) {
	doctor, err := s.doctors.Get(ctx, doctorID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrDoctorNotFound
		}
		return nil, apperrors.Internal(err)
	}

	date = truncateToDay(date)
	if !doctor.WorksOn(date.Weekday()) {
		return []model.SlotAvailability{}, nil
	}

	slots := schedule.Slots(doctor.WorkStart, doctor.WorkEnd, doctor.SlotInterval())
	if len(slots) == 0 {
		return []model.SlotAvailability{}, nil
	}

	appointments, err := s.repo.ListForDoctorDay(ctx, doctorID, date)
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	booked := make(map[schedule.TimeOfDay]bool, len(appointments))
	for _, apt := range appointments {
		booked[apt.TimeSlot] = true
	}

	availability := make([]model.SlotAvailability, 0, len(slots))
	for _, slot := range slots {
		availability = append(availability, model.SlotAvailability{
			Time:      slot,
			Available: !booked[slot],
		})
	}
	return availability, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	apt, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrAppointmentNotFound
		}
		return nil, apperrors.Internal(err)
	}
	return apt, nil
}

func (s *Service) List(ctx context.Context, filters *model.AppointmentFilters) ([]*model.Appointment, error) {
	appointments, err := s.repo.List(ctx, filters)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return appointments, nil
}

// Cancel applies the cancellation policy: the doctor may cancel any
// time, the patient only up to the notice threshold before start.
func (s *Service) Cancel(ctx context.Context, id, actorID uuid.UUID, reason string) (*model.Appointment, error) {
	apt, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if actorID != apt.DoctorID && actorID != apt.PatientID {
		return nil, ErrNotParticipant
	}

	switch {
	case apt.Status == model.AppointmentStatusCancelled:
		return nil, ErrAlreadyCancelled
	case !apt.Status.CanTransitionTo(model.AppointmentStatusCancelled):
		return nil, ErrInvalidTransition
	}

	if actorID == apt.PatientID {
		if apt.StartsAt().Sub(s.now()) < MinCancelNotice {
			return nil, ErrTooLateToCancel
		}
	}

	if reason == "" {
		reason = defaultCancelReason
	}
	apt.Status = model.AppointmentStatusCancelled
	apt.CancelReason = &reason

	counterparty := apt.DoctorID
	if actorID == apt.DoctorID {
		counterparty = apt.PatientID
	}
	event, err := model.NewNotificationEvent(model.ChannelInApp, model.NotificationPayload{
		UserID:  counterparty,
		Subject: "Appointment cancelled",
		Content: fmt.Sprintf("Your appointment on %s at %s was cancelled: %s",
			apt.Date.Format("2006-01-02"), apt.TimeSlot.Format12(), reason),
	})
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	if err := s.repo.UpdateWithEvents(ctx, apt, []*model.OutboxEvent{event}); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrAppointmentNotFound
		}
		return nil, apperrors.Internal(err)
	}

	s.logger.Info("appointment cancelled",
		"appointment_id", apt.ID.String(),
		"by", actorID.String())

	return apt, nil
}

// UpdateStatus advances the workflow. Only the appointment's doctor
// drives it; cancellation goes through Cancel and its policy instead.
func (s *Service) UpdateStatus(ctx context.Context, id, actorID uuid.UUID, next model.AppointmentStatus) (*model.Appointment, error) {
	apt, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if actorID != apt.DoctorID {
		return nil, ErrNotParticipant
	}
	if next == model.AppointmentStatusCancelled {
		return nil, ErrInvalidTransition
	}
	if !apt.Status.CanTransitionTo(next) {
		return nil, ErrInvalidTransition
	}

	apt.Status = next

	event, err := model.NewNotificationEvent(model.ChannelInApp, model.NotificationPayload{
		UserID:  apt.PatientID,
		Subject: "Appointment update",
		Content: fmt.Sprintf("Your appointment on %s at %s is now %s",
			apt.Date.Format("2006-01-02"), apt.TimeSlot.Format12(), next),
	})
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	if err := s.repo.UpdateWithEvents(ctx, apt, []*model.OutboxEvent{event}); err != nil {
		return nil, apperrors.Internal(err)
	}
	return apt, nil
}

func bookingEvents(apt *model.Appointment, doctor *model.Doctor, patient *model.User) ([]*model.OutboxEvent, error) {
	when := fmt.Sprintf("%s at %s", apt.Date.Format("2006-01-02"), apt.TimeSlot.Format12())

	doctorAlert, err := model.NewNotificationEvent(model.ChannelInApp, model.NotificationPayload{
		UserID:  doctor.User.ID,
		Subject: "New appointment",
		Content: fmt.Sprintf("%s booked %s", patient.Name, when),
	})
	if err != nil {
		return nil, err
	}

	confirmation, err := model.NewNotificationEvent(model.ChannelEmail, model.NotificationPayload{
		UserID:    patient.ID,
		Recipient: patient.Email,
		Subject:   "Appointment confirmation",
		Content:   fmt.Sprintf("Your appointment with Dr. %s is booked for %s", doctor.Name, when),
	})
	if err != nil {
		return nil, err
	}

	return []*model.OutboxEvent{doctorAlert, confirmation}, nil
}

func parseDate(s string) (time.Time, error) {
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, err
	}
	return truncateToDay(d), nil
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
