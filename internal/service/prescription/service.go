package prescription

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mediconnect/mediconnect-api/internal/model"
	"github.com/mediconnect/mediconnect-api/internal/repository"
	apperrors "github.com/mediconnect/mediconnect-api/pkg/errors"
	"github.com/mediconnect/mediconnect-api/pkg/logger"
)

var (
	ErrPrescriptionNotFound = apperrors.NotFound("prescription")
	ErrAlreadyReviewed      = apperrors.Conflict("prescription already reviewed")
	ErrNotOwner             = apperrors.Forbidden("prescription belongs to another patient")
)

type Service struct {
	repo   repository.PrescriptionRepository
	users  repository.UserRepository
	logger *logger.Logger
}

func NewService(repo repository.PrescriptionRepository, users repository.UserRepository,
	logger *logger.Logger) *Service {
	return &Service{repo: repo, users: users, logger: logger}
}

func (s *Service) Submit(ctx context.Context, patientID uuid.UUID, req *model.SubmitPrescriptionRequest) (*model.Prescription, error) {
	p := &model.Prescription{
		Base:      model.Base{ID: uuid.New()},
		PatientID: patientID,
		FileRef:   req.FileRef,
		Notes:     req.Notes,
		Status:    model.PrescriptionStatusPending,
	}
	if req.DoctorID != "" {
		doctorID, err := uuid.Parse(req.DoctorID)
		if err != nil {
			return nil, apperrors.BadRequest("invalid doctor id")
		}
		p.DoctorID = &doctorID
	}

	if err := s.repo.Create(ctx, p); err != nil {
		return nil, apperrors.Internal(err)
	}

	s.logger.Info("prescription submitted", "prescription_id", p.ID.String())
	return p, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.Prescription, error) {
	p, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrPrescriptionNotFound
		}
		return nil, apperrors.Internal(err)
	}
	return p, nil
}

func (s *Service) ListForPatient(ctx context.Context, patientID uuid.UUID) ([]*model.Prescription, error) {
	out, err := s.repo.ListForPatient(ctx, patientID)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return out, nil
}

// ListPending returns the pharmacist review queue.
func (s *Service) ListPending(ctx context.Context) ([]*model.Prescription, error) {
	out, err := s.repo.ListByStatus(ctx, model.PrescriptionStatusPending)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return out, nil
}

// Review settles a pending prescription and notifies the patient by
// email. A prescription is reviewed exactly once.
func (s *Service) Review(ctx context.Context, id, reviewerID uuid.UUID, req *model.ReviewPrescriptionRequest) (*model.Prescription, error) {
	p, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.Status != model.PrescriptionStatusPending {
		return nil, ErrAlreadyReviewed
	}

	patient, err := s.users.Get(ctx, p.PatientID)
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	p.Status = model.PrescriptionStatusRejected
	verdict := "rejected"
	if req.Approve {
		p.Status = model.PrescriptionStatusVerified
		verdict = "verified"
	}
	p.ReviewedBy = &reviewerID
	now := time.Now()
	p.ReviewedAt = &now
	if req.Note != "" {
		p.ReviewNote = &req.Note
	}

	content := fmt.Sprintf("Your prescription has been %s.", verdict)
	if req.Note != "" {
		content = fmt.Sprintf("%s Pharmacist note: %s", content, req.Note)
	}
	event, err := model.NewNotificationEvent(model.ChannelEmail, model.NotificationPayload{
		UserID:    patient.ID,
		Recipient: patient.Email,
		Subject:   "Prescription review result",
		Content:   content,
	})
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	if err := s.repo.UpdateWithEvents(ctx, p, []*model.OutboxEvent{event}); err != nil {
		return nil, apperrors.Internal(err)
	}

	s.logger.Info("prescription reviewed",
		"prescription_id", p.ID.String(), "verdict", verdict, "reviewer", reviewerID.String())
	return p, nil
}

// VerifiedForPatient reports whether the patient holds a verified
// prescription, optionally a specific one. The pharmacy order flow
// uses this to gate prescription-only medicines.
func (s *Service) VerifiedForPatient(ctx context.Context, patientID uuid.UUID, prescriptionID *uuid.UUID) (bool, error) {
	if prescriptionID != nil {
		p, err := s.Get(ctx, *prescriptionID)
		if err != nil {
			return false, err
		}
		if p.PatientID != patientID {
			return false, ErrNotOwner
		}
		return p.Status == model.PrescriptionStatusVerified, nil
	}

	all, err := s.repo.ListForPatient(ctx, patientID)
	if err != nil {
		return false, apperrors.Internal(err)
	}
	for _, p := range all {
		if p.Status == model.PrescriptionStatusVerified {
			return true, nil
		}
	}
	return false, nil
}
