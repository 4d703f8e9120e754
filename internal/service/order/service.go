package order

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/mediconnect/mediconnect-api/internal/model"
	"github.com/mediconnect/mediconnect-api/internal/repository"
	apperrors "github.com/mediconnect/mediconnect-api/pkg/errors"
	"github.com/mediconnect/mediconnect-api/pkg/logger"
)

var (
	ErrOrderNotFound        = apperrors.NotFound("order")
	ErrMedicineNotFound     = apperrors.NotFound("medicine")
	ErrOutOfStock           = apperrors.Conflict("insufficient stock")
	ErrPrescriptionRequired = apperrors.Forbidden("a verified prescription is required")
	ErrNotCancellable       = apperrors.Conflict("order has already left the pharmacy")
	ErrNotOwner             = apperrors.Forbidden("order belongs to another patient")
	ErrInvalidTransition    = apperrors.Conflict("order status transition not allowed")
)

// PrescriptionChecker is the slice of the prescription service the
// pharmacy needs.
type PrescriptionChecker interface {
	VerifiedForPatient(ctx context.Context, patientID uuid.UUID, prescriptionID *uuid.UUID) (bool, error)
}

type Service struct {
	repo          repository.OrderRepository
	medicines     repository.MedicineRepository
	users         repository.UserRepository
	prescriptions PrescriptionChecker
	logger        *logger.Logger
}

func NewService(repo repository.OrderRepository, medicines repository.MedicineRepository,
	users repository.UserRepository, prescriptions PrescriptionChecker,
	logger *logger.Logger) *Service {
	return &Service{
		repo:          repo,
		medicines:     medicines,
		users:         users,
		prescriptions: prescriptions,
		logger:        logger,
	}
}

// Place creates an order. Stock is decremented inside the same
// transaction that inserts the order, so two buyers cannot both take
// the last unit. Prescription-only items require a verified
// prescription owned by the buyer.
func (s *Service) Place(ctx context.Context, patientID uuid.UUID, req *model.PlaceOrderRequest) (*model.Order, error) {
	ids := make([]uuid.UUID, 0, len(req.Items))
	quantities := make(map[uuid.UUID]int, len(req.Items))
	for _, item := range req.Items {
		id, err := uuid.Parse(item.MedicineID)
		if err != nil {
			return nil, apperrors.BadRequest("invalid medicine id")
		}
		if _, dup := quantities[id]; dup {
			return nil, apperrors.BadRequest("duplicate medicine in order")
		}
		ids = append(ids, id)
		quantities[id] = item.Quantity
	}

	medicines, err := s.medicines.GetBatch(ctx, ids)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	if len(medicines) != len(ids) {
		return nil, ErrMedicineNotFound
	}

	var prescriptionID *uuid.UUID
	if req.PrescriptionID != "" {
		id, err := uuid.Parse(req.PrescriptionID)
		if err != nil {
			return nil, apperrors.BadRequest("invalid prescription id")
		}
		prescriptionID = &id
	}

	needsRx := false
	for _, m := range medicines {
		if m.RequiresRx {
			needsRx = true
			break
		}
	}
	if needsRx {
		verified, err := s.prescriptions.VerifiedForPatient(ctx, patientID, prescriptionID)
		if err != nil {
			return nil, err
		}
		if !verified {
			return nil, ErrPrescriptionRequired
		}
	}

	order := &model.Order{
		Base:           model.Base{ID: uuid.New()},
		PatientID:      patientID,
		PrescriptionID: prescriptionID,
		Status:         model.OrderStatusPlaced,
	}
	for _, m := range medicines {
		qty := quantities[m.ID]
		// Fast-fail on obvious shortage; the transactional decrement
		// in the store is still the authority.
		if m.Stock < qty {
			return nil, ErrOutOfStock
		}
		order.Items = append(order.Items, model.OrderItem{
			OrderID:        order.ID,
			MedicineID:     m.ID,
			Quantity:       qty,
			UnitPriceCents: m.PriceCents,
		})
		order.TotalCents += m.PriceCents * int64(qty)
	}

	events, err := s.orderEvents(ctx, order, "Order placed",
		fmt.Sprintf("Your order of %d item(s) totalling $%.2f was placed.",
			len(order.Items), float64(order.TotalCents)/100))
	if err != nil {
		return nil, err
	}

	if err := s.repo.Place(ctx, order, events); err != nil {
		if errors.Is(err, repository.ErrInsufficientStock) {
			return nil, ErrOutOfStock
		}
		return nil, apperrors.Internal(err)
	}

	s.logger.Info("order placed",
		"order_id", order.ID.String(), "patient_id", patientID.String(), "total_cents", order.TotalCents)
	return order, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	order, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, apperrors.Internal(err)
	}
	return order, nil
}

func (s *Service) ListForPatient(ctx context.Context, patientID uuid.UUID) ([]*model.Order, error) {
	out, err := s.repo.ListForPatient(ctx, patientID)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return out, nil
}

// ListOpen returns orders the pharmacy still has to act on.
func (s *Service) ListOpen(ctx context.Context) ([]*model.Order, error) {
	placed, err := s.repo.ListByStatus(ctx, model.OrderStatusPlaced)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	confirmed, err := s.repo.ListByStatus(ctx, model.OrderStatusConfirmed)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return append(placed, confirmed...), nil
}

// Cancel returns the items to the shelf. Only the buyer may cancel and
// only before dispatch.
func (s *Service) Cancel(ctx context.Context, id, patientID uuid.UUID) (*model.Order, error) {
	order, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if order.PatientID != patientID {
		return nil, ErrNotOwner
	}
	if !order.Status.Cancellable() {
		return nil, ErrNotCancellable
	}

	order.Status = model.OrderStatusCancelled
	events, err := s.orderEvents(ctx, order, "Order cancelled", "Your order was cancelled and the items restocked.")
	if err != nil {
		return nil, err
	}

	if err := s.repo.UpdateStatus(ctx, order, true, events); err != nil {
		return nil, apperrors.Internal(err)
	}

	s.logger.Info("order cancelled", "order_id", order.ID.String())
	return order, nil
}

// UpdateStatus advances the fulfilment workflow; cancellation goes
// through Cancel so restocking is never skipped.
func (s *Service) UpdateStatus(ctx context.Context, id uuid.UUID, next model.OrderStatus) (*model.Order, error) {
	order, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if next == model.OrderStatusCancelled {
		return nil, ErrInvalidTransition
	}
	if !order.Status.CanTransitionTo(next) {
		return nil, ErrInvalidTransition
	}

	order.Status = next
	events, err := s.orderEvents(ctx, order, "Order update",
		fmt.Sprintf("Your order is now %s.", next))
	if err != nil {
		return nil, err
	}

	if err := s.repo.UpdateStatus(ctx, order, false, events); err != nil {
		return nil, apperrors.Internal(err)
	}
	return order, nil
}

func (s *Service) orderEvents(ctx context.Context, order *model.Order, subject, content string) ([]*model.OutboxEvent, error) {
	patient, err := s.users.Get(ctx, order.PatientID)
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	email, err := model.NewNotificationEvent(model.ChannelEmail, model.NotificationPayload{
		UserID:    patient.ID,
		Recipient: patient.Email,
		Subject:   subject,
		Content:   content,
	})
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	inApp, err := model.NewNotificationEvent(model.ChannelInApp, model.NotificationPayload{
		UserID:  patient.ID,
		Subject: subject,
		Content: content,
	})
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return []*model.OutboxEvent{email, inApp}, nil
}
