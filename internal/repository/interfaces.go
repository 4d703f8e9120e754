package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/mediconnect/mediconnect-api/internal/model"
	"github.com/mediconnect/mediconnect-api/internal/schedule"
)

// Sentinel store errors. Services translate these into their own error
// taxonomy; nothing above the repository layer inspects driver errors.
var (
	ErrNotFound          = errors.New("record not found")
	ErrDuplicate         = errors.New("duplicate record")
	ErrInsufficientStock = errors.New("insufficient stock")
)

type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	Get(ctx context.Context, id uuid.UUID) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	Update(ctx context.Context, user *model.User) error
	CreatePatientProfile(ctx context.Context, profile *model.PatientProfile) error
	GetPatientProfile(ctx context.Context, userID uuid.UUID) (*model.PatientProfile, error)
}

type DoctorRepository interface {
	Get(ctx context.Context, userID uuid.UUID) (*model.Doctor, error)
	List(ctx context.Context, filters *model.DoctorFilters) ([]*model.Doctor, error)
	UpsertProfile(ctx context.Context, profile *model.DoctorProfile) error
}

type AppointmentRepository interface {
	Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error)
	List(ctx context.Context, filters *model.AppointmentFilters) ([]*model.Appointment, error)
	// ListForDoctorDay returns the non-cancelled appointments for the
	// doctor on the given calendar day, ordered by slot.
	ListForDoctorDay(ctx context.Context, doctorID uuid.UUID, date time.Time) ([]*model.Appointment, error)
	HasConflict(ctx context.Context, doctorID uuid.UUID, date time.Time, slot schedule.TimeOfDay) (bool, error)
	// Book persists the appointment and its outbox events in one
	// transaction; ErrDuplicate signals a lost slot race.
	Book(ctx context.Context, apt *model.Appointment, events []*model.OutboxEvent) error
	UpdateWithEvents(ctx context.Context, apt *model.Appointment, events []*model.OutboxEvent) error
}

type PrescriptionRepository interface {
	Create(ctx context.Context, p *model.Prescription) error
	Get(ctx context.Context, id uuid.UUID) (*model.Prescription, error)
	ListForPatient(ctx context.Context, patientID uuid.UUID) ([]*model.Prescription, error)
	ListByStatus(ctx context.Context, status model.PrescriptionStatus) ([]*model.Prescription, error)
	UpdateWithEvents(ctx context.Context, p *model.Prescription, events []*model.OutboxEvent) error
}

type MedicineRepository interface {
	Create(ctx context.Context, m *model.Medicine) error
	Get(ctx context.Context, id uuid.UUID) (*model.Medicine, error)
	GetBatch(ctx context.Context, ids []uuid.UUID) ([]*model.Medicine, error)
	Update(ctx context.Context, m *model.Medicine) error
	List(ctx context.Context, filters *model.MedicineFilters) ([]*model.Medicine, error)
}

type OrderRepository interface {
	// Place decrements stock for every item, then inserts the order,
	// its items and the outbox events in one transaction.
	// ErrInsufficientStock rolls the whole order back.
	Place(ctx context.Context, order *model.Order, events []*model.OutboxEvent) error
	Get(ctx context.Context, id uuid.UUID) (*model.Order, error)
	ListForPatient(ctx context.Context, patientID uuid.UUID) ([]*model.Order, error)
	ListByStatus(ctx context.Context, status model.OrderStatus) ([]*model.Order, error)
	// UpdateStatus persists the new status; when restock is set the
	// item quantities are returned to the shelf in the same transaction.
	UpdateStatus(ctx context.Context, order *model.Order, restock bool, events []*model.OutboxEvent) error
}

type NotificationRepository interface {
	Create(ctx context.Context, n *model.Notification) error
	Update(ctx context.Context, n *model.Notification) error
	ListForUser(ctx context.Context, userID uuid.UUID, unreadOnly bool) ([]*model.Notification, error)
	MarkRead(ctx context.Context, id, userID uuid.UUID) error
	MarkAllRead(ctx context.Context, userID uuid.UUID) error
}

type OutboxRepository interface {
	Create(ctx context.Context, event *model.OutboxEvent) error
	// ClaimPending atomically marks up to limit due events as
	// processing and returns them; concurrent processors never claim
	// the same event twice.
	ClaimPending(ctx context.Context, limit int) ([]*model.OutboxEvent, error)
	MarkProcessed(ctx context.Context, id uuid.UUID) error
	MarkFailed(ctx context.Context, id uuid.UUID, errMsg string, retryAt *time.Time) error
	MoveToDeadLetter(ctx context.Context, event *model.OutboxEvent) error
	DeleteProcessedBefore(ctx context.Context, before time.Time) (int64, error)
}

type AnalyticsRepository interface {
	AppointmentCountsByStatus(ctx context.Context) ([]model.StatusCount, error)
	AppointmentsPerDay(ctx context.Context, from, to time.Time) ([]model.DayCount, error)
	TopMedicines(ctx context.Context, limit int) ([]model.MedicineCount, error)
	OrderTotals(ctx context.Context, from, to time.Time) (*model.OrderTotals, error)
}
