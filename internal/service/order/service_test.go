package order

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mediconnect/mediconnect-api/internal/model"
	"github.com/mediconnect/mediconnect-api/internal/repository"
	"github.com/mediconnect/mediconnect-api/pkg/logger"
)

type fakeOrderRepo struct {
	orders map[uuid.UUID]*model.Order
	stock  map[uuid.UUID]int
	events []*model.OutboxEvent

	restocked bool
}

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{
		orders: map[uuid.UUID]*model.Order{},
		stock:  map[uuid.UUID]int{},
	}
}

func (f *fakeOrderRepo) Place(_ context.Context, order *model.Order, events []*model.OutboxEvent) error {
	for _, item := range order.Items {
		if f.stock[item.MedicineID] < item.Quantity {
			return repository.ErrInsufficientStock
		}
	}
	for _, item := range order.Items {
		f.stock[item.MedicineID] -= item.Quantity
	}
	copied := *order
	f.orders[order.ID] = &copied
	f.events = append(f.events, events...)
	return nil
}

func (f *fakeOrderRepo) Get(_ context.Context, id uuid.UUID) (*model.Order, error) {
	if o, ok := f.orders[id]; ok {
		copied := *o
		return &copied, nil
	}
	return nil, repository.ErrNotFound
}

func (f *fakeOrderRepo) ListForPatient(_ context.Context, patientID uuid.UUID) ([]*model.Order, error) {
	var out []*model.Order
	for _, o := range f.orders {
		if o.PatientID == patientID {
			out = append(out, o)
		}
	}
	return out, nil
}

func (f *fakeOrderRepo) ListByStatus(_ context.Context, status model.OrderStatus) ([]*model.Order, error) {
	var out []*model.Order
	for _, o := range f.orders {
		if o.Status == status {
			out = append(out, o)
		}
	}
	return out, nil
}

func (f *fakeOrderRepo) UpdateStatus(_ context.Context, order *model.Order, restock bool, events []*model.OutboxEvent) error {
	stored, ok := f.orders[order.ID]
	if !ok {
		return repository.ErrNotFound
	}
	if restock {
		f.restocked = true
		for _, item := range stored.Items {
			f.stock[item.MedicineID] += item.Quantity
		}
	}
	stored.Status = order.Status
	f.events = append(f.events, events...)
	return nil
}

type fakeMedicineRepo struct {
	medicines map[uuid.UUID]*model.Medicine
}

func (f *fakeMedicineRepo) Create(_ context.Context, _ *model.Medicine) error { return nil }
func (f *fakeMedicineRepo) Update(_ context.Context, _ *model.Medicine) error { return nil }

func (f *fakeMedicineRepo) Get(_ context.Context, id uuid.UUID) (*model.Medicine, error) {
	if m, ok := f.medicines[id]; ok {
		return m, nil
	}
	return nil, repository.ErrNotFound
}

func (f *fakeMedicineRepo) GetBatch(_ context.Context, ids []uuid.UUID) ([]*model.Medicine, error) {
	var out []*model.Medicine
	for _, id := range ids {
		if m, ok := f.medicines[id]; ok {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f *fakeMedicineRepo) List(_ context.Context, _ *model.MedicineFilters) ([]*model.Medicine, error) {
	return nil, nil
}

type fakeUserRepo struct {
	users map[uuid.UUID]*model.User
}

func (f *fakeUserRepo) Create(_ context.Context, _ *model.User) error { return nil }
func (f *fakeUserRepo) Update(_ context.Context, _ *model.User) error { return nil }

func (f *fakeUserRepo) Get(_ context.Context, id uuid.UUID) (*model.User, error) {
	if u, ok := f.users[id]; ok {
		return u, nil
	}
	return nil, repository.ErrNotFound
}

func (f *fakeUserRepo) GetByEmail(_ context.Context, _ string) (*model.User, error) {
	return nil, repository.ErrNotFound
}

func (f *fakeUserRepo) CreatePatientProfile(_ context.Context, _ *model.PatientProfile) error {
	return nil
}

func (f *fakeUserRepo) GetPatientProfile(_ context.Context, _ uuid.UUID) (*model.PatientProfile, error) {
	return nil, repository.ErrNotFound
}

type fakePrescriptionChecker struct {
	verified bool
}

func (f *fakePrescriptionChecker) VerifiedForPatient(_ context.Context, _ uuid.UUID, _ *uuid.UUID) (bool, error) {
	return f.verified, nil
}

type fixture struct {
	svc       *Service
	repo      *fakeOrderRepo
	rx        *fakePrescriptionChecker
	patientID uuid.UUID
	otc       *model.Medicine
	rxOnly    *model.Medicine
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	patientID := uuid.New()
	otc := &model.Medicine{
		Base:       model.Base{ID: uuid.New()},
		Name:       "Paracetamol 500mg",
		PriceCents: 350,
		Stock:      20,
	}
	rxOnly := &model.Medicine{
		Base:       model.Base{ID: uuid.New()},
		Name:       "Amoxicillin 250mg",
		PriceCents: 1200,
		Stock:      5,
		RequiresRx: true,
	}

	repo := newFakeOrderRepo()
	repo.stock[otc.ID] = otc.Stock
	repo.stock[rxOnly.ID] = rxOnly.Stock

	rx := &fakePrescriptionChecker{}
	svc := NewService(repo,
		&fakeMedicineRepo{medicines: map[uuid.UUID]*model.Medicine{otc.ID: otc, rxOnly.ID: rxOnly}},
		&fakeUserRepo{users: map[uuid.UUID]*model.User{patientID: {
			Base:  model.Base{ID: patientID},
			Name:  "Sam Ruiz",
			Email: "sam@example.com",
			Role:  model.RolePatient,
		}}},
		rx,
		logger.NewLogger(nil),
	)

	return &fixture{svc: svc, repo: repo, rx: rx, patientID: patientID, otc: otc, rxOnly: rxOnly}
}

func TestPlaceComputesTotalsAndDecrementsStock(t *testing.T) {
	f := newFixture(t)

	o, err := f.svc.Place(context.Background(), f.patientID, &model.PlaceOrderRequest{
		Items: []model.PlaceOrderItem{
			{MedicineID: f.otc.ID.String(), Quantity: 3},
		},
	})

	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusPlaced, o.Status)
	assert.Equal(t, int64(3*350), o.TotalCents)
	assert.Equal(t, 17, f.repo.stock[f.otc.ID])
	// Email plus in-app confirmation.
	assert.Len(t, f.repo.events, 2)
}

func TestPlaceRejectsPrescriptionItemWithoutVerifiedRx(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Place(context.Background(), f.patientID, &model.PlaceOrderRequest{
		Items: []model.PlaceOrderItem{
			{MedicineID: f.rxOnly.ID.String(), Quantity: 1},
		},
	})

	assert.ErrorIs(t, err, ErrPrescriptionRequired)
	assert.Equal(t, 5, f.repo.stock[f.rxOnly.ID])
}

func TestPlaceAllowsPrescriptionItemWithVerifiedRx(t *testing.T) {
	f := newFixture(t)
	f.rx.verified = true

	o, err := f.svc.Place(context.Background(), f.patientID, &model.PlaceOrderRequest{
		Items: []model.PlaceOrderItem{
			{MedicineID: f.rxOnly.ID.String(), Quantity: 2},
		},
	})

	require.NoError(t, err)
	assert.Equal(t, int64(2400), o.TotalCents)
}

func TestPlaceRejectsOverAskedStock(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Place(context.Background(), f.patientID, &model.PlaceOrderRequest{
		Items: []model.PlaceOrderItem{
			{MedicineID: f.otc.ID.String(), Quantity: 21},
		},
	})

	assert.ErrorIs(t, err, ErrOutOfStock)
}

func TestPlaceMapsStoreShortageToOutOfStock(t *testing.T) {
	f := newFixture(t)
	// Catalogue says 20, shelf already drained by a concurrent order.
	f.repo.stock[f.otc.ID] = 1

	_, err := f.svc.Place(context.Background(), f.patientID, &model.PlaceOrderRequest{
		Items: []model.PlaceOrderItem{
			{MedicineID: f.otc.ID.String(), Quantity: 2},
		},
	})

	assert.ErrorIs(t, err, ErrOutOfStock)
}

func TestPlaceUnknownMedicine(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Place(context.Background(), f.patientID, &model.PlaceOrderRequest{
		Items: []model.PlaceOrderItem{
			{MedicineID: uuid.NewString(), Quantity: 1},
		},
	})

	assert.ErrorIs(t, err, ErrMedicineNotFound)
}

func TestCancelRestocksBeforeDispatch(t *testing.T) {
	f := newFixture(t)
	o, err := f.svc.Place(context.Background(), f.patientID, &model.PlaceOrderRequest{
		Items: []model.PlaceOrderItem{
			{MedicineID: f.otc.ID.String(), Quantity: 4},
		},
	})
	require.NoError(t, err)
	require.Equal(t, 16, f.repo.stock[f.otc.ID])

	cancelled, err := f.svc.Cancel(context.Background(), o.ID, f.patientID)

	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusCancelled, cancelled.Status)
	assert.True(t, f.repo.restocked)
	assert.Equal(t, 20, f.repo.stock[f.otc.ID])
}

func TestCancelAfterDispatchFails(t *testing.T) {
	f := newFixture(t)
	o, err := f.svc.Place(context.Background(), f.patientID, &model.PlaceOrderRequest{
		Items: []model.PlaceOrderItem{
			{MedicineID: f.otc.ID.String(), Quantity: 1},
		},
	})
	require.NoError(t, err)

	_, err = f.svc.UpdateStatus(context.Background(), o.ID, model.OrderStatusConfirmed)
	require.NoError(t, err)
	_, err = f.svc.UpdateStatus(context.Background(), o.ID, model.OrderStatusDispatched)
	require.NoError(t, err)

	_, err = f.svc.Cancel(context.Background(), o.ID, f.patientID)
	assert.ErrorIs(t, err, ErrNotCancellable)
}

func TestCancelByStrangerFails(t *testing.T) {
	f := newFixture(t)
	o, err := f.svc.Place(context.Background(), f.patientID, &model.PlaceOrderRequest{
		Items: []model.PlaceOrderItem{
			{MedicineID: f.otc.ID.String(), Quantity: 1},
		},
	})
	require.NoError(t, err)

	_, err = f.svc.Cancel(context.Background(), o.ID, uuid.New())
	assert.ErrorIs(t, err, ErrNotOwner)
}

func TestUpdateStatusRejectsSkip(t *testing.T) {
	f := newFixture(t)
	o, err := f.svc.Place(context.Background(), f.patientID, &model.PlaceOrderRequest{
		Items: []model.PlaceOrderItem{
			{MedicineID: f.otc.ID.String(), Quantity: 1},
		},
	})
	require.NoError(t, err)

	_, err = f.svc.UpdateStatus(context.Background(), o.ID, model.OrderStatusDelivered)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	_, err = f.svc.UpdateStatus(context.Background(), o.ID, model.OrderStatusCancelled)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestPlaceRejectsDuplicateLines(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Place(context.Background(), f.patientID, &model.PlaceOrderRequest{
		Items: []model.PlaceOrderItem{
			{MedicineID: f.otc.ID.String(), Quantity: 1},
			{MedicineID: f.otc.ID.String(), Quantity: 2},
		},
	})

	require.Error(t, err)
}
