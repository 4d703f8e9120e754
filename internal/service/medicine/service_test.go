package medicine

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

type fakeMedicineRepo struct {
	medicines map[uuid.UUID]*model.Medicine
}

func newFakeMedicineRepo() *fakeMedicineRepo {
	return &fakeMedicineRepo{medicines: map[uuid.UUID]*model.Medicine{}}
}

func (f *fakeMedicineRepo) Create(_ context.Context, m *model.Medicine) error {
	f.medicines[m.ID] = m
	return nil
}

func (f *fakeMedicineRepo) Get(_ context.Context, id uuid.UUID) (*model.Medicine, error) {
	if m, ok := f.medicines[id]; ok {
		copied := *m
		return &copied, nil
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

func (f *fakeMedicineRepo) Update(_ context.Context, m *model.Medicine) error {
	if _, ok := f.medicines[m.ID]; !ok {
		return repository.ErrNotFound
	}
	copied := *m
	f.medicines[m.ID] = &copied
	return nil
}

func (f *fakeMedicineRepo) List(_ context.Context, _ *model.MedicineFilters) ([]*model.Medicine, error) {
	var out []*model.Medicine
	for _, m := range f.medicines {
		out = append(out, m)
	}
	return out, nil
}

func newService() (*Service, *fakeMedicineRepo) {
	repo := newFakeMedicineRepo()
	return NewService(repo, logger.NewLogger(nil)), repo
}

func TestCreateStoresCatalogueEntry(t *testing.T) {
	svc, repo := newService()

	m, err := svc.Create(context.Background(), &model.CreateMedicineRequest{
		Name:         "Amoxicillin 500mg",
		Description:  "Broad-spectrum antibiotic",
		Manufacturer: "Cipla",
		PriceCents:   1250,
		Stock:        40,
		RequiresRx:   true,
	})

	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, m.ID)
	assert.Equal(t, "Amoxicillin 500mg", m.Name)
	assert.Equal(t, "Cipla", m.Manufacturer)
	assert.Equal(t, int64(1250), m.PriceCents)
	assert.True(t, m.RequiresRx)
	assert.Len(t, repo.medicines, 1)
}

func TestUpdateAppliesOnlyProvidedFields(t *testing.T) {
	svc, _ := newService()
	created, err := svc.Create(context.Background(), &model.CreateMedicineRequest{
		Name:       "Ibuprofen 200mg",
		PriceCents: 499,
		Stock:      100,
	})
	require.NoError(t, err)

	stock := 60
	updated, err := svc.Update(context.Background(), created.ID, &model.UpdateMedicineRequest{
		Stock: &stock,
	})

	require.NoError(t, err)
	assert.Equal(t, 60, updated.Stock)
	assert.Equal(t, "Ibuprofen 200mg", updated.Name)
	assert.Equal(t, int64(499), updated.PriceCents)
	assert.False(t, updated.RequiresRx)
}

func TestUpdateUnknownMedicine(t *testing.T) {
	svc, _ := newService()

	stock := 10
	_, err := svc.Update(context.Background(), uuid.New(), &model.UpdateMedicineRequest{Stock: &stock})

	assert.ErrorIs(t, err, ErrMedicineNotFound)
}

func TestGetUnknownMedicine(t *testing.T) {
	svc, _ := newService()

	_, err := svc.Get(context.Background(), uuid.New())

	assert.ErrorIs(t, err, ErrMedicineNotFound)
}
