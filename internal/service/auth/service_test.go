package auth

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/mediconnect/mediconnect-api/internal/model"
	"github.com/mediconnect/mediconnect-api/internal/repository"
	"github.com/mediconnect/mediconnect-api/internal/schedule"
	pkgauth "github.com/mediconnect/mediconnect-api/pkg/auth"
	"github.com/mediconnect/mediconnect-api/pkg/logger"
	"github.com/mediconnect/mediconnect-api/pkg/security"
)

type fakeUserRepo struct {
	byEmail map[string]*model.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{byEmail: map[string]*model.User{}}
}

func (f *fakeUserRepo) Create(_ context.Context, user *model.User) error {
	if _, exists := f.byEmail[user.Email]; exists {
		return repository.ErrDuplicate
	}
	f.byEmail[user.Email] = user
	return nil
}

func (f *fakeUserRepo) Get(_ context.Context, id uuid.UUID) (*model.User, error) {
	for _, u := range f.byEmail {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	if u, ok := f.byEmail[email]; ok {
		return u, nil
	}
	return nil, repository.ErrNotFound
}

func (f *fakeUserRepo) Update(_ context.Context, user *model.User) error {
	f.byEmail[user.Email] = user
	return nil
}

func (f *fakeUserRepo) CreatePatientProfile(_ context.Context, _ *model.PatientProfile) error {
	return nil
}

func (f *fakeUserRepo) GetPatientProfile(_ context.Context, _ uuid.UUID) (*model.PatientProfile, error) {
	return nil, repository.ErrNotFound
}

type fakeDoctorRepo struct {
	profiles []*model.DoctorProfile
}

func (f *fakeDoctorRepo) Get(_ context.Context, _ uuid.UUID) (*model.Doctor, error) {
	return nil, repository.ErrNotFound
}

func (f *fakeDoctorRepo) List(_ context.Context, _ *model.DoctorFilters) ([]*model.Doctor, error) {
	return nil, nil
}

func (f *fakeDoctorRepo) UpsertProfile(_ context.Context, p *model.DoctorProfile) error {
	f.profiles = append(f.profiles, p)
	return nil
}

type fakeOutboxRepo struct {
	created []*model.OutboxEvent
}

func (f *fakeOutboxRepo) Create(_ context.Context, event *model.OutboxEvent) error {
	f.created = append(f.created, event)
	return nil
}

func (f *fakeOutboxRepo) ClaimPending(_ context.Context, _ int) ([]*model.OutboxEvent, error) {
	return nil, nil
}

func (f *fakeOutboxRepo) MarkProcessed(_ context.Context, _ uuid.UUID) error { return nil }

func (f *fakeOutboxRepo) MarkFailed(_ context.Context, _ uuid.UUID, _ string, _ *time.Time) error {
	return nil
}

func (f *fakeOutboxRepo) MoveToDeadLetter(_ context.Context, _ *model.OutboxEvent) error {
	return nil
}

func (f *fakeOutboxRepo) DeleteProcessedBefore(_ context.Context, _ time.Time) (int64, error) {
	return 0, nil
}

type fixture struct {
	svc     *Service
	users   *fakeUserRepo
	doctors *fakeDoctorRepo
	outbox  *fakeOutboxRepo
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	users := newFakeUserRepo()
	doctors := &fakeDoctorRepo{}
	outbox := &fakeOutboxRepo{}

	jwtSvc := pkgauth.NewJWTService(pkgauth.Config{
		Secret:        "test-secret",
		RefreshSecret: "test-refresh-secret",
		Expiry:        time.Hour,
		RefreshExpiry: 24 * time.Hour,
	})

	svc := NewService(users, doctors, outbox, jwtSvc,
		security.NewBcryptHasher(bcrypt.MinCost), logger.NewLogger(nil))

	return &fixture{svc: svc, users: users, doctors: doctors, outbox: outbox}
}

func registerPatient(t *testing.T, f *fixture) *model.TokenResponse {
	t.Helper()
	tokens, err := f.svc.Register(context.Background(), &model.RegisterRequest{
		Name:     "Ada Okafor",
		Email:    "ada@example.com",
		Password: "sufficiently-long",
		Role:     model.RolePatient,
	})
	require.NoError(t, err)
	return tokens
}

func TestRegisterIssuesTokensAndQueuesWelcome(t *testing.T) {
	f := newFixture(t)

	tokens := registerPatient(t, f)

	assert.NotEmpty(t, tokens.AccessToken)
	assert.NotEmpty(t, tokens.RefreshToken)
	assert.Equal(t, model.RolePatient, tokens.User.Role)
	require.Len(t, f.outbox.created, 1)
	assert.Equal(t, model.TopicEmailNotifications, f.outbox.created[0].EventType)
}

func TestRegisterDoctorCreatesEmptyProfile(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Register(context.Background(), &model.RegisterRequest{
		Name:     "Grace Lin",
		Email:    "grace@example.com",
		Password: "sufficiently-long",
		Role:     model.RoleDoctor,
	})

	require.NoError(t, err)
	require.Len(t, f.doctors.profiles, 1)
	assert.Equal(t, schedule.Unset, f.doctors.profiles[0].WorkStart)
	assert.Equal(t, schedule.Unset, f.doctors.profiles[0].WorkEnd)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	f := newFixture(t)
	registerPatient(t, f)

	_, err := f.svc.Register(context.Background(), &model.RegisterRequest{
		Name:     "Ada Again",
		Email:    "ada@example.com",
		Password: "sufficiently-long",
		Role:     model.RolePatient,
	})

	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestRegisterShortPassword(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Register(context.Background(), &model.RegisterRequest{
		Name:     "Bo",
		Email:    "bo@example.com",
		Password: "short",
		Role:     model.RolePatient,
	})

	assert.ErrorIs(t, err, ErrWeakPassword)
}

func TestLoginSuccess(t *testing.T) {
	f := newFixture(t)
	registerPatient(t, f)

	tokens, err := f.svc.Login(context.Background(), &model.LoginRequest{
		Email:    "ada@example.com",
		Password: "sufficiently-long",
	})

	require.NoError(t, err)
	assert.NotEmpty(t, tokens.AccessToken)
	assert.NotNil(t, tokens.User.LastLoginAt)
}

func TestLoginWrongPassword(t *testing.T) {
	f := newFixture(t)
	registerPatient(t, f)

	_, err := f.svc.Login(context.Background(), &model.LoginRequest{
		Email:    "ada@example.com",
		Password: "wrong",
	})

	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLoginLocksAfterRepeatedFailures(t *testing.T) {
	f := newFixture(t)
	registerPatient(t, f)

	for i := 0; i < maxLoginAttempts; i++ {
		_, err := f.svc.Login(context.Background(), &model.LoginRequest{
			Email:    "ada@example.com",
			Password: "wrong",
		})
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	}

	// Even the right password bounces while the lock holds.
	_, err := f.svc.Login(context.Background(), &model.LoginRequest{
		Email:    "ada@example.com",
		Password: "sufficiently-long",
	})
	assert.ErrorIs(t, err, ErrAccountLocked)
}

func TestLockExpiresAfterCooldown(t *testing.T) {
	f := newFixture(t)
	registerPatient(t, f)

	for i := 0; i < maxLoginAttempts; i++ {
		_, _ = f.svc.Login(context.Background(), &model.LoginRequest{
			Email:    "ada@example.com",
			Password: "wrong",
		})
	}

	f.svc.now = func() time.Time { return time.Now().Add(lockoutDuration + time.Minute) }
	tokens, err := f.svc.Login(context.Background(), &model.LoginRequest{
		Email:    "ada@example.com",
		Password: "sufficiently-long",
	})

	require.NoError(t, err)
	assert.NotEmpty(t, tokens.AccessToken)
	assert.Equal(t, model.UserStatusActive, tokens.User.Status)
}

func TestRefreshRoundTrip(t *testing.T) {
	f := newFixture(t)
	tokens := registerPatient(t, f)

	refreshed, err := f.svc.Refresh(context.Background(), tokens.RefreshToken)

	require.NoError(t, err)
	assert.NotEmpty(t, refreshed.AccessToken)
	assert.Equal(t, tokens.User.ID, refreshed.User.ID)
}

func TestRefreshRejectsAccessToken(t *testing.T) {
	f := newFixture(t)
	tokens := registerPatient(t, f)

	_, err := f.svc.Refresh(context.Background(), tokens.AccessToken)
	assert.Error(t, err)
}
