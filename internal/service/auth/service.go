package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mediconnect/mediconnect-api/internal/model"
	"github.com/mediconnect/mediconnect-api/internal/repository"
	"github.com/mediconnect/mediconnect-api/internal/schedule"
	"github.com/mediconnect/mediconnect-api/pkg/auth"
	apperrors "github.com/mediconnect/mediconnect-api/pkg/errors"
	"github.com/mediconnect/mediconnect-api/pkg/logger"
	"github.com/mediconnect/mediconnect-api/pkg/security"
)

const (
	maxLoginAttempts = 5
	lockoutDuration  = 15 * time.Minute
)

var (
	ErrInvalidCredentials = apperrors.Unauthorized("invalid credentials")
	ErrAccountLocked      = apperrors.Unauthorized("account is locked, please try again later")
	ErrEmailTaken         = apperrors.Conflict("email is already registered")
	ErrWeakPassword       = apperrors.BadRequest("password must be at least 8 characters")
)

type Service struct {
	users   repository.UserRepository
	doctors repository.DoctorRepository
	outbox  repository.OutboxRepository
	jwtSvc  auth.JWTService
	hasher  security.PasswordHasher
	logger  *logger.Logger

	now func() time.Time
}

func NewService(users repository.UserRepository, doctors repository.DoctorRepository,
	outbox repository.OutboxRepository, jwtSvc auth.JWTService,
	hasher security.PasswordHasher, logger *logger.Logger) *Service {
	return &Service{
		users:   users,
		doctors: doctors,
		outbox:  outbox,
		jwtSvc:  jwtSvc,
		hasher:  hasher,
		logger:  logger,
		now:     time.Now,
	}
}

// Register creates an account plus the role's profile record and queues
// a welcome email.
func (s *Service) Register(ctx context.Context, req *model.RegisterRequest) (*model.TokenResponse, error) {
	if _, err := s.users.GetByEmail(ctx, req.Email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.Internal(err)
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		if errors.Is(err, security.ErrPasswordTooShort) {
			return nil, ErrWeakPassword
		}
		return nil, apperrors.Internal(err)
	}

	user := &model.User{
		Base:         model.Base{ID: uuid.New()},
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: hash,
		Role:         req.Role,
		Status:       model.UserStatusActive,
	}
	if req.Phone != "" {
		user.Phone = &req.Phone
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrEmailTaken
		}
		return nil, apperrors.Internal(err)
	}

	switch user.Role {
	case model.RolePatient:
		if err := s.users.CreatePatientProfile(ctx, &model.PatientProfile{UserID: user.ID}); err != nil {
			return nil, apperrors.Internal(err)
		}
	case model.RoleDoctor:
		// An empty profile; working hours come later via the doctor
		// directory and no availability is published until then.
		profile := &model.DoctorProfile{
			UserID:    user.ID,
			WorkStart: schedule.Unset,
			WorkEnd:   schedule.Unset,
		}
		if err := s.doctors.UpsertProfile(ctx, profile); err != nil {
			return nil, apperrors.Internal(err)
		}
	}

	if err := s.queueWelcomeEmail(ctx, user); err != nil {
		s.logger.Error(err, "failed to queue welcome email", "user_id", user.ID.String())
	}

	s.logger.Info("user registered", "user_id", user.ID.String(), "role", user.Role)
	return s.issueTokens(user)
}

func (s *Service) Login(ctx context.Context, req *model.LoginRequest) (*model.TokenResponse, error) {
	user, err := s.users.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, apperrors.Internal(err)
	}

	if user.Status == model.UserStatusLocked {
		if s.now().Sub(user.LastLoginAttempt) < lockoutDuration {
			return nil, ErrAccountLocked
		}
		user.Status = model.UserStatusActive
		user.LoginAttempts = 0
	}

	if err := s.hasher.Compare(user.PasswordHash, req.Password); err != nil {
		user.LoginAttempts++
		user.LastLoginAttempt = s.now()
		if user.LoginAttempts >= maxLoginAttempts {
			user.Status = model.UserStatusLocked
			s.logger.Warn("account locked after repeated failures", "user_id", user.ID.String())
		}
		if err := s.users.Update(ctx, user); err != nil {
			return nil, apperrors.Internal(err)
		}
		return nil, ErrInvalidCredentials
	}

	user.LoginAttempts = 0
	now := s.now()
	user.LastLoginAttempt = now
	user.LastLoginAt = &now
	if err := s.users.Update(ctx, user); err != nil {
		return nil, apperrors.Internal(err)
	}

	return s.issueTokens(user)
}

func (s *Service) Refresh(ctx context.Context, refreshToken string) (*model.TokenResponse, error) {
	claims, err := s.jwtSvc.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, apperrors.Unauthorized("invalid refresh token")
	}

	user, err := s.users.Get(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.Unauthorized("invalid refresh token")
		}
		return nil, apperrors.Internal(err)
	}
	if user.Status != model.UserStatusActive {
		return nil, ErrAccountLocked
	}

	return s.issueTokens(user)
}

func (s *Service) issueTokens(user *model.User) (*model.TokenResponse, error) {
	access, err := s.jwtSvc.GenerateAccessToken(user.ID, user.Email, user.Role)
	if err != nil {
		return nil, apperrors.Internal(fmt.Errorf("failed to generate access token: %w", err))
	}
	refresh, err := s.jwtSvc.GenerateRefreshToken(user.ID, user.Email, user.Role)
	if err != nil {
		return nil, apperrors.Internal(fmt.Errorf("failed to generate refresh token: %w", err))
	}
	return &model.TokenResponse{
		AccessToken:  access,
		RefreshToken: refresh,
		User:         user,
	}, nil
}

func (s *Service) queueWelcomeEmail(ctx context.Context, user *model.User) error {
	event, err := model.NewNotificationEvent(model.ChannelEmail, model.NotificationPayload{
		UserID:    user.ID,
		Recipient: user.Email,
		Subject:   "Welcome to MediConnect",
		Content:   fmt.Sprintf("Hi %s, your %s account is ready.", user.Name, user.Role),
	})
	if err != nil {
		return err
	}
	return s.outbox.Create(ctx, event)
}
