package user

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"storefront-api/internal/config"
	domainUser "storefront-api/internal/domain/user"
	"storefront-api/internal/logger"
	"storefront-api/internal/notify"
	appErrors "storefront-api/pkg/errors"
	"storefront-api/pkg/utils"
)

// Service implements the account use cases: registration, login, session
// resolution, profile, password management and administration.
type Service struct {
	userRepo domainUser.Repository
	tokens   *utils.TokenManager
	sender   notify.Sender
	config   *config.Config
	now      func() time.Time
}

func NewService(
	userRepo domainUser.Repository,
	tokens *utils.TokenManager,
	sender notify.Sender,
	cfg *config.Config,
) *Service {
	return &Service{
		userRepo: userRepo,
		tokens:   tokens,
		sender:   sender,
		config:   cfg,
		now:      time.Now,
	}
}

// WithClock makes the service read the current time from now. The token
// manager keeps its own clock.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

func (s *Service) Register(ctx context.Context, req *RegisterRequest) (*AuthResponse, error) {
	req.Email = utils.SanitizeEmail(req.Email)
	req.FirstName = optionalName(utils.SanitizeOptional(req.FirstName))
	req.LastName = optionalName(utils.SanitizeOptional(req.LastName))

	if err := utils.ValidateStruct(req); err != nil {
		return nil, err
	}

	existing, err := s.userRepo.GetByEmail(ctx, req.Email)
	if err != nil && !errors.Is(err, domainUser.ErrUserNotFound) {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}
	if existing != nil {
		logger.FromContext(ctx).Warn("Registration attempt with existing email",
			zap.String("email", req.Email),
			zap.String("event", "registration_failed_duplicate_email"),
		)
		return nil, appErrors.ErrUserAlreadyExists
	}

	hashedPassword, err := utils.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	u := &domainUser.User{
		Email:        req.Email,
		PasswordHash: hashedPassword,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Role:         domainUser.RoleUser,
		IsActive:     true,
	}

	if err := s.userRepo.Create(ctx, u); err != nil {
		// A concurrent registration can still win the unique index.
		if errors.Is(err, domainUser.ErrUserAlreadyExists) {
			return nil, appErrors.ErrUserAlreadyExists
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	token, expiresAt, err := s.tokens.Issue(u.ID, u.Email, string(u.Role))
	if err != nil {
		return nil, err
	}

	logger.FromContext(ctx).Info("User registered successfully",
		zap.String("user_id", u.ID.String()),
		zap.String("email", u.Email),
		zap.String("event", "user_registered"),
	)

	return &AuthResponse{
		User:      ToUserResponse(u),
		Token:     token,
		ExpiresAt: expiresAt,
	}, nil
}

func (s *Service) Login(ctx context.Context, req *LoginRequest) (*AuthResponse, error) {
	req.Email = utils.SanitizeEmail(req.Email)

	if err := utils.ValidateStruct(req); err != nil {
		return nil, err
	}

	u, err := s.userRepo.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, domainUser.ErrUserNotFound) {
			logger.FromContext(ctx).Warn("Login attempt with non-existent email",
				zap.String("email", req.Email),
				zap.String("event", "login_failed_unknown_email"),
			)
			return nil, appErrors.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to retrieve user: %w", err)
	}

	if !utils.CheckPassword(u.PasswordHash, req.Password) {
		logger.FromContext(ctx).Warn("Login attempt with invalid password",
			zap.String("user_id", u.ID.String()),
			zap.String("event", "login_failed_invalid_password"),
		)
		return nil, appErrors.ErrInvalidCredentials
	}

	// Inactive accounts are reported only once the password matched.
	if !u.IsActive {
		logger.FromContext(ctx).Warn("Login attempt for inactive user",
			zap.String("user_id", u.ID.String()),
			zap.String("event", "login_failed_inactive_user"),
		)
		return nil, appErrors.ErrUserInactive
	}

	token, expiresAt, err := s.tokens.Issue(u.ID, u.Email, string(u.Role))
	if err != nil {
		return nil, err
	}

	logger.FromContext(ctx).Info("User logged in successfully",
		zap.String("user_id", u.ID.String()),
		zap.String("role", string(u.Role)),
		zap.String("event", "login_success"),
	)

	return &AuthResponse{
		User:      ToUserResponse(u),
		Token:     token,
		ExpiresAt: expiresAt,
	}, nil
}

// Refresh issues a fresh session token for an already authenticated user.
func (s *Service) Refresh(ctx context.Context, session *domainUser.SessionUser) (*TokenResponse, error) {
	if session == nil {
		return nil, appErrors.ErrUnauthorized
	}

	token, expiresAt, err := s.tokens.Issue(session.ID, session.Email, string(session.Role))
	if err != nil {
		return nil, err
	}

	logger.FromContext(ctx).Debug("Session token refreshed",
		zap.String("user_id", session.ID.String()),
		zap.String("event", "token_refreshed"),
	)

	return &TokenResponse{Token: token, ExpiresAt: expiresAt}, nil
}

// ResolveSession loads the live state of a token subject. Absent and
// inactive accounts both fail with ErrUserNotFound.
func (s *Service) ResolveSession(ctx context.Context, userID uuid.UUID) (*domainUser.SessionUser, error) {
	u, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domainUser.ErrUserNotFound) {
			return nil, appErrors.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to resolve session: %w", err)
	}
	if !u.IsActive {
		return nil, appErrors.ErrUserNotFound
	}
	return u.Session(), nil
}

func (s *Service) GetProfile(ctx context.Context, userID uuid.UUID) (*UserResponse, error) {
	u, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domainUser.ErrUserNotFound) {
			return nil, appErrors.ErrUserNotFound
		}
		return nil, err
	}
	return ToUserResponse(u), nil
}

func (s *Service) UpdateProfile(ctx context.Context, userID uuid.UUID, req *UpdateProfileRequest) (*UserResponse, error) {
	req.FirstName = utils.SanitizeOptional(req.FirstName)
	req.LastName = utils.SanitizeOptional(req.LastName)
	if req.Email != nil {
		email := utils.SanitizeEmail(*req.Email)
		req.Email = &email
	}

	if req.FirstName == nil && req.LastName == nil && req.Email == nil {
		return nil, appErrors.NewAppError(appErrors.CodeBadRequest,
			"At least one field (firstName, lastName, or email) must be provided", nil)
	}
	if err := utils.ValidateStruct(req); err != nil {
		return nil, err
	}

	u, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domainUser.ErrUserNotFound) {
			return nil, appErrors.ErrUserNotFound
		}
		return nil, err
	}

	if req.FirstName != nil {
		u.FirstName = req.FirstName
	}
	if req.LastName != nil {
		u.LastName = req.LastName
	}
	if req.Email != nil {
		u.Email = *req.Email
	}

	if err := s.userRepo.Update(ctx, u); err != nil {
		if errors.Is(err, domainUser.ErrUserAlreadyExists) {
			logger.FromContext(ctx).Warn("Profile update with email already in use",
				zap.String("user_id", userID.String()),
				zap.String("event", "profile_update_email_conflict"),
			)
			return nil, appErrors.ErrEmailInUse
		}
		if errors.Is(err, domainUser.ErrUserNotFound) {
			return nil, appErrors.ErrUserNotFound
		}
		return nil, err
	}

	logger.FromContext(ctx).Info("Profile updated",
		zap.String("user_id", userID.String()),
		zap.String("event", "profile_updated"),
	)

	return ToUserResponse(u), nil
}

// ChangePassword replaces the password of a signed in user after checking
// the current one. Outstanding reset tokens are revoked with it.
func (s *Service) ChangePassword(ctx context.Context, userID uuid.UUID, req *ChangePasswordRequest) error {
	if err := utils.ValidateStruct(req); err != nil {
		return err
	}

	u, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domainUser.ErrUserNotFound) {
			return appErrors.ErrUserNotFound
		}
		return err
	}

	if !utils.CheckPassword(u.PasswordHash, req.CurrentPassword) {
		logger.FromContext(ctx).Warn("Password change attempt with invalid current password",
			zap.String("user_id", u.ID.String()),
			zap.String("event", "password_change_failed_invalid_current_password"),
		)
		return appErrors.ErrInvalidCurrentPassword
	}

	hashedPassword, err := utils.HashPassword(req.NewPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	now := s.now().UTC()
	err = s.userRepo.Transaction(ctx, func(tx domainUser.Repository) error {
		if err := tx.UpdatePassword(ctx, userID, hashedPassword); err != nil {
			return err
		}
		_, err := tx.RevokeActivePasswordResetTokens(ctx, userID, now)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to change password: %w", err)
	}

	logger.FromContext(ctx).Info("Password changed successfully",
		zap.String("user_id", u.ID.String()),
		zap.String("event", "password_change_success"),
	)

	return nil
}

func (s *Service) ListUsers(ctx context.Context) ([]*UserResponse, error) {
	users, err := s.userRepo.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	responses := make([]*UserResponse, 0, len(users))
	for _, u := range users {
		responses = append(responses, ToUserResponse(u))
	}
	return responses, nil
}

// SetUserStatus activates or deactivates an account. Administrators cannot
// deactivate themselves.
func (s *Service) SetUserStatus(ctx context.Context, actorID, targetID uuid.UUID, req *UpdateStatusRequest) (*UserResponse, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, err
	}
	active := *req.IsActive

	if actorID == targetID && !active {
		return nil, appErrors.NewAppError(appErrors.CodeBadRequest, "You cannot deactivate your own account", nil)
	}

	if err := s.userRepo.SetActive(ctx, targetID, active); err != nil {
		if errors.Is(err, domainUser.ErrUserNotFound) {
			return nil, appErrors.ErrUserNotFound
		}
		return nil, err
	}

	u, err := s.userRepo.GetByID(ctx, targetID)
	if err != nil {
		return nil, err
	}

	logger.FromContext(ctx).Info("User status changed",
		zap.String("actor_id", actorID.String()),
		zap.String("user_id", targetID.String()),
		zap.Bool("is_active", active),
		zap.String("event", "user_status_changed"),
	)

	return ToUserResponse(u), nil
}
