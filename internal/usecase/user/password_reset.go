package user

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	domainUser "storefront-api/internal/domain/user"
	"storefront-api/internal/logger"
	"storefront-api/internal/notify"
	appErrors "storefront-api/pkg/errors"
	"storefront-api/pkg/utils"
)

// ForgotPasswordMessage is returned whether or not the email is registered.
const ForgotPasswordMessage = "If an account with that email exists, a password reset link has been sent"

// ForgotPassword issues a one-time reset token and hands it to the sender.
// The user keeps at most one usable token: older ones are revoked in the
// same transaction that stores the new one.
func (s *Service) ForgotPassword(ctx context.Context, req *ForgotPasswordRequest) error {
	req.Email = utils.SanitizeEmail(req.Email)

	if err := utils.ValidateStruct(req); err != nil {
		return err
	}

	log := logger.FromContext(ctx)

	u, err := s.userRepo.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, domainUser.ErrUserNotFound) {
			log.Info("Password reset requested for non-existent email",
				zap.String("email", req.Email),
				zap.String("event", "password_reset_requested_unknown_email"),
			)
			if s.config.PasswordReset.RevealUnknownEmail {
				return appErrors.ErrUnknownEmail
			}
			return nil
		}
		return fmt.Errorf("failed to retrieve user: %w", err)
	}

	secret, err := utils.GenerateResetSecret()
	if err != nil {
		return err
	}
	secretHash, err := utils.HashPassword(secret)
	if err != nil {
		return fmt.Errorf("failed to hash reset secret: %w", err)
	}

	now := s.now().UTC()
	resetToken := &domainUser.PasswordResetToken{
		UserID:    u.ID,
		TokenHash: secretHash,
		ExpiresAt: now.Add(s.config.PasswordReset.TTL()),
	}

	var expired, revoked int64
	err = s.userRepo.Transaction(ctx, func(tx domainUser.Repository) error {
		var err error
		if expired, err = tx.DeleteExpiredPasswordResetTokens(ctx, u.ID, now); err != nil {
			return err
		}
		if revoked, err = tx.RevokeActivePasswordResetTokens(ctx, u.ID, now); err != nil {
			return err
		}
		return tx.CreatePasswordResetToken(ctx, resetToken)
	})
	if err != nil {
		return fmt.Errorf("failed to create reset token: %w", err)
	}

	log.Info("Password reset token generated",
		zap.String("user_id", u.ID.String()),
		zap.String("token_id", resetToken.ID.String()),
		zap.Time("expires_at", resetToken.ExpiresAt),
		zap.Int64("expired_deleted", expired),
		zap.Int64("active_revoked", revoked),
		zap.String("event", "password_reset_token_generated"),
	)

	msg := notify.PasswordResetMessage{
		To:        u.Email,
		Token:     formatResetToken(resetToken.ID, secret),
		ExpiresAt: resetToken.ExpiresAt,
	}
	if err := s.sender.SendPasswordReset(ctx, msg); err != nil {
		// The token stays valid; the user can ask again.
		log.Error("Failed to deliver password reset token",
			zap.String("user_id", u.ID.String()),
			zap.String("token_id", resetToken.ID.String()),
			zap.Error(err),
			zap.String("event", "password_reset_delivery_failed"),
		)
	}

	return nil
}

// ResetPassword consumes a reset token and sets the new password. A token
// works once, and only until it expires.
func (s *Service) ResetPassword(ctx context.Context, req *ResetPasswordRequest) error {
	req.Token = strings.TrimSpace(req.Token)

	if err := utils.ValidateStruct(req); err != nil {
		return err
	}

	log := logger.FromContext(ctx)
	now := s.now().UTC()

	tokenID, secret, ok := parseResetToken(req.Token)
	if !ok {
		log.Warn("Password reset attempt with malformed token",
			zap.String("event", "password_reset_failed_invalid_token"),
		)
		return appErrors.ErrResetTokenInvalid
	}

	resetToken, err := s.userRepo.GetValidPasswordResetToken(ctx, tokenID, now)
	if err != nil {
		if errors.Is(err, domainUser.ErrResetTokenNotFound) {
			log.Warn("Password reset attempt with unknown, used or expired token",
				zap.String("token_id", tokenID.String()),
				zap.String("event", "password_reset_failed_invalid_token"),
			)
			return appErrors.ErrResetTokenInvalid
		}
		return fmt.Errorf("failed to load reset token: %w", err)
	}

	if !utils.CheckPassword(resetToken.TokenHash, secret) {
		log.Warn("Password reset attempt with wrong token secret",
			zap.String("token_id", tokenID.String()),
			zap.String("event", "password_reset_failed_invalid_token"),
		)
		return appErrors.ErrResetTokenInvalid
	}

	hashedPassword, err := utils.HashPassword(req.NewPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	err = s.userRepo.Transaction(ctx, func(tx domainUser.Repository) error {
		if err := tx.MarkPasswordResetTokenUsed(ctx, resetToken.ID, now); err != nil {
			return err
		}
		return tx.UpdatePassword(ctx, resetToken.UserID, hashedPassword)
	})
	if err != nil {
		if errors.Is(err, domainUser.ErrResetTokenNotFound) || errors.Is(err, domainUser.ErrUserNotFound) {
			return appErrors.ErrResetTokenInvalid
		}
		return fmt.Errorf("failed to reset password: %w", err)
	}

	log.Info("Password reset successfully",
		zap.String("user_id", resetToken.UserID.String()),
		zap.String("token_id", resetToken.ID.String()),
		zap.String("event", "password_reset_success"),
	)

	return nil
}

func formatResetToken(id uuid.UUID, secret string) string {
	return id.String() + "." + secret
}

func parseResetToken(token string) (uuid.UUID, string, bool) {
	rawID, secret, found := strings.Cut(token, ".")
	if !found || secret == "" {
		return uuid.Nil, "", false
	}
	id, err := uuid.Parse(rawID)
	if err != nil {
		return uuid.Nil, "", false
	}
	return id, secret, true
}
