package user

import (
	"context"
	"time"

	"go.uber.org/zap"

	"storefront-api/internal/logger"
)

// StartTokenCleanupJob purges spent password reset tokens every interval
// until ctx is done. It blocks; run it on its own goroutine.
func (s *Service) StartTokenCleanupJob(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	logger.Info("Reset token cleanup job started",
		zap.Duration("interval", interval),
	)

	s.CleanupResetTokens(ctx)

	for {
		select {
		case <-ctx.Done():
			logger.Info("Reset token cleanup job stopped")
			return
		case <-ticker.C:
			s.CleanupResetTokens(ctx)
		}
	}
}

// CleanupResetTokens deletes every reset token that expired or was used.
func (s *Service) CleanupResetTokens(ctx context.Context) int64 {
	deleted, err := s.userRepo.PurgePasswordResetTokens(ctx, s.now().UTC())
	if err != nil {
		if ctx.Err() == nil {
			logger.Error("Failed to purge password reset tokens", zap.Error(err))
		}
		return 0
	}

	logger.Debug("Password reset tokens purged",
		zap.Int64("deleted", deleted),
	)
	return deleted
}
