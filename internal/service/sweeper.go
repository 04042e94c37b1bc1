package service

import (
	"context"
	"time"

	"github.com/prperemyshlev/storefront-auth/internal/repository"
	"go.uber.org/zap"
)

// SpecialTokenSweeper periodically deletes expired special tokens
type SpecialTokenSweeper struct {
	tokens   repository.SpecialTokenRepository
	interval time.Duration
	logger   *zap.Logger
}

func NewSpecialTokenSweeper(tokens repository.SpecialTokenRepository, interval time.Duration, logger *zap.Logger) *SpecialTokenSweeper {
	return &SpecialTokenSweeper{tokens: tokens, interval: interval, logger: logger}
}

// Run sweeps every interval until ctx is done
func (s *SpecialTokenSweeper) Run(ctx context.Context) {
	if s.interval <= 0 {
		return
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.SweepOnce(ctx)
		}
	}
}

// SweepOnce deletes expired tokens and returns how many were removed
func (s *SpecialTokenSweeper) SweepOnce(ctx context.Context) int64 {
	n, err := s.tokens.DeleteExpired(ctx)
	if err != nil {
		s.logger.Error("Failed to sweep expired special tokens", zap.Error(err))
		return 0
	}
	if n > 0 {
		s.logger.Debug("Swept expired special tokens", zap.Int64("count", n))
	}
	return n
}
