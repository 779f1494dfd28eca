package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/vardaanagro/agrofarm-backend/pkg/logger"
)

const defaultRefreshTokenGrace = 24 * time.Hour

type RefreshTokenPurgeJobParams struct {
	Logger     *logger.Logger
	Repository refreshTokenPurger
	Grace      time.Duration
}

type refreshTokenPurger interface {
	DeleteExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// NewRefreshTokenPurgeJob deletes refresh tokens that expired more than Grace ago.
func NewRefreshTokenPurgeJob(params RefreshTokenPurgeJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Repository == nil {
		return nil, fmt.Errorf("token repository required")
	}
	grace := params.Grace
	if grace < 0 {
		grace = defaultRefreshTokenGrace
	}
	return &refreshTokenPurgeJob{
		logg:  params.Logger,
		repo:  params.Repository,
		grace: grace,
		now:   time.Now,
	}, nil
}

type refreshTokenPurgeJob struct {
	logg  *logger.Logger
	repo  refreshTokenPurger
	grace time.Duration
	now   func() time.Time
}

func (j *refreshTokenPurgeJob) Name() string { return "refresh-token-purge" }

func (j *refreshTokenPurgeJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-j.grace)
	deleted, err := j.repo.DeleteExpiredBefore(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("purge refresh tokens: %w", err)
	}
	j.logg.Info(j.logg.WithFields(ctx, map[string]any{
		"cutoff":       cutoff,
		"rows_deleted": deleted,
	}), "auth.refresh_tokens_purged")
	return nil
}
