package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/miguelsandoval/storefront-backend/pkg/logger"
	"github.com/miguelsandoval/storefront-backend/pkg/metrics"
)

const defaultSweepCutoff = 720 * time.Hour

type cartSweeper interface {
	SweepAbandoned(ctx context.Context, cutoff time.Time) (int64, error)
}

// CartSweeperJobParams configure the abandoned cart sweeper.
type CartSweeperJobParams struct {
	Logger  *logger.Logger
	Carts   cartSweeper
	Metrics *metrics.CronJobMetrics
	Cutoff  time.Duration
}

// NewCartSweeperJob builds the cron job that marks stale active carts abandoned.
func NewCartSweeperJob(params CartSweeperJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Carts == nil {
		return nil, fmt.Errorf("cart sweeper required")
	}
	cutoff := params.Cutoff
	if cutoff <= 0 {
		cutoff = defaultSweepCutoff
	}
	return &cartSweeperJob{
		logg:    params.Logger,
		carts:   params.Carts,
		metrics: params.Metrics,
		cutoff:  cutoff,
		now:     time.Now,
	}, nil
}

type cartSweeperJob struct {
	logg    *logger.Logger
	carts   cartSweeper
	metrics *metrics.CronJobMetrics
	cutoff  time.Duration
	now     func() time.Time
}

func (j *cartSweeperJob) Name() string { return "cart-sweeper" }

// Run flips active carts untouched past the cutoff to abandoned. The update
// is a single conditional statement, so overlapping runs settle on the same
// end state.
func (j *cartSweeperJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-j.cutoff)
	swept, err := j.carts.SweepAbandoned(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("sweep abandoned carts: %w", err)
	}
	j.metrics.AddRowsAffected(j.Name(), swept)
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"count":  swept,
		"cutoff": cutoff,
	})
	j.logg.Info(logCtx, "abandoned cart sweep complete")
	return nil
}
