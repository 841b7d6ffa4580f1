package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/angelmondragon/storefront-ledger/internal/currencies"
	"github.com/angelmondragon/storefront-ledger/pkg/logger"
)

const rateHistoryRetentionJobName = "currency-rate-history-retention"

type rateHistoryPruner interface {
	PruneHistory(ctx context.Context, now time.Time) (currencies.PruneResult, error)
}

// RateHistoryRetentionParams configure the rate history retention job.
type RateHistoryRetentionParams struct {
	Logger     *logger.Logger
	Currencies rateHistoryPruner
	Now        func() time.Time
}

// RateHistoryRetentionJob drops currency rate history entries older than the
// configured retention window.
type RateHistoryRetentionJob struct {
	logg       *logger.Logger
	currencies rateHistoryPruner
	now        func() time.Time
}

// NewRateHistoryRetentionJob builds the retention job.
func NewRateHistoryRetentionJob(params RateHistoryRetentionParams) (*RateHistoryRetentionJob, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Currencies == nil {
		return nil, fmt.Errorf("currency service required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &RateHistoryRetentionJob{
		logg:       params.Logger,
		currencies: params.Currencies,
		now:        now,
	}, nil
}

func (j *RateHistoryRetentionJob) Name() string { return rateHistoryRetentionJobName }

// Run prunes every store. Partial results are logged even when some stores
// fail.
func (j *RateHistoryRetentionJob) Run(ctx context.Context) error {
	result, err := j.currencies.PruneHistory(ctx, j.now().UTC())

	ctx = j.logg.WithFields(ctx, map[string]any{
		"stores":     result.Stores,
		"currencies": result.Currencies,
		"entries":    result.Entries,
	})
	if err != nil {
		return fmt.Errorf("prune rate history: %w", err)
	}
	j.logg.Info(ctx, "rate history pruned")
	return nil
}
