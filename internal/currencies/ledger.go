package currencies

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront-ledger/pkg/db/models"
	"github.com/angelmondragon/storefront-ledger/pkg/types"
)

// RateChange is one exchange rate observation to apply to a currency.
type RateChange struct {
	Rate     decimal.Decimal
	Source   *string
	Provider *string
}

// ApplyRate records rate on c. When the rate differs from the stored one, or
// the currency is new, an entry is appended to the history, the history is
// cut to the retention window and last_rate_update moves to now. It returns
// whether the history changed and how many entries the window dropped.
func ApplyRate(c *models.Currency, change RateChange, isNew bool, now time.Time, retention time.Duration) (bool, int) {
	now = now.UTC()
	if change.Source != nil {
		c.RateSource = change.Source
	}
	if change.Provider != nil {
		c.RateProvider = change.Provider
	}
	if !isNew && c.ExchangeRate.Equal(change.Rate) {
		return false, 0
	}

	c.ExchangeRate = change.Rate
	c.RateHistory = c.RateHistory.Append(types.RateHistoryEntry{
		Rate:       change.Rate,
		RecordedAt: now,
		Source:     deref(c.RateSource),
		Provider:   deref(c.RateProvider),
	})
	pruned := PruneHistory(c, now, retention)
	c.LastRateUpdate = &now
	return true, pruned
}

// PruneHistory drops history entries recorded before now - retention and
// returns how many were removed. A non-positive retention keeps everything.
func PruneHistory(c *models.Currency, now time.Time, retention time.Duration) int {
	if retention <= 0 {
		return 0
	}
	before := len(c.RateHistory)
	kept, changed := c.RateHistory.Prune(now.UTC().Add(-retention))
	if !changed {
		return 0
	}
	c.RateHistory = kept
	return before - len(kept)
}

// StampActivation sets activated_at or deactivated_at when is_active flips.
// A nil prev is a new currency: only an active one is stamped.
func StampActivation(prev *bool, c *models.Currency, now time.Time) []string {
	now = now.UTC()
	wasActive := prev != nil && *prev
	switch {
	case !wasActive && c.IsActive:
		c.ActivatedAt = &now
		return []string{"activated_at"}
	case wasActive && !c.IsActive:
		c.DeactivatedAt = &now
		return []string{"deactivated_at"}
	}
	return nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
