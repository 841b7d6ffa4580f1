package currencies

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-ledger/internal/singleton"
	"github.com/angelmondragon/storefront-ledger/pkg/db"
	"github.com/angelmondragon/storefront-ledger/pkg/db/models"
	pkgerrors "github.com/angelmondragon/storefront-ledger/pkg/errors"
	"github.com/angelmondragon/storefront-ledger/pkg/logger"
	"github.com/angelmondragon/storefront-ledger/pkg/metrics"
	"github.com/angelmondragon/storefront-ledger/pkg/money"
	"github.com/angelmondragon/storefront-ledger/pkg/types"
	"github.com/angelmondragon/storefront-ledger/pkg/validators"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service maintains store currencies, their rate history and conversions.
type Service interface {
	CreateCurrency(ctx context.Context, input CreateCurrencyInput) (*models.Currency, error)
	UpdateCurrency(ctx context.Context, input UpdateCurrencyInput) (*models.Currency, error)
	GetCurrency(ctx context.Context, currencyID uuid.UUID) (*models.Currency, error)
	ListCurrencies(ctx context.Context, storeID uuid.UUID) ([]models.Currency, error)
	Convert(ctx context.Context, input ConvertInput) (*Conversion, error)
	BulkUpdateRates(ctx context.Context, storeID uuid.UUID, updates []RateUpdate) (int, error)
	PruneHistory(ctx context.Context, now time.Time) (PruneResult, error)
}

type service struct {
	repo      Repository
	tx        txRunner
	logg      *logger.Logger
	metrics   *metrics.LedgerMetrics
	retention time.Duration
	now       func() time.Time
}

// NewService wires the currency ledger. retention bounds the rate history.
func NewService(repo Repository, tx txRunner, retention time.Duration, logg *logger.Logger, recorder *metrics.LedgerMetrics) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("currencies repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if retention <= 0 {
		return nil, fmt.Errorf("rate history retention must be positive")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{
		repo:      repo,
		tx:        tx,
		logg:      logg,
		metrics:   recorder,
		retention: retention,
		now:       time.Now,
	}, nil
}

func (s *service) CreateCurrency(ctx context.Context, input CreateCurrencyInput) (*models.Currency, error) {
	input.Code = strings.TrimSpace(input.Code)
	input.Name = strings.TrimSpace(input.Name)
	if input.StoreID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "store id is required")
	}
	if err := validators.Struct(input); err != nil {
		return nil, err
	}
	if err := validateRate(input.ExchangeRate); err != nil {
		return nil, err
	}

	now := s.now()
	currency := &models.Currency{
		StoreID:       input.StoreID,
		Code:          input.Code,
		Name:          input.Name,
		Symbol:        input.Symbol,
		DecimalPlaces: int(money.DefaultScale),
		RateHistory:   types.RateHistory{},
		IsActive:      true,
	}
	if input.DecimalPlaces != nil {
		currency.DecimalPlaces = *input.DecimalPlaces
	}
	if input.IsActive != nil {
		currency.IsActive = *input.IsActive
	}
	_, pruned := ApplyRate(currency, RateChange{
		Rate:     input.ExchangeRate,
		Source:   input.RateSource,
		Provider: input.RateProvider,
	}, true, now, s.retention)
	StampActivation(nil, currency, now)

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.Create(ctx, currency); err != nil {
			if db.IsUniqueViolation(err, "") {
				return pkgerrors.Wrap(pkgerrors.CodeConflict, err, fmt.Sprintf("currency %s already exists for store", currency.Code))
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create currency")
		}
		if err := s.claimFlags(ctx, tx, currency, boolPtr(input.IsDefault), boolPtr(input.IsBaseCurrency)); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncRecompute(metrics.RecomputeRateHistory)
	s.metrics.AddPruned(pruned)
	ctx = s.logg.WithCurrencyCode(s.logg.WithStoreID(ctx, currency.StoreID), currency.Code)
	s.logg.Info(ctx, "currency created")
	return currency, nil
}

func (s *service) GetCurrency(ctx context.Context, currencyID uuid.UUID) (*models.Currency, error) {
	if currencyID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "currency id is required")
	}
	currency, err := s.repo.FindByID(ctx, currencyID)
	if err != nil {
		return nil, mapNotFound(err, "currency not found", "load currency")
	}
	return currency, nil
}

func (s *service) UpdateCurrency(ctx context.Context, input UpdateCurrencyInput) (*models.Currency, error) {
	if input.CurrencyID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "currency id is required")
	}
	if input.Name != nil {
		trimmed := strings.TrimSpace(*input.Name)
		input.Name = &trimmed
	}
	if err := validators.Struct(input); err != nil {
		return nil, err
	}
	if input.ExchangeRate != nil {
		if err := validateRate(*input.ExchangeRate); err != nil {
			return nil, err
		}
	}

	var result *models.Currency
	var pruned int
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		currency, err := repo.LockByID(ctx, input.CurrencyID)
		if err != nil {
			return mapNotFound(err, "currency not found", "load currency")
		}

		now := s.now()
		wasActive := currency.IsActive
		updates := map[string]any{}

		if input.Name != nil {
			currency.Name = *input.Name
			updates["name"] = currency.Name
		}
		if input.Symbol != nil {
			currency.Symbol = input.Symbol
			updates["symbol"] = currency.Symbol
		}
		if input.DecimalPlaces != nil {
			currency.DecimalPlaces = *input.DecimalPlaces
			updates["decimal_places"] = currency.DecimalPlaces
		}

		if input.ExchangeRate != nil {
			changed, dropped := ApplyRate(currency, RateChange{
				Rate:     *input.ExchangeRate,
				Source:   input.RateSource,
				Provider: input.RateProvider,
			}, false, now, s.retention)
			if changed {
				updates["exchange_rate"] = currency.ExchangeRate
				updates["rate_history"] = currency.RateHistory
				updates["last_rate_update"] = currency.LastRateUpdate
				pruned = dropped
				s.metrics.IncRecompute(metrics.RecomputeRateHistory)
			}
		} else {
			if input.RateSource != nil {
				currency.RateSource = input.RateSource
			}
			if input.RateProvider != nil {
				currency.RateProvider = input.RateProvider
			}
		}
		if input.RateSource != nil {
			updates["rate_source"] = currency.RateSource
		}
		if input.RateProvider != nil {
			updates["rate_provider"] = currency.RateProvider
		}

		if input.IsActive != nil {
			currency.IsActive = *input.IsActive
			updates["is_active"] = currency.IsActive
			for _, column := range StampActivation(&wasActive, currency, now) {
				switch column {
				case "activated_at":
					updates[column] = currency.ActivatedAt
				case "deactivated_at":
					updates[column] = currency.DeactivatedAt
				}
			}
		}
		if input.IsDefault != nil && !*input.IsDefault {
			currency.IsDefault = false
			updates["is_default"] = false
		}
		if input.IsBaseCurrency != nil && !*input.IsBaseCurrency {
			currency.IsBaseCurrency = false
			updates["is_base_currency"] = false
		}

		if err := repo.Update(ctx, currency.ID, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update currency")
		}
		if err := s.claimFlags(ctx, tx, currency, input.IsDefault, input.IsBaseCurrency); err != nil {
			return err
		}
		result = currency
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.metrics.AddPruned(pruned)
	return result, nil
}

func (s *service) ListCurrencies(ctx context.Context, storeID uuid.UUID) ([]models.Currency, error) {
	if storeID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "store id is required")
	}
	currencies, err := s.repo.ListByStore(ctx, storeID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list currencies")
	}
	return currencies, nil
}

func (s *service) Convert(ctx context.Context, input ConvertInput) (*Conversion, error) {
	input.From = strings.ToUpper(strings.TrimSpace(input.From))
	input.To = strings.ToUpper(strings.TrimSpace(input.To))
	if input.StoreID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "store id is required")
	}
	if err := validators.Struct(input); err != nil {
		return nil, err
	}

	from, err := s.repo.FindActiveByCode(ctx, input.StoreID, input.From)
	if err != nil {
		return nil, mapNotFound(err, fmt.Sprintf("active currency %s not found", input.From), "load source currency")
	}
	to, err := s.repo.FindActiveByCode(ctx, input.StoreID, input.To)
	if err != nil {
		return nil, mapNotFound(err, fmt.Sprintf("active currency %s not found", input.To), "load target currency")
	}
	if !money.Positive(from.ExchangeRate) || !money.Positive(to.ExchangeRate) {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "stored exchange rate is not positive")
	}

	converted := money.Convert(input.Amount, from.ExchangeRate, to.ExchangeRate)
	return &Conversion{
		Amount:   money.Round(converted, int32(to.DecimalPlaces)),
		From:     from.Code,
		To:       to.Code,
		FromRate: from.ExchangeRate,
		ToRate:   to.ExchangeRate,
	}, nil
}

func (s *service) BulkUpdateRates(ctx context.Context, storeID uuid.UUID, updates []RateUpdate) (int, error) {
	if storeID == uuid.Nil {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "store id is required")
	}
	for _, u := range updates {
		if err := validateRate(u.Rate); err != nil {
			return 0, err.WithDetails(map[string]any{"code": u.Code, "exchange_rate": u.Rate.String()})
		}
	}
	if len(updates) == 0 {
		return 0, nil
	}

	var applied, pruned int
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		active, err := repo.LockActiveByStore(ctx, storeID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load active currencies")
		}
		byCode := make(map[string]*models.Currency, len(active))
		for i := range active {
			byCode[active[i].Code] = &active[i]
		}

		now := s.now()
		for _, u := range updates {
			currency, ok := byCode[strings.ToUpper(strings.TrimSpace(u.Code))]
			if !ok {
				continue
			}
			changed, dropped := ApplyRate(currency, RateChange{Rate: u.Rate, Source: u.Source, Provider: u.Provider}, false, now, s.retention)
			row := map[string]any{
				"rate_source":   currency.RateSource,
				"rate_provider": currency.RateProvider,
			}
			if changed {
				row["exchange_rate"] = currency.ExchangeRate
				row["rate_history"] = currency.RateHistory
				row["last_rate_update"] = currency.LastRateUpdate
				pruned += dropped
				s.metrics.IncRecompute(metrics.RecomputeRateHistory)
			}
			if err := repo.Update(ctx, currency.ID, row); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, fmt.Sprintf("update rate for %s", currency.Code))
			}
			applied++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	s.metrics.AddPruned(pruned)
	ctx = s.logg.WithFields(s.logg.WithStoreID(ctx, storeID), map[string]any{
		"received": len(updates),
		"applied":  applied,
	})
	s.logg.Info(ctx, "bulk exchange rate update applied")
	return applied, nil
}

// PruneHistory applies the retention window to every currency, one store per
// transaction. A failing store does not stop the others; all failures are
// returned together.
func (s *service) PruneHistory(ctx context.Context, now time.Time) (PruneResult, error) {
	var result PruneResult
	storeIDs, err := s.repo.ListStoreIDs(ctx)
	if err != nil {
		return result, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list currency stores")
	}

	var errs error
	for _, storeID := range storeIDs {
		if err := ctx.Err(); err != nil {
			return result, multierr.Append(errs, err)
		}
		currencies, entries, err := s.pruneStore(ctx, storeID, now)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("store %s: %w", storeID, err))
			continue
		}
		result.Stores++
		result.Currencies += currencies
		result.Entries += entries
	}
	s.metrics.AddPruned(result.Entries)
	return result, errs
}

func (s *service) pruneStore(ctx context.Context, storeID uuid.UUID, now time.Time) (int, int, error) {
	var currencies, entries int
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		rows, err := repo.LockByStore(ctx, storeID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load store currencies")
		}
		for i := range rows {
			dropped := PruneHistory(&rows[i], now, s.retention)
			if dropped == 0 {
				continue
			}
			if err := repo.Update(ctx, rows[i].ID, map[string]any{"rate_history": rows[i].RateHistory}); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, fmt.Sprintf("prune history for %s", rows[i].Code))
			}
			currencies++
			entries += dropped
		}
		return nil
	})
	if err != nil {
		return 0, 0, err
	}
	return currencies, entries, nil
}

// claimFlags routes requested default/base flags through the singleton rule.
func (s *service) claimFlags(ctx context.Context, tx *gorm.DB, currency *models.Currency, isDefault, isBase *bool) error {
	claims := []struct {
		want *bool
		flag singleton.Flag
		set  func()
	}{
		{isDefault, singleton.StoreDefaultCurrency, func() { currency.IsDefault = true }},
		{isBase, singleton.StoreBaseCurrency, func() { currency.IsBaseCurrency = true }},
	}
	for _, c := range claims {
		if c.want == nil || !*c.want {
			continue
		}
		if err := c.flag.Claim(ctx, tx, currency.StoreID, currency.ID); err != nil {
			return err
		}
		c.set()
		s.metrics.IncRecompute(metrics.RecomputeSingletonFlag)
	}
	return nil
}

func validateRate(rate decimal.Decimal) *pkgerrors.Error {
	if money.Positive(rate) {
		return nil
	}
	return pkgerrors.New(pkgerrors.CodeValidation, "exchange rate must be greater than 0").
		WithDetails(map[string]any{"exchange_rate": rate.String()})
}

func mapNotFound(err error, notFoundMsg, dependencyMsg string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, notFoundMsg)
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, dependencyMsg)
}

func boolPtr(v bool) *bool {
	return &v
}
