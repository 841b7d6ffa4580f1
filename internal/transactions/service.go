package transactions

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-ledger/pkg/db/models"
	"github.com/angelmondragon/storefront-ledger/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-ledger/pkg/errors"
	"github.com/angelmondragon/storefront-ledger/pkg/metrics"
	"github.com/angelmondragon/storefront-ledger/pkg/validators"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service records transactions and keeps their settlement fields derived.
type Service interface {
	CreateTransaction(ctx context.Context, input CreateTransactionInput) (*models.Transaction, error)
	UpdateTransaction(ctx context.Context, input UpdateTransactionInput) (*models.Transaction, error)
	MarkReconciled(ctx context.Context, id uuid.UUID) (*models.Transaction, error)
	GetTransaction(ctx context.Context, id uuid.UUID) (*models.Transaction, error)
	ListByOrder(ctx context.Context, orderID uuid.UUID) ([]models.Transaction, error)
}

// CreateTransactionInput captures a new money movement. NetAmount is derived
// when nil.
type CreateTransactionInput struct {
	StoreID      uuid.UUID
	OrderID      *uuid.UUID
	ExternalID   *string
	Type         enums.TransactionType
	Status       enums.TransactionStatus
	Amount       decimal.Decimal
	GatewayFee   decimal.Decimal
	PlatformFee  decimal.Decimal
	TaxAmount    decimal.Decimal
	NetAmount    *decimal.Decimal
	CurrencyCode string
	Gateway      *string
}

// UpdateTransactionInput patches a transaction. Nil fields keep their stored
// value. When NetAmount is nil it is re-derived only if the patch changes
// an amount or fee, so a stored net survives status-only updates.
type UpdateTransactionInput struct {
	TransactionID uuid.UUID
	Status        *enums.TransactionStatus
	Amount        *decimal.Decimal
	GatewayFee    *decimal.Decimal
	PlatformFee   *decimal.Decimal
	TaxAmount     *decimal.Decimal
	NetAmount     *decimal.Decimal
}

func (in UpdateTransactionInput) touchesSettlement() bool {
	return in.Amount != nil || in.GatewayFee != nil || in.PlatformFee != nil || in.TaxAmount != nil
}

type service struct {
	repo    Repository
	tx      txRunner
	metrics *metrics.LedgerMetrics
	now     func() time.Time
}

// NewService wires a transactions service.
func NewService(repo Repository, tx txRunner, recorder *metrics.LedgerMetrics) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("transactions repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, tx: tx, metrics: recorder, now: time.Now}, nil
}

func (s *service) CreateTransaction(ctx context.Context, input CreateTransactionInput) (*models.Transaction, error) {
	if input.StoreID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "store id is required")
	}
	if !input.Type.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid transaction type %q", input.Type))
	}
	status := input.Status
	if status == "" {
		status = enums.TransactionStatusPending
	}
	if !status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid transaction status %q", status))
	}
	currency := strings.ToUpper(strings.TrimSpace(input.CurrencyCode))
	if currency == "" {
		currency = "USD"
	}
	if !validators.IsCurrencyCode(currency) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "currency code must be a three-letter ISO code")
	}

	txn := &models.Transaction{
		StoreID:      input.StoreID,
		OrderID:      input.OrderID,
		ExternalID:   input.ExternalID,
		Type:         input.Type,
		Status:       status,
		Amount:       input.Amount,
		GatewayFee:   input.GatewayFee,
		PlatformFee:  input.PlatformFee,
		TaxAmount:    input.TaxAmount,
		CurrencyCode: currency,
		Gateway:      input.Gateway,
	}
	if input.NetAmount != nil {
		txn.NetAmount = *input.NetAmount
	} else {
		txn.NetAmount = NetAmount(txn.Amount, txn.GatewayFee, txn.PlatformFee, txn.TaxAmount)
		s.metrics.IncRecompute(metrics.RecomputeNetAmount)
	}
	if EntersCompleted("", txn.Status) {
		processed := s.now().UTC()
		txn.ProcessedAt = &processed
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).Create(ctx, txn); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create transaction")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return txn, nil
}

func (s *service) UpdateTransaction(ctx context.Context, input UpdateTransactionInput) (*models.Transaction, error) {
	if input.TransactionID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "transaction id is required")
	}
	if input.Status != nil && !input.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid transaction status %q", *input.Status))
	}

	var result *models.Transaction
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		txn, err := repo.LockByID(ctx, input.TransactionID)
		if err != nil {
			return mapNotFound(err, "load transaction")
		}

		prevStatus := txn.Status
		updates := map[string]any{}
		if input.Status != nil {
			txn.Status = *input.Status
			updates["status"] = txn.Status
		}
		if input.Amount != nil {
			txn.Amount = *input.Amount
			updates["amount"] = txn.Amount
		}
		if input.GatewayFee != nil {
			txn.GatewayFee = *input.GatewayFee
			updates["gateway_fee"] = txn.GatewayFee
		}
		if input.PlatformFee != nil {
			txn.PlatformFee = *input.PlatformFee
			updates["platform_fee"] = txn.PlatformFee
		}
		if input.TaxAmount != nil {
			txn.TaxAmount = *input.TaxAmount
			updates["tax_amount"] = txn.TaxAmount
		}

		switch {
		case input.NetAmount != nil:
			txn.NetAmount = *input.NetAmount
			updates["net_amount"] = txn.NetAmount
		case input.touchesSettlement():
			txn.NetAmount = NetAmount(txn.Amount, txn.GatewayFee, txn.PlatformFee, txn.TaxAmount)
			updates["net_amount"] = txn.NetAmount
			s.metrics.IncRecompute(metrics.RecomputeNetAmount)
		}

		if EntersCompleted(prevStatus, txn.Status) {
			processed := s.now().UTC()
			txn.ProcessedAt = &processed
			updates["processed_at"] = txn.ProcessedAt
		}

		if err := repo.Update(ctx, txn.ID, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update transaction")
		}
		result = txn
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *service) GetTransaction(ctx context.Context, id uuid.UUID) (*models.Transaction, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "transaction id is required")
	}
	txn, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, mapNotFound(err, "load transaction")
	}
	return txn, nil
}

func (s *service) MarkReconciled(ctx context.Context, id uuid.UUID) (*models.Transaction, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "transaction id is required")
	}

	var result *models.Transaction
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		txn, err := repo.LockByID(ctx, id)
		if err != nil {
			return mapNotFound(err, "load transaction")
		}
		if txn.IsReconciled {
			result = txn
			return nil
		}
		if txn.Status != enums.TransactionStatusCompleted {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "only completed transactions can be reconciled")
		}

		reconciledAt := s.now().UTC()
		txn.IsReconciled = true
		txn.ReconciledAt = &reconciledAt
		if err := repo.Update(ctx, txn.ID, map[string]any{
			"is_reconciled": true,
			"reconciled_at": txn.ReconciledAt,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reconcile transaction")
		}
		result = txn
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *service) ListByOrder(ctx context.Context, orderID uuid.UUID) ([]models.Transaction, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	txns, err := s.repo.ListByOrderID(ctx, orderID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list transactions")
	}
	return txns, nil
}

func mapNotFound(err error, msg string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "transaction not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, msg)
}
