package orders

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
	"github.com/angelmondragon/storefront-ledger/pkg/logger"
	"github.com/angelmondragon/storefront-ledger/pkg/metrics"
	"github.com/angelmondragon/storefront-ledger/pkg/validators"
)

const defaultCurrencyCode = "USD"

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service owns every write that can change an order's derived fields.
type Service interface {
	CreateOrder(ctx context.Context, input CreateOrderInput) (*models.Order, error)
	UpdateOrder(ctx context.Context, input UpdateOrderInput) (*models.Order, error)
	AddLineItem(ctx context.Context, input AddLineItemInput) (*models.OrderLineItem, error)
	UpdateLineItem(ctx context.Context, input UpdateLineItemInput) (*models.OrderLineItem, error)
	DeleteLineItem(ctx context.Context, lineItemID uuid.UUID) error
	RecalculateOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
	GetOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
}

type service struct {
	repo    Repository
	tx      txRunner
	logg    *logger.Logger
	metrics *metrics.LedgerMetrics
	now     func() time.Time
}

// NewService builds the order service. A nil logger or recorder disables that output.
func NewService(repo Repository, tx txRunner, logg *logger.Logger, recorder *metrics.LedgerMetrics) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{
		repo:    repo,
		tx:      tx,
		logg:    logg,
		metrics: recorder,
		now:     time.Now,
	}, nil
}

func (s *service) CreateOrder(ctx context.Context, input CreateOrderInput) (*models.Order, error) {
	if input.StoreID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "store id required")
	}
	orderNumber := strings.TrimSpace(input.OrderNumber)
	if orderNumber == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order number required")
	}

	status := input.Status
	if status == "" {
		status = enums.OrderStatusPending
	}
	if !status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid order status %q", status))
	}
	paymentStatus := input.PaymentStatus
	if paymentStatus == "" {
		paymentStatus = enums.PaymentStatusPending
	}
	if !paymentStatus.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid payment status %q", paymentStatus))
	}
	if err := validateAmounts(map[string]decimal.Decimal{
		"tax_amount":      input.TaxAmount,
		"shipping_amount": input.ShippingAmount,
		"discount_amount": input.DiscountAmount,
	}); err != nil {
		return nil, err
	}
	currency := strings.ToUpper(strings.TrimSpace(input.CurrencyCode))
	if currency == "" {
		currency = defaultCurrencyCode
	}
	if !validators.IsCurrencyCode(currency) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "currency code must be a three-letter ISO code")
	}

	for i := range input.Items {
		if err := validateLineItem(input.Items[i]); err != nil {
			return nil, err
		}
	}

	order := &models.Order{
		StoreID:        input.StoreID,
		ExternalID:     input.ExternalID,
		OrderNumber:    orderNumber,
		Status:         status,
		PaymentStatus:  paymentStatus,
		TaxAmount:      input.TaxAmount,
		ShippingAmount: input.ShippingAmount,
		DiscountAmount: input.DiscountAmount,
		CurrencyCode:   currency,
	}
	StampTransitions(nil, order, s.now())

	ctx = s.logg.WithStoreID(ctx, input.StoreID)
	var result *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.CreateOrder(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
		}

		if len(input.Items) > 0 {
			items := make([]models.OrderLineItem, 0, len(input.Items))
			for _, in := range input.Items {
				items = append(items, s.newLineItem(order, in))
			}
			if err := repo.CreateLineItems(ctx, items); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order line items")
			}
		}

		updated, err := s.recompute(ctx, repo, order.ID)
		if err != nil {
			return err
		}
		result = updated
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logg.Info(s.logg.WithOrderID(ctx, result.ID), "order created")
	return result, nil
}

func (s *service) UpdateOrder(ctx context.Context, input UpdateOrderInput) (*models.Order, error) {
	if input.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if input.Status != nil && !input.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid order status %q", *input.Status))
	}
	if input.PaymentStatus != nil && !input.PaymentStatus.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid payment status %q", *input.PaymentStatus))
	}
	amounts := map[string]decimal.Decimal{}
	for column, value := range map[string]*decimal.Decimal{
		"tax_amount":      input.TaxAmount,
		"shipping_amount": input.ShippingAmount,
		"discount_amount": input.DiscountAmount,
	} {
		if value != nil {
			amounts[column] = *value
		}
	}
	if err := validateAmounts(amounts); err != nil {
		return nil, err
	}

	var result *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		current, err := repo.LockOrder(ctx, input.OrderID)
		if err != nil {
			return mapNotFound(err, "order not found", "load order")
		}

		prev := *current
		next := current
		updates := map[string]any{}

		if input.Status != nil && *input.Status != next.Status {
			next.Status = *input.Status
			updates["status"] = next.Status
		}
		if input.PaymentStatus != nil && *input.PaymentStatus != next.PaymentStatus {
			next.PaymentStatus = *input.PaymentStatus
			updates["payment_status"] = next.PaymentStatus
		}
		for _, column := range StampTransitions(&prev, next, s.now()) {
			updates[column] = stampedValue(next, column)
		}

		if len(amounts) > 0 {
			if input.TaxAmount != nil {
				next.TaxAmount = *input.TaxAmount
			}
			if input.ShippingAmount != nil {
				next.ShippingAmount = *input.ShippingAmount
			}
			if input.DiscountAmount != nil {
				next.DiscountAmount = *input.DiscountAmount
			}
			for column, value := range amounts {
				updates[column] = value
			}

			items, err := repo.ListLineItems(ctx, next.ID)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order line items")
			}
			totals := ComputeTotals(next, items)
			totals.apply(next)
			for column, value := range totals.updates() {
				updates[column] = value
			}
			s.metrics.IncRecompute(metrics.RecomputeOrderTotals)
		}

		if err := repo.UpdateOrder(ctx, next.ID, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order")
		}

		reloaded, err := repo.FindOrder(ctx, next.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload order")
		}
		result = reloaded
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *service) AddLineItem(ctx context.Context, input AddLineItemInput) (*models.OrderLineItem, error) {
	if input.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if err := validateLineItem(input.Item); err != nil {
		return nil, err
	}

	var created models.OrderLineItem
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := repo.LockOrder(ctx, input.OrderID)
		if err != nil {
			return mapNotFound(err, "order not found", "load order")
		}

		created = s.newLineItem(order, input.Item)
		if err := repo.CreateLineItems(ctx, []models.OrderLineItem{created}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order line item")
		}

		_, err = s.recompute(ctx, repo, order.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &created, nil
}

func (s *service) UpdateLineItem(ctx context.Context, input UpdateLineItemInput) (*models.OrderLineItem, error) {
	if input.LineItemID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "line item id required")
	}
	if input.Quantity != nil && *input.Quantity <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be greater than zero")
	}
	if input.Status != nil && !input.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid line item status %q", *input.Status))
	}
	if input.Name != nil && strings.TrimSpace(*input.Name) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "line item name required")
	}
	amounts := map[string]decimal.Decimal{}
	if input.UnitPrice != nil {
		amounts["unit_price"] = *input.UnitPrice
	}
	if input.DiscountAmount != nil {
		amounts["discount_amount"] = *input.DiscountAmount
	}
	if err := validateAmounts(amounts); err != nil {
		return nil, err
	}

	var result *models.OrderLineItem
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		item, err := s.lockLineItem(ctx, repo, input.LineItemID)
		if err != nil {
			return err
		}

		updates := map[string]any{}
		if input.Name != nil {
			item.Name = strings.TrimSpace(*input.Name)
			updates["name"] = item.Name
		}
		if input.Status != nil {
			item.Status = *input.Status
			updates["status"] = item.Status
		}
		if input.UnitPrice != nil {
			item.UnitPrice = *input.UnitPrice
		}
		if input.Quantity != nil {
			item.Quantity = *input.Quantity
		}
		if input.DiscountAmount != nil {
			item.DiscountAmount = *input.DiscountAmount
		}

		priced := input.UnitPrice != nil || input.Quantity != nil || input.DiscountAmount != nil
		if priced {
			item.TotalPrice = LineItemTotal(item.UnitPrice, item.Quantity, item.DiscountAmount)
			updates["unit_price"] = item.UnitPrice
			updates["quantity"] = item.Quantity
			updates["discount_amount"] = item.DiscountAmount
			updates["total_price"] = item.TotalPrice
			s.metrics.IncRecompute(metrics.RecomputeLineItem)
		}

		if err := repo.UpdateLineItem(ctx, item.ID, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update line item")
		}
		if priced {
			if _, err := s.recompute(ctx, repo, item.OrderID); err != nil {
				return err
			}
		}
		result = item
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *service) DeleteLineItem(ctx context.Context, lineItemID uuid.UUID) error {
	if lineItemID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "line item id required")
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		item, err := s.lockLineItem(ctx, repo, lineItemID)
		if err != nil {
			return err
		}
		if err := repo.DeleteLineItem(ctx, item.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete line item")
		}
		_, err = s.recompute(ctx, repo, item.OrderID)
		return err
	})
}

func (s *service) RecalculateOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}

	var result *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		order, err := s.recompute(ctx, s.repo.WithTx(tx), orderID)
		if err != nil {
			return err
		}
		result = order
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *service) GetOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	order, err := s.repo.FindOrder(ctx, orderID)
	if err != nil {
		return nil, mapNotFound(err, "order not found", "load order")
	}
	return order, nil
}

// recompute locks the parent order, re-reads every sibling item and writes
// subtotal and total. Nothing else on the order is touched.
func (s *service) recompute(ctx context.Context, repo Repository, orderID uuid.UUID) (*models.Order, error) {
	order, err := repo.LockOrder(ctx, orderID)
	if err != nil {
		return nil, mapNotFound(err, "order not found", "lock order")
	}
	items, err := repo.ListLineItems(ctx, orderID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order line items")
	}

	totals := ComputeTotals(order, items)
	if !totals.Matches(order) {
		if err := repo.UpdateOrder(ctx, orderID, totals.updates()); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order totals")
		}
	}
	totals.apply(order)
	order.Items = items

	s.metrics.IncRecompute(metrics.RecomputeOrderTotals)
	s.logg.Debug(s.logg.WithFields(ctx, map[string]any{
		"order_id": orderID.String(),
		"items":    len(items),
		"subtotal": totals.Subtotal.String(),
		"total":    totals.Total.String(),
	}), "order totals recomputed")
	return order, nil
}

// lockLineItem locks the parent order before the item is touched so item
// writes and the following recompute take locks in the same order. The first
// read only resolves the order id; callers get the row re-read under lock.
func (s *service) lockLineItem(ctx context.Context, repo Repository, lineItemID uuid.UUID) (*models.OrderLineItem, error) {
	ref, err := repo.FindLineItem(ctx, lineItemID)
	if err != nil {
		return nil, mapNotFound(err, "line item not found", "load line item")
	}
	if _, err := repo.LockOrder(ctx, ref.OrderID); err != nil {
		return nil, mapNotFound(err, "order not found", "lock order")
	}
	item, err := repo.LockLineItem(ctx, lineItemID)
	if err != nil {
		return nil, mapNotFound(err, "line item not found", "lock line item")
	}
	return item, nil
}

func (s *service) newLineItem(order *models.Order, in LineItemInput) models.OrderLineItem {
	status := in.Status
	if status == "" {
		status = enums.LineItemStatusPending
	}
	s.metrics.IncRecompute(metrics.RecomputeLineItem)
	return models.OrderLineItem{
		ID:             uuid.New(),
		OrderID:        order.ID,
		StoreID:        order.StoreID,
		ProductID:      in.ProductID,
		SKU:            in.SKU,
		Name:           strings.TrimSpace(in.Name),
		UnitPrice:      in.UnitPrice,
		Quantity:       in.Quantity,
		DiscountAmount: in.DiscountAmount,
		TotalPrice:     LineItemTotal(in.UnitPrice, in.Quantity, in.DiscountAmount),
		Status:         status,
	}
}

func validateLineItem(in LineItemInput) error {
	if strings.TrimSpace(in.Name) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "line item name required")
	}
	if in.Quantity <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be greater than zero")
	}
	if in.Status != "" && !in.Status.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid line item status %q", in.Status))
	}
	return validateAmounts(map[string]decimal.Decimal{
		"unit_price":      in.UnitPrice,
		"discount_amount": in.DiscountAmount,
	})
}

func validateAmounts(amounts map[string]decimal.Decimal) error {
	details := map[string]string{}
	for field, value := range amounts {
		if value.IsNegative() {
			details[field] = "must not be negative"
		}
	}
	if len(details) > 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "validation failed").WithDetails(details)
	}
	return nil
}

func stampedValue(order *models.Order, column string) *time.Time {
	switch column {
	case "payment_date":
		return order.PaymentDate
	case "shipped_date":
		return order.ShippedDate
	case "delivered_date":
		return order.DeliveredDate
	case "cancelled_date":
		return order.CancelledDate
	}
	return nil
}

func mapNotFound(err error, notFoundMsg, dependencyMsg string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, notFoundMsg)
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, dependencyMsg)
}
