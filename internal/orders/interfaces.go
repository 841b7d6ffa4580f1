package orders

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-ledger/pkg/db/models"
)

// Repository defines persistence operations for orders and their line items.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateOrder(ctx context.Context, order *models.Order) error
	CreateLineItems(ctx context.Context, items []models.OrderLineItem) error
	FindOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
	LockOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
	FindLineItem(ctx context.Context, lineItemID uuid.UUID) (*models.OrderLineItem, error)
	LockLineItem(ctx context.Context, lineItemID uuid.UUID) (*models.OrderLineItem, error)
	ListLineItems(ctx context.Context, orderID uuid.UUID) ([]models.OrderLineItem, error)
	UpdateOrder(ctx context.Context, orderID uuid.UUID, updates map[string]any) error
	UpdateLineItem(ctx context.Context, lineItemID uuid.UUID, updates map[string]any) error
	DeleteLineItem(ctx context.Context, lineItemID uuid.UUID) error
}
