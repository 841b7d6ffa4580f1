package orders

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-ledger/pkg/db/dbtest"
	"github.com/angelmondragon/storefront-ledger/pkg/db/models"
	"github.com/angelmondragon/storefront-ledger/pkg/enums"
)

func TestRepositoryRoundTrip(t *testing.T) {
	conn := dbtest.Open(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	order := &models.Order{
		StoreID:        uuid.New(),
		OrderNumber:    "R-1",
		Status:         enums.OrderStatusPending,
		PaymentStatus:  enums.PaymentStatusPending,
		TaxAmount:      dec("1.00"),
		ShippingAmount: dec("2.00"),
		CurrencyCode:   "USD",
	}
	require.NoError(t, repo.CreateOrder(ctx, order))
	require.NotEqual(t, uuid.Nil, order.ID)

	items := []models.OrderLineItem{
		{OrderID: order.ID, StoreID: order.StoreID, Name: "A", UnitPrice: dec("3"), Quantity: 1, TotalPrice: dec("3"), Status: enums.LineItemStatusPending},
		{OrderID: order.ID, StoreID: order.StoreID, Name: "B", UnitPrice: dec("4"), Quantity: 2, TotalPrice: dec("8"), Status: enums.LineItemStatusPending},
	}
	require.NoError(t, repo.CreateLineItems(ctx, items))
	require.NoError(t, repo.CreateLineItems(ctx, nil))

	listed, err := repo.ListLineItems(ctx, order.ID)
	require.NoError(t, err)
	assert.Len(t, listed, 2)

	found, err := repo.FindOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Len(t, found.Items, 2)
	assertDecimal(t, "1.00", found.TaxAmount)

	locked, err := repo.LockOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, order.ID, locked.ID)

	require.NoError(t, repo.UpdateOrder(ctx, order.ID, map[string]any{"subtotal": dec("11")}))
	require.NoError(t, repo.UpdateOrder(ctx, order.ID, nil))
	require.NoError(t, repo.UpdateLineItem(ctx, listed[0].ID, map[string]any{"status": enums.LineItemStatusFulfilled}))

	item, err := repo.FindLineItem(ctx, listed[0].ID)
	require.NoError(t, err)
	assert.Equal(t, enums.LineItemStatusFulfilled, item.Status)

	require.NoError(t, repo.DeleteLineItem(ctx, listed[0].ID))
	_, err = repo.FindLineItem(ctx, listed[0].ID)
	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))

	_, err = repo.FindOrder(ctx, uuid.New())
	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))
}

func TestRepositoryWithTxNil(t *testing.T) {
	repo := NewRepository(dbtest.Open(t))
	assert.Same(t, repo, repo.WithTx(nil))
}
