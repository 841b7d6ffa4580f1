package transactions

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-ledger/pkg/db/dbtest"
	"github.com/angelmondragon/storefront-ledger/pkg/db/models"
	"github.com/angelmondragon/storefront-ledger/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-ledger/pkg/errors"
)

func newTestService(t *testing.T) (*service, *gorm.DB) {
	t.Helper()
	client, conn := dbtest.Client(t)
	svc, err := NewService(NewRepository(conn), client, nil)
	require.NoError(t, err)
	return svc.(*service), conn
}

func decPtr(v string) *decimal.Decimal {
	d := dec(v)
	return &d
}

func statusPtr(s enums.TransactionStatus) *enums.TransactionStatus {
	return &s
}

func assertDecimal(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.Truef(t, dec(want).Equal(got), "want %s, got %s", want, got.String())
}

func loadTransaction(t *testing.T, conn *gorm.DB, id uuid.UUID) models.Transaction {
	t.Helper()
	var txn models.Transaction
	require.NoError(t, conn.Where("id = ?", id).First(&txn).Error)
	return txn
}

func TestNewServiceRequiresDependencies(t *testing.T) {
	_, err := NewService(nil, nil, nil)
	require.Error(t, err)
	_, err = NewService(NewRepository(nil), nil, nil)
	require.Error(t, err)
}

func TestCreateTransactionDerivesNetAmount(t *testing.T) {
	svc, conn := newTestService(t)

	txn, err := svc.CreateTransaction(context.Background(), CreateTransactionInput{
		StoreID:     uuid.New(),
		Type:        enums.TransactionTypePayment,
		Amount:      dec("100"),
		GatewayFee:  dec("3"),
		PlatformFee: dec("2"),
	})
	require.NoError(t, err)
	assertDecimal(t, "95", txn.NetAmount)
	assert.Equal(t, enums.TransactionStatusPending, txn.Status)
	assert.Nil(t, txn.ProcessedAt)

	stored := loadTransaction(t, conn, txn.ID)
	assertDecimal(t, "95", stored.NetAmount)
	assert.Equal(t, "USD", stored.CurrencyCode)
}

func TestCreateTransactionKeepsSuppliedNetAmount(t *testing.T) {
	svc, conn := newTestService(t)

	txn, err := svc.CreateTransaction(context.Background(), CreateTransactionInput{
		StoreID:    uuid.New(),
		Type:       enums.TransactionTypeRefund,
		Amount:     dec("100"),
		GatewayFee: dec("3"),
		NetAmount:  decPtr("-100"),
	})
	require.NoError(t, err)
	assertDecimal(t, "-100", loadTransaction(t, conn, txn.ID).NetAmount)
}

func TestCreateCompletedTransactionStampsProcessedAt(t *testing.T) {
	svc, conn := newTestService(t)
	now := time.Date(2026, 7, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	txn, err := svc.CreateTransaction(context.Background(), CreateTransactionInput{
		StoreID: uuid.New(),
		Type:    enums.TransactionTypePayment,
		Status:  enums.TransactionStatusCompleted,
		Amount:  dec("20"),
	})
	require.NoError(t, err)

	stored := loadTransaction(t, conn, txn.ID)
	require.NotNil(t, stored.ProcessedAt)
	assert.WithinDuration(t, now, *stored.ProcessedAt, time.Second)
}

func TestCreateTransactionValidation(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()

	for _, in := range []CreateTransactionInput{
		{Type: enums.TransactionTypePayment},
		{StoreID: uuid.New(), Type: "gift"},
		{StoreID: uuid.New(), Type: enums.TransactionTypePayment, Status: "settled"},
		{StoreID: uuid.New(), Type: enums.TransactionTypePayment, CurrencyCode: "dollars"},
	} {
		_, err := svc.CreateTransaction(ctx, in)
		assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	}

	var count int64
	require.NoError(t, conn.Model(&models.Transaction{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestUpdateTransactionStampsProcessedAtOnce(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()

	txn, err := svc.CreateTransaction(ctx, CreateTransactionInput{
		StoreID: uuid.New(),
		Type:    enums.TransactionTypePayment,
		Amount:  dec("50"),
	})
	require.NoError(t, err)

	t1 := time.Date(2026, 7, 2, 9, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return t1 }
	_, err = svc.UpdateTransaction(ctx, UpdateTransactionInput{TransactionID: txn.ID, Status: statusPtr(enums.TransactionStatusCompleted)})
	require.NoError(t, err)

	svc.now = func() time.Time { return t1.Add(6 * time.Hour) }
	updated, err := svc.UpdateTransaction(ctx, UpdateTransactionInput{TransactionID: txn.ID, Status: statusPtr(enums.TransactionStatusCompleted)})
	require.NoError(t, err)
	require.NotNil(t, updated.ProcessedAt)

	stored := loadTransaction(t, conn, txn.ID)
	require.NotNil(t, stored.ProcessedAt)
	assert.WithinDuration(t, t1, *stored.ProcessedAt, time.Second)
}

func TestUpdateTransactionRederivesNet(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()

	txn, err := svc.CreateTransaction(ctx, CreateTransactionInput{
		StoreID:    uuid.New(),
		Type:       enums.TransactionTypePayment,
		Amount:     dec("100"),
		GatewayFee: dec("3"),
	})
	require.NoError(t, err)
	assertDecimal(t, "97", txn.NetAmount)

	_, err = svc.UpdateTransaction(ctx, UpdateTransactionInput{TransactionID: txn.ID, PlatformFee: decPtr("2"), TaxAmount: decPtr("10")})
	require.NoError(t, err)
	assertDecimal(t, "85", loadTransaction(t, conn, txn.ID).NetAmount)

	_, err = svc.UpdateTransaction(ctx, UpdateTransactionInput{TransactionID: txn.ID, NetAmount: decPtr("80")})
	require.NoError(t, err)
	assertDecimal(t, "80", loadTransaction(t, conn, txn.ID).NetAmount)
}

func TestUpdateTransactionKeepsSuppliedNetOnStatusChange(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()

	txn, err := svc.CreateTransaction(ctx, CreateTransactionInput{
		StoreID:     uuid.New(),
		Type:        enums.TransactionTypePayment,
		Amount:      dec("100"),
		GatewayFee:  dec("3"),
		PlatformFee: dec("2"),
		NetAmount:   decPtr("90"),
	})
	require.NoError(t, err)

	updated, err := svc.UpdateTransaction(ctx, UpdateTransactionInput{TransactionID: txn.ID, Status: statusPtr(enums.TransactionStatusCompleted)})
	require.NoError(t, err)
	assertDecimal(t, "90", updated.NetAmount)

	stored := loadTransaction(t, conn, txn.ID)
	assertDecimal(t, "90", stored.NetAmount)
	assert.Equal(t, enums.TransactionStatusCompleted, stored.Status)
	require.NotNil(t, stored.ProcessedAt)

	_, err = svc.UpdateTransaction(ctx, UpdateTransactionInput{TransactionID: txn.ID, Amount: decPtr("120")})
	require.NoError(t, err)
	assertDecimal(t, "115", loadTransaction(t, conn, txn.ID).NetAmount)
}

func TestGetTransaction(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	txn, err := svc.CreateTransaction(ctx, CreateTransactionInput{StoreID: uuid.New(), Type: enums.TransactionTypePayment, Amount: dec("12")})
	require.NoError(t, err)

	got, err := svc.GetTransaction(ctx, txn.ID)
	require.NoError(t, err)
	assert.Equal(t, txn.ID, got.ID)
	assertDecimal(t, "12", got.NetAmount)

	_, err = svc.GetTransaction(ctx, uuid.New())
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
	_, err = svc.GetTransaction(ctx, uuid.Nil)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestUpdateTransactionErrors(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.UpdateTransaction(ctx, UpdateTransactionInput{})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = svc.UpdateTransaction(ctx, UpdateTransactionInput{TransactionID: uuid.New(), Status: statusPtr("settled")})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = svc.UpdateTransaction(ctx, UpdateTransactionInput{TransactionID: uuid.New()})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestMarkReconciled(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()

	pending, err := svc.CreateTransaction(ctx, CreateTransactionInput{StoreID: uuid.New(), Type: enums.TransactionTypePayment, Amount: dec("5")})
	require.NoError(t, err)
	_, err = svc.MarkReconciled(ctx, pending.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))

	done, err := svc.CreateTransaction(ctx, CreateTransactionInput{
		StoreID: uuid.New(),
		Type:    enums.TransactionTypePayment,
		Status:  enums.TransactionStatusCompleted,
		Amount:  dec("5"),
	})
	require.NoError(t, err)

	t1 := time.Date(2026, 7, 3, 0, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return t1 }
	first, err := svc.MarkReconciled(ctx, done.ID)
	require.NoError(t, err)
	assert.True(t, first.IsReconciled)

	svc.now = func() time.Time { return t1.Add(time.Hour) }
	_, err = svc.MarkReconciled(ctx, done.ID)
	require.NoError(t, err)

	stored := loadTransaction(t, conn, done.ID)
	assert.True(t, stored.IsReconciled)
	require.NotNil(t, stored.ReconciledAt)
	assert.WithinDuration(t, t1, *stored.ReconciledAt, time.Second)

	_, err = svc.MarkReconciled(ctx, uuid.New())
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestListByOrder(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	orderID := uuid.New()
	storeID := uuid.New()

	for _, typ := range []enums.TransactionType{enums.TransactionTypePayment, enums.TransactionTypeFee} {
		_, err := svc.CreateTransaction(ctx, CreateTransactionInput{StoreID: storeID, OrderID: &orderID, Type: typ, Amount: dec("1")})
		require.NoError(t, err)
	}
	_, err := svc.CreateTransaction(ctx, CreateTransactionInput{StoreID: storeID, Type: enums.TransactionTypeAdjustment, Amount: dec("1")})
	require.NoError(t, err)

	txns, err := svc.ListByOrder(ctx, orderID)
	require.NoError(t, err)
	assert.Len(t, txns, 2)

	_, err = svc.ListByOrder(ctx, uuid.Nil)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}
