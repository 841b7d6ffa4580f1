// Package singleton keeps "at most one true" boolean flags consistent across
// sibling rows that share a group key.
package singleton

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-ledger/pkg/db"
	pkgerrors "github.com/angelmondragon/storefront-ledger/pkg/errors"
)

// Flag names a boolean column that may be true on at most one row per group.
// Constraint is the partial unique index backing the rule in the schema.
type Flag struct {
	Table       string
	GroupColumn string
	FlagColumn  string
	Constraint  string
}

var (
	ProductMainImage = Flag{
		Table:       "product_images",
		GroupColumn: "product_id",
		FlagColumn:  "is_main",
		Constraint:  "idx_product_images_main",
	}
	StoreDefaultCurrency = Flag{
		Table:       "currencies",
		GroupColumn: "store_id",
		FlagColumn:  "is_default",
		Constraint:  "idx_currencies_store_default",
	}
	StoreBaseCurrency = Flag{
		Table:       "currencies",
		GroupColumn: "store_id",
		FlagColumn:  "is_base_currency",
		Constraint:  "idx_currencies_store_base",
	}
)

// Clear unsets the flag on every row of the group except ownerID. It must run
// in the same transaction that later writes the owner row with the flag set.
func (f Flag) Clear(ctx context.Context, tx *gorm.DB, groupID, ownerID uuid.UUID) (int64, error) {
	if tx == nil {
		return 0, pkgerrors.New(pkgerrors.CodeInternal, "singleton clear requires a transaction")
	}
	if groupID == uuid.Nil {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("%s is required", f.GroupColumn))
	}

	res := tx.WithContext(ctx).
		Table(f.Table).
		Where(fmt.Sprintf("%s = ? AND %s = ? AND id <> ?", f.GroupColumn, f.FlagColumn), groupID, true, ownerID).
		Updates(map[string]any{
			f.FlagColumn: false,
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, fmt.Sprintf("clear %s.%s", f.Table, f.FlagColumn))
	}
	return res.RowsAffected, nil
}

// Claim clears every other holder of the flag and marks ownerID as the holder.
// ownerID must already exist in the group.
func (f Flag) Claim(ctx context.Context, tx *gorm.DB, groupID, ownerID uuid.UUID) error {
	if ownerID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "owner id is required")
	}
	if _, err := f.Clear(ctx, tx, groupID, ownerID); err != nil {
		return err
	}

	res := tx.WithContext(ctx).
		Table(f.Table).
		Where(fmt.Sprintf("id = ? AND %s = ?", f.GroupColumn), ownerID, groupID).
		Updates(map[string]any{
			f.FlagColumn: true,
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return f.MapError(res.Error)
	}
	if res.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("%s row not found in group", f.Table))
	}
	return nil
}

// Holders returns the ids of the rows currently holding the flag.
func (f Flag) Holders(ctx context.Context, conn *gorm.DB, groupID uuid.UUID) ([]uuid.UUID, error) {
	var raw []string
	err := conn.WithContext(ctx).
		Table(f.Table).
		Where(fmt.Sprintf("%s = ? AND %s = ?", f.GroupColumn, f.FlagColumn), groupID, true).
		Order("id").
		Pluck("id", &raw).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, fmt.Sprintf("list %s holders", f.FlagColumn))
	}

	ids := make([]uuid.UUID, 0, len(raw))
	for _, r := range raw {
		id, err := uuid.Parse(r)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "parse holder id")
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// MapError turns a violation of the flag's unique index into a retryable
// conflict. Any other error is reported as a storage failure.
func (f Flag) MapError(err error) error {
	if err == nil {
		return nil
	}
	if f.IsViolation(err) {
		return pkgerrors.Wrap(pkgerrors.CodeConflict, err, fmt.Sprintf("concurrent %s update, retry", f.FlagColumn)).
			WithDetails(map[string]any{"constraint": f.Constraint})
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, fmt.Sprintf("write %s", f.Table))
}

// IsViolation reports whether err came from the flag's unique index.
func (f Flag) IsViolation(err error) bool {
	if db.IsUniqueViolation(err, f.Constraint) {
		return true
	}
	// sqlite names the indexed columns instead of the index
	return db.IsUniqueViolation(err, "") &&
		strings.HasSuffix(err.Error(), "UNIQUE constraint failed: "+f.Table+"."+f.GroupColumn)
}
