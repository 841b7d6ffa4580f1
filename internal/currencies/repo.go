package currencies

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-ledger/pkg/db"
	"github.com/angelmondragon/storefront-ledger/pkg/db/models"
)

// Repository manages persistence for store currencies.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, currency *models.Currency) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Currency, error)
	LockByID(ctx context.Context, id uuid.UUID) (*models.Currency, error)
	FindActiveByCode(ctx context.Context, storeID uuid.UUID, code string) (*models.Currency, error)
	LockActiveByStore(ctx context.Context, storeID uuid.UUID) ([]models.Currency, error)
	LockByStore(ctx context.Context, storeID uuid.UUID) ([]models.Currency, error)
	ListByStore(ctx context.Context, storeID uuid.UUID) ([]models.Currency, error)
	ListStoreIDs(ctx context.Context) ([]uuid.UUID, error)
	Update(ctx context.Context, id uuid.UUID, updates map[string]any) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a currencies repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, currency *models.Currency) error {
	return r.db.WithContext(ctx).Create(currency).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Currency, error) {
	var currency models.Currency
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&currency).Error; err != nil {
		return nil, err
	}
	return &currency, nil
}

func (r *repository) LockByID(ctx context.Context, id uuid.UUID) (*models.Currency, error) {
	var currency models.Currency
	if err := db.ForUpdate(r.db.WithContext(ctx)).Where("id = ?", id).First(&currency).Error; err != nil {
		return nil, err
	}
	return &currency, nil
}

func (r *repository) FindActiveByCode(ctx context.Context, storeID uuid.UUID, code string) (*models.Currency, error) {
	var currency models.Currency
	err := r.db.WithContext(ctx).
		Where("store_id = ? AND code = ? AND is_active = ?", storeID, code, true).
		First(&currency).Error
	if err != nil {
		return nil, err
	}
	return &currency, nil
}

func (r *repository) LockActiveByStore(ctx context.Context, storeID uuid.UUID) ([]models.Currency, error) {
	var currencies []models.Currency
	err := db.ForUpdate(r.db.WithContext(ctx)).
		Where("store_id = ? AND is_active = ?", storeID, true).
		Order("code ASC").
		Find(&currencies).Error
	if err != nil {
		return nil, err
	}
	return currencies, nil
}

func (r *repository) LockByStore(ctx context.Context, storeID uuid.UUID) ([]models.Currency, error) {
	var currencies []models.Currency
	err := db.ForUpdate(r.db.WithContext(ctx)).
		Where("store_id = ?", storeID).
		Order("code ASC").
		Find(&currencies).Error
	if err != nil {
		return nil, err
	}
	return currencies, nil
}

func (r *repository) ListByStore(ctx context.Context, storeID uuid.UUID) ([]models.Currency, error) {
	var currencies []models.Currency
	err := r.db.WithContext(ctx).
		Where("store_id = ?", storeID).
		Order("code ASC").
		Find(&currencies).Error
	if err != nil {
		return nil, err
	}
	return currencies, nil
}

func (r *repository) ListStoreIDs(ctx context.Context) ([]uuid.UUID, error) {
	var raw []string
	err := r.db.WithContext(ctx).
		Model(&models.Currency{}).
		Distinct("store_id").
		Order("store_id ASC").
		Pluck("store_id", &raw).Error
	if err != nil {
		return nil, err
	}
	ids := make([]uuid.UUID, 0, len(raw))
	for _, s := range raw {
		id, err := uuid.Parse(s)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (r *repository) Update(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	if len(updates) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Model(&models.Currency{}).
		Where("id = ?", id).
		Updates(updates).Error
}
