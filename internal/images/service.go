package images

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-ledger/internal/singleton"
	"github.com/angelmondragon/storefront-ledger/pkg/db/models"
	pkgerrors "github.com/angelmondragon/storefront-ledger/pkg/errors"
	"github.com/angelmondragon/storefront-ledger/pkg/validators"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service manages product images. The main image flag always goes through
// singleton.ProductMainImage.
type Service interface {
	CreateImage(ctx context.Context, input CreateImageInput) (*models.ProductImage, error)
	UpdateImage(ctx context.Context, input UpdateImageInput) (*models.ProductImage, error)
	SetMainImage(ctx context.Context, imageID uuid.UUID) (*models.ProductImage, error)
	DeleteImage(ctx context.Context, imageID uuid.UUID) error
	GetImage(ctx context.Context, imageID uuid.UUID) (*models.ProductImage, error)
	ListByProduct(ctx context.Context, productID uuid.UUID) ([]models.ProductImage, error)
}

// CreateImageInput describes a new product image.
type CreateImageInput struct {
	ProductID uuid.UUID `json:"product_id"`
	StoreID   uuid.UUID `json:"store_id"`
	URL       string    `json:"url" validate:"required,url"`
	AltText   *string   `json:"alt_text" validate:"omitempty,max=255"`
	IsMain    bool      `json:"is_main"`
	SortOrder int       `json:"sort_order" validate:"min=0"`
	Width     *int      `json:"width" validate:"omitempty,min=1"`
	Height    *int      `json:"height" validate:"omitempty,min=1"`
	FileSize  *int64    `json:"file_size" validate:"omitempty,min=0"`
	MimeType  *string   `json:"mime_type" validate:"omitempty,max=100"`
}

// UpdateImageInput patches an image. Nil fields keep their stored value.
type UpdateImageInput struct {
	ImageID   uuid.UUID `json:"id"`
	URL       *string   `json:"url" validate:"omitempty,url"`
	AltText   *string   `json:"alt_text" validate:"omitempty,max=255"`
	IsMain    *bool     `json:"is_main"`
	SortOrder *int      `json:"sort_order" validate:"omitempty,min=0"`
}

type service struct {
	repo Repository
	tx   txRunner
}

// NewService wires the product image service.
func NewService(repo Repository, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("images repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, tx: tx}, nil
}

func (s *service) CreateImage(ctx context.Context, input CreateImageInput) (*models.ProductImage, error) {
	if input.ProductID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	if input.StoreID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "store id is required")
	}
	if err := validators.Struct(input); err != nil {
		return nil, err
	}

	image := &models.ProductImage{
		ProductID: input.ProductID,
		StoreID:   input.StoreID,
		URL:       input.URL,
		AltText:   input.AltText,
		SortOrder: input.SortOrder,
		Width:     input.Width,
		Height:    input.Height,
		FileSize:  input.FileSize,
		MimeType:  input.MimeType,
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).Create(ctx, image); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create product image")
		}
		if !input.IsMain {
			return nil
		}
		if err := singleton.ProductMainImage.Claim(ctx, tx, image.ProductID, image.ID); err != nil {
			return err
		}
		image.IsMain = true
		return nil
	})
	if err != nil {
		return nil, err
	}
	return image, nil
}

func (s *service) UpdateImage(ctx context.Context, input UpdateImageInput) (*models.ProductImage, error) {
	if input.ImageID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "image id is required")
	}
	if err := validators.Struct(input); err != nil {
		return nil, err
	}

	var result *models.ProductImage
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		image, err := repo.LockByID(ctx, input.ImageID)
		if err != nil {
			return mapNotFound(err, "load product image")
		}

		updates := map[string]any{}
		if input.URL != nil {
			image.URL = *input.URL
			updates["url"] = image.URL
		}
		if input.AltText != nil {
			image.AltText = input.AltText
			updates["alt_text"] = image.AltText
		}
		if input.SortOrder != nil {
			image.SortOrder = *input.SortOrder
			updates["sort_order"] = image.SortOrder
		}
		if input.IsMain != nil && !*input.IsMain {
			image.IsMain = false
			updates["is_main"] = false
		}
		if err := repo.Update(ctx, image.ID, updates); err != nil {
			return singleton.ProductMainImage.MapError(err)
		}

		if input.IsMain != nil && *input.IsMain {
			if err := singleton.ProductMainImage.Claim(ctx, tx, image.ProductID, image.ID); err != nil {
				return err
			}
			image.IsMain = true
		}
		result = image
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *service) SetMainImage(ctx context.Context, imageID uuid.UUID) (*models.ProductImage, error) {
	isMain := true
	return s.UpdateImage(ctx, UpdateImageInput{ImageID: imageID, IsMain: &isMain})
}

func (s *service) DeleteImage(ctx context.Context, imageID uuid.UUID) error {
	if imageID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "image id is required")
	}
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		image, err := repo.LockByID(ctx, imageID)
		if err != nil {
			return mapNotFound(err, "load product image")
		}
		if err := repo.Delete(ctx, image.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete product image")
		}
		return nil
	})
}

func (s *service) GetImage(ctx context.Context, imageID uuid.UUID) (*models.ProductImage, error) {
	if imageID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "image id is required")
	}
	image, err := s.repo.FindByID(ctx, imageID)
	if err != nil {
		return nil, mapNotFound(err, "load product image")
	}
	return image, nil
}

func (s *service) ListByProduct(ctx context.Context, productID uuid.UUID) ([]models.ProductImage, error) {
	if productID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	images, err := s.repo.ListByProduct(ctx, productID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list product images")
	}
	return images, nil
}

func mapNotFound(err error, msg string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "product image not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, msg)
}
