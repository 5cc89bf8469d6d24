package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/unoerp/backend/internal/domain/finance"
	"github.com/unoerp/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// GormTaxRepository implements TaxRepository using GORM
type GormTaxRepository struct {
	db *gorm.DB
}

// NewGormTaxRepository creates a new GormTaxRepository
func NewGormTaxRepository(db *gorm.DB) *GormTaxRepository {
	return &GormTaxRepository{db: db}
}

// FindByID finds a tax rule by its ID
func (r *GormTaxRepository) FindByID(ctx context.Context, id uuid.UUID) (*finance.Tax, error) {
	var tax finance.Tax
	if err := r.db.WithContext(ctx).
		First(&tax, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &tax, nil
}

// Save creates or updates a tax rule
func (r *GormTaxRepository) Save(ctx context.Context, tax *finance.Tax) error {
	if err := r.db.WithContext(ctx).Save(tax).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return shared.NewFieldError("DUPLICATE_CODENAME", "codename",
				"A tax with this codename already exists for the company")
		}
		return err
	}
	return nil
}

// GormTaxReceiptRepository implements TaxReceiptRepository using GORM
type GormTaxReceiptRepository struct {
	db *gorm.DB
}

// NewGormTaxReceiptRepository creates a new GormTaxReceiptRepository
func NewGormTaxReceiptRepository(db *gorm.DB) *GormTaxReceiptRepository {
	return &GormTaxReceiptRepository{db: db}
}

// FindByID finds a tax receipt type by its ID
func (r *GormTaxReceiptRepository) FindByID(ctx context.Context, id uuid.UUID) (*finance.TaxReceipt, error) {
	var receipt finance.TaxReceipt
	if err := r.db.WithContext(ctx).
		First(&receipt, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &receipt, nil
}

// FindByCompanyAndCode finds a tax receipt type by its 2-character code
func (r *GormTaxReceiptRepository) FindByCompanyAndCode(ctx context.Context, companyID uuid.UUID, code string) (*finance.TaxReceipt, error) {
	var receipt finance.TaxReceipt
	if err := r.db.WithContext(ctx).
		Where("company_id = ? AND code = ?", companyID, code).
		First(&receipt).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &receipt, nil
}

// Save creates or updates a tax receipt type
func (r *GormTaxReceiptRepository) Save(ctx context.Context, receipt *finance.TaxReceipt) error {
	if err := r.db.WithContext(ctx).Save(receipt).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return shared.NewFieldError("DUPLICATE_RECEIPT", "code",
				"A tax receipt with this code or name already exists for the company")
		}
		return err
	}
	return nil
}
