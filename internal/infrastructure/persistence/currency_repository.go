package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/unoerp/backend/internal/domain/finance"
	"github.com/unoerp/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// GormCurrencyRepository implements CurrencyRepository using GORM
type GormCurrencyRepository struct {
	db *gorm.DB
}

// NewGormCurrencyRepository creates a new GormCurrencyRepository
func NewGormCurrencyRepository(db *gorm.DB) *GormCurrencyRepository {
	return &GormCurrencyRepository{db: db}
}

// FindByCompanyAndCode finds a currency by its normalized 3-letter code
func (r *GormCurrencyRepository) FindByCompanyAndCode(ctx context.Context, companyID uuid.UUID, code string) (*finance.Currency, error) {
	var currency finance.Currency
	if err := r.db.WithContext(ctx).
		First(&currency, "company_id = ? AND code = ?", companyID, shared.NormalizeCode(code)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &currency, nil
}

// FindDefault returns the company's default currency
func (r *GormCurrencyRepository) FindDefault(ctx context.Context, companyID uuid.UUID) (*finance.Currency, error) {
	var currency finance.Currency
	if err := r.db.WithContext(ctx).
		First(&currency, "company_id = ? AND is_default", companyID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &currency, nil
}

// Save creates or updates a currency
func (r *GormCurrencyRepository) Save(ctx context.Context, currency *finance.Currency) error {
	if err := r.db.WithContext(ctx).Save(currency).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return shared.NewFieldError("DUPLICATE_CODE", "code",
				"A currency with this code already exists for the company")
		}
		return err
	}
	return nil
}
