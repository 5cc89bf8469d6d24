package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/unoerp/backend/internal/domain/finance"
	"github.com/unoerp/backend/internal/domain/shared"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// numberBatchSize is the insert batch size for materialized receipt numbers.
const numberBatchSize = 1000

// GormAuthorizationRepository implements AuthorizationRepository using GORM
type GormAuthorizationRepository struct {
	db *gorm.DB
}

// NewGormAuthorizationRepository creates a new GormAuthorizationRepository
func NewGormAuthorizationRepository(db *gorm.DB) *GormAuthorizationRepository {
	return &GormAuthorizationRepository{db: db}
}

// CreateWithNumbers persists the authorization and its full number range in
// one transaction. A duplicate anywhere, the authorization itself or any
// number in the range, rolls everything back.
func (r *GormAuthorizationRepository) CreateWithNumbers(ctx context.Context, auth *finance.TaxReceiptAuthorization, numbers []finance.TaxReceiptNumber) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(auth).Error; err != nil {
			return err
		}
		if len(numbers) == 0 {
			return nil
		}
		return tx.CreateInBatches(numbers, numberBatchSize).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return shared.NewDomainError("DUPLICATE_RECEIPT_NUMBER",
				"The range overlaps receipt numbers that already exist for this receipt type")
		}
		return err
	}
	return nil
}

// FindByID finds an authorization by ID
func (r *GormAuthorizationRepository) FindByID(ctx context.Context, id uuid.UUID) (*finance.TaxReceiptAuthorization, error) {
	var auth finance.TaxReceiptAuthorization
	if err := r.db.WithContext(ctx).
		First(&auth, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &auth, nil
}

// FindByReceipt returns the authorizations granted for a receipt type
func (r *GormAuthorizationRepository) FindByReceipt(ctx context.Context, taxReceiptID uuid.UUID) ([]finance.TaxReceiptAuthorization, error) {
	var auths []finance.TaxReceiptAuthorization
	if err := r.db.WithContext(ctx).
		Where("tax_receipt_id = ?", taxReceiptID).
		Order("expiration_date").
		Find(&auths).Error; err != nil {
		return nil, err
	}
	return auths, nil
}

// Numbers returns every receipt number linked to the authorization
func (r *GormAuthorizationRepository) Numbers(ctx context.Context, authorizationID uuid.UUID) ([]finance.TaxReceiptNumber, error) {
	var numbers []finance.TaxReceiptNumber
	if err := r.db.WithContext(ctx).
		Where("authorization_id = ?", authorizationID).
		Order("number").
		Find(&numbers).Error; err != nil {
		return nil, err
	}
	return numbers, nil
}

// IsNumberUsed reports whether a document already references the number
func (r *GormAuthorizationRepository) IsNumberUsed(ctx context.Context, numberID uuid.UUID) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Table("documents").
		Where("tax_receipt_number_id = ?", numberID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// FindNumberByID finds a materialized receipt number by ID
func (r *GormAuthorizationRepository) FindNumberByID(ctx context.Context, id uuid.UUID) (*finance.TaxReceiptNumber, error) {
	var number finance.TaxReceiptNumber
	if err := r.db.WithContext(ctx).
		First(&number, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &number, nil
}

// ClaimForDocument draws and links the lowest unused receipt number of the
// given type in one transaction. The claimed row is locked with SKIP LOCKED,
// so concurrent claimers pass each other to the next free number instead of
// queueing, and the lock holds until the document link commits. The guarded
// update only touches a document whose link column is still empty, and the
// unique one-to-one index on that column backstops anything that slips
// through.
func (r *GormAuthorizationRepository) ClaimForDocument(ctx context.Context, taxReceiptID, documentID uuid.UUID, now time.Time) (*finance.TaxReceiptNumber, error) {
	var number finance.TaxReceiptNumber
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.
			Select("tax_receipt_numbers.*").
			Clauses(clause.Locking{
				Strength: "UPDATE",
				Table:    clause.Table{Name: "tax_receipt_numbers"},
				Options:  "SKIP LOCKED",
			}).
			Joins("JOIN tax_receipt_authorizations ON tax_receipt_authorizations.id = tax_receipt_numbers.authorization_id").
			Where("tax_receipt_numbers.tax_receipt_id = ?", taxReceiptID).
			Where("tax_receipt_authorizations.expiration_date >= ?", now).
			Where("NOT EXISTS (SELECT 1 FROM documents WHERE documents.tax_receipt_number_id = tax_receipt_numbers.id)").
			Order("tax_receipt_numbers.number").
			First(&number).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return shared.ErrNotFound
			}
			return err
		}

		res := tx.Table("documents").
			Where("id = ? AND tax_receipt_number_id IS NULL", documentID).
			Update("tax_receipt_number_id", number.ID)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return shared.ErrConcurrencyConflict
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, shared.NewDomainError("RECEIPT_NUMBER_USED",
				"The fiscal receipt number is already claimed by another document")
		}
		return nil, err
	}
	return &number, nil
}

// CountAvailable counts unused, unexpired numbers for a receipt type
func (r *GormAuthorizationRepository) CountAvailable(ctx context.Context, taxReceiptID uuid.UUID, now time.Time) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&finance.TaxReceiptNumber{}).
		Joins("JOIN tax_receipt_authorizations ON tax_receipt_authorizations.id = tax_receipt_numbers.authorization_id").
		Where("tax_receipt_numbers.tax_receipt_id = ?", taxReceiptID).
		Where("tax_receipt_authorizations.expiration_date >= ?", now).
		Where("NOT EXISTS (SELECT 1 FROM documents WHERE documents.tax_receipt_number_id = tax_receipt_numbers.id)").
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
