package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/unoerp/backend/internal/domain/document"
	"github.com/unoerp/backend/internal/domain/finance"
	"github.com/unoerp/backend/internal/domain/shared"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormTransactionRepository implements TransactionRepository using GORM
type GormTransactionRepository struct {
	db *gorm.DB
}

// NewGormTransactionRepository creates a new GormTransactionRepository
func NewGormTransactionRepository(db *gorm.DB) *GormTransactionRepository {
	return &GormTransactionRepository{db: db}
}

// Create posts a transaction with its per-document ordinal assigned inside
// the insert transaction. The parent document row is locked so concurrent
// postings serialize.
func (r *GormTransactionRepository) Create(ctx context.Context, transaction *finance.Transaction) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var doc document.Document
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Select("id").
			First(&doc, "id = ?", transaction.DocumentID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return shared.ErrNotFound
			}
			return err
		}

		var maxNumber int64
		if err := tx.Model(&finance.Transaction{}).
			Where("document_id = ?", transaction.DocumentID).
			Select("COALESCE(MAX(number), 0)").
			Scan(&maxNumber).Error; err != nil {
			return err
		}
		if err := transaction.AssignNumber(maxNumber + 1); err != nil {
			return err
		}

		return tx.Create(transaction).Error
	})
}

// FindByDocument returns the transactions posted against a document
func (r *GormTransactionRepository) FindByDocument(ctx context.Context, documentID uuid.UUID) ([]finance.Transaction, error) {
	var transactions []finance.Transaction
	if err := r.db.WithContext(ctx).
		Where("document_id = ?", documentID).
		Order("number").
		Find(&transactions).Error; err != nil {
		return nil, err
	}
	return transactions, nil
}

// SumByMode totals the normalized amounts of one mode for a document
func (r *GormTransactionRepository) SumByMode(ctx context.Context, documentID uuid.UUID, mode finance.TransactionMode) (decimal.Decimal, error) {
	var sum decimal.Decimal
	if err := r.db.WithContext(ctx).
		Model(&finance.Transaction{}).
		Where("document_id = ? AND mode = ?", documentID, mode).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&sum).Error; err != nil {
		return decimal.Zero, err
	}
	return sum, nil
}
