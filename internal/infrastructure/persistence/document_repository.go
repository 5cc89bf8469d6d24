package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/unoerp/backend/internal/domain/document"
	"github.com/unoerp/backend/internal/domain/shared"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// maxSequenceRetries bounds how often a create retries after losing a
// sequence race to the unique (doc_type_id, sequence) index.
const maxSequenceRetries = 3

// GormDocumentRepository implements DocumentRepository using GORM
type GormDocumentRepository struct {
	db *gorm.DB
}

// NewGormDocumentRepository creates a new GormDocumentRepository
func NewGormDocumentRepository(db *gorm.DB) *GormDocumentRepository {
	return &GormDocumentRepository{db: db}
}

// Create inserts a document with its per-doctype sequence assigned inside the
// insert transaction. The document type row is locked to serialize sequence
// allocation; the unique index backstops any race that slips through, in
// which case the insert is retried with a fresh sequence.
func (r *GormDocumentRepository) Create(ctx context.Context, doc *document.Document) error {
	for attempt := 0; attempt < maxSequenceRetries; attempt++ {
		err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			var doctype document.DocumentType
			if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
				First(&doctype, "id = ?", doc.DocTypeID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return shared.ErrNotFound
				}
				return err
			}
			if doc.DocType == nil {
				doc.DocType = &doctype
			}

			var maxSeq int64
			if err := tx.Model(&document.Document{}).
				Where("doc_type_id = ?", doc.DocTypeID).
				Select("COALESCE(MAX(sequence), 0)").
				Scan(&maxSeq).Error; err != nil {
				return err
			}
			if err := doc.AssignSequence(maxSeq + 1); err != nil {
				return err
			}

			return tx.Omit("DocType", "Movements").Create(doc).Error
		})
		if err == nil {
			return nil
		}
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			doc.Sequence = 0
			doc.Number = ""
			continue
		}
		return err
	}
	return shared.ErrConcurrencyConflict
}

// FindByID finds a document by ID with its type preloaded
func (r *GormDocumentRepository) FindByID(ctx context.Context, id uuid.UUID) (*document.Document, error) {
	var doc document.Document
	if err := r.db.WithContext(ctx).
		Preload("DocType").
		First(&doc, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &doc, nil
}

// Recalculate re-derives the document's monetary fields from its movements
// under a row lock. The four columns are written only when at least one of
// them changed; unchanged recalculations leave the row untouched.
func (r *GormDocumentRepository) Recalculate(ctx context.Context, documentID uuid.UUID) (document.Totals, bool, error) {
	var totals document.Totals
	var changed bool

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var doc document.Document
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&doc, "id = ?", documentID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return shared.ErrNotFound
			}
			return err
		}

		var sums struct {
			Amount   decimal.Decimal
			Discount decimal.Decimal
			Tax      decimal.Decimal
		}
		if err := tx.Model(&document.Movement{}).
			Where("document_id = ?", documentID).
			Select("COALESCE(SUM(price * quantity), 0) AS amount, " +
				"COALESCE(SUM(discount), 0) AS discount, " +
				"COALESCE(SUM(tax), 0) AS tax").
			Scan(&sums).Error; err != nil {
			return err
		}

		totals = document.Totals{
			Amount:   sums.Amount,
			Discount: sums.Discount,
			Tax:      sums.Tax,
			Total:    sums.Amount.Sub(sums.Discount).Add(sums.Tax),
		}
		changed = doc.ApplyTotals(totals)
		if !changed {
			return nil
		}

		return tx.Model(&document.Document{}).
			Where("id = ?", documentID).
			Updates(map[string]any{
				"amount":   totals.Amount,
				"discount": totals.Discount,
				"tax":      totals.Tax,
				"total":    totals.Total,
			}).Error
	})
	if err != nil {
		return document.Totals{}, false, err
	}
	return totals, changed, nil
}
