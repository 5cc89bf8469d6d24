package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/unoerp/backend/internal/domain/document"
	"github.com/unoerp/backend/internal/domain/shared"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormMovementRepository implements MovementRepository using GORM
type GormMovementRepository struct {
	db *gorm.DB
}

// NewGormMovementRepository creates a new GormMovementRepository
func NewGormMovementRepository(db *gorm.DB) *GormMovementRepository {
	return &GormMovementRepository{db: db}
}

// Create inserts a movement with its ordinal assigned inside the insert
// transaction. The parent document row is locked so concurrent line intake
// for the same document serializes and ordinals never collide.
func (r *GormMovementRepository) Create(ctx context.Context, movement *document.Movement) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var doc document.Document
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Select("id").
			First(&doc, "id = ?", movement.DocumentID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return shared.ErrNotFound
			}
			return err
		}

		var maxNumber int64
		if err := tx.Model(&document.Movement{}).
			Where("document_id = ?", movement.DocumentID).
			Select("COALESCE(MAX(number), 0)").
			Scan(&maxNumber).Error; err != nil {
			return err
		}
		if err := movement.AssignNumber(maxNumber + 1); err != nil {
			return err
		}

		return tx.Create(movement).Error
	})
}

// FindByDocument returns the movements of a document ordered by number
func (r *GormMovementRepository) FindByDocument(ctx context.Context, documentID uuid.UUID) ([]document.Movement, error) {
	var movements []document.Movement
	if err := r.db.WithContext(ctx).
		Where("document_id = ?", documentID).
		Order("number").
		Find(&movements).Error; err != nil {
		return nil, err
	}
	return movements, nil
}

// Delete removes a movement
func (r *GormMovementRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Delete(&document.Movement{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}
