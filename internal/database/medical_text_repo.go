package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kdimtricp/medannotate/internal/models"
	"gorm.io/gorm"
)

type MedicalTextRepository struct {
	db *DB
}

func NewMedicalTextRepository(db *DB) *MedicalTextRepository {
	return &MedicalTextRepository{db: db}
}

// AnnotationUpdate carries the fields a PUT may change. Nil fields are left untouched.
type AnnotationUpdate struct {
	Text         *string
	AnnotateTime *int
	Confidence   *float64
}

func (u AnnotationUpdate) empty() bool {
	return u.Text == nil && u.AnnotateTime == nil && u.Confidence == nil
}

// ListCandidates returns up to limit items with confidence <= threshold, least confident
// first. Ties fall back to insertion order and then id so the result is deterministic
// for a given table state. A limit <= 0 means no limit.
func (r *MedicalTextRepository) ListCandidates(ctx context.Context, threshold float64, limit int) ([]models.MedicalText, error) {
	query := r.db.GORM().WithContext(ctx).
		Where("confidence IS NOT NULL AND confidence <= ?", threshold).
		Order("confidence ASC").
		Order("created_at ASC").
		Order("id ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	texts := []models.MedicalText{}
	if err := query.Find(&texts).Error; err != nil {
		return nil, fmt.Errorf("failed to list candidates: %w", err)
	}
	return texts, nil
}

func (r *MedicalTextRepository) Create(ctx context.Context, text *models.MedicalText) error {
	if err := r.db.GORM().WithContext(ctx).Create(text).Error; err != nil {
		return fmt.Errorf("failed to insert medical text: %w", err)
	}
	return nil
}

// CreateBatch inserts all texts or none.
func (r *MedicalTextRepository) CreateBatch(ctx context.Context, texts []*models.MedicalText) error {
	if len(texts) == 0 {
		return nil
	}
	err := r.db.GORM().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, text := range texts {
			if err := tx.Create(text).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to insert medical texts: %w", err)
	}
	return nil
}

func (r *MedicalTextRepository) GetByID(ctx context.Context, id string) (*models.MedicalText, error) {
	var text models.MedicalText
	result := r.db.GORM().WithContext(ctx).First(&text, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get medical text: %w", result.Error)
	}
	return &text, nil
}

// UpdateAnnotation applies update to the item and returns the stored row.
func (r *MedicalTextRepository) UpdateAnnotation(ctx context.Context, id string, update AnnotationUpdate) (*models.MedicalText, error) {
	var updated *models.MedicalText
	err := r.db.GORM().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var text models.MedicalText
		if err := tx.First(&text, "id = ?", id).Error; err != nil {
			return err
		}

		if !update.empty() {
			changes := map[string]any{"updated_at": time.Now().UTC()}
			if update.Text != nil {
				changes["text"] = *update.Text
			}
			if update.AnnotateTime != nil {
				changes["annotate_time"] = *update.AnnotateTime
			}
			if update.Confidence != nil {
				changes["confidence"] = *update.Confidence
			}
			if err := tx.Model(&text).Updates(changes).Error; err != nil {
				return err
			}
		}

		if err := tx.First(&text, "id = ?", id).Error; err != nil {
			return err
		}
		updated = &text
		return nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to update medical text: %w", err)
	}
	return updated, nil
}

func (r *MedicalTextRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.GORM().WithContext(ctx).Model(&models.MedicalText{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count medical texts: %w", err)
	}
	return count, nil
}
