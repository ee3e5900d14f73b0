package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"finance-doc-analyzer/internal/model"
)

var ErrDocumentNotFound = errors.New("document not found")

type DocumentRepository struct {
	db *gorm.DB
}

func NewDocumentRepository(db *gorm.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

func (r *DocumentRepository) Create(ctx context.Context, doc *model.Document) error {
	if doc.AnalysisResults == nil {
		doc.AnalysisResults = model.AnalysisResults{}
	}
	if err := r.db.WithContext(ctx).Create(doc).Error; err != nil {
		return fmt.Errorf("create document failed: %w", err)
	}
	return nil
}

func (r *DocumentRepository) Exists(ctx context.Context, id string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&model.Document{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, fmt.Errorf("check document exists failed: %w", err)
	}
	return count > 0, nil
}

// GetByID returns nil, nil when the document does not exist.
func (r *DocumentRepository) GetByID(ctx context.Context, id string) (*model.Document, error) {
	var doc model.Document
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&doc).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get document failed: %w", err)
	}
	if doc.AnalysisResults == nil {
		doc.AnalysisResults = model.AnalysisResults{}
	}
	return &doc, nil
}

func (r *DocumentRepository) ListRecent(ctx context.Context, limit int) ([]model.Document, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	var list []model.Document
	if err := r.db.WithContext(ctx).Order("uploaded_at DESC").Limit(limit).Find(&list).Error; err != nil {
		return nil, fmt.Errorf("list documents failed: %w", err)
	}
	return list, nil
}

// ReplaceAnalysisResults overwrites the whole analysis_results column while
// holding a row lock, so two runs for the same document cannot interleave.
func (r *DocumentRepository) ReplaceAnalysisResults(ctx context.Context, id string, results model.AnalysisResults) error {
	if results == nil {
		results = model.AnalysisResults{}
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var doc model.Document
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Select("id").
			Where("id = ?", id).
			First(&doc).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrDocumentNotFound
			}
			return fmt.Errorf("lock document failed: %w", err)
		}

		if err := tx.Model(&doc).Select("AnalysisResults").Updates(&model.Document{AnalysisResults: results}).Error; err != nil {
			return fmt.Errorf("replace analysis results failed: %w", err)
		}
		return nil
	})
}

// DeleteByID returns the number of removed documents.
func (r *DocumentRepository) DeleteByID(ctx context.Context, id string) (int64, error) {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.Document{})
	if result.Error != nil {
		return 0, fmt.Errorf("delete document failed: %w", result.Error)
	}
	return result.RowsAffected, nil
}
