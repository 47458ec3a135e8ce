package repositories

import (
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"alfredoptarigan/resume-ranker/internal/models"
)

type ScreeningRepository interface {
	CreateBatch(batch *models.ScreeningBatch) error
	FindBatchByID(id uuid.UUID) (*models.ScreeningBatch, error)
	FindResultsByRecruiter(recruiterID string, limit int) ([]models.ScreeningResult, error)
}

type screeningRepository struct {
	db *gorm.DB
}

func NewScreeningRepository(db *gorm.DB) ScreeningRepository {
	return &screeningRepository{db: db}
}

// CreateBatch implements ScreeningRepository. The batch and its results are
// written in one transaction.
func (r *screeningRepository) CreateBatch(batch *models.ScreeningBatch) error {
	if err := r.db.Create(batch).Error; err != nil {
		return fmt.Errorf("failed to create screening batch: %w", err)
	}

	return nil
}

// FindBatchByID implements ScreeningRepository.
func (r *screeningRepository) FindBatchByID(id uuid.UUID) (*models.ScreeningBatch, error) {
	var batch models.ScreeningBatch
	err := r.db.Preload("Results", func(db *gorm.DB) *gorm.DB {
		return db.Order("rank ASC")
	}).Where("id = ?", id).First(&batch).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("screening batch not found: %w", err)
		}

		return nil, fmt.Errorf("failed to find screening batch: %w", err)
	}

	return &batch, nil
}

// FindResultsByRecruiter implements ScreeningRepository. Most recent first.
func (r *screeningRepository) FindResultsByRecruiter(recruiterID string, limit int) ([]models.ScreeningResult, error) {
	if limit <= 0 {
		limit = 100
	}

	var results []models.ScreeningResult
	err := r.db.
		Joins("JOIN screening_batches ON screening_batches.id = screening_results.batch_id").
		Where("screening_batches.recruiter_id = ?", recruiterID).
		Order("screening_results.created_at DESC").
		Limit(limit).
		Find(&results).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list screening results: %w", err)
	}

	return results, nil
}
