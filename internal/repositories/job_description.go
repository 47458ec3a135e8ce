package repositories

import (
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"alfredoptarigan/resume-ranker/internal/models"
)

type JobDescriptionRepository interface {
	Create(jd *models.JobDescription) error
	FindByID(id uuid.UUID) (*models.JobDescription, error)
	FindByRecruiter(recruiterID string) ([]models.JobDescription, error)
}

type jobDescriptionRepository struct {
	db *gorm.DB
}

func NewJobDescriptionRepository(db *gorm.DB) JobDescriptionRepository {
	return &jobDescriptionRepository{db: db}
}

// Create implements JobDescriptionRepository.
func (r *jobDescriptionRepository) Create(jd *models.JobDescription) error {
	if err := r.db.Create(jd).Error; err != nil {
		return fmt.Errorf("failed to create job description: %w", err)
	}

	return nil
}

// FindByID implements JobDescriptionRepository.
func (r *jobDescriptionRepository) FindByID(id uuid.UUID) (*models.JobDescription, error) {
	var jd models.JobDescription
	if err := r.db.Where("id = ?", id).First(&jd).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("job description not found: %w", err)
		}

		return nil, fmt.Errorf("failed to find job description: %w", err)
	}

	return &jd, nil
}

// FindByRecruiter implements JobDescriptionRepository.
func (r *jobDescriptionRepository) FindByRecruiter(recruiterID string) ([]models.JobDescription, error) {
	var jds []models.JobDescription
	if err := r.db.Where("recruiter_id = ?", recruiterID).Order("created_at DESC").Find(&jds).Error; err != nil {
		return nil, fmt.Errorf("failed to list job descriptions: %w", err)
	}

	return jds, nil
}
