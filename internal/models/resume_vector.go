package models

import (
	"time"

	"github.com/pgvector/pgvector-go"
)

// ResumeVector is one embedded resume persisted in Postgres. Keyed by the
// deterministic resume id so re-screening the same document overwrites the
// row instead of growing the table.
type ResumeVector struct {
	ID            string          `gorm:"primaryKey" json:"id"`
	BatchID       string          `gorm:"index" json:"batch_id"`
	RecruiterID   string          `gorm:"index" json:"recruiter_id"`
	CandidateName string          `gorm:"type:text" json:"candidate_name"`
	Embedding     pgvector.Vector `gorm:"type:vector(3072)" json:"-"`
	CreatedAt     time.Time       `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt     time.Time       `gorm:"default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (ResumeVector) TableName() string {
	return "resume_vectors"
}
