package models

import (
	"time"

	"github.com/google/uuid"
)

// ScreeningBatch is one completed ranking run, stored so recruiters can
// come back to the results without re-embedding anything.
type ScreeningBatch struct {
	ID             uuid.UUID  `gorm:"type:uuid;primary_key" json:"id"`
	RecruiterID    string     `gorm:"type:text;index" json:"recruiter_id"`
	JDID           *uuid.UUID `gorm:"type:uuid" json:"jd_id,omitempty"`
	JobTitle       string     `gorm:"type:text" json:"job_title"`
	JDText         string     `gorm:"type:text" json:"-"`
	TopKRequested  int        `json:"top_k_requested"`
	TopK           int        `json:"top_k"`
	TotalUploaded  int        `json:"total_uploaded"`
	TotalProcessed int        `json:"total_processed"`
	CreatedAt      time.Time  `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`

	// Relations
	Results []ScreeningResult `gorm:"foreignKey:BatchID" json:"results"`
}

func (ScreeningBatch) TableName() string {
	return "screening_batches"
}

// ScreeningResult is one ranked candidate inside a batch.
type ScreeningResult struct {
	ID              uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	BatchID         uuid.UUID `gorm:"type:uuid;not null;index" json:"batch_id"`
	ResumeID        string    `gorm:"type:text" json:"resume_id"`
	CandidateName   string    `gorm:"type:text" json:"candidate_name"`
	Filename        string    `gorm:"type:text" json:"filename"`
	ResumePath      string    `gorm:"type:text" json:"resume_path"`
	SimilarityScore float64   `json:"similarity_score"`
	Distance        float64   `json:"distance"`
	Rank            int       `json:"rank"`
	Status          string    `gorm:"type:text" json:"status"`
	Summary         string    `gorm:"type:text" json:"summary"`
	CreatedAt       time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
}

func (ScreeningResult) TableName() string {
	return "screening_results"
}
