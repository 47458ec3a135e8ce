package models

import (
	"time"

	"github.com/google/uuid"
)

type JobDescription struct {
	ID          uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	RecruiterID string    `gorm:"type:text;index" json:"recruiter_id"`
	JobTitle    string    `gorm:"type:text" json:"job_title"`
	Content     string    `gorm:"type:text" json:"content"`
	CreatedAt   time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt   time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (JobDescription) TableName() string {
	return "job_descriptions"
}
