package models

type CreateJDRequest struct {
	RecruiterID string `json:"recruiter_id" validate:"required"`
	JobTitle    string `json:"job_title" validate:"required"`
	Content     string `json:"content" validate:"required"`
}

type ScreenCandidate struct {
	Rank            int     `json:"rank"`
	ResumeID        string  `json:"resume_id"`
	CandidateName   string  `json:"candidate_name"`
	Filename        string  `json:"filename"`
	SimilarityScore float64 `json:"similarity_score"`
	Distance        float64 `json:"distance"`
	Status          string  `json:"status"`
	Summary         string  `json:"summary"`
}

type ScreenFailure struct {
	Filename string `json:"filename"`
	Stage    string `json:"stage"`
	Reason   string `json:"reason"`
}

type ScreenResponse struct {
	BatchID        string            `json:"batch_id"`
	JobTitle       string            `json:"job_title,omitempty"`
	TotalUploaded  int               `json:"total_uploaded"`
	TotalProcessed int               `json:"total_processed"`
	TopK           int               `json:"top_k"`
	Results        []ScreenCandidate `json:"results"`
	Failures       []ScreenFailure   `json:"failures,omitempty"`
}

type ResultSummary struct {
	ID              string  `json:"id"`
	BatchID         string  `json:"batch_id"`
	CandidateName   string  `json:"candidate_name"`
	SimilarityScore float64 `json:"similarity_score"`
	Rank            int     `json:"rank"`
	Status          string  `json:"status"`
	CreatedAt       string  `json:"created_at"`
}
