package services

import (
	"context"
	"fmt"
	"time"

	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"alfredoptarigan/resume-ranker/internal/models"
)

// PgvectorIndex stores resume vectors in Postgres and queries them with the
// pgvector `<->` (L2 distance) operator. Equal distances come back in
// insertion order via the created_at column; the Ranker still applies its
// own upload-order tie-break on top.
type PgvectorIndex struct {
	db *gorm.DB
}

func NewPgvectorIndex(db *gorm.DB) *PgvectorIndex {
	return &PgvectorIndex{db: db}
}

// Upsert implements VectorIndex.
func (p *PgvectorIndex) Upsert(ctx context.Context, id string, vector []float32, metadata map[string]string) error {
	if id == "" {
		return &IndexError{Op: "upsert", Err: fmt.Errorf("empty id")}
	}

	now := time.Now()
	row := models.ResumeVector{
		ID:            id,
		BatchID:       metadata["batch_id"],
		RecruiterID:   metadata["recruiter_id"],
		CandidateName: metadata["candidate_name"],
		Embedding:     pgvector.NewVector(vector),
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	err := p.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"batch_id", "recruiter_id", "candidate_name", "embedding", "updated_at",
		}),
	}).Create(&row).Error
	if err != nil {
		return &IndexError{Op: "upsert", Err: err}
	}

	return nil
}

type pgvectorNeighborRow struct {
	ID            string
	BatchID       string
	RecruiterID   string
	CandidateName string
	Distance      float64
}

// Query implements VectorIndex. The filter narrows the scan to one batch or
// recruiter; only those two columns are filterable.
func (p *PgvectorIndex) Query(ctx context.Context, vector []float32, limit int, filter map[string]string) ([]Neighbor, error) {
	if limit <= 0 {
		return nil, nil
	}

	embedding := pgvector.NewVector(vector)

	query := `
        SELECT id, batch_id, recruiter_id, candidate_name, embedding <-> ? AS distance
        FROM resume_vectors`
	args := []interface{}{embedding}

	conditions := ""
	for _, column := range []string{"batch_id", "recruiter_id"} {
		value, ok := filter[column]
		if !ok {
			continue
		}
		if conditions == "" {
			conditions = " WHERE " + column + " = ?"
		} else {
			conditions += " AND " + column + " = ?"
		}
		args = append(args, value)
	}

	query += conditions + `
        ORDER BY distance, created_at
        LIMIT ?`
	args = append(args, limit)

	var rows []pgvectorNeighborRow
	if err := p.db.WithContext(ctx).Raw(query, args...).Scan(&rows).Error; err != nil {
		return nil, &IndexError{Op: "query", Err: err}
	}

	neighbors := make([]Neighbor, 0, len(rows))
	for _, row := range rows {
		neighbors = append(neighbors, Neighbor{
			ID:       row.ID,
			Distance: float32(row.Distance),
			Metadata: map[string]string{
				"batch_id":       row.BatchID,
				"recruiter_id":   row.RecruiterID,
				"candidate_name": row.CandidateName,
			},
		})
	}

	return neighbors, nil
}
