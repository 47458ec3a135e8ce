package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"alfredoptarigan/resume-ranker/internal/models"
	"alfredoptarigan/resume-ranker/internal/repositories"
)

type ResultHandler struct {
	screeningRepo repositories.ScreeningRepository
}

func NewResultHandler(screeningRepo repositories.ScreeningRepository) *ResultHandler {
	return &ResultHandler{
		screeningRepo: screeningRepo,
	}
}

// HandleGetBatch returns one stored screening batch with its ranked
// candidates.
func (h *ResultHandler) HandleGetBatch(c *fiber.Ctx) error {
	idParam := c.Params("id")
	batchID, err := uuid.Parse(idParam)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid batch ID format",
		})
	}

	batch, err := h.screeningRepo.FindBatchByID(batchID)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Screening batch not found",
		})
	}

	return c.JSON(batch)
}

// HandleGetRecruiterResults lists a recruiter's recent ranked candidates,
// newest first.
func (h *ResultHandler) HandleGetRecruiterResults(c *fiber.Ctx) error {
	recruiterID := c.Params("recruiterId")
	if recruiterID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "recruiter ID is required",
		})
	}

	results, err := h.screeningRepo.FindResultsByRecruiter(recruiterID, 100)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to retrieve screening results",
		})
	}

	summaries := make([]models.ResultSummary, 0, len(results))
	for _, result := range results {
		summaries = append(summaries, models.ResultSummary{
			ID:              result.ID.String(),
			BatchID:         result.BatchID.String(),
			CandidateName:   result.CandidateName,
			SimilarityScore: result.SimilarityScore,
			Rank:            result.Rank,
			Status:          result.Status,
			CreatedAt:       result.CreatedAt.Format(time.RFC3339),
		})
	}

	return c.JSON(summaries)
}
