package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"alfredoptarigan/resume-ranker/internal/models"
	"alfredoptarigan/resume-ranker/internal/repositories"
	"alfredoptarigan/resume-ranker/internal/services"
)

type ScreenHandler struct {
	ranker         services.RankerService
	jdRepo         repositories.JobDescriptionRepository
	screeningRepo  repositories.ScreeningRepository
	storageService services.StorageService
	maxFileSize    int64
	batchTimeout   time.Duration
}

func NewScreenHandler(
	ranker services.RankerService,
	jdRepo repositories.JobDescriptionRepository,
	screeningRepo repositories.ScreeningRepository,
	storageService services.StorageService,
	maxFileSize int64,
	batchTimeout time.Duration,
) *ScreenHandler {
	return &ScreenHandler{
		ranker:         ranker,
		jdRepo:         jdRepo,
		screeningRepo:  screeningRepo,
		storageService: storageService,
		maxFileSize:    maxFileSize,
		batchTimeout:   batchTimeout,
	}
}

// HandleScreen ranks a batch of uploaded resumes against a job description
// and returns the top-K candidates. Per-resume failures show up in the
// failures list, not as a request error.
func (h *ScreenHandler) HandleScreen(c *fiber.Ctx) error {
	form, err := c.MultipartForm()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "failed to parse multipart form",
		})
	}

	files := form.File["resumes"]
	if len(files) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "at least one resume file is required",
		})
	}

	recruiterID := c.FormValue("recruiter_id")
	if recruiterID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "recruiter_id is required",
		})
	}

	jdText := c.FormValue("jd_text")
	jdIDParam := c.FormValue("jd_id")
	if jdText == "" && jdIDParam == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "either jd_text or jd_id must be provided",
		})
	}

	topK := 5
	if v := c.FormValue("top_k"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "top_k must be an integer",
			})
		}
		topK = parsed
	}

	var jobTitle string
	var jdID *uuid.UUID
	if jdIDParam != "" {
		parsed, err := uuid.Parse(jdIDParam)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid jd_id format",
			})
		}

		jd, err := h.jdRepo.FindByID(parsed)
		if err != nil {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "job description not found",
			})
		}

		jdID = &parsed
		jdText = jd.Content
		jobTitle = jd.JobTitle
	}

	docs := make([]services.ResumeDocument, 0, len(files))
	storedPaths := make(map[string]string)

	for _, file := range files {
		if file.Size > h.maxFileSize {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": fmt.Sprintf("file %s too large. Max size: %d bytes", file.Filename, h.maxFileSize),
			})
		}

		src, err := file.Open()
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": fmt.Sprintf("failed to open uploaded file %s: %v", file.Filename, err),
			})
		}

		data, err := io.ReadAll(src)
		src.Close()
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": fmt.Sprintf("failed to read uploaded file %s: %v", file.Filename, err),
			})
		}

		// Saving the original file is best-effort; the ranking itself
		// works from the in-memory bytes.
		if _, path, err := h.storageService.SaveResume(file.Filename, data); err != nil {
			log.Printf("⚠️ Failed to save resume %s: %v\n", file.Filename, err)
		} else {
			storedPaths[file.Filename] = path
		}

		docs = append(docs, services.ResumeDocument{
			Filename: file.Filename,
			Data:     data,
		})
	}

	ctx, cancel := context.WithTimeout(c.UserContext(), h.batchTimeout)
	defer cancel()

	result, err := h.ranker.Rank(ctx, recruiterID, jdText, docs, topK)
	if err != nil {
		var invalidInput *services.InvalidInputError
		if errors.As(err, &invalidInput) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": invalidInput.Error(),
			})
		}

		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	h.persistBatch(recruiterID, jobTitle, jdText, jdID, result, storedPaths)

	return c.JSON(buildScreenResponse(jobTitle, result))
}

// persistBatch stores the batch and its ranked candidates for later
// retrieval. A storage failure is logged, not surfaced: the ranking already
// succeeded.
func (h *ScreenHandler) persistBatch(
	recruiterID, jobTitle, jdText string,
	jdID *uuid.UUID,
	result *services.BatchResult,
	storedPaths map[string]string,
) {
	batchID, err := uuid.Parse(result.BatchID)
	if err != nil {
		log.Printf("⚠️ Invalid batch ID %s: %v\n", result.BatchID, err)
		return
	}

	batch := models.ScreeningBatch{
		ID:             batchID,
		RecruiterID:    recruiterID,
		JDID:           jdID,
		JobTitle:       jobTitle,
		JDText:         jdText,
		TopKRequested:  result.TopKRequested,
		TopK:           result.TopK,
		TotalUploaded:  result.TotalUploaded,
		TotalProcessed: result.TotalProcessed,
		CreatedAt:      time.Now(),
	}

	for _, candidate := range result.Candidates {
		batch.Results = append(batch.Results, models.ScreeningResult{
			BatchID:         batchID,
			ResumeID:        candidate.ResumeID,
			CandidateName:   candidate.CandidateName,
			Filename:        candidate.Filename,
			ResumePath:      storedPaths[candidate.Filename],
			SimilarityScore: candidate.SimilarityScore,
			Distance:        candidate.Distance,
			Rank:            candidate.Rank,
			Status:          candidate.Status,
			Summary:         candidate.Summary,
			CreatedAt:       time.Now(),
		})
	}

	if err := h.screeningRepo.CreateBatch(&batch); err != nil {
		log.Printf("⚠️ Failed to persist screening batch %s: %v\n", result.BatchID, err)
	}
}

func buildScreenResponse(jobTitle string, result *services.BatchResult) models.ScreenResponse {
	response := models.ScreenResponse{
		BatchID:        result.BatchID,
		JobTitle:       jobTitle,
		TotalUploaded:  result.TotalUploaded,
		TotalProcessed: result.TotalProcessed,
		TopK:           result.TopK,
		Results:        []models.ScreenCandidate{},
	}

	for _, candidate := range result.Candidates {
		response.Results = append(response.Results, models.ScreenCandidate{
			Rank:            candidate.Rank,
			ResumeID:        candidate.ResumeID,
			CandidateName:   candidate.CandidateName,
			Filename:        candidate.Filename,
			SimilarityScore: candidate.SimilarityScore,
			Distance:        candidate.Distance,
			Status:          candidate.Status,
			Summary:         candidate.Summary,
		})
	}

	for _, failure := range result.Failures {
		response.Failures = append(response.Failures, models.ScreenFailure{
			Filename: failure.Filename,
			Stage:    failure.Stage,
			Reason:   failure.Reason,
		})
	}

	return response
}
