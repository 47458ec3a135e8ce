package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"alfredoptarigan/resume-ranker/internal/models"
	"alfredoptarigan/resume-ranker/internal/repositories"
)

type JDHandler struct {
	jdRepo repositories.JobDescriptionRepository
}

func NewJDHandler(jdRepo repositories.JobDescriptionRepository) *JDHandler {
	return &JDHandler{
		jdRepo: jdRepo,
	}
}

// HandleCreateJD stores a job description so later screenings can reference
// it by id instead of re-sending the text.
func (h *JDHandler) HandleCreateJD(c *fiber.Ctx) error {
	var req models.CreateJDRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}

	if req.RecruiterID == "" || req.JobTitle == "" || req.Content == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "recruiter_id, job_title and content are required",
		})
	}

	jd := models.JobDescription{
		RecruiterID: req.RecruiterID,
		JobTitle:    req.JobTitle,
		Content:     req.Content,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}

	if err := h.jdRepo.Create(&jd); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to create job description",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(jd)
}

// HandleListJDs returns a recruiter's stored job descriptions.
func (h *JDHandler) HandleListJDs(c *fiber.Ctx) error {
	recruiterID := c.Params("recruiterId")
	if recruiterID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "recruiter ID is required",
		})
	}

	jds, err := h.jdRepo.FindByRecruiter(recruiterID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to list job descriptions",
		})
	}

	return c.JSON(jds)
}
