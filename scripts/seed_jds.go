package main

import (
	"log"
	"time"

	"alfredoptarigan/resume-ranker/internal/config"
	"alfredoptarigan/resume-ranker/internal/models"
	"alfredoptarigan/resume-ranker/internal/repositories"
)

// Seeds a few job descriptions so the screening endpoint can be exercised
// with jd_id right after a fresh deployment.
func main() {
	log.Println("🚀 Starting job description seeding...")

	cfg := config.Load()

	db, err := config.InitDatabase(cfg)
	if err != nil {
		log.Fatalf("❌ Failed to initialize database: %v", err)
	}

	jdRepo := repositories.NewJobDescriptionRepository(db)

	jds := []models.JobDescription{
		{
			RecruiterID: "seed_recruiter",
			JobTitle:    "Senior Python Developer",
			Content: `We are looking for an experienced Python developer with:
- 5+ years of Python development experience
- Strong knowledge of FastAPI, Django, or Flask
- Experience with machine learning and AI
- Familiarity with cloud services
- Excellent problem-solving skills`,
		},
		{
			RecruiterID: "seed_recruiter",
			JobTitle:    "Backend Engineer (Go)",
			Content: `Responsibilities include building and maintaining backend services in Go:
- 3+ years building HTTP APIs and gRPC services
- PostgreSQL schema design and query tuning
- Experience with message queues and background workers
- Comfortable operating services in Kubernetes`,
		},
		{
			RecruiterID: "seed_recruiter",
			JobTitle:    "Data Engineer",
			Content: `You will design and operate data pipelines:
- Strong SQL and Python
- Experience with data warehousing and ETL orchestration
- Familiarity with vector databases and embedding pipelines is a plus`,
		},
	}

	for i := range jds {
		jds[i].CreatedAt = time.Now()
		jds[i].UpdatedAt = time.Now()

		if err := jdRepo.Create(&jds[i]); err != nil {
			log.Fatalf("❌ Failed to seed job description %q: %v", jds[i].JobTitle, err)
		}

		log.Printf("✅ Seeded job description: %s (%s)\n", jds[i].JobTitle, jds[i].ID)
	}

	log.Println("✅ Seeding completed")
}
