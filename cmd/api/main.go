package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"gorm.io/gorm"

	"alfredoptarigan/resume-ranker/internal/config"
	"alfredoptarigan/resume-ranker/internal/handlers"
	"alfredoptarigan/resume-ranker/internal/repositories"
	"alfredoptarigan/resume-ranker/internal/services"
)

func main() {
	// Load configuration
	cfg := config.Load()
	log.Println("✅ Config loaded successfully")

	// Initialize database
	db, err := config.InitDatabase(cfg)
	if err != nil {
		log.Fatalf("❌ Failed to initialize database: %v", err)
	}

	// Initialize repositories
	jdRepo := repositories.NewJobDescriptionRepository(db)
	screeningRepo := repositories.NewScreeningRepository(db)
	log.Println("✅ Repositories initialized successfully")

	// Initialize services
	storageService := services.NewStorageService(cfg.Storage.UploadPath)
	if err := storageService.EnsureUploadDir(); err != nil {
		log.Fatalf("❌ Failed to create upload directory: %v", err)
	}

	pdfParser := services.NewPDFParserService(cfg.Ranker.MinResumeChars)
	log.Println("✅ Services initialized successfully")

	// Initialize embedding client
	embedder, err := services.NewGeminiEmbedder(cfg.Gemini.APIKey, services.EmbedderConfig{
		Model:        cfg.Embedding.Model,
		Dimensions:   cfg.Embedding.Dimensions,
		MaxChars:     cfg.Embedding.MaxChars,
		MaxAttempts:  cfg.Worker.RetryMaxAttempts,
		InitialDelay: cfg.Worker.RetryInitialDelay,
		CallTimeout:  cfg.Embedding.Timeout,
	})
	if err != nil {
		log.Fatalf("❌ Failed to initialize embedding client: %v", err)
	}
	log.Println("✅ Embedding client initialized successfully")

	// Initialize vector index
	index, err := initVectorIndex(cfg, db)
	if err != nil {
		log.Fatalf("❌ Failed to initialize vector index: %v", err)
	}
	log.Printf("✅ Vector index initialized successfully (%s)\n", cfg.Vector.Backend)

	// Initialize ranker
	ranker := services.NewRankerService(pdfParser, embedder, index, services.RankerConfig{
		TopKMin:     cfg.Ranker.TopKMin,
		TopKMax:     cfg.Ranker.TopKMax,
		MinJDChars:  cfg.Ranker.MinJDChars,
		DistanceCap: cfg.Ranker.DistanceCap,
		Concurrency: cfg.Worker.Concurrency,
	})
	log.Println("✅ Ranker service initialized")

	// Initialize handlers
	screenHandler := handlers.NewScreenHandler(
		ranker,
		jdRepo,
		screeningRepo,
		storageService,
		cfg.Storage.MaxFileSize,
		cfg.Ranker.BatchTimeout,
	)
	resultHandler := handlers.NewResultHandler(screeningRepo)
	jdHandler := handlers.NewJDHandler(jdRepo)
	log.Println("✅ Handlers initialized")

	// Create Fiber app
	app := fiber.New(fiber.Config{
		AppName:      "Resume Ranker API",
		ReadTimeout:  30 * time.Second,
		WriteTimeout: cfg.Ranker.BatchTimeout + 30*time.Second,
		BodyLimit:    int(cfg.Storage.MaxFileSize) * 20,
		ErrorHandler: customErrorHandler,
	})

	// Middleware
	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Format:     "[${time}] ${status} - ${latency} ${method} ${path}\n",
		TimeFormat: "2006-01-02 15:04:05",
	}))

	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))

	// Routes
	api := app.Group("/api/v1")

	// Health check
	api.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now(),
		})
	})

	// API endpoints
	api.Post("/screen", screenHandler.HandleScreen)
	api.Get("/result/:id", resultHandler.HandleGetBatch)
	api.Get("/results/:recruiterId", resultHandler.HandleGetRecruiterResults)
	api.Post("/jd", jdHandler.HandleCreateJD)
	api.Get("/jd/recruiter/:recruiterId", jdHandler.HandleListJDs)

	// Root route
	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"message": "Resume Ranker API",
			"version": "1.0.0",
			"endpoints": []string{
				"POST /api/v1/screen",
				"GET /api/v1/result/:id",
				"GET /api/v1/results/:recruiterId",
				"POST /api/v1/jd",
				"GET /api/v1/jd/recruiter/:recruiterId",
			},
		})
	})

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		log.Println("\n🛑 Shutting down server...")
		if err := app.Shutdown(); err != nil {
			log.Printf("❌ Server forced to shutdown: %v", err)
		}
	}()

	// Start server
	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	log.Printf("🚀 Server starting on %s\n", addr)

	if err := app.Listen(addr); err != nil {
		log.Fatalf("❌ Failed to start server: %v", err)
	}
}

func initVectorIndex(cfg *config.Config, db *gorm.DB) (services.VectorIndex, error) {
	switch cfg.Vector.Backend {
	case "postgres":
		return services.NewPgvectorIndex(db), nil
	case "memory":
		return services.NewMemoryIndex(), nil
	case "qdrant":
		index, err := services.NewQdrantIndex(
			cfg.Qdrant.URL,
			cfg.Qdrant.APIKey,
			cfg.Qdrant.Collection,
			uint64(cfg.Embedding.Dimensions),
		)
		if err != nil {
			return nil, err
		}

		if err := index.InitCollection(context.Background()); err != nil {
			return nil, err
		}

		return index, nil
	default:
		return nil, fmt.Errorf("unknown vector backend: %s", cfg.Vector.Backend)
	}
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
	}

	return c.Status(code).JSON(fiber.Map{
		"error": err.Error(),
		"code":  code,
	})
}
