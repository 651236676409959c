package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/inkfoldhq/inkfold-composer-backend/internal/database"
	"github.com/inkfoldhq/inkfold-composer-backend/internal/database/repository"
	"github.com/inkfoldhq/inkfold-composer-backend/internal/llm"
	"github.com/inkfoldhq/inkfold-composer-backend/internal/router"
	"github.com/inkfoldhq/inkfold-composer-backend/internal/services"
	"github.com/inkfoldhq/inkfold-composer-backend/internal/services/auth"
	"github.com/inkfoldhq/inkfold-composer-backend/internal/store"
	"github.com/inkfoldhq/inkfold-composer-backend/internal/utils"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	// Import Swagger docs
	_ "github.com/inkfoldhq/inkfold-composer-backend/docs"
)

// @title Inkfold Composer API
// @version 1.0
// @description Long-form document and book generation service backed by a language model pipeline

// @contact.name API Support
// @contact.email support@inkfold.io

// @license.name Apache 2.0
// @license.url http://www.apache.org/licenses/LICENSE-2.0.html

// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Enter `Bearer ` followed by your JWT token (e.g. "Bearer <token>")

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	// Configure logging
	configureLogging()

	// Initialize Sentry
	utils.InitSentry()

	// Initialize content store
	contentStore, err := buildContentStore()
	if err != nil {
		logrus.Fatalf("Failed to initialize content store: %v", err)
	}

	// Initialize LLM client and generation services
	llmClient := llm.NewClientFromEnv()
	generationService := services.NewGenerationService(llmClient)
	bookService := services.NewBookService(generationService, contentStore)
	documentService := services.NewDocumentService(generationService, contentStore)

	// Initialize auth service
	authService, err := auth.NewAuthService()
	if err != nil {
		logrus.Fatalf("Failed to initialize auth service: %v", err)
	}

	// Initialize database connection. The database only backs generation job
	// records, so the synchronous API stays available without it.
	var jobRepo *repository.JobRepository
	db, err := database.InitDB()
	if err != nil {
		logrus.Warnf("Failed to initialize database, job tracking disabled: %v", err)
	} else {
		jobRepo = repository.NewJobRepository(db)
	}

	// Initialize RabbitMQ and the async book worker
	var bookJobService *services.BookJobService
	rabbitMQService, err := services.NewRabbitMQService()
	if err != nil {
		logrus.Warnf("Failed to initialize RabbitMQ, async book jobs disabled: %v", err)
	} else if jobRepo == nil {
		logrus.Warn("RabbitMQ available but database is not, async book jobs disabled")
		rabbitMQService.Close()
	} else {
		logrus.Info("RabbitMQ service initialized")
		defer rabbitMQService.Close()

		bookJobService = services.NewBookJobService(jobRepo, bookService, rabbitMQService)
		if err := bookJobService.StartWorker(); err != nil {
			logrus.Warnf("Failed to start book worker: %v", err)
			bookJobService = nil
		} else {
			logrus.Info("Book worker started")
			defer bookJobService.StopWorker()
		}
	}

	// Initialize router
	r := router.SetupRouter(router.Deps{
		GenerationService: generationService,
		BookService:       bookService,
		DocumentService:   documentService,
		BookJobService:    bookJobService,
		AuthService:       authService,
		ContentStore:      contentStore,
		JobRepo:           jobRepo,
	})

	// Configure HTTP server
	port := getEnv("PORT", "8080")
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", port),
		Handler: r,
	}

	// Start server in a goroutine
	go func() {
		logrus.Infof("Server starting on port %s", port)
		logrus.Infof("API Health Check: http://localhost:%s/api/v1/health", port)
		logrus.Infof("Swagger UI: http://localhost:%s/swagger/index.html", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logrus.Info("Shutting down server...")

	// Create a deadline for server shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Shutdown the server
	if err := srv.Shutdown(ctx); err != nil {
		logrus.Fatalf("Server forced to shutdown: %v", err)
	}

	logrus.Info("Server exited properly")
}

// buildContentStore selects the content store backend. Redis is the default;
// STORE_DRIVER=memory keeps everything in-process for local development.
func buildContentStore() (store.Store, error) {
	if getEnv("STORE_DRIVER", "redis") == "memory" {
		logrus.Info("Using in-memory content store")
		return store.NewMemoryStore(), nil
	}
	return store.NewRedisStore()
}

func configureLogging() {
	logLevel := getEnv("LOG_LEVEL", "info")
	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)
	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}
