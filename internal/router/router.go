package router

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/inkfoldhq/inkfold-composer-backend/internal/database/repository"
	"github.com/inkfoldhq/inkfold-composer-backend/internal/handlers"
	"github.com/inkfoldhq/inkfold-composer-backend/internal/middleware"
	"github.com/inkfoldhq/inkfold-composer-backend/internal/services"
	"github.com/inkfoldhq/inkfold-composer-backend/internal/services/auth"
	"github.com/inkfoldhq/inkfold-composer-backend/internal/services/excel"
	"github.com/inkfoldhq/inkfold-composer-backend/internal/store"
)

// Deps carries the constructed services the router wires into handlers.
// BookJobService and JobRepo may be nil when the queue or database is not
// configured; the matching routes then degrade gracefully.
type Deps struct {
	GenerationService *services.GenerationService
	BookService       *services.BookService
	DocumentService   *services.DocumentService
	BookJobService    *services.BookJobService
	AuthService       *auth.AuthService
	ContentStore      store.Store
	JobRepo           *repository.JobRepository
}

// SetupRouter configures the Gin router with the generation and content routes
func SetupRouter(deps Deps) *gin.Engine {
	// Set Gin mode
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	r.Use(gin.Recovery())
	r.Use(middleware.Logger())

	// Configure CORS
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Create middleware with services
	bearerTokenMiddleware := middleware.NewBearerTokenMiddleware(deps.AuthService)

	// Create handlers with services
	authHandler := handlers.NewAuthHandler(deps.AuthService)
	bookHandler := handlers.NewBookHandler(deps.GenerationService, deps.BookService, deps.BookJobService)
	documentHandler := handlers.NewDocumentHandler(deps.DocumentService)
	contentHandler := handlers.NewContentHandler(deps.ContentStore, excel.NewExcelService())

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	logrus.Info("Swagger UI endpoint registered at /swagger/index.html")

	// Downloads are public: a slug is the only credential content has.
	r.GET("/download/:name", contentHandler.Download)

	// API v1 routes
	api := r.Group("/api/v1")
	{
		// Health check
		api.GET("/health", func(c *gin.Context) {
			c.JSON(200, gin.H{
				"status": "ok",
				"time":   time.Now().Format(time.RFC3339),
			})
		})

		// Auth routes (public)
		api.POST("/auth/login", authHandler.Login)

		// Document routes
		api.POST("/documents", documentHandler.CreateDocument)

		// Book routes
		books := api.Group("/books")
		{
			books.POST("", bookHandler.CreateBook)
			books.POST("/overview", bookHandler.GenerateOverview)
			books.POST("/outline", bookHandler.GenerateOutline)
			books.POST("/chapter", bookHandler.GenerateChapter)
			books.POST("/assemble", bookHandler.AssembleBook)
			books.POST("/jobs", bookHandler.CreateBookJob)
		}

		// Job routes
		if deps.JobRepo != nil {
			jobHandler := handlers.NewJobHandler(deps.JobRepo)
			api.GET("/jobs/:id", jobHandler.GetJob)
			api.GET("/jobs", bearerTokenMiddleware.BearerTokenAuthMiddleware(), jobHandler.ListJobs)
		}

		// Key browser (protected)
		keys := api.Group("/keys")
		keys.Use(bearerTokenMiddleware.BearerTokenAuthMiddleware())
		{
			keys.GET("", contentHandler.ListKeys)
			keys.GET("/:key", contentHandler.GetKey)
			keys.DELETE("/:key", contentHandler.DeleteKey)
		}
	}

	return r
}
