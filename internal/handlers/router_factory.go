package handlers

import (
	"database/sql"
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/secure"
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"

	"devopsquiz/internal/config"
	"devopsquiz/internal/middleware"
	"devopsquiz/internal/observability"
	"devopsquiz/internal/services"
	contextutils "devopsquiz/internal/utils"
)

// NewRouter creates the gin engine with every middleware and route. db may be
// nil unless the postgres session store is selected.
func NewRouter(
	cfg *config.Config,
	quizService services.QuizServiceInterface,
	aiService services.AIServiceInterface,
	usageStatsService services.UsageStatsServiceInterface,
	db *sql.DB,
	logger *observability.Logger,
) (*gin.Engine, error) {
	gin.SetMode(gin.ReleaseMode)
	if cfg.Server.Debug {
		gin.SetMode(gin.DebugMode)
	}
	if cfg.IsTest {
		gin.SetMode(gin.TestMode)
	}

	router := gin.New()
	router.Use(middleware.RequestLogging(logger))
	router.Use(middleware.ErrorRecoveryMiddleware(logger, HandleAppError))

	pages, err := ParsePageTemplates()
	if err != nil {
		return nil, contextutils.WrapErrorf(contextutils.ErrInternalError, "failed to parse page templates: %w", err)
	}
	router.SetHTMLTemplate(pages)

	staticFS, err := StaticFS()
	if err != nil {
		return nil, contextutils.WrapErrorf(contextutils.ErrInternalError, "failed to open static assets: %w", err)
	}

	systemHandler := NewSystemHandler(quizService.Catalog(), aiService, usageStatsService)

	// Health check endpoint (defined before tracing and sessions)
	router.GET("/health", systemHandler.Health)

	// OpenTelemetry tracing and context propagation with error annotation
	router.Use(observability.GinMiddlewareWithErrorHandling(cfg.OpenTelemetry.ServiceName)...)

	if len(cfg.Server.CORSOrigins) > 0 {
		corsConfig := cors.DefaultConfig()
		corsConfig.AllowOrigins = cfg.Server.CORSOrigins
		corsConfig.AllowCredentials = true
		corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "X-Requested-With"}
		corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
		router.Use(cors.New(corsConfig))
	}

	// Security middleware
	secureConfig := secure.DefaultConfig()
	secureConfig.SSLRedirect = false
	secureConfig.ContentSecurityPolicy = config.DefaultCSP
	router.Use(secure.New(secureConfig))

	router.StaticFS("/static", http.FS(staticFS))

	v1 := router.Group("/v1")
	{
		v1.GET("/version", systemHandler.Version)
		v1.GET("/topics", systemHandler.Topics)
		v1.GET("/usage", systemHandler.Usage)
	}

	store, err := NewSessionStore(cfg, db)
	if err != nil {
		return nil, err
	}
	quizHandler := NewQuizHandler(quizService, logger, cfg.Session.Store)

	pagesGroup := router.Group("/")
	pagesGroup.Use(sessions.Sessions(config.SessionName, store))
	{
		pagesGroup.GET("/", quizHandler.Index)
		pagesGroup.POST("/", quizHandler.Index)
		pagesGroup.GET("/question", quizHandler.Question)
		pagesGroup.POST("/question", quizHandler.Question)
	}

	router.NoRoute(func(c *gin.Context) {
		HandleAppError(c, contextutils.WrapErrorf(contextutils.ErrNotFound, "no route for %s", c.Request.URL.Path))
	})

	return router, nil
}
