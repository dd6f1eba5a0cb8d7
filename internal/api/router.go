package api

import (
	"github.com/gin-gonic/gin"
	"github.com/timmy/hrnotify/internal/api/handler"
	"github.com/timmy/hrnotify/internal/api/middleware"
	"github.com/timmy/hrnotify/internal/automation"
	"github.com/timmy/hrnotify/internal/config"
)

// SetupRouter configures the Gin router with all routes
func SetupRouter(
	controller *automation.Controller,
	batches *automation.BatchRunner,
	previews handler.PreviewFunc,
	cfg *config.ServerConfig,
) *gin.Engine {
	switch cfg.Mode {
	case "release":
		gin.SetMode(gin.ReleaseMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.DebugMode)
	}

	r := gin.New()

	r.Use(gin.Recovery())
	r.Use(middleware.Logger())
	r.Use(middleware.CORS(middleware.CORSConfig{AllowedOrigins: cfg.AllowedOrigins}))

	healthHandler := handler.NewHealthHandler()
	runHandler := handler.NewRunHandler(controller, batches)
	previewHandler := handler.NewPreviewHandler(previews)

	r.GET("/health", healthHandler.Health)

	v1 := r.Group("/api/v1")
	{
		v1.GET("/automations", runHandler.ListAutomations)
		v1.GET("/runs/status", runHandler.Status)

		v1.GET("/previews", previewHandler.ListPreviews)
		v1.GET("/previews/*template", previewHandler.GetPreview)

		runs := v1.Group("", middleware.BearerAuth(cfg.APIToken))
		runs.POST("/automations/:name/run", runHandler.RunAutomation)
		runs.POST("/batches/:name/run", runHandler.RunBatch)
	}

	return r
}
