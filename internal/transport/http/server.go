package http

import (
	"github.com/gin-gonic/gin"

	"finance-doc-analyzer/internal/bootstrap"
	"finance-doc-analyzer/internal/transport/http/handler"
	"finance-doc-analyzer/internal/transport/http/middleware"
)

func NewRouter(app *bootstrap.App) *gin.Engine {
	gin.SetMode(app.Config.App.GinMode)
	router := gin.New()
	router.Use(middleware.RequestID(), gin.Recovery())
	router.MaxMultipartMemory = 32 << 20

	healthHandler := handler.NewHealthHandler(app)
	router.GET("/healthz", healthHandler.Check)

	documentHandler := handler.NewDocumentHandler(app.Documents, app.Analysis)
	v1 := router.Group("/api/v1")
	v1.Use(middleware.AuthJWT(app.Config.Auth.JWTSecret))
	RegisterDocumentRoutes(v1, documentHandler)

	return router
}

// RegisterDocumentRoutes mounts the document and analysis endpoints on group.
func RegisterDocumentRoutes(group *gin.RouterGroup, h *handler.DocumentHandler) {
	documents := group.Group("/documents")
	documents.POST("", h.Upload)
	documents.GET("", h.List)
	documents.GET("/:id", h.Get)
	documents.DELETE("/:id", h.Delete)
	documents.POST("/:id/analyze", h.Analyze)
	documents.GET("/:id/results", h.Results)

	group.GET("/analysis/types", h.Types)
}
