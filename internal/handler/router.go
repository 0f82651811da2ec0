package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sourceplane/designbridge/internal/config"
	"github.com/sourceplane/designbridge/internal/middleware"
	"github.com/sourceplane/designbridge/internal/schema"
	"github.com/sourceplane/designbridge/internal/session"
)

// NewRouter wires middleware and routes
func NewRouter(cfg *config.Config, validator *schema.Validator, store *session.Store) *gin.Engine {
	documentHandler := NewDocumentHandler(cfg.Converter(), validator, cfg.Convert.Language)
	sessionHandler := NewSessionHandler(store)

	router := gin.New()
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger())
	router.Use(middleware.Recovery())
	router.Use(middleware.BodyLimit(cfg.Server.MaxBodyBytes))

	api := router.Group("/api/v1")
	{
		api.POST("/detect", documentHandler.Detect)
		api.POST("/validate", documentHandler.Validate)
		api.POST("/convert", documentHandler.Convert)
		api.POST("/infer", documentHandler.Infer)
		api.POST("/preview", documentHandler.Preview)

		sessionsAPI := api.Group("/sessions")
		{
			sessionsAPI.POST("", sessionHandler.CreateSession)
			sessionsAPI.GET("/:id", sessionHandler.GetSession)
			sessionsAPI.DELETE("/:id", sessionHandler.DeleteSession)
			sessionsAPI.PUT("/:id/document", sessionHandler.ApplyDocument)
			sessionsAPI.PUT("/:id/data", sessionHandler.ReplaceData)
			sessionsAPI.PATCH("/:id/data", sessionHandler.SetField)
			sessionsAPI.POST("/:id/format", sessionHandler.SwitchFormat)
			sessionsAPI.GET("/:id/shape", sessionHandler.Shape)
			sessionsAPI.GET("/:id/preview", sessionHandler.Preview)
		}
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":   "ok",
			"sessions": store.Len(),
		})
	})

	router.NoRoute(func(c *gin.Context) {
		Error(c, http.StatusNotFound, "not found")
	})

	return router
}
