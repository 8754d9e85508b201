// internal/api/api.go
package api

import (
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/andresuchdata/revsplit/internal/api/handlers"
	"github.com/andresuchdata/revsplit/internal/api/middleware"
	"github.com/andresuchdata/revsplit/internal/service"
)

type Services struct {
	DashboardService *service.DashboardService
	// MaxUploadBytes caps the size of an uploaded export. Zero means no cap.
	MaxUploadBytes int64
}

func NewRouter(services *Services, allowedOrigins []string) *gin.Engine {
	router := gin.New()

	// Add middleware
	router.Use(middleware.Logger())
	router.Use(middleware.Recovery())
	defaultOrigins := []string{"http://localhost:3000", "http://127.0.0.1:3000"}
	corsConfig := cors.Config{
		AllowOrigins:     defaultOrigins,
		AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(allowedOrigins) > 0 {
		normalizedOrigins, allowAll := normalizeAllowedOrigins(allowedOrigins)
		if allowAll {
			corsConfig.AllowOrigins = nil
			corsConfig.AllowOriginFunc = func(origin string) bool { return true }
		} else if len(normalizedOrigins) > 0 {
			corsConfig.AllowOrigins = normalizedOrigins
		}
	}
	router.Use(cors.New(corsConfig))

	router.GET("/health", handlers.Health)

	apiGroup := router.Group("/api/v1")
	apiGroup.GET("/health", handlers.Health)

	if services != nil && services.DashboardService != nil {
		datasetHandler := handlers.NewDatasetHandler(services.DashboardService, services.MaxUploadBytes)
		datasetGroup := apiGroup.Group("/datasets")
		{
			datasetGroup.POST("", datasetHandler.Upload)
			datasetGroup.GET("", datasetHandler.List)
			datasetGroup.GET("/:id", datasetHandler.Get)
			datasetGroup.DELETE("/:id", datasetHandler.Delete)
			datasetGroup.GET("/:id/dashboard", datasetHandler.GetDashboard)
			datasetGroup.GET("/:id/locations", datasetHandler.GetLocations)
			datasetGroup.GET("/:id/prices", datasetHandler.GetPrices)
			datasetGroup.GET("/:id/export", datasetHandler.Export)
		}
	}

	return router
}

func normalizeAllowedOrigins(origins []string) ([]string, bool) {
	var (
		parsed   []string
		allowAll bool
	)
	for _, origin := range origins {
		parts := strings.Split(origin, ",")
		for _, part := range parts {
			trimmed := strings.TrimSpace(part)
			if trimmed == "" {
				continue
			}
			if trimmed == "*" {
				allowAll = true
				continue
			}
			parsed = append(parsed, trimmed)
		}
	}
	return parsed, allowAll
}
