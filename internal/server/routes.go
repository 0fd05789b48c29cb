package server

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"
)

func (s *Server) RegisterRoutes(l *slog.Logger) http.Handler {
	e := echo.New()
	e.Use(middleware.RequestID())
	e.Use(NewEchoLogger(l))
	e.Use(middleware.Recover())
	e.Use(otelecho.Middleware("clipstash", otelecho.WithSkipper(skipper)))

	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     []string{"https://*", "http://*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders:     []string{"Accept", "Authorization", "Content-Type", "X-Client-Id", "X-Uid"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	e.GET("/api/v1/health", s.healthHandler)
	e.GET("/api/v1/events", s.StreamAssetEvents)

	e.POST("/api/v1/uploads", s.RequestUpload, s.AuthMiddleware)

	var assetGroup = e.Group("/api/v1/assets")
	assetGroup.GET("", s.ListAssets)
	assetGroup.GET("/:id", s.GetAssetByID)
	assetGroup.PATCH("/:id", s.UpdateAsset, s.AuthMiddleware)
	assetGroup.DELETE("/:id", s.DeleteAsset, s.AuthMiddleware)
	assetGroup.GET("/:id/download", s.DownloadAsset)
	assetGroup.GET("/:id/thumbnail", s.GetThumbnail)
	assetGroup.POST("/:id/process", s.ProcessAsset, s.AuthMiddleware)

	var tagGroup = e.Group("/api/v1/tags")
	tagGroup.GET("/popular", s.ListPopularTags)
	tagGroup.GET("/presets", s.ListTagPresets)

	var collectionGroup = e.Group("/api/v1/collections")
	collectionGroup.POST("", s.CreateCollection, s.AuthMiddleware)
	collectionGroup.GET("/:id", s.GetCollectionByID)
	collectionGroup.POST("/:id/assets", s.AddCollectionAssets, s.AuthMiddleware)
	collectionGroup.GET("/:id/export", s.ExportCollection)

	return e
}
