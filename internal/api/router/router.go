package router

import (
	"github.com/wb-go/wbf/ginext"

	"github.com/aliskhannn/contentful-watermark/internal/api/handlers/webhook"
)

// Setup builds the HTTP engine with the health and webhook routes.
func Setup(h *webhook.Handler) *ginext.Engine {
	r := ginext.New()

	r.Use(ginext.Logger())
	r.Use(ginext.Recovery())

	api := r.Group("/api")

	api.GET("/health", h.Health)                 // liveness check
	api.POST("/webhooks/watermark", h.Watermark) // content store publish notification

	return r
}
