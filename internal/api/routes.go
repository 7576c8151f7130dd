package api

import (
	"github.com/gofiber/fiber/v2"

	"github.com/gardenllm/gardenllm-backend/internal/api/handlers"
	"github.com/gardenllm/gardenllm-backend/internal/pipeline"
)

// SetupRoutes configures all API routes.
func SetupRoutes(app *fiber.App, pipe *pipeline.Pipeline) {
	api := app.Group("/api/v1")

	// Chat
	api.Post("/chat", handlers.Chat(pipe))

	// Conversation management
	api.Post("/conversations", handlers.CreateConversation(pipe))
	api.Get("/conversations/:id", handlers.GetConversation(pipe))
	api.Delete("/conversations/:id", handlers.ClearConversation(pipe))
	api.Post("/conversations/cleanup", handlers.CleanupConversations(pipe))

	// Metrics
	api.Get("/metrics", handlers.GetMetrics(pipe))

	// Health check
	api.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "healthy",
			"service": "gardenllm-backend",
		})
	})
}
