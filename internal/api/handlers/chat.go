package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/gardenllm/gardenllm-backend/internal/pipeline"
)

// Chat answers a user message. The response is always a displayable
// sentence; the pipeline absorbs every internal failure.
func Chat(pipe *pipeline.Pipeline) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req struct {
			Message        string `json:"message"`
			ConversationID string `json:"conversation_id"`
		}

		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Invalid request body",
			})
		}

		if req.Message == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "message is required",
			})
		}

		// Database commands short-circuit the query pipeline.
		if response, handled := pipe.HandleCommand(c.Context(), req.Message); handled {
			return c.JSON(fiber.Map{
				"response":        response,
				"conversation_id": req.ConversationID,
			})
		}

		response := pipe.Process(c.Context(), req.Message, req.ConversationID)

		return c.JSON(fiber.Map{
			"response":        response,
			"conversation_id": req.ConversationID,
		})
	}
}

// CreateConversation mints a fresh conversation id for the client to use
// in subsequent chat calls.
func CreateConversation(pipe *pipeline.Pipeline) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"conversation_id": uuid.New().String(),
		})
	}
}

// GetConversation returns a diagnostic snapshot of a conversation.
func GetConversation(pipe *pipeline.Pipeline) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")

		convCtx := pipe.Conversations().GetContext(id)
		if !convCtx.Exists {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Conversation not found",
			})
		}

		return c.JSON(convCtx)
	}
}

// ClearConversation removes a conversation's history.
func ClearConversation(pipe *pipeline.Pipeline) fiber.Handler {
	return func(c *fiber.Ctx) error {
		pipe.Conversations().ClearConversation(c.Params("id"))
		return c.JSON(fiber.Map{
			"status": "cleared",
		})
	}
}

// CleanupConversations proactively removes expired conversations.
func CleanupConversations(pipe *pipeline.Pipeline) fiber.Handler {
	return func(c *fiber.Ctx) error {
		removed := pipe.Conversations().CleanupExpired()
		return c.JSON(fiber.Map{
			"removed": removed,
		})
	}
}

// GetMetrics returns a read-only copy of the pipeline's performance
// counters.
func GetMetrics(pipe *pipeline.Pipeline) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(pipe.Monitor().GetSnapshot())
	}
}
