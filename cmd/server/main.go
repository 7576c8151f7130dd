package main

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/sirupsen/logrus"

	"github.com/gardenllm/gardenllm-backend/internal/api"
	"github.com/gardenllm/gardenllm-backend/internal/config"
	"github.com/gardenllm/gardenllm-backend/internal/conversation"
	"github.com/gardenllm/gardenllm-backend/internal/database"
	"github.com/gardenllm/gardenllm-backend/internal/garden"
	"github.com/gardenllm/gardenllm-backend/internal/llm"
	"github.com/gardenllm/gardenllm-backend/internal/pipeline"
	"github.com/gardenllm/gardenllm-backend/internal/query"
	"github.com/gardenllm/gardenllm-backend/internal/records/postgres"
)

func main() {
	logger := logrus.New()
	logger.SetLevel(logrus.InfoLevel)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.WithError(err).Fatal("Failed to load configuration")
	}

	// Connect to database
	db, err := database.NewConnection(cfg.Database)
	if err != nil {
		logger.WithError(err).Fatal("Failed to connect to database")
	}
	defer db.Close()

	// Run migrations
	if err := database.RunMigrations(cfg.Database); err != nil {
		logger.WithError(err).Fatal("Failed to run migrations")
	}

	// Generation client
	client, err := llm.NewOpenAIClient(cfg.OpenAI)
	if err != nil {
		logger.WithError(err).Fatal("Failed to create OpenAI client")
	}

	// Assemble the pipeline
	plantStore := postgres.NewPlantStore(db.DB)
	convStore := conversation.NewStore(
		conversation.WithTokenBudget(cfg.Conversation.MaxTokens, cfg.Conversation.TokenBuffer),
		conversation.WithTimeout(cfg.Conversation.Timeout),
		conversation.WithLogger(logger),
	)
	classifier := query.NewClassifier(client, cfg.OpenAI.ClassifierModel, cfg.OpenAI.ClassifierMaxTokens, logger)
	pipe := pipeline.New(
		classifier,
		plantStore,
		convStore,
		client,
		pipeline.NewMonitor(),
		garden.Profile{
			Location:      cfg.Garden.Location,
			HardinessZone: cfg.Garden.HardinessZone,
		},
		pipeline.Config{
			ChatModel:       cfg.OpenAI.ChatModel,
			ChatTemperature: cfg.OpenAI.ChatTemperature,
			ChatMaxTokens:   cfg.OpenAI.ChatMaxTokens,
		},
		logger,
	)

	// Initialize Fiber app
	app := fiber.New(fiber.Config{
		AppName:      "GardenLLM Backend",
		ErrorHandler: customErrorHandler,
	})

	// Middleware
	app.Use(recover.New())
	app.Use(fiberlogger.New())
	app.Use(cors.New(cors.Config{
		AllowHeaders: "Origin, Content-Type, Accept",
		AllowMethods: "GET, POST, DELETE, OPTIONS",
	}))

	// Setup routes
	api.SetupRoutes(app, pipe)

	// Start server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	logger.WithField("addr", addr).Info("GardenLLM backend starting")
	if err := app.Listen(addr); err != nil {
		logger.WithError(err).Fatal("Failed to start server")
	}
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
	}

	return c.Status(code).JSON(fiber.Map{
		"error": err.Error(),
		"code":  code,
	})
}
