package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/gardenllm/gardenllm-backend/internal/config"
	"github.com/gardenllm/gardenllm-backend/internal/conversation"
	"github.com/gardenllm/gardenllm-backend/internal/database"
	"github.com/gardenllm/gardenllm-backend/internal/garden"
	"github.com/gardenllm/gardenllm-backend/internal/llm"
	"github.com/gardenllm/gardenllm-backend/internal/pipeline"
	"github.com/gardenllm/gardenllm-backend/internal/query"
	"github.com/gardenllm/gardenllm-backend/internal/records/postgres"
)

const helpText = `Available commands:
  add plant [name] location [location1, location2, ...] [url photo_url]
  update plant [name] location|url|watering|notes [new value]
  help
  exit

You can also ask anything about your plants or gardening in general.`

func main() {
	logger := logrus.New()
	logger.SetLevel(logrus.WarnLevel)

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Failed to load configuration:", err)
		os.Exit(1)
	}

	db, err := database.NewConnection(cfg.Database)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Failed to connect to database:", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := database.RunMigrations(cfg.Database); err != nil {
		fmt.Fprintln(os.Stderr, "Failed to run migrations:", err)
		os.Exit(1)
	}

	client, err := llm.NewOpenAIClient(cfg.OpenAI)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Failed to create OpenAI client:", err)
		os.Exit(1)
	}

	convStore := conversation.NewStore(
		conversation.WithTokenBudget(cfg.Conversation.MaxTokens, cfg.Conversation.TokenBuffer),
		conversation.WithTimeout(cfg.Conversation.Timeout),
		conversation.WithLogger(logger),
	)
	classifier := query.NewClassifier(client, cfg.OpenAI.ClassifierModel, cfg.OpenAI.ClassifierMaxTokens, logger)
	pipe := pipeline.New(
		classifier,
		postgres.NewPlantStore(db.DB),
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

	conversationID := uuid.New().String()
	ctx := context.Background()

	fmt.Println("Welcome to GardenLLM!")
	fmt.Println("Type 'help' for available commands or 'exit' to quit.")

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("\n> ")
		if !scanner.Scan() {
			break
		}

		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}

		switch strings.ToLower(input) {
		case "exit", "quit":
			fmt.Println("Goodbye!")
			return
		case "help":
			fmt.Println(helpText)
			continue
		}

		if response, handled := pipe.HandleCommand(ctx, input); handled {
			fmt.Println("\n" + response)
			continue
		}

		fmt.Println("\n" + pipe.Process(ctx, input, conversationID))
	}
}
