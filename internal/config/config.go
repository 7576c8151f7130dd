package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server       ServerConfig       `json:"server"`
	Database     DatabaseConfig     `json:"database"`
	OpenAI       OpenAIConfig       `json:"openai"`
	Conversation ConversationConfig `json:"conversation"`
	Garden       GardenConfig       `json:"garden"`
}

type ServerConfig struct {
	Host string `json:"host"`
	Port int    `json:"port"`
}

type DatabaseConfig struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	Database string `json:"database"`
	SSLMode  string `json:"sslmode"`
}

type OpenAIConfig struct {
	APIKey              string  `json:"api_key"`
	ChatModel           string  `json:"chat_model"`
	ClassifierModel     string  `json:"classifier_model"`
	ChatTemperature     float32 `json:"chat_temperature"`
	ClassifierMaxTokens int     `json:"classifier_max_tokens"`
	ChatMaxTokens       int     `json:"chat_max_tokens"`
}

type ConversationConfig struct {
	MaxTokens   int           `json:"max_tokens"`
	TokenBuffer int           `json:"token_buffer"`
	Timeout     time.Duration `json:"timeout"`
}

type GardenConfig struct {
	Location      string `json:"location"`
	HardinessZone string `json:"hardiness_zone"`
}

func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("json")

	// Add config paths
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	// Check for user config directory
	homeDir, err := os.UserHomeDir()
	if err == nil {
		viper.AddConfigPath(filepath.Join(homeDir, ".gardenllm"))
	}

	// Set defaults
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.host", "localhost")
	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.user", "gardenllm")
	viper.SetDefault("database.database", "gardenllm")
	viper.SetDefault("database.sslmode", "disable")
	viper.SetDefault("openai.chat_model", "gpt-4-turbo")
	viper.SetDefault("openai.classifier_model", "gpt-3.5-turbo")
	viper.SetDefault("openai.chat_temperature", 0.7)
	viper.SetDefault("openai.classifier_max_tokens", 500)
	viper.SetDefault("openai.chat_max_tokens", 1000)
	viper.SetDefault("conversation.max_tokens", 4096)
	viper.SetDefault("conversation.token_buffer", 512)
	viper.SetDefault("conversation.timeout", 30*time.Minute)
	viper.SetDefault("garden.location", "Houston, TX")
	viper.SetDefault("garden.hardiness_zone", "9a")

	// Read config
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			cfg := defaultConfig()
			loadEnvOverrides(cfg)
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	// Load environment variables
	loadEnvOverrides(&cfg)

	return &cfg, nil
}

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "localhost",
			Port: 8080,
		},
		Database: DatabaseConfig{
			Host:     "localhost",
			Port:     5432,
			User:     "gardenllm",
			Password: "",
			Database: "gardenllm",
			SSLMode:  "disable",
		},
		OpenAI: OpenAIConfig{
			ChatModel:           "gpt-4-turbo",
			ClassifierModel:     "gpt-3.5-turbo",
			ChatTemperature:     0.7,
			ClassifierMaxTokens: 500,
			ChatMaxTokens:       1000,
		},
		Conversation: ConversationConfig{
			MaxTokens:   4096,
			TokenBuffer: 512,
			Timeout:     30 * time.Minute,
		},
		Garden: GardenConfig{
			Location:      "Houston, TX",
			HardinessZone: "9a",
		},
	}
}

func loadEnvOverrides(cfg *Config) {
	if port := os.Getenv("GARDENLLM_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			cfg.Server.Port = p
		}
	}

	if host := os.Getenv("GARDENLLM_HOST"); host != "" {
		cfg.Server.Host = host
	}

	if apiKey := os.Getenv("OPENAI_API_KEY"); apiKey != "" {
		cfg.OpenAI.APIKey = apiKey
	}

	// Database overrides
	if dbHost := os.Getenv("POSTGRES_HOST"); dbHost != "" {
		cfg.Database.Host = dbHost
	}
	if dbPort := os.Getenv("POSTGRES_PORT"); dbPort != "" {
		if port, err := strconv.Atoi(dbPort); err == nil {
			cfg.Database.Port = port
		}
	}
	if dbUser := os.Getenv("POSTGRES_USER"); dbUser != "" {
		cfg.Database.User = dbUser
	}
	if dbPass := os.Getenv("POSTGRES_PASSWORD"); dbPass != "" {
		cfg.Database.Password = dbPass
	}
	if dbName := os.Getenv("POSTGRES_DB"); dbName != "" {
		cfg.Database.Database = dbName
	}
}
