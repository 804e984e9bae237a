package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds the whole application configuration.
type Config struct {
	// Database connection settings
	Database DatabaseConfig

	// OpenAI settings (embeddings)
	OpenAI OpenAIConfig

	// Chunking settings
	Chunking ChunkingConfig
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// OpenAIConfig holds OpenAI API settings for embedding generation.
type OpenAIConfig struct {
	APIKey             string
	EmbeddingModel     string
	EmbeddingDimension int
}

// ChunkingConfig controls how documents are split before embedding.
// Length must be strictly greater than Overlap.
type ChunkingConfig struct {
	Length  int
	Overlap int
}

// Load reads configuration from the given .env file (if it exists) and the
// environment. A missing .env file is not an error; environment variables
// alone are enough.
func Load(envFilePath string) (*Config, error) {
	if envFilePath != "" {
		if err := godotenv.Load(envFilePath); err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("failed to load .env file: %w", err)
			}
		}
	}

	cfg := &Config{
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvAsInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "nlp_user"),
			Password: getEnv("DB_PASSWORD", ""),
			DBName:   getEnv("DB_NAME", "nlp_db"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		OpenAI: OpenAIConfig{
			APIKey:             getEnv("OPENAI_API_KEY", ""),
			EmbeddingModel:     getEnv("OPENAI_EMBEDDING_MODEL", "text-embedding-3-small"),
			EmbeddingDimension: getEnvAsInt("EMBEDDING_LENGTH", 384),
		},
		Chunking: ChunkingConfig{
			Length:  getEnvAsInt("CHUNK_LENGTH", 500),
			Overlap: getEnvAsInt("CHUNK_OVERLAP", 50),
		},
	}

	if cfg.Chunking.Length <= cfg.Chunking.Overlap {
		return nil, fmt.Errorf("invalid chunking config: CHUNK_LENGTH (%d) must be greater than CHUNK_OVERLAP (%d)",
			cfg.Chunking.Length, cfg.Chunking.Overlap)
	}

	return cfg, nil
}

// getEnv returns the environment variable value, or the default when unset.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt returns the environment variable parsed as an integer.
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
