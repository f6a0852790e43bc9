package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	Ai        AIConfig
	Retrieval RetrievalConfig
}

type AppConfig struct {
	Port               string
	BaseURL            string
	Environment        string
	LogFilePath        string
	CorsAllowedOrigins string
	NatsURL            string
	RedisURL           string
	TurnTimeoutSeconds int
}

type DatabaseConfig struct {
	Connection string
}

type AIConfig struct {
	LLMProvider       string // "ollama", "gemini", "huggingface"
	LLMModel          string
	LLMBaseURL        string
	LLMAPIKey         string
	EmbeddingProvider string // "gemini", "ollama", "openai", "jina"
	EmbeddingModel    string
	OllamaBaseURL     string
	EmbeddingAPIKey   string
	MaxContextChars   int
}

type RetrievalConfig struct {
	Enabled          bool
	CorpusPath       string
	IndexPath        string
	TopK             int
	ChunkChars       int
	ChunkOverlap     int
	MaxCharsPerChunk int
	MaxContextChars  int
	PDFPageLimit     int
	UsePgVector      bool
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			BaseURL:            getEnv("APP_BASE_URL", "http://localhost:3000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "app.log.csv"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			NatsURL:            getEnv("NATS_URL", "nats://localhost:4222"),
			RedisURL:           getEnv("REDIS_URL", ""),
			TurnTimeoutSeconds: getEnvAsInt("TURN_TIMEOUT_SECONDS", 180),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		Ai: AIConfig{
			LLMProvider:       getEnv("LLM_PROVIDER", "ollama"),
			LLMModel:          getEnv("LLM_MODEL", "llama3"),
			LLMBaseURL:        getEnv("LLM_BASE_URL", ""),
			LLMAPIKey:         getEnv("LLM_API_KEY", ""),
			EmbeddingProvider: getEnv("EMBEDDING_PROVIDER", "gemini"),
			EmbeddingModel:    getEnv("EMBEDDING_MODEL", ""),
			OllamaBaseURL:     getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
			EmbeddingAPIKey:   getEnv("EMBEDDING_API_KEY", ""),
			MaxContextChars:   getEnvAsInt("MEMORY_MAX_CONTEXT_CHARS", 6000),
		},
		Retrieval: RetrievalConfig{
			Enabled:          getEnvAsBool("RETRIEVAL_ENABLED", false),
			CorpusPath:       getEnv("RETRIEVAL_CORPUS_PATH", "./corpus"),
			IndexPath:        getEnv("RETRIEVAL_INDEX_PATH", "./data/knowledge_index.json"),
			TopK:             getEnvAsInt("RETRIEVAL_TOP_K", 3),
			ChunkChars:       getEnvAsInt("RETRIEVAL_CHUNK_CHARS", 1000),
			ChunkOverlap:     getEnvAsInt("RETRIEVAL_CHUNK_OVERLAP", 200),
			MaxCharsPerChunk: getEnvAsInt("RETRIEVAL_MAX_CHARS_PER_CHUNK", 500),
			MaxContextChars:  getEnvAsInt("RETRIEVAL_MAX_CONTEXT_CHARS", 2000),
			PDFPageLimit:     getEnvAsInt("RETRIEVAL_PDF_PAGE_LIMIT", 50),
			UsePgVector:      getEnvAsBool("RETRIEVAL_USE_PGVECTOR", false),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseBool(strValue); err == nil {
		return value
	}
	return fallback
}
