package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	Environment    string
	HTTPPort       string
	HTTPSPort      string
	Domains        []string
	CertCacheDir   string
	DatabaseURL    string
	DataDir        string
	LogDir         string
	LLMBaseURL     string
	LLMAPIKey      string
	ChatModel      string
	EmbeddingModel string
	ChunkSize      int
	ChunkOverlap   int
}

var isTest bool

func init() {
	isTest = os.Getenv("GO_ENVIRONMENT") == "test"
	if !isTest {
		err := godotenv.Load()
		if err != nil {
			log.Println("Warning: Error loading .env file:", err)
		}
	}
}

func Load() Config {
	return Config{
		Environment:  getEnv("ENVIRONMENT", "development"),
		HTTPPort:     getEnv("HTTP_PORT", "8000"),
		HTTPSPort:    getEnv("HTTPS_PORT", "443"),
		Domains:      []string{getEnv("DOMAIN", "example.com")},
		CertCacheDir: getEnv("CERT_CACHE_DIR", "/etc/letsencrypt/live/example.com"),
		DatabaseURL:  getEnv("DATABASE_URL", ""),
		DataDir:      getEnv("DATA_DIR", "./data"),
		LogDir:       getEnv("LOG_DIR", "./logs"),
		// Local OpenAI-compatible endpoint (LM Studio, Ollama, llama.cpp server...).
		// Local endpoints usually ignore the API key but the request still needs one,
		// hence the dummy default.
		LLMBaseURL:     getEnv("LLM_BASE_URL", "http://host.docker.internal:1234/v1"),
		LLMAPIKey:      getEnv("LLM_API_KEY", "lm-studio"),
		ChatModel:      getEnv("LLM_CHAT_MODEL", "local-model"),
		EmbeddingModel: getEnv("LLM_EMBEDDING_MODEL", "text-embedding-nomic-embed-text-v1.5"),
		ChunkSize:      getEnvAsInt("CHUNK_SIZE", 1000),
		ChunkOverlap:   getEnvAsInt("CHUNK_OVERLAP", 200),
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
