package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

const (
	VectorStoreSupabase = "supabase"
	VectorStorePostgres = "postgres"

	ProviderOpenAI    = "openai"
	ProviderGemini    = "gemini"
	ProviderAnthropic = "anthropic"

	// SchemaEmbeddingDimensions is the vector width of the shipped migration.
	SchemaEmbeddingDimensions = 1536
)

// embeddingDimensions is the vector width each embedding provider returns.
var embeddingDimensions = map[string]int{
	ProviderOpenAI: 1536,
	ProviderGemini: 768,
}

type Config struct {
	// Server
	Port        string
	Env         string
	FrontendURL string

	// Vector store
	VectorStore        string
	SupabaseURL        string
	SupabaseServiceKey string
	DatabaseURL        string
	MigrationsDir      string
	DocsSource         string

	// LLM
	LLMProvider       string
	EmbeddingProvider string
	OpenAIAPIKey      string
	GeminiAPIKey      string
	AnthropicAPIKey   string
	LLMModel          string
	IngestLLMModel    string

	// Width of the embedding column; must match the embedding provider.
	EmbeddingDimensions int

	// Ingestion queue
	RedisURL      string
	IngestWorkers int

	// Logging
	LogLevel string
	LogFile  string
}

func Load() *Config {
	// Load .env file if it exists
	godotenv.Load()

	cfg := &Config{
		Port:              getEnvOrDefault("PORT", "5000"),
		Env:               getEnvOrDefault("ENV", "development"),
		FrontendURL:       getEnvOrDefault("FRONTEND_URL", "*"),
		VectorStore:       getEnvOrDefault("VECTOR_STORE", VectorStoreSupabase),
		MigrationsDir:     getEnvOrDefault("MIGRATIONS_DIR", "migrations"),
		DocsSource:        getEnvOrDefault("DOCS_SOURCE", "deepseek_docs"),
		LLMProvider:       getEnvOrDefault("LLM_PROVIDER", ProviderOpenAI),
		EmbeddingProvider: getEnvOrDefault("EMBEDDING_PROVIDER", ProviderOpenAI),
		LLMModel:          os.Getenv("LLM_MODEL"),
		IngestLLMModel:    getEnvOrDefault("INGEST_LLM_MODEL", os.Getenv("LLM_MODEL")),

		EmbeddingDimensions: getEnvAsIntOrDefault("EMBEDDING_DIMENSIONS", SchemaEmbeddingDimensions),

		RedisURL:      os.Getenv("REDIS_URL"),
		IngestWorkers: getEnvAsIntOrDefault("INGEST_WORKERS", 2),
		LogLevel:      getEnvOrDefault("LOG_LEVEL", "info"),
		LogFile:       os.Getenv("LOG_FILE"),
	}

	switch cfg.VectorStore {
	case VectorStoreSupabase:
		cfg.SupabaseURL = mustGetEnv("SUPABASE_URL")
		cfg.SupabaseServiceKey = mustGetEnv("SUPABASE_SERVICE_KEY")
	case VectorStorePostgres:
		cfg.DatabaseURL = mustGetEnv("DATABASE_URL")
	default:
		panic(fmt.Sprintf("unsupported VECTOR_STORE %q", cfg.VectorStore))
	}

	for _, provider := range []string{cfg.LLMProvider, cfg.EmbeddingProvider} {
		switch provider {
		case ProviderOpenAI:
			cfg.OpenAIAPIKey = mustGetEnv("OPENAI_API_KEY")
		case ProviderGemini:
			cfg.GeminiAPIKey = mustGetEnv("GEMINI_API_KEY")
		case ProviderAnthropic:
			cfg.AnthropicAPIKey = mustGetEnv("ANTHROPIC_API_KEY")
		default:
			panic(fmt.Sprintf("unsupported provider %q", provider))
		}
	}

	if cfg.EmbeddingProvider == ProviderAnthropic {
		panic("anthropic does not provide embeddings; set EMBEDDING_PROVIDER to openai or gemini")
	}

	if dims := embeddingDimensions[cfg.EmbeddingProvider]; dims != cfg.EmbeddingDimensions {
		panic(fmt.Sprintf("EMBEDDING_PROVIDER %s returns %d-dimension vectors but EMBEDDING_DIMENSIONS is %d; migrate the embedding column and set EMBEDDING_DIMENSIONS to match",
			cfg.EmbeddingProvider, dims, cfg.EmbeddingDimensions))
	}

	return cfg
}

// RedisEnabled reports whether the ingestion queue and status feed are configured.
func (c *Config) RedisEnabled() bool {
	return c.RedisURL != ""
}

func mustGetEnv(key string) string {
	val := os.Getenv(key)
	if val == "" {
		panic(fmt.Sprintf("required environment variable %s is not set", key))
	}
	return val
}

func getEnvOrDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func getEnvAsIntOrDefault(key string, defaultVal int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return n
}
