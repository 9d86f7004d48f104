package config

import (
	"os"
	"testing"
)

func TestGetEnvOrDefault(t *testing.T) {
	tests := []struct {
		name       string
		key        string
		envValue   string
		defaultVal string
		expected   string
	}{
		{"uses env value", "TEST_VAR_1", "hello", "default", "hello"},
		{"uses default when empty", "TEST_VAR_2", "", "default", "default"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if tc.envValue != "" {
				os.Setenv(tc.key, tc.envValue)
				defer os.Unsetenv(tc.key)
			}

			result := getEnvOrDefault(tc.key, tc.defaultVal)
			if result != tc.expected {
				t.Errorf("Expected %q, got %q", tc.expected, result)
			}
		})
	}
}

func TestGetEnvAsIntOrDefault(t *testing.T) {
	tests := []struct {
		name       string
		key        string
		envValue   string
		defaultVal int
		expected   int
	}{
		{"parses integer", "TEST_INT_1", "42", 10, 42},
		{"uses default for empty", "TEST_INT_2", "", 10, 10},
		{"uses default for non-numeric", "TEST_INT_3", "abc", 10, 10},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if tc.envValue != "" {
				os.Setenv(tc.key, tc.envValue)
				defer os.Unsetenv(tc.key)
			}

			result := getEnvAsIntOrDefault(tc.key, tc.defaultVal)
			if result != tc.expected {
				t.Errorf("Expected %d, got %d", tc.expected, result)
			}
		})
	}
}

func TestMustGetEnv_Panics(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("Expected panic for missing required env var")
		}
	}()

	os.Unsetenv("NONEXISTENT_REQUIRED_VAR")
	mustGetEnv("NONEXISTENT_REQUIRED_VAR")
}

func TestMustGetEnv_ReturnsValue(t *testing.T) {
	os.Setenv("TEST_REQUIRED", "value123")
	defer os.Unsetenv("TEST_REQUIRED")

	result := mustGetEnv("TEST_REQUIRED")
	if result != "value123" {
		t.Errorf("Expected 'value123', got %q", result)
	}
}

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("VECTOR_STORE", "")
	t.Setenv("SUPABASE_URL", "https://project.supabase.co")
	t.Setenv("SUPABASE_SERVICE_KEY", "service-key")
	t.Setenv("LLM_PROVIDER", "")
	t.Setenv("EMBEDDING_PROVIDER", "")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("LLM_MODEL", "")
	t.Setenv("INGEST_LLM_MODEL", "")
	t.Setenv("EMBEDDING_DIMENSIONS", "")
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("PORT", "")
	t.Setenv("REDIS_URL", "")
}

func TestLoad_Defaults(t *testing.T) {
	setRequiredEnv(t)

	cfg := Load()

	if cfg.Port != "5000" {
		t.Errorf("Expected default port 5000, got %q", cfg.Port)
	}
	if cfg.VectorStore != VectorStoreSupabase {
		t.Errorf("Expected supabase vector store, got %q", cfg.VectorStore)
	}
	if cfg.LLMProvider != ProviderOpenAI || cfg.EmbeddingProvider != ProviderOpenAI {
		t.Errorf("Expected openai providers, got %q/%q", cfg.LLMProvider, cfg.EmbeddingProvider)
	}
	if cfg.LLMModel != "" {
		t.Errorf("Expected empty model override, got %q", cfg.LLMModel)
	}
	if cfg.DocsSource != "deepseek_docs" {
		t.Errorf("Expected deepseek_docs source, got %q", cfg.DocsSource)
	}
	if cfg.RedisEnabled() {
		t.Error("Expected redis to be disabled without REDIS_URL")
	}
}

func TestLoad_ModelOverride(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("LLM_MODEL", "gpt-4o")

	cfg := Load()

	if cfg.LLMModel != "gpt-4o" {
		t.Errorf("Expected LLM_MODEL override, got %q", cfg.LLMModel)
	}
	if cfg.IngestLLMModel != "gpt-4o" {
		t.Errorf("Expected ingest model to follow LLM_MODEL, got %q", cfg.IngestLLMModel)
	}
}

func TestLoad_PostgresRequiresDatabaseURL(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("VECTOR_STORE", "postgres")
	t.Setenv("DATABASE_URL", "")

	defer func() {
		if r := recover(); r == nil {
			t.Error("Expected panic when DATABASE_URL is missing for postgres store")
		}
	}()

	Load()
}

func TestLoad_AnthropicEmbeddingsRejected(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("EMBEDDING_PROVIDER", "anthropic")
	t.Setenv("ANTHROPIC_API_KEY", "key")

	defer func() {
		if r := recover(); r == nil {
			t.Error("Expected panic for anthropic embedding provider")
		}
	}()

	Load()
}

func TestLoad_GeminiEmbeddingsRejectedForShippedSchema(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("EMBEDDING_PROVIDER", "gemini")
	t.Setenv("GEMINI_API_KEY", "key")

	defer func() {
		if r := recover(); r == nil {
			t.Error("Expected panic for gemini embeddings against the 1536-dimension schema")
		}
	}()

	Load()
}

func TestLoad_GeminiEmbeddingsWithMatchingDimensions(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("EMBEDDING_PROVIDER", "gemini")
	t.Setenv("GEMINI_API_KEY", "key")
	t.Setenv("EMBEDDING_DIMENSIONS", "768")

	cfg := Load()

	if cfg.EmbeddingDimensions != 768 {
		t.Errorf("Expected 768 dimensions, got %d", cfg.EmbeddingDimensions)
	}
	if cfg.EmbeddingProvider != ProviderGemini {
		t.Errorf("Expected gemini embeddings, got %q", cfg.EmbeddingProvider)
	}
}
