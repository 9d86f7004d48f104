// Package app assembles the provider clients and the vector store selected
// by configuration. Both the server and the crawler start from here.
package app

import (
	"context"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"docschat/internal/config"
	"docschat/internal/database"
	"docschat/internal/llm"
	"docschat/internal/llm/anthropic"
	"docschat/internal/llm/gemini"
	"docschat/internal/llm/openai"
	"docschat/internal/vectorstore"
	"docschat/internal/vectorstore/postgres"
	"docschat/internal/vectorstore/supabase"
)

type Providers struct {
	Embedder llm.Embedder
	// Chat answers user questions; Ingest extracts chunk titles and summaries.
	Chat   llm.Completer
	Ingest llm.Completer

	closers []func()
}

func NewProviders(ctx context.Context, cfg *config.Config) (*Providers, error) {
	p := &Providers{}

	embedder, err := p.embedder(ctx, cfg)
	if err != nil {
		p.Close()
		return nil, err
	}
	p.Embedder = embedder

	if p.Chat, err = p.completer(ctx, cfg, cfg.LLMModel, false); err != nil {
		p.Close()
		return nil, err
	}
	if p.Ingest, err = p.completer(ctx, cfg, cfg.IngestLLMModel, true); err != nil {
		p.Close()
		return nil, err
	}

	return p, nil
}

func (p *Providers) Close() {
	for _, c := range p.closers {
		c()
	}
	p.closers = nil
}

func (p *Providers) embedder(ctx context.Context, cfg *config.Config) (llm.Embedder, error) {
	switch cfg.EmbeddingProvider {
	case config.ProviderOpenAI:
		return openai.New(cfg.OpenAIAPIKey, ""), nil
	case config.ProviderGemini:
		c, err := gemini.New(ctx, cfg.GeminiAPIKey, "")
		if err != nil {
			return nil, err
		}
		p.closers = append(p.closers, c.Close)
		return c, nil
	default:
		return nil, fmt.Errorf("unsupported embedding provider %q", cfg.EmbeddingProvider)
	}
}

func (p *Providers) completer(ctx context.Context, cfg *config.Config, model string, ingest bool) (llm.Completer, error) {
	switch cfg.LLMProvider {
	case config.ProviderOpenAI:
		if model == "" && ingest {
			model = openai.DefaultIngestModel
		}
		return openai.New(cfg.OpenAIAPIKey, model), nil
	case config.ProviderGemini:
		c, err := gemini.New(ctx, cfg.GeminiAPIKey, model)
		if err != nil {
			return nil, err
		}
		p.closers = append(p.closers, c.Close)
		return c, nil
	case config.ProviderAnthropic:
		return anthropic.New(cfg.AnthropicAPIKey, model), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider %q", cfg.LLMProvider)
	}
}

// NewStore opens the configured vector store. For postgres it also applies
// pending migrations. The returned close func is never nil.
func NewStore(cfg *config.Config, logger *zap.Logger) (vectorstore.Store, func(), error) {
	switch cfg.VectorStore {
	case config.VectorStoreSupabase:
		return supabase.NewStore(cfg.SupabaseURL, cfg.SupabaseServiceKey, cfg.DocsSource, http.DefaultClient), func() {}, nil

	case config.VectorStorePostgres:
		pool, err := database.NewPostgresPool(cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		if err := database.RunMigrations(pool, cfg.MigrationsDir, logger); err != nil {
			pool.Close()
			return nil, nil, err
		}
		return postgres.NewStore(pool, cfg.DocsSource), pool.Close, nil

	default:
		return nil, nil, fmt.Errorf("unsupported vector store %q", cfg.VectorStore)
	}
}
