package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"docschat/internal/llm"
	"docschat/internal/models"
	"docschat/internal/vectorstore"
)

const (
	fallbackTitle   = "Error processing title"
	fallbackSummary = "Error processing summary"

	// summaryExcerpt bounds how much of a chunk is sent for title extraction.
	summaryExcerpt = 1000
)

const titleSummaryPrompt = `You are an AI that extracts titles and summaries from documentation chunks.
Return a JSON object with 'title' and 'summary' keys.
For the title: If this seems like the start of a document, extract its title. If it's a middle chunk, derive a descriptive title.
For the summary: Create a concise summary of the main points in this chunk.
Keep both title and summary concise but informative.`

type Fetcher interface {
	Fetch(ctx context.Context, pageURL string) (string, error)
}

type Processor struct {
	fetcher   Fetcher
	embedder  llm.Embedder
	completer llm.Completer
	store     vectorstore.Store
	source    string
	chunkSize int
	logger    *zap.Logger
	llmSlots  chan struct{}
	now       func() time.Time
}

// NewProcessor builds a page processor. llmConcurrency caps how many chunk
// enrichments (title, summary and embedding) run at once across all pages.
func NewProcessor(
	fetcher Fetcher,
	embedder llm.Embedder,
	completer llm.Completer,
	store vectorstore.Store,
	source string,
	llmConcurrency int,
	logger *zap.Logger,
) *Processor {
	if llmConcurrency <= 0 {
		llmConcurrency = 1
	}

	slots := make(chan struct{}, llmConcurrency)
	for i := 0; i < llmConcurrency; i++ {
		slots <- struct{}{}
	}

	return &Processor{
		fetcher:   fetcher,
		embedder:  embedder,
		completer: completer,
		store:     store,
		source:    source,
		chunkSize: DefaultChunkSize,
		logger:    logger,
		llmSlots:  slots,
		now:       time.Now,
	}
}

// ProcessURL fetches one page, splits it and stores every chunk. Only a
// fetch failure is returned as an error; chunk failures are counted.
func (p *Processor) ProcessURL(ctx context.Context, pageURL string, updateExisting bool) (models.IngestStats, error) {
	var stats models.IngestStats

	text, err := p.fetcher.Fetch(ctx, pageURL)
	if err != nil {
		return stats, err
	}

	chunks := ChunkText(text, p.chunkSize)
	stats.Chunks = len(chunks)

	var (
		wg sync.WaitGroup
		mu sync.Mutex
	)
	for i, chunk := range chunks {
		wg.Add(1)
		go func(number int, content string) {
			defer wg.Done()

			result, err := p.processChunk(ctx, pageURL, number, content, updateExisting)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				stats.Failed++
				p.logger.Warn("chunk failed",
					zap.String("url", pageURL),
					zap.Int("chunk", number),
					zap.Error(err),
				)
				return
			}
			switch result {
			case vectorstore.Inserted:
				stats.Inserted++
			case vectorstore.Updated:
				stats.Updated++
			default:
				stats.Skipped++
			}
		}(i, chunk)
	}
	wg.Wait()

	p.logger.Info("processed page",
		zap.String("url", pageURL),
		zap.Int("chunks", stats.Chunks),
		zap.Int("inserted", stats.Inserted),
		zap.Int("updated", stats.Updated),
		zap.Int("skipped", stats.Skipped),
		zap.Int("failed", stats.Failed),
	)

	return stats, nil
}

func (p *Processor) processChunk(ctx context.Context, pageURL string, number int, content string, updateExisting bool) (vectorstore.SaveResult, error) {
	if err := p.acquire(ctx); err != nil {
		return vectorstore.Skipped, err
	}
	title, summary := p.titleAndSummary(ctx, pageURL, content)
	embedding, err := p.embedder.Embed(ctx, content)
	p.release()
	if err != nil {
		return vectorstore.Skipped, fmt.Errorf("embedding failed: %w", err)
	}

	chunk := models.PageChunk{
		URL:         pageURL,
		ChunkNumber: number,
		Title:       title,
		Summary:     summary,
		Content:     content,
		Metadata: models.ChunkMetadata{
			Source:    p.source,
			ChunkSize: len(content),
			CrawledAt: p.now().UTC(),
			URLPath:   urlPath(pageURL),
		},
		Embedding: embedding,
	}

	result, err := p.store.SaveChunk(ctx, chunk, updateExisting)
	if err != nil {
		return vectorstore.Skipped, fmt.Errorf("save failed: %w", err)
	}
	return result, nil
}

func (p *Processor) acquire(ctx context.Context) error {
	select {
	case <-p.llmSlots:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *Processor) release() {
	p.llmSlots <- struct{}{}
}

type titleSummary struct {
	Title   string `json:"title"`
	Summary string `json:"summary"`
}

// titleAndSummary never fails; provider or parse errors yield fixed
// placeholder values so the chunk is still stored.
func (p *Processor) titleAndSummary(ctx context.Context, pageURL, content string) (string, string) {
	excerpt := content
	if len(excerpt) > summaryExcerpt {
		excerpt = excerpt[:summaryExcerpt]
	}

	messages := []models.ChatMessage{
		{Role: models.RoleSystem, Content: titleSummaryPrompt},
		{Role: models.RoleUser, Content: fmt.Sprintf("URL: %s\n\nContent:\n%s...", pageURL, excerpt)},
	}

	raw, err := p.completer.Complete(ctx, messages, llm.WithJSONResponse())
	if err != nil {
		p.logger.Warn("title and summary extraction failed", zap.String("url", pageURL), zap.Error(err))
		return fallbackTitle, fallbackSummary
	}

	parsed, err := parseTitleSummary(raw)
	if err != nil {
		p.logger.Warn("title and summary response was not valid JSON", zap.String("url", pageURL), zap.Error(err))
		return fallbackTitle, fallbackSummary
	}

	if parsed.Title == "" {
		parsed.Title = fallbackTitle
	}
	if parsed.Summary == "" {
		parsed.Summary = fallbackSummary
	}
	return parsed.Title, parsed.Summary
}

// parseTitleSummary accepts a bare JSON object or one wrapped in a markdown
// code fence.
func parseTitleSummary(raw string) (titleSummary, error) {
	var ts titleSummary

	s := strings.TrimSpace(raw)
	if start, end := strings.Index(s, "{"), strings.LastIndex(s, "}"); start >= 0 && end > start {
		s = s[start : end+1]
	}

	if err := json.Unmarshal([]byte(s), &ts); err != nil {
		return ts, err
	}
	return ts, nil
}

func urlPath(pageURL string) string {
	u, err := url.Parse(pageURL)
	if err != nil {
		return ""
	}
	return u.Path
}
