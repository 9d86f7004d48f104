package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"go.uber.org/zap"

	"docschat/internal/app"
	"docschat/internal/config"
	"docschat/internal/database"
	"docschat/internal/ingest"
	"docschat/internal/logging"
	"docschat/internal/worker"
)

type sourceFlags struct {
	Sitemap        string   `help:"Sitemap listing the pages to crawl." default:"https://api-docs.deepseek.com/sitemap.xml"`
	Sources        string   `help:"YAML file with sitemaps and urls; replaces --sitemap." type:"existingfile"`
	URL            []string `help:"Extra page URL to crawl (repeatable)." name:"url"`
	UpdateExisting bool     `help:"Overwrite chunks that are already stored."`
}

// resolve returns the page URLs to ingest in first-seen order.
func (f sourceFlags) resolve(ctx context.Context, client *http.Client) ([]string, error) {
	sources := &ingest.Sources{Sitemaps: []string{f.Sitemap}}
	if f.Sources != "" {
		loaded, err := ingest.LoadSources(f.Sources)
		if err != nil {
			return nil, err
		}
		sources = loaded
	}
	sources.URLs = append(sources.URLs, f.URL...)

	return sources.Resolve(ctx, client)
}

type crawlCmd struct {
	sourceFlags
	MaxConcurrent int `help:"Pages processed at once." default:"5"`
}

func (c *crawlCmd) Run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	httpClient := &http.Client{Timeout: 60 * time.Second}

	urls, err := c.resolve(ctx, httpClient)
	if err != nil {
		return err
	}
	if len(urls) == 0 {
		logger.Warn("no URLs found to crawl")
		return nil
	}
	logger.Info("found URLs to crawl", zap.Int("count", len(urls)))

	providers, err := app.NewProviders(ctx, cfg)
	if err != nil {
		return err
	}
	defer providers.Close()

	store, closeStore, err := app.NewStore(cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	processor := ingest.NewProcessor(
		ingest.NewExtractor(httpClient),
		providers.Embedder,
		providers.Ingest,
		store,
		cfg.DocsSource,
		c.MaxConcurrent,
		logger,
	)

	result := processor.Crawl(ctx, urls, c.MaxConcurrent, c.UpdateExisting)
	logger.Info("crawl finished",
		zap.Int("pages", result.Pages),
		zap.Int("failed_pages", result.Failed),
		zap.Int("chunks", result.Stats.Chunks),
		zap.Int("inserted", result.Stats.Inserted),
		zap.Int("updated", result.Stats.Updated),
		zap.Int("skipped", result.Stats.Skipped),
		zap.Int("failed_chunks", result.Stats.Failed),
	)
	return nil
}

type enqueueCmd struct {
	sourceFlags
}

func (c *enqueueCmd) Run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	if !cfg.RedisEnabled() {
		return fmt.Errorf("REDIS_URL must be set to enqueue ingestion jobs")
	}

	urls, err := c.resolve(ctx, &http.Client{Timeout: 60 * time.Second})
	if err != nil {
		return err
	}

	redisClients, err := database.NewRedisClients(cfg.RedisURL)
	if err != nil {
		return err
	}
	defer redisClients.Close()

	jobs, err := worker.Enqueue(ctx, redisClients.Queue, urls, c.UpdateExisting)
	logger.Info("enqueued ingestion jobs", zap.Int("count", len(jobs)), zap.String("queue", worker.IngestQueue))
	return err
}

var cli struct {
	Crawl   crawlCmd   `cmd:"" help:"Crawl pages and store their chunks in the vector store."`
	Enqueue enqueueCmd `cmd:"" help:"Queue pages for the server's ingestion workers."`
}

func main() {
	kctx := kong.Parse(&cli,
		kong.Name("crawler"),
		kong.Description("Index documentation pages for the docs chat assistant."),
		kong.UsageOnError(),
	)

	cfg := config.Load()

	logger, err := logging.New(cfg.LogLevel, cfg.LogFile)
	kctx.FatalIfErrorf(err)
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	kctx.BindTo(ctx, (*context.Context)(nil))
	kctx.FatalIfErrorf(kctx.Run(cfg, logger))
}
