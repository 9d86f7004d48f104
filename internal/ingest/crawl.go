package ingest

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"docschat/internal/models"
)

const DefaultMaxConcurrent = 5

// CrawlResult totals a crawl. Pages counts successfully fetched pages.
type CrawlResult struct {
	Pages  int
	Failed int
	Stats  models.IngestStats
}

// Crawl processes urls with at most maxConcurrent pages in flight. A page
// that cannot be fetched is logged and counted; the crawl carries on.
func (p *Processor) Crawl(ctx context.Context, urls []string, maxConcurrent int, updateExisting bool) CrawlResult {
	if maxConcurrent <= 0 {
		maxConcurrent = DefaultMaxConcurrent
	}

	var (
		result CrawlResult
		mu     sync.Mutex
		wg     sync.WaitGroup
	)
	sem := make(chan struct{}, maxConcurrent)

	for _, u := range urls {
		if ctx.Err() != nil {
			break
		}

		select {
		case sem <- struct{}{}:
		case <-ctx.Done():
			wg.Wait()
			return result
		}

		wg.Add(1)
		go func(pageURL string) {
			defer wg.Done()
			defer func() { <-sem }()

			stats, err := p.ProcessURL(ctx, pageURL, updateExisting)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				result.Failed++
				p.logger.Error("failed to process page", zap.String("url", pageURL), zap.Error(err))
				return
			}
			result.Pages++
			result.Stats.Chunks += stats.Chunks
			result.Stats.Inserted += stats.Inserted
			result.Stats.Updated += stats.Updated
			result.Stats.Skipped += stats.Skipped
			result.Stats.Failed += stats.Failed
		}(u)
	}

	wg.Wait()
	return result
}
