package vectorstore

import (
	"context"

	"docschat/internal/models"
)

const (
	PagesTable    = "deepseek_pages"
	MatchFunction = "match_deepseek_pages"

	// MatchCount is the number of neighbours fed into every chat prompt.
	MatchCount = 5
)

type SaveResult int

const (
	Skipped SaveResult = iota
	Inserted
	Updated
)

func (r SaveResult) String() string {
	switch r {
	case Inserted:
		return "inserted"
	case Updated:
		return "updated"
	default:
		return "skipped"
	}
}

// Store is the documentation page index. Match results come back in
// similarity order as ranked by the backend.
type Store interface {
	Match(ctx context.Context, embedding []float32, count int) ([]models.Document, error)
	ListURLs(ctx context.Context) ([]string, error)
	PageChunks(ctx context.Context, url string) ([]models.PageChunk, error)
	SaveChunk(ctx context.Context, chunk models.PageChunk, updateExisting bool) (SaveResult, error)
}
