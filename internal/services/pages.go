package services

import (
	"context"
	"strings"

	"docschat/internal/models"
	"docschat/internal/vectorstore"
)

type PagesService struct {
	store vectorstore.Store
}

func NewPagesService(store vectorstore.Store) *PagesService {
	return &PagesService{store: store}
}

func (s *PagesService) List(ctx context.Context) ([]string, error) {
	urls, err := s.store.ListURLs(ctx)
	if err != nil {
		return nil, err
	}
	if urls == nil {
		urls = []string{}
	}
	return urls, nil
}

// Content reassembles a crawled page from its chunks: a "# <title>" heading
// taken from the first chunk, then every chunk body in chunk order.
func (s *PagesService) Content(ctx context.Context, url string) (*models.PageContentResponse, error) {
	if strings.TrimSpace(url) == "" {
		return nil, &ValidationError{Field: "url", Message: "Query parameter url is required"}
	}

	chunks, err := s.store.PageChunks(ctx, url)
	if err != nil {
		return nil, err
	}
	if len(chunks) == 0 {
		return nil, &NotFoundError{Message: "No content found for URL: " + url}
	}

	title := chunks[0].Title

	parts := make([]string, 0, len(chunks)+1)
	parts = append(parts, "# "+title)
	for _, c := range chunks {
		parts = append(parts, c.Content)
	}

	return &models.PageContentResponse{
		URL:     url,
		Title:   title,
		Content: strings.Join(parts, "\n\n"),
	}, nil
}
