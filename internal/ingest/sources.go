package ingest

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"gopkg.in/yaml.v3"
)

// Sources lists what to crawl: sitemaps to expand plus individual pages.
type Sources struct {
	Sitemaps []string `yaml:"sitemaps"`
	URLs     []string `yaml:"urls"`
}

func LoadSources(path string) (*Sources, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read sources file: %w", err)
	}

	var s Sources
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to parse sources file %s: %w", path, err)
	}

	return &s, nil
}

// Resolve expands every sitemap and returns the union of page URLs in first
// seen order.
func (s *Sources) Resolve(ctx context.Context, client *http.Client) ([]string, error) {
	seen := make(map[string]bool)
	var urls []string
	add := func(u string) {
		if u != "" && !seen[u] {
			seen[u] = true
			urls = append(urls, u)
		}
	}

	for _, sm := range s.Sitemaps {
		pages, err := FetchSitemap(ctx, client, sm)
		if err != nil {
			return nil, err
		}
		for _, u := range pages {
			add(u)
		}
	}
	for _, u := range s.URLs {
		add(u)
	}

	return urls, nil
}
