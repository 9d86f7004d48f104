package ingest

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const DefaultSitemapURL = "https://api-docs.deepseek.com/sitemap.xml"

type sitemapLoc struct {
	Loc string `xml:"loc"`
}

// sitemapDoc decodes both <urlset> and <sitemapindex> roots.
type sitemapDoc struct {
	URLs     []sitemapLoc `xml:"url"`
	Sitemaps []sitemapLoc `xml:"sitemap"`
}

// ParseSitemap returns the page URLs and nested sitemap URLs listed in r.
func ParseSitemap(r io.Reader) (pages []string, nested []string, err error) {
	var doc sitemapDoc
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, nil, fmt.Errorf("failed to parse sitemap: %w", err)
	}

	for _, u := range doc.URLs {
		if loc := strings.TrimSpace(u.Loc); loc != "" {
			pages = append(pages, loc)
		}
	}
	for _, s := range doc.Sitemaps {
		if loc := strings.TrimSpace(s.Loc); loc != "" {
			nested = append(nested, loc)
		}
	}

	return pages, nested, nil
}

// FetchSitemap downloads a sitemap and returns its page URLs, following one
// level of sitemap index.
func FetchSitemap(ctx context.Context, client *http.Client, sitemapURL string) ([]string, error) {
	pages, nested, err := fetchSitemap(ctx, client, sitemapURL)
	if err != nil {
		return nil, err
	}

	for _, child := range nested {
		childPages, _, err := fetchSitemap(ctx, client, child)
		if err != nil {
			return nil, err
		}
		pages = append(pages, childPages...)
	}

	return pages, nil
}

func fetchSitemap(ctx context.Context, client *http.Client, sitemapURL string) ([]string, []string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, sitemapURL, nil)
	if err != nil {
		return nil, nil, err
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to fetch sitemap %s: %w", sitemapURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, nil, fmt.Errorf("failed to fetch sitemap %s: status %d", sitemapURL, resp.StatusCode)
	}

	return ParseSitemap(resp.Body)
}
