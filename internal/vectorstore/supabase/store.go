package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"

	"docschat/internal/models"
	"docschat/internal/vectorstore"
)

// Store talks to Supabase through its PostgREST interface.
type Store struct {
	baseURL    string
	serviceKey string
	source     string
	client     *http.Client
}

func NewStore(projectURL, serviceKey, source string, client *http.Client) *Store {
	if client == nil {
		client = http.DefaultClient
	}
	return &Store{
		baseURL:    strings.TrimRight(projectURL, "/") + "/rest/v1",
		serviceKey: serviceKey,
		source:     source,
		client:     client,
	}
}

type matchRequest struct {
	QueryEmbedding []float32         `json:"query_embedding"`
	MatchCount     int               `json:"match_count"`
	Filter         map[string]string `json:"filter,omitempty"`
}

func (s *Store) Match(ctx context.Context, embedding []float32, count int) ([]models.Document, error) {
	req := matchRequest{
		QueryEmbedding: embedding,
		MatchCount:     count,
	}
	if s.source != "" {
		req.Filter = map[string]string{"source": s.source}
	}

	var docs []models.Document
	if err := s.do(ctx, http.MethodPost, "/rpc/"+vectorstore.MatchFunction, nil, req, nil, &docs); err != nil {
		return nil, fmt.Errorf("supabase rpc %s: %w", vectorstore.MatchFunction, err)
	}

	return docs, nil
}

func (s *Store) ListURLs(ctx context.Context) ([]string, error) {
	q := url.Values{}
	q.Set("select", "url")
	if s.source != "" {
		q.Set("metadata->>source", "eq."+s.source)
	}

	var rows []struct {
		URL string `json:"url"`
	}
	if err := s.do(ctx, http.MethodGet, "/"+vectorstore.PagesTable, q, nil, nil, &rows); err != nil {
		return nil, fmt.Errorf("supabase list urls: %w", err)
	}

	seen := make(map[string]struct{}, len(rows))
	urls := make([]string, 0, len(rows))
	for _, r := range rows {
		if _, ok := seen[r.URL]; ok {
			continue
		}
		seen[r.URL] = struct{}{}
		urls = append(urls, r.URL)
	}
	sort.Strings(urls)

	return urls, nil
}

func (s *Store) PageChunks(ctx context.Context, pageURL string) ([]models.PageChunk, error) {
	q := url.Values{}
	q.Set("select", "url,chunk_number,title,summary,content,metadata")
	q.Set("url", "eq."+pageURL)
	q.Set("order", "chunk_number")

	var chunks []models.PageChunk
	if err := s.do(ctx, http.MethodGet, "/"+vectorstore.PagesTable, q, nil, nil, &chunks); err != nil {
		return nil, fmt.Errorf("supabase page chunks: %w", err)
	}

	return chunks, nil
}

type chunkRow struct {
	URL         string               `json:"url"`
	ChunkNumber int                  `json:"chunk_number"`
	Title       string               `json:"title"`
	Summary     string               `json:"summary"`
	Content     string               `json:"content"`
	Metadata    models.ChunkMetadata `json:"metadata"`
	Embedding   []float32            `json:"embedding"`
}

func (s *Store) SaveChunk(ctx context.Context, chunk models.PageChunk, updateExisting bool) (vectorstore.SaveResult, error) {
	key := url.Values{}
	key.Set("url", "eq."+chunk.URL)
	key.Set("chunk_number", fmt.Sprintf("eq.%d", chunk.ChunkNumber))

	existsQuery := url.Values{}
	existsQuery.Set("select", "id")
	for k, v := range key {
		existsQuery[k] = v
	}

	var existing []json.RawMessage
	if err := s.do(ctx, http.MethodGet, "/"+vectorstore.PagesTable, existsQuery, nil, nil, &existing); err != nil {
		return vectorstore.Skipped, fmt.Errorf("supabase chunk lookup: %w", err)
	}

	row := chunkRow(chunk)
	headers := map[string]string{"Prefer": "return=minimal"}

	if len(existing) > 0 {
		if !updateExisting {
			return vectorstore.Skipped, nil
		}
		if err := s.do(ctx, http.MethodPatch, "/"+vectorstore.PagesTable, key, row, headers, nil); err != nil {
			return vectorstore.Skipped, fmt.Errorf("supabase chunk update: %w", err)
		}
		return vectorstore.Updated, nil
	}

	if err := s.do(ctx, http.MethodPost, "/"+vectorstore.PagesTable, nil, row, headers, nil); err != nil {
		return vectorstore.Skipped, fmt.Errorf("supabase chunk insert: %w", err)
	}
	return vectorstore.Inserted, nil
}

func (s *Store) do(ctx context.Context, method, path string, query url.Values, body interface{}, headers map[string]string, out interface{}) error {
	endpoint := s.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return err
	}
	req.Header.Set("apikey", s.serviceKey)
	req.Header.Set("Authorization", "Bearer "+s.serviceKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("status: %s body: %s", resp.Status, strings.TrimSpace(string(b)))
	}

	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
