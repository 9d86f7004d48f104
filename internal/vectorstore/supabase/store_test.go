package supabase

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"docschat/internal/models"
	"docschat/internal/vectorstore"
)

func TestStore_Match(t *testing.T) {
	var gotBody matchRequest
	var gotKey, gotAuth string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/rest/v1/rpc/match_deepseek_pages" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		gotKey = r.Header.Get("apikey")
		gotAuth = r.Header.Get("Authorization")
		json.NewDecoder(r.Body).Decode(&gotBody)

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[
			{"id":1,"title":"Intro","url":"https://docs/intro","content":"a","similarity":0.91},
			{"id":2,"title":"API","url":"https://docs/api","content":"b","similarity":0.12}
		]`))
	}))
	defer srv.Close()

	s := NewStore(srv.URL+"/", "service-key", "deepseek_docs", srv.Client())

	docs, err := s.Match(context.Background(), []float32{0.1, 0.2}, vectorstore.MatchCount)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if gotKey != "service-key" || gotAuth != "Bearer service-key" {
		t.Fatalf("unexpected auth headers: apikey=%q authorization=%q", gotKey, gotAuth)
	}
	if gotBody.MatchCount != 5 || len(gotBody.QueryEmbedding) != 2 {
		t.Fatalf("unexpected rpc body: %+v", gotBody)
	}
	if gotBody.Filter["source"] != "deepseek_docs" {
		t.Fatalf("expected source filter, got %v", gotBody.Filter)
	}
	if len(docs) != 2 || docs[0].Title != "Intro" || docs[1].URL != "https://docs/api" {
		t.Fatalf("unexpected docs: %+v", docs)
	}
	if docs[1].Similarity != 0.12 {
		t.Fatalf("low similarity documents must be kept, got %+v", docs[1])
	}
}

func TestStore_Match_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"message":"function does not exist"}`))
	}))
	defer srv.Close()

	s := NewStore(srv.URL, "k", "", srv.Client())
	if _, err := s.Match(context.Background(), []float32{1}, 5); err == nil {
		t.Fatalf("expected error for 500 response")
	}
}

func TestStore_ListURLs_SortedUnique(t *testing.T) {
	var gotQuery string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"url":"https://docs/b"},{"url":"https://docs/a"},{"url":"https://docs/b"}]`))
	}))
	defer srv.Close()

	s := NewStore(srv.URL, "k", "deepseek_docs", srv.Client())

	urls, err := s.ListURLs(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(urls) != 2 || urls[0] != "https://docs/a" || urls[1] != "https://docs/b" {
		t.Fatalf("unexpected urls: %v", urls)
	}
	if gotQuery == "" {
		t.Fatalf("expected select/filter query parameters")
	}
}

func TestStore_SaveChunk(t *testing.T) {
	chunk := models.PageChunk{
		URL:         "https://docs/intro",
		ChunkNumber: 0,
		Title:       "Intro",
		Content:     "hello",
		Metadata:    models.ChunkMetadata{Source: "deepseek_docs", ChunkSize: 5, CrawledAt: time.Now().UTC()},
		Embedding:   []float32{0.1},
	}

	tests := []struct {
		name           string
		exists         bool
		updateExisting bool
		want           vectorstore.SaveResult
		wantWrite      string
	}{
		{"inserts new chunk", false, false, vectorstore.Inserted, http.MethodPost},
		{"skips existing chunk", true, false, vectorstore.Skipped, ""},
		{"updates existing chunk", true, true, vectorstore.Updated, http.MethodPatch},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var writeMethod string
			var written map[string]interface{}

			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Method == http.MethodGet {
					w.Header().Set("Content-Type", "application/json")
					if tc.exists {
						w.Write([]byte(`[{"id":7}]`))
					} else {
						w.Write([]byte(`[]`))
					}
					return
				}
				writeMethod = r.Method
				json.NewDecoder(r.Body).Decode(&written)
				w.WriteHeader(http.StatusCreated)
			}))
			defer srv.Close()

			s := NewStore(srv.URL, "k", "deepseek_docs", srv.Client())

			got, err := s.SaveChunk(context.Background(), chunk, tc.updateExisting)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Fatalf("expected %s, got %s", tc.want, got)
			}
			if writeMethod != tc.wantWrite {
				t.Fatalf("expected write method %q, got %q", tc.wantWrite, writeMethod)
			}
			if tc.wantWrite != "" {
				if written["url"] != chunk.URL {
					t.Fatalf("unexpected written row: %v", written)
				}
				if _, ok := written["embedding"]; !ok {
					t.Fatalf("expected embedding in written row")
				}
			}
		})
	}
}

func TestNewStore_NoClientTimeout(t *testing.T) {
	s := NewStore("https://project.supabase.co", "key", "", nil)
	if s.client.Timeout != 0 {
		t.Errorf("Expected no client timeout, got %s", s.client.Timeout)
	}
}

func TestStore_Match_WaitsForCallerContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.Copy(io.Discard, r.Body)
		<-r.Context().Done()
	}))
	defer srv.Close()

	s := NewStore(srv.URL, "key", "", nil)

	ctx, cancel := context.WithTimeout(context.Background(), 150*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := s.Match(ctx, []float32{0.1}, 5)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Expected caller deadline error, got %v", err)
	}
	if elapsed := time.Since(start); elapsed < 150*time.Millisecond {
		t.Errorf("Store gave up after %s, before the caller's context ended", elapsed)
	}
}
