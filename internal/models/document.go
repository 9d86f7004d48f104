package models

import "time"

// Document is a retrieved match from the vector store.
type Document struct {
	Title      string  `json:"title"`
	URL        string  `json:"url"`
	Content    string  `json:"content"`
	Similarity float64 `json:"similarity,omitempty"`
}

// PageChunk is one stored chunk of a crawled documentation page.
type PageChunk struct {
	URL         string        `json:"url"`
	ChunkNumber int           `json:"chunk_number"`
	Title       string        `json:"title"`
	Summary     string        `json:"summary"`
	Content     string        `json:"content"`
	Metadata    ChunkMetadata `json:"metadata"`
	Embedding   []float32     `json:"embedding,omitempty"`
}

type ChunkMetadata struct {
	Source    string    `json:"source"`
	ChunkSize int       `json:"chunk_size"`
	CrawledAt time.Time `json:"crawled_at"`
	URLPath   string    `json:"url_path"`
}

type PageListResponse struct {
	URLs []string `json:"urls"`
}

type PageContentResponse struct {
	URL     string `json:"url"`
	Title   string `json:"title"`
	Content string `json:"content"`
}
