package ingest

import (
	"strings"
	"unicode/utf8"
)

const DefaultChunkSize = 5000

// ChunkText splits text into chunks of at most size bytes. Inside each window
// it prefers to cut before the last code fence, then at the last paragraph
// break, then after the last sentence end, but only when that point lies past
// 30% of the window. Chunks are trimmed and empty ones dropped.
func ChunkText(text string, size int) []string {
	if size <= 0 {
		size = DefaultChunkSize
	}

	var chunks []string
	minCut := int(float64(size) * 0.3)
	start := 0

	for start < len(text) {
		end := start + size
		if end >= len(text) {
			if c := strings.TrimSpace(text[start:]); c != "" {
				chunks = append(chunks, c)
			}
			break
		}

		for end > start && !utf8.RuneStart(text[end]) {
			end--
		}
		window := text[start:end]

		if i := strings.LastIndex(window, "```"); i > minCut {
			end = start + i
		} else if i := strings.LastIndex(window, "\n\n"); i > minCut {
			end = start + i
		} else if i := strings.LastIndex(window, ". "); i > minCut {
			end = start + i + 1
		}

		if c := strings.TrimSpace(text[start:end]); c != "" {
			chunks = append(chunks, c)
		}

		start = max(start+1, end)
	}

	return chunks
}
