package ingest

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/ledongthuc/pdf"
)

const maxDocumentBytes = 20 << 20

// Extractor downloads documentation pages and turns them into plain text
// with markdown-style headings and fenced code blocks.
type Extractor struct {
	client    *http.Client
	userAgent string
}

func NewExtractor(client *http.Client) *Extractor {
	return &Extractor{client: client, userAgent: "docschat-crawler/1.0"}
}

func (e *Extractor) Fetch(ctx context.Context, pageURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", e.userAgent)

	resp, err := e.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch %s: %w", pageURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("failed to fetch %s: status %d", pageURL, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxDocumentBytes))
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", pageURL, err)
	}

	var text string
	if isPDF(resp.Header.Get("Content-Type"), pageURL) {
		text, err = ExtractPDF(body)
	} else {
		text, err = ExtractHTML(bytes.NewReader(body))
	}
	if err != nil {
		return "", fmt.Errorf("failed to extract %s: %w", pageURL, err)
	}

	return text, nil
}

func isPDF(contentType, pageURL string) bool {
	if strings.HasPrefix(strings.ToLower(contentType), "application/pdf") {
		return true
	}
	path := strings.SplitN(strings.SplitN(pageURL, "?", 2)[0], "#", 2)[0]
	return strings.HasSuffix(strings.ToLower(path), ".pdf")
}

var blockElements = map[string]bool{
	"p": true, "div": true, "section": true, "article": true, "main": true,
	"ul": true, "ol": true, "table": true, "tr": true, "blockquote": true,
	"dl": true, "dt": true, "dd": true, "figure": true,
}

// ExtractHTML renders the main content of an HTML page. Navigation chrome,
// scripts and styles are dropped.
func ExtractHTML(r io.Reader) (string, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return "", err
	}

	doc.Find("script, style, noscript, svg, nav, header, footer, aside, iframe").Remove()

	root := doc.Find("main").First()
	if root.Length() == 0 {
		root = doc.Find("article").First()
	}
	if root.Length() == 0 {
		root = doc.Find("body").First()
	}

	var b strings.Builder
	renderNodes(&b, root)

	text := normalizeText(b.String())
	if text == "" {
		return "", fmt.Errorf("no extractable text found in html")
	}
	return text, nil
}

func renderNodes(b *strings.Builder, s *goquery.Selection) {
	s.Contents().Each(func(_ int, c *goquery.Selection) {
		name := goquery.NodeName(c)
		switch {
		case name == "#text":
			writeInline(b, c.Text())
		case len(name) == 2 && name[0] == 'h' && name[1] >= '1' && name[1] <= '6':
			level := int(name[1] - '0')
			b.WriteString("\n\n" + strings.Repeat("#", level) + " " + collapseSpace(c.Text()) + "\n\n")
		case name == "pre":
			b.WriteString("\n\n```\n" + strings.Trim(c.Text(), "\n") + "\n```\n\n")
		case name == "code":
			b.WriteString("`" + c.Text() + "`")
		case name == "br":
			b.WriteString("\n")
		case name == "li":
			b.WriteString("\n- ")
			renderNodes(b, c)
			b.WriteString("\n")
		case blockElements[name]:
			b.WriteString("\n\n")
			renderNodes(b, c)
			b.WriteString("\n\n")
		default:
			renderNodes(b, c)
		}
	})
}

func writeInline(b *strings.Builder, text string) {
	collapsed := collapseSpace(text)
	if collapsed == "" {
		if text != "" {
			b.WriteString(" ")
		}
		return
	}
	if startsWithSpace(text) {
		b.WriteString(" ")
	}
	b.WriteString(collapsed)
	if endsWithSpace(text) {
		b.WriteString(" ")
	}
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func startsWithSpace(s string) bool {
	return s != "" && strings.TrimLeft(s[:1], " \t\r\n") == ""
}

func endsWithSpace(s string) bool {
	return s != "" && strings.TrimRight(s[len(s)-1:], " \t\r\n") == ""
}

// ExtractPDF returns the plain text of every readable page.
func ExtractPDF(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}

	var b strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}

		content, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		b.WriteString(content)
		b.WriteString("\n\n")
	}

	text := normalizeText(b.String())
	if text == "" {
		return "", fmt.Errorf("no extractable text found in pdf")
	}
	return text, nil
}

var blankRuns = regexp.MustCompile(`\n{3,}`)

// normalizeText trims every line and collapses runs of blank lines. Inside
// fenced code blocks only trailing whitespace is removed.
func normalizeText(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")

	lines := strings.Split(s, "\n")
	inFence := false
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "```") {
			inFence = !inFence
			lines[i] = trimmed
			continue
		}
		if inFence {
			lines[i] = strings.TrimRight(line, " \t")
		} else {
			lines[i] = trimmed
		}
	}

	s = blankRuns.ReplaceAllString(strings.Join(lines, "\n"), "\n\n")
	return strings.TrimSpace(s)
}
