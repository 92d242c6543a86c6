// Package preview turns a search result's PDF into plain text for the
// in-app reading pane. PDFs are cached on disk; extraction is best effort
// and failures surface as view errors only.
package preview

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"

	"github.com/ledongthuc/pdf"
)

var extraneousWhitespace = regexp.MustCompile(`\s+`)

// Fetcher fetches and extracts paper text.
type Fetcher struct {
	cache *Cache
}

// NewFetcher builds a fetcher. client may be nil.
func NewFetcher(client *http.Client) (*Fetcher, error) {
	cache, err := NewCache(client)
	if err != nil {
		return nil, err
	}
	return &Fetcher{cache: cache}, nil
}

// Text downloads (or reuses) the PDF at pdfURL and returns its plain text
// with runs of whitespace collapsed.
func (f *Fetcher) Text(ctx context.Context, pdfURL string) (string, error) {
	if strings.TrimSpace(pdfURL) == "" {
		return "", fmt.Errorf("paper has no PDF link")
	}

	path, err := f.cache.Fetch(ctx, pdfURL)
	if err != nil {
		return "", err
	}
	return ExtractText(path)
}

// ExtractText pulls the plain text out of a PDF file on disk.
func ExtractText(path string) (string, error) {
	file, reader, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open pdf: %w", err)
	}
	defer file.Close()

	content, err := reader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("failed to extract pdf text: %w", err)
	}

	var builder strings.Builder
	if _, err := io.Copy(&builder, content); err != nil {
		return "", err
	}

	return strings.TrimSpace(extraneousWhitespace.ReplaceAllString(builder.String(), " ")), nil
}
