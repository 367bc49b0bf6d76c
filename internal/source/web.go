package source

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"summation/internal/domain"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html/charset"
)

const DefaultFetchTimeout = 10 * time.Second

// PageExtractor fetches a web page and returns its visible text.
type PageExtractor struct {
	client *http.Client
	log    *slog.Logger
}

func NewPageExtractor(timeout time.Duration, log *slog.Logger) *PageExtractor {
	if timeout <= 0 {
		timeout = DefaultFetchTimeout
	}

	return &PageExtractor{
		client: &http.Client{Timeout: timeout},
		log:    log,
	}
}

func (e *PageExtractor) Extract(ctx context.Context, rawURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", domain.NewError(domain.KindFetchFailed, "create request", err)
	}

	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	resp, err := e.client.Do(req) //nolint:gosec // URL is validated by the caller
	if err != nil {
		return "", domain.NewError(domain.KindFetchFailed, "do request", err)
	}
	defer closeBody(ctx, e.log, resp.Body, "PageExtractor.Extract", rawURL)

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return "", domain.NewError(
			domain.KindFetchFailed,
			"do request",
			fmt.Errorf("unexpected status: %d %s", resp.StatusCode, http.StatusText(resp.StatusCode)),
		)
	}

	body, err := charset.NewReader(io.LimitReader(resp.Body, maxBodyBytes), resp.Header.Get("Content-Type"))
	if err != nil {
		return "", domain.NewError(domain.KindFetchFailed, "detect charset", err)
	}

	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		return "", domain.NewError(domain.KindFetchFailed, "create document from reader", err)
	}

	return TextFromDocument(doc), nil
}

// TextFromDocument drops non-content nodes and returns the remaining text in document order.
func TextFromDocument(doc *goquery.Document) string {
	doc.Find("script, style, noscript, template").Remove()

	return doc.Text()
}
