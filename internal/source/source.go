package source

import (
	"context"
	"io"
	"log/slog"
)

const (
	userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) " +
		"AppleWebKit/537.36 (KHTML, like Gecko) Chrome/127.0.0.0 Safari/537.36"

	maxBodyBytes = 5 << 20
)

// Extractor turns a validated URL into raw text.
type Extractor interface {
	Extract(ctx context.Context, rawURL string) (string, error)
}

func closeBody(ctx context.Context, log *slog.Logger, body io.Closer, operation, rawURL string) {
	if err := body.Close(); err != nil {
		log.ErrorContext(ctx, "Failed to close response body",
			"error", err,
			"operation", operation,
			"url", rawURL)
	}
}
