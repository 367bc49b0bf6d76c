package summarizer

import (
	"context"
	"summation/internal/domain"
)

// Request describes the payload for a summary request.
type Request struct {
	// Config carries the per-invocation model, endpoint and credential.
	Config domain.SummaryRequestConfig
	// Text is the normalized content to summarize.
	Text string
}

// Summarizer produces a single summary for a given request.
type Summarizer interface {
	Summarize(ctx context.Context, req Request) (string, error)
}
