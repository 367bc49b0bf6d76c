package domain

import (
	"log/slog"
	"time"
)

// Temperature is fixed for every summary request.
const Temperature = 0.3

type SourceKind int

const (
	SourceUnknown SourceKind = iota
	SourceVideoTranscript
	SourceWebPage
)

func (k SourceKind) String() string {
	switch k {
	case SourceVideoTranscript:
		return "video_transcript"
	case SourceWebPage:
		return "web_page"
	default:
		return "unknown"
	}
}

// Input is everything a single pipeline invocation needs from its caller.
type Input struct {
	Credential string
	Model      Model
	URL        string
}

// SummaryRequestConfig is built once per invocation and never persisted.
type SummaryRequestConfig struct {
	Credential  string
	Model       Model
	Endpoint    string
	Temperature float64
	Timeout     time.Duration
}

func (c SummaryRequestConfig) String() string {
	return "SummaryRequestConfig{model=" + c.Model.String() + ", endpoint=" + c.Endpoint + ", credential=[redacted]}"
}

func (c SummaryRequestConfig) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("model", c.Model.String()),
		slog.String("endpoint", c.Endpoint),
		slog.Float64("temperature", c.Temperature),
		slog.Duration("timeout", c.Timeout),
	)
}

type Result struct {
	Summary       string
	ContentLength int
	Source        SourceKind
	Model         Model
}

type UserSettings struct {
	UserID int64
	Model  Model
}
