// Package pipeline runs a single URL through validation, extraction,
// normalization and summary generation, stopping at the first failure.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"strings"
	"summation/internal/domain"
	"summation/internal/normalize"
	"summation/internal/source"
	"summation/internal/summarizer"
	"time"
)

type State int

const (
	StateIdle State = iota
	StateValidating
	StateExtracting
	StateNormalizing
	StateGenerating
	StateSucceeded
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateValidating:
		return "Validating"
	case StateExtracting:
		return "Extracting"
	case StateNormalizing:
		return "Normalizing"
	case StateGenerating:
		return "Generating"
	case StateSucceeded:
		return "Succeeded"
	case StateFailed:
		return "Failed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Observer receives progress notifications. Both methods are optional to act on.
type Observer interface {
	// StateChanged is called on every transition.
	StateChanged(ctx context.Context, state State)
	// ContentLoaded is called once normalized content is ready, before generation.
	ContentLoaded(ctx context.Context, length int)
}

// Extraction binds an extractor to the failure kind its untagged errors get.
type Extraction struct {
	Extractor source.Extractor
	Failure   domain.ErrorKind
}

type Config struct {
	Endpoint          string
	GenerationTimeout time.Duration
}

type Pipeline struct {
	extractions map[domain.SourceKind]Extraction
	summarizer  summarizer.Summarizer
	cfg         Config
	log         *slog.Logger
}

func New(
	extractions map[domain.SourceKind]Extraction,
	s summarizer.Summarizer,
	cfg Config,
	log *slog.Logger,
) *Pipeline {
	if strings.TrimSpace(cfg.Endpoint) == "" {
		cfg.Endpoint = summarizer.DefaultEndpoint
	}

	if cfg.GenerationTimeout <= 0 {
		cfg.GenerationTimeout = summarizer.DefaultTimeout
	}

	return &Pipeline{
		extractions: extractions,
		summarizer:  s,
		cfg:         cfg,
		log:         log,
	}
}

// Run processes in end to end. Every returned error is a *domain.Error with the
// credential scrubbed from it.
func (p *Pipeline) Run(ctx context.Context, in domain.Input, obs Observer) (result domain.Result, err error) {
	r := &run{pipeline: p, obs: obs, state: StateIdle}
	start := time.Now()

	defer func() {
		if rec := recover(); rec != nil {
			p.log.ErrorContext(ctx, "Pipeline panicked",
				"panic", rec,
				"stack", string(debug.Stack()))

			err = domain.NewError(domain.KindUnexpected, "pipeline panicked", fmt.Errorf("%v", rec))
		}

		if err != nil {
			err = asDomainError(err, domain.KindUnexpected).Redact(strings.TrimSpace(in.Credential))
			r.transition(ctx, StateFailed)

			p.log.WarnContext(ctx, "Pipeline failed",
				"kind", domain.KindOf(err).String(),
				"error", err,
				"url", strings.TrimSpace(in.URL),
				"model", in.Model.String(),
				"durationSeconds", time.Since(start).Seconds())

			result = domain.Result{}
			return
		}

		r.transition(ctx, StateSucceeded)

		p.log.InfoContext(ctx, "Pipeline succeeded",
			"url", strings.TrimSpace(in.URL),
			"source", result.Source.String(),
			"model", result.Model.String(),
			"contentLength", result.ContentLength,
			"durationSeconds", time.Since(start).Seconds())
	}()

	return r.execute(ctx, in)
}

type run struct {
	pipeline *Pipeline
	obs      Observer
	state    State
}

func (r *run) execute(ctx context.Context, in domain.Input) (domain.Result, error) {
	r.transition(ctx, StateValidating)

	credential := strings.TrimSpace(in.Credential)
	rawURL := strings.TrimSpace(in.URL)

	if credential == "" {
		return domain.Result{}, domain.NewError(domain.KindMissingInput, "credential is empty", nil)
	}

	if rawURL == "" {
		return domain.Result{}, domain.NewError(domain.KindMissingInput, "URL is empty", nil)
	}

	model, err := domain.ParseModel(in.Model.String())
	if err != nil {
		return domain.Result{}, domain.NewError(domain.KindMissingInput, "unsupported model", err)
	}

	u, err := source.Validate(rawURL)
	if err != nil {
		return domain.Result{}, err
	}

	kind := source.Classify(u)

	extraction, ok := r.pipeline.extractions[kind]
	if !ok || extraction.Extractor == nil {
		return domain.Result{}, domain.NewError(
			domain.KindUnexpected,
			fmt.Sprintf("no extractor for source (kind = %s)", kind),
			nil,
		)
	}

	if err = ctx.Err(); err != nil {
		return domain.Result{}, domain.NewError(domain.KindUnexpected, "context is done", err)
	}

	r.transition(ctx, StateExtracting)

	raw, err := extraction.Extractor.Extract(ctx, u.String())
	if err != nil {
		return domain.Result{}, asDomainError(err, extraction.Failure)
	}

	r.transition(ctx, StateNormalizing)

	content, err := normalize.Normalize(raw)
	if err != nil {
		return domain.Result{}, err
	}

	length := normalize.Length(content)
	if r.obs != nil {
		r.obs.ContentLoaded(ctx, length)
	}

	if err = ctx.Err(); err != nil {
		return domain.Result{}, domain.NewError(domain.KindUnexpected, "context is done", err)
	}

	r.transition(ctx, StateGenerating)

	summary, err := r.pipeline.summarizer.Summarize(ctx, summarizer.Request{
		Config: domain.SummaryRequestConfig{
			Credential:  credential,
			Model:       model,
			Endpoint:    r.pipeline.cfg.Endpoint,
			Temperature: domain.Temperature,
			Timeout:     r.pipeline.cfg.GenerationTimeout,
		},
		Text: content,
	})
	if err != nil {
		return domain.Result{}, asDomainError(err, domain.KindGenerationFailed)
	}

	return domain.Result{
		Summary:       summary,
		ContentLength: length,
		Source:        kind,
		Model:         model,
	}, nil
}

func (r *run) transition(ctx context.Context, next State) {
	if r.state == StateSucceeded || r.state == StateFailed {
		return
	}

	r.pipeline.log.DebugContext(ctx, "Pipeline state changed",
		"from", r.state.String(),
		"to", next.String())

	r.state = next

	if r.obs != nil {
		r.obs.StateChanged(ctx, next)
	}
}

func asDomainError(err error, fallback domain.ErrorKind) *domain.Error {
	var de *domain.Error
	if errors.As(err, &de) {
		return de
	}

	return domain.NewError(fallback, "", err)
}
