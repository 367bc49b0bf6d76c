package pipeline_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"summation/internal/domain"
	"summation/internal/pipeline"
	"summation/internal/source"
	"summation/internal/summarizer"
	"sync"
	"testing"
	"time"
)

const testCredential = "sk-or-pipeline-secret"

type stubExtractor struct {
	mu    sync.Mutex
	calls int
	urls  []string
	text  string
	err   error
}

func (s *stubExtractor) Extract(_ context.Context, rawURL string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.calls++
	s.urls = append(s.urls, rawURL)

	return s.text, s.err
}

func (s *stubExtractor) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.calls
}

type stubSummarizer struct {
	mu      sync.Mutex
	calls   int
	last    summarizer.Request
	summary string
	err     error
}

func (s *stubSummarizer) Summarize(_ context.Context, req summarizer.Request) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.calls++
	s.last = req

	return s.summary, s.err
}

func (s *stubSummarizer) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.calls
}

type recordingObserver struct {
	states []pipeline.State
	loaded []int
}

func (o *recordingObserver) StateChanged(_ context.Context, state pipeline.State) {
	o.states = append(o.states, state)
}

func (o *recordingObserver) ContentLoaded(_ context.Context, length int) {
	o.loaded = append(o.loaded, length)
}

type fixture struct {
	video      *stubExtractor
	web        *stubExtractor
	summarizer *stubSummarizer
	pipeline   *pipeline.Pipeline
}

func newFixture(video, web source.Extractor, s *stubSummarizer) *pipeline.Pipeline {
	return pipeline.New(
		map[domain.SourceKind]pipeline.Extraction{
			domain.SourceVideoTranscript: {Extractor: video, Failure: domain.KindTranscriptUnavailable},
			domain.SourceWebPage:         {Extractor: web, Failure: domain.KindFetchFailed},
		},
		s,
		pipeline.Config{Endpoint: "https://openrouter.test/api/v1", GenerationTimeout: time.Second},
		slog.New(slog.NewTextHandler(io.Discard, nil)),
	)
}

func defaultFixture() fixture {
	f := fixture{
		video:      &stubExtractor{text: strings.Repeat("Hello world. ", 5)},
		web:        &stubExtractor{text: strings.Repeat("Article paragraph text. ", 5)},
		summarizer: &stubSummarizer{summary: "Generated summary."},
	}
	f.pipeline = newFixture(f.video, f.web, f.summarizer)

	return f
}

func TestRunVideoURLEndToEnd(t *testing.T) {
	f := defaultFixture()
	obs := &recordingObserver{}

	result, err := f.pipeline.Run(context.Background(), domain.Input{
		Credential: testCredential,
		URL:        "https://youtu.be/abc123",
	}, obs)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Summary != "Generated summary." {
		t.Fatalf("unexpected summary: %q", result.Summary)
	}

	if result.Source != domain.SourceVideoTranscript {
		t.Fatalf("unexpected source: %s", result.Source)
	}

	if result.Model != domain.DefaultModel {
		t.Fatalf("expected default model, got %q", result.Model)
	}

	if f.video.callCount() != 1 || f.web.callCount() != 0 {
		t.Fatalf("unexpected routing: video=%d web=%d", f.video.callCount(), f.web.callCount())
	}

	if got := f.summarizer.callCount(); got != 1 {
		t.Fatalf("expected summarizer to be called once, got %d", got)
	}

	req := f.summarizer.last
	wantContent := strings.TrimSpace(strings.Repeat("Hello world. ", 5))
	if req.Text != wantContent {
		t.Fatalf("unexpected normalized content: %q", req.Text)
	}

	prompt := summarizer.BuildPrompt(req.Text)
	if !strings.Contains(prompt, "approximately 300 words") || !strings.Contains(prompt, wantContent) {
		t.Fatalf("unexpected prompt: %q", prompt)
	}

	if req.Config.Credential != testCredential ||
		req.Config.Temperature != domain.Temperature ||
		req.Config.Endpoint != "https://openrouter.test/api/v1" ||
		req.Config.Model != domain.DefaultModel {
		t.Fatalf("unexpected request config: %s", req.Config)
	}

	if result.ContentLength != len(wantContent) {
		t.Fatalf("unexpected content length: %d", result.ContentLength)
	}

	wantStates := []pipeline.State{
		pipeline.StateValidating,
		pipeline.StateExtracting,
		pipeline.StateNormalizing,
		pipeline.StateGenerating,
		pipeline.StateSucceeded,
	}
	if len(obs.states) != len(wantStates) {
		t.Fatalf("unexpected states: %v", obs.states)
	}
	for i := range wantStates {
		if obs.states[i] != wantStates[i] {
			t.Fatalf("unexpected state %d: got %s want %s", i, obs.states[i], wantStates[i])
		}
	}

	if len(obs.loaded) != 1 || obs.loaded[0] != len(wantContent) {
		t.Fatalf("unexpected loaded notifications: %v", obs.loaded)
	}
}

func TestRunRoutesWebURLToPageExtractor(t *testing.T) {
	f := defaultFixture()

	result, err := f.pipeline.Run(context.Background(), domain.Input{
		Credential: testCredential,
		Model:      domain.ModelGemini20FlashExpFree,
		URL:        "https://example.com/article",
	}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if f.web.callCount() != 1 || f.video.callCount() != 0 {
		t.Fatalf("unexpected routing: video=%d web=%d", f.video.callCount(), f.web.callCount())
	}

	if f.web.urls[0] != "https://example.com/article" {
		t.Fatalf("unexpected URL passed to extractor: %q", f.web.urls[0])
	}

	if result.Model != domain.ModelGemini20FlashExpFree || f.summarizer.last.Config.Model != domain.ModelGemini20FlashExpFree {
		t.Fatalf("expected selected model to be used")
	}
}

func TestRunWebFetch404HaltsBeforeGeneration(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.NotFound(w, nil)
	}))
	defer srv.Close()

	video := &stubExtractor{}
	stub := &stubSummarizer{summary: "unused"}
	web := source.NewPageExtractor(time.Second, slog.Default())

	// Route the public URL to the test server while keeping the real extractor.
	p := newFixture(video, redirectExtractor{target: srv.URL, next: web}, stub)

	_, err := p.Run(context.Background(), domain.Input{
		Credential: testCredential,
		URL:        "https://example.com/article",
	}, nil)
	if kind := domain.KindOf(err); kind != domain.KindFetchFailed {
		t.Fatalf("unexpected kind: got %s want %s (err = %v)", kind, domain.KindFetchFailed, err)
	}

	if got := stub.callCount(); got != 0 {
		t.Fatalf("expected summarizer not to be called, got %d", got)
	}
}

type redirectExtractor struct {
	target string
	next   source.Extractor
}

func (r redirectExtractor) Extract(ctx context.Context, _ string) (string, error) {
	return r.next.Extract(ctx, r.target)
}

func TestRunMissingInput(t *testing.T) {
	tests := []struct {
		name string
		in   domain.Input
	}{
		{"empty credential", domain.Input{Credential: "", URL: "https://example.com/article"}},
		{"blank credential", domain.Input{Credential: "   ", URL: "https://example.com/article"}},
		{"empty URL", domain.Input{Credential: testCredential, URL: " "}},
		{"unknown model", domain.Input{Credential: testCredential, Model: "gpt-5", URL: "https://example.com/article"}},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			f := defaultFixture()

			_, err := f.pipeline.Run(context.Background(), test.in, nil)
			if kind := domain.KindOf(err); kind != domain.KindMissingInput {
				t.Fatalf("unexpected kind: got %s want %s", kind, domain.KindMissingInput)
			}

			if f.video.callCount()+f.web.callCount()+f.summarizer.callCount() != 0 {
				t.Fatalf("expected no extraction or generation")
			}
		})
	}
}

func TestRunInvalidURLMakesNoCalls(t *testing.T) {
	inputs := []string{"not a url", "example.com", "ftp://example.com/x", "http://", "https://exa mple.com"}

	for _, in := range inputs {
		t.Run(in, func(t *testing.T) {
			f := defaultFixture()
			obs := &recordingObserver{}

			_, err := f.pipeline.Run(context.Background(), domain.Input{Credential: testCredential, URL: in}, obs)
			if kind := domain.KindOf(err); kind != domain.KindInvalidURL {
				t.Fatalf("unexpected kind: got %s want %s", kind, domain.KindInvalidURL)
			}

			if calls := f.video.callCount() + f.web.callCount() + f.summarizer.callCount(); calls != 0 {
				t.Fatalf("expected zero calls, got %d", calls)
			}

			if last := obs.states[len(obs.states)-1]; last != pipeline.StateFailed {
				t.Fatalf("expected Failed terminal state, got %s", last)
			}
		})
	}
}

func TestRunTranscriptFailureDoesNotFallBack(t *testing.T) {
	f := defaultFixture()
	f.video.err = errors.New("no transcript available")

	_, err := f.pipeline.Run(context.Background(), domain.Input{
		Credential: testCredential,
		URL:        "https://www.youtube.com/watch?v=dQw4w9WgXcQ",
	}, nil)
	if kind := domain.KindOf(err); kind != domain.KindTranscriptUnavailable {
		t.Fatalf("unexpected kind: got %s want %s", kind, domain.KindTranscriptUnavailable)
	}

	if !strings.Contains(err.Error(), "no transcript available") {
		t.Fatalf("expected underlying cause in error, got %q", err.Error())
	}

	if f.web.callCount() != 0 || f.summarizer.callCount() != 0 {
		t.Fatalf("expected no fallback and no generation")
	}
}

func TestRunContentLengthBoundary(t *testing.T) {
	tests := []struct {
		name    string
		length  int
		wantErr bool
	}{
		{"49 characters", 49, true},
		{"50 characters", 50, false},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			f := defaultFixture()
			f.web.text = strings.Repeat("x", test.length)

			_, err := f.pipeline.Run(context.Background(), domain.Input{
				Credential: testCredential,
				URL:        "https://example.com/article",
			}, nil)

			if test.wantErr {
				if kind := domain.KindOf(err); kind != domain.KindInsufficientContent {
					t.Fatalf("unexpected kind: got %s want %s", kind, domain.KindInsufficientContent)
				}

				if f.summarizer.callCount() != 0 {
					t.Fatalf("expected no generation for insufficient content")
				}

				return
			}

			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if f.summarizer.callCount() != 1 {
				t.Fatalf("expected generation to proceed")
			}
		})
	}
}

func TestRunTruncatesLongContent(t *testing.T) {
	f := defaultFixture()
	f.web.text = strings.Repeat("y", 10050)

	result, err := f.pipeline.Run(context.Background(), domain.Input{
		Credential: testCredential,
		URL:        "https://example.com/article",
	}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.ContentLength != 10003 {
		t.Fatalf("unexpected content length: %d", result.ContentLength)
	}

	if !strings.HasSuffix(f.summarizer.last.Text, "...") {
		t.Fatalf("expected truncation marker at the end of the prompt content")
	}
}

func TestRunGenerationFailureRedactsCredential(t *testing.T) {
	f := defaultFixture()
	f.summarizer.err = errors.New("401 Unauthorized: key " + testCredential + " is invalid")

	_, err := f.pipeline.Run(context.Background(), domain.Input{
		Credential: testCredential,
		URL:        "https://example.com/article",
	}, nil)
	if kind := domain.KindOf(err); kind != domain.KindGenerationFailed {
		t.Fatalf("unexpected kind: got %s want %s", kind, domain.KindGenerationFailed)
	}

	if strings.Contains(err.Error(), testCredential) {
		t.Fatalf("credential leaked into error: %q", err.Error())
	}

	if !strings.Contains(err.Error(), "401 Unauthorized") {
		t.Fatalf("expected raw cause in error, got %q", err.Error())
	}

	if f.summarizer.callCount() != 1 {
		t.Fatalf("expected exactly one generation attempt, got %d", f.summarizer.callCount())
	}
}

type panickingExtractor struct{}

func (panickingExtractor) Extract(context.Context, string) (string, error) {
	panic("boom")
}

func TestRunRecoversPanicAsUnexpected(t *testing.T) {
	stub := &stubSummarizer{}
	p := newFixture(panickingExtractor{}, panickingExtractor{}, stub)
	obs := &recordingObserver{}

	result, err := p.Run(context.Background(), domain.Input{
		Credential: testCredential,
		URL:        "https://example.com/article",
	}, obs)
	if kind := domain.KindOf(err); kind != domain.KindUnexpected {
		t.Fatalf("unexpected kind: got %s want %s", kind, domain.KindUnexpected)
	}

	if !strings.Contains(err.Error(), "boom") {
		t.Fatalf("expected panic detail in error, got %q", err.Error())
	}

	if result != (domain.Result{}) {
		t.Fatalf("expected empty result on failure")
	}

	if last := obs.states[len(obs.states)-1]; last != pipeline.StateFailed {
		t.Fatalf("expected Failed terminal state, got %s", last)
	}
}

func TestRunCancelledContext(t *testing.T) {
	f := defaultFixture()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.pipeline.Run(ctx, domain.Input{
		Credential: testCredential,
		URL:        "https://example.com/article",
	}, nil)
	if err == nil {
		t.Fatalf("expected error for cancelled context")
	}

	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled in chain, got %v", err)
	}

	if f.web.callCount() != 0 || f.summarizer.callCount() != 0 {
		t.Fatalf("expected no work after cancellation")
	}
}

func TestRunMissingExtractorIsUnexpected(t *testing.T) {
	stub := &stubSummarizer{summary: "unused"}
	p := pipeline.New(
		map[domain.SourceKind]pipeline.Extraction{},
		stub,
		pipeline.Config{},
		slog.New(slog.NewTextHandler(io.Discard, nil)),
	)

	_, err := p.Run(context.Background(), domain.Input{
		Credential: testCredential,
		URL:        "https://example.com/article",
	}, nil)
	if kind := domain.KindOf(err); kind != domain.KindUnexpected {
		t.Fatalf("unexpected kind: got %s want %s", kind, domain.KindUnexpected)
	}
}
