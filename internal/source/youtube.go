package source

import (
	"bytes"
	"context"
	"encoding/json"
	"encoding/xml"
	"errors"
	"fmt"
	"html"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"summation/internal/domain"
	"time"
)

const (
	DefaultWatchURL          = "https://www.youtube.com/watch"
	DefaultTranscriptTimeout = 30 * time.Second

	playerResponseMarker = "ytInitialPlayerResponse = "
	maxWatchPageBytes    = 6 << 20
	maxTimedTextBytes    = 2 << 20
	asrTrackKind         = "asr"
	segmentSeparator     = "\n\n"
)

// DefaultLanguages is the transcript language preference, most preferred first.
func DefaultLanguages() []string {
	return []string{"en", "en-US", "en-GB"}
}

type TranscriptConfig struct {
	// WatchURL is the watch page endpoint; the video ID is passed as the "v" query parameter.
	WatchURL  string
	Languages []string
	Timeout   time.Duration
}

// TranscriptExtractor retrieves captions for a video-hosting URL.
type TranscriptExtractor struct {
	client    *http.Client
	watchURL  string
	languages []string
	timeout   time.Duration
	log       *slog.Logger
}

type playerResponse struct {
	Captions *struct {
		PlayerCaptionsTracklistRenderer struct {
			CaptionTracks []captionTrack `json:"captionTracks"`
		} `json:"playerCaptionsTracklistRenderer"`
	} `json:"captions"`
	PlayabilityStatus *struct {
		Status string `json:"status"`
		Reason string `json:"reason"`
	} `json:"playabilityStatus"`
}

type captionTrack struct {
	BaseURL      string `json:"baseUrl"`
	LanguageCode string `json:"languageCode"`
	Kind         string `json:"kind"`
}

type timedText struct {
	Lines []struct {
		Text string `xml:",chardata"`
	} `xml:"text"`
	Paragraphs []struct {
		Text     string `xml:",chardata"`
		Segments []struct {
			Text string `xml:",chardata"`
		} `xml:"s"`
	} `xml:"body>p"`
}

func NewTranscriptExtractor(cfg TranscriptConfig, log *slog.Logger) *TranscriptExtractor {
	watchURL := strings.TrimSpace(cfg.WatchURL)
	if watchURL == "" {
		watchURL = DefaultWatchURL
	}

	languages := cfg.Languages
	if len(languages) == 0 {
		languages = DefaultLanguages()
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTranscriptTimeout
	}

	return &TranscriptExtractor{
		client:    &http.Client{Timeout: timeout},
		watchURL:  watchURL,
		languages: languages,
		timeout:   timeout,
		log:       log,
	}
}

func (e *TranscriptExtractor) Extract(ctx context.Context, rawURL string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return "", domain.NewError(domain.KindTranscriptUnavailable, "parse URL", err)
	}

	videoID, err := VideoID(u)
	if err != nil {
		return "", domain.NewError(domain.KindTranscriptUnavailable, "get video ID", err)
	}

	segments, err := e.fetchTranscript(ctx, videoID)
	if err != nil {
		return "", domain.NewError(domain.KindTranscriptUnavailable, "fetch transcript", err)
	}

	e.log.DebugContext(ctx, "Transcript is fetched",
		"videoID", videoID,
		"segments", len(segments))

	return strings.Join(segments, segmentSeparator), nil
}

func (e *TranscriptExtractor) fetchTranscript(ctx context.Context, videoID string) ([]string, error) {
	watchURL, err := url.Parse(e.watchURL)
	if err != nil {
		return nil, fmt.Errorf("parse watch URL: %w", err)
	}

	query := watchURL.Query()
	query.Set("v", videoID)
	watchURL.RawQuery = query.Encode()

	page, err := e.get(ctx, watchURL.String(), maxWatchPageBytes, "fetchWatchPage")
	if err != nil {
		return nil, fmt.Errorf("fetch watch page: %w", err)
	}

	player, err := parsePlayerResponse(page)
	if err != nil {
		return nil, fmt.Errorf("parse player response: %w", err)
	}

	if player.Captions == nil {
		if player.PlayabilityStatus != nil && player.PlayabilityStatus.Reason != "" {
			return nil, fmt.Errorf("captions unavailable: %s", player.PlayabilityStatus.Reason)
		}
		return nil, errors.New("no captions in player response")
	}

	tracks := player.Captions.PlayerCaptionsTracklistRenderer.CaptionTracks
	track, ok := pickBestTrack(tracks, e.languages)
	if !ok {
		return nil, errors.New("no usable caption tracks")
	}

	trackURL, err := watchURL.Parse(track.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse caption track URL: %w", err)
	}

	data, err := e.get(ctx, trackURL.String(), maxTimedTextBytes, "fetchTimedText")
	if err != nil {
		return nil, fmt.Errorf("fetch timed text (language = %s): %w", track.LanguageCode, err)
	}

	segments, err := parseTimedText(data)
	if err != nil {
		return nil, fmt.Errorf("parse timed text: %w", err)
	}

	if len(segments) == 0 {
		return nil, errors.New("transcript is empty")
	}

	return segments, nil
}

func (e *TranscriptExtractor) get(ctx context.Context, rawURL string, limit int64, operation string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := e.client.Do(req) //nolint:gosec // Video host URL
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer closeBody(ctx, e.log, resp.Body, operation, rawURL)

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("do request: unexpected status: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, limit))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	return body, nil
}

func parsePlayerResponse(page []byte) (playerResponse, error) {
	idx := bytes.Index(page, []byte(playerResponseMarker))
	if idx < 0 {
		return playerResponse{}, errors.New("player response not found in watch page")
	}

	raw := balancedJSONObject(page[idx+len(playerResponseMarker):])
	if raw == nil {
		return playerResponse{}, errors.New("player response is not a complete JSON object")
	}

	var player playerResponse
	if err := json.Unmarshal(raw, &player); err != nil {
		return playerResponse{}, fmt.Errorf("decode JSON: %w", err)
	}

	return player, nil
}

// balancedJSONObject returns the leading {...} object of b, or nil.
func balancedJSONObject(b []byte) []byte {
	b = bytes.TrimLeft(b, " \t\r\n")
	if len(b) == 0 || b[0] != '{' {
		return nil
	}

	depth := 0
	inString := false
	escaped := false

	for i, c := range b {
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}

		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return b[:i+1]
			}
		}
	}

	return nil
}

// pickBestTrack prefers a manual track in a preferred language, then an
// auto-generated one, then any English track, then whatever comes first.
func pickBestTrack(tracks []captionTrack, languages []string) (captionTrack, bool) {
	usable := make([]captionTrack, 0, len(tracks))
	for _, t := range tracks {
		if strings.TrimSpace(t.BaseURL) != "" {
			usable = append(usable, t)
		}
	}

	if len(usable) == 0 {
		return captionTrack{}, false
	}

	for _, lang := range languages {
		for _, t := range usable {
			if t.LanguageCode == lang && t.Kind != asrTrackKind {
				return t, true
			}
		}
	}

	for _, lang := range languages {
		for _, t := range usable {
			if t.LanguageCode == lang {
				return t, true
			}
		}
	}

	for _, t := range usable {
		if strings.HasPrefix(t.LanguageCode, "en") {
			return t, true
		}
	}

	return usable[0], true
}

func parseTimedText(data []byte) ([]string, error) {
	var tt timedText
	if err := xml.Unmarshal(data, &tt); err != nil {
		return nil, fmt.Errorf("decode XML: %w", err)
	}

	var segments []string

	add := func(text string) {
		text = strings.TrimSpace(html.UnescapeString(text))
		if text != "" {
			segments = append(segments, text)
		}
	}

	for _, line := range tt.Lines {
		add(line.Text)
	}

	for _, p := range tt.Paragraphs {
		if len(p.Segments) == 0 {
			add(p.Text)
			continue
		}

		var b strings.Builder
		for _, s := range p.Segments {
			b.WriteString(s.Text)
		}
		add(b.String())
	}

	return segments, nil
}
