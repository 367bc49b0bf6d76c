package source

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"summation/internal/domain"

	"mvdan.cc/xurls/v2"
)

const (
	youtubeHost         = "youtube.com"
	youtubeNoCookieHost = "youtube-nocookie.com"
	youtubeShortHost    = "youtu.be"
)

var videoIDRe = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// Validate checks that raw is a well-formed http(s) URL. It never touches the network.
func Validate(raw string) (*url.URL, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, domain.NewError(domain.KindMissingInput, "URL is empty", nil)
	}

	if strings.ContainsFunc(raw, isSpace) {
		return nil, domain.NewError(domain.KindInvalidURL, "URL contains whitespace", nil)
	}

	u, err := url.ParseRequestURI(raw)
	if err != nil {
		return nil, domain.NewError(domain.KindInvalidURL, "parse URL", err)
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, domain.NewError(domain.KindInvalidURL, fmt.Sprintf("unsupported scheme: %q", u.Scheme), nil)
	}

	if u.Hostname() == "" {
		return nil, domain.NewError(domain.KindInvalidURL, "host is empty", nil)
	}

	httpURLRe, err := xurls.StrictMatchingScheme(`https?://`)
	if err != nil {
		return nil, domain.NewError(domain.KindUnexpected, "create regexp", err)
	}

	// xurls drops trailing punctuation, so the match only has to start the
	// input and reach past the host.
	loc := httpURLRe.FindStringIndex(raw)
	if loc == nil || loc[0] != 0 || !strings.Contains(strings.ToLower(raw[:loc[1]]), normalizeHost(u.Hostname())) {
		return nil, domain.NewError(domain.KindInvalidURL, fmt.Sprintf("not a URL: %q", raw), nil)
	}

	return u, nil
}

// Classify picks the extraction strategy for an already validated URL.
func Classify(u *url.URL) domain.SourceKind {
	if u == nil {
		return domain.SourceUnknown
	}

	if isVideoHost(normalizeHost(u.Hostname())) {
		return domain.SourceVideoTranscript
	}

	return domain.SourceWebPage
}

// VideoID extracts the video identifier from any supported video-hosting URL shape.
func VideoID(u *url.URL) (string, error) {
	if u == nil {
		return "", errors.New("URL is nil")
	}

	host := normalizeHost(u.Hostname())
	parts := strings.Split(strings.Trim(u.Path, "/"), "/")

	var id string

	switch {
	case hostMatches(host, youtubeShortHost):
		id = parts[0]
	case parts[0] == "watch":
		id = u.Query().Get("v")
	case len(parts) >= 2 && isVideoPathPrefix(parts[0]):
		id = parts[1]
	}

	id = strings.TrimSpace(id)
	if !videoIDRe.MatchString(id) {
		return "", fmt.Errorf("video ID not found (URL = %s)", u.String())
	}

	return id, nil
}

// normalizeHost lowercases host and drops the trailing dot of a fully-qualified name.
func normalizeHost(host string) string {
	return strings.TrimSuffix(strings.ToLower(host), ".")
}

func isVideoHost(host string) bool {
	return hostMatches(host, youtubeHost) ||
		hostMatches(host, youtubeNoCookieHost) ||
		hostMatches(host, youtubeShortHost)
}

func hostMatches(host, domainName string) bool {
	return host == domainName || strings.HasSuffix(host, "."+domainName)
}

func isVideoPathPrefix(segment string) bool {
	switch segment {
	case "shorts", "embed", "live", "v":
		return true
	default:
		return false
	}
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\n' || r == '\r' || r == '\v' || r == '\f'
}
