// Package normalize turns extracted text into bounded, whitespace-clean content.
package normalize

import (
	"fmt"
	"strings"
	"summation/internal/domain"
	"unicode/utf8"
)

const (
	// MinLength is the shortest content, in characters, worth summarizing.
	MinLength = 50
	// MaxLength is the longest content, in characters, sent for summarization.
	MaxLength = 10000

	TruncationMarker = "..."

	phraseSeparator = "  "
)

// Clean trims every line, splits lines on runs of two or more spaces and
// joins the non-empty phrases with single newlines.
func Clean(raw string) string {
	lines := strings.FieldsFunc(raw, isLineBreak)

	phrases := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		for _, phrase := range strings.Split(line, phraseSeparator) {
			phrase = strings.TrimSpace(phrase)
			if phrase != "" {
				phrases = append(phrases, phrase)
			}
		}
	}

	return strings.Join(phrases, "\n")
}

// Normalize cleans raw and enforces the length bounds. Content shorter than
// MinLength fails with KindInsufficientContent; content longer than MaxLength
// is cut to MaxLength characters followed by TruncationMarker.
func Normalize(raw string) (string, error) {
	content := Clean(raw)

	length := utf8.RuneCountInString(content)
	if length < MinLength {
		return "", domain.NewError(
			domain.KindInsufficientContent,
			fmt.Sprintf("content is too short (length = %d, min = %d)", length, MinLength),
			nil,
		)
	}

	if length > MaxLength {
		content = truncateRunes(content, MaxLength) + TruncationMarker
	}

	return content, nil
}

// Length counts characters the way the bounds do.
func Length(content string) int {
	return utf8.RuneCountInString(content)
}

func truncateRunes(s string, limit int) string {
	count := 0
	for i := range s {
		if count == limit {
			return s[:i]
		}
		count++
	}

	return s
}

func isLineBreak(r rune) bool {
	switch r {
	case '\n', '\r', '\v', '\f', '\x1c', '\x1d', '\x1e', '\u0085', '\u2028', '\u2029':
		return true
	default:
		return false
	}
}
