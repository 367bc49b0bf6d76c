package bot

import (
	"errors"
	"fmt"
	"strings"
	"summation/internal/domain"
	"unicode/utf16"
)

// https://core.telegram.org/bots/api#sendmessage
const maxMessageLength = 4096

func formatLoaded(length int) string {
	return fmt.Sprintf("ℹ️ Loaded %d characters", length)
}

func formatSuccess(result domain.Result) string {
	return fmt.Sprintf("✅ Summary (%s):\n\n%s", result.Model, result.Summary)
}

func formatFailure(err error) string {
	kind := domain.KindOf(err)

	text := "❌ " + kind.Title()

	var de *domain.Error
	if errors.As(err, &de) {
		if detail := strings.TrimSpace(de.Detail()); detail != "" {
			text += "\n\nDetails: " + detail
		}
	}

	return truncate(text, maxMessageLength)
}

// splitMessage cuts text into chunks of at most limit UTF-16 code units, which
// is how Telegram measures message length. Line breaks in the second half of a
// chunk are preferred as cut points.
func splitMessage(text string, limit int) []string {
	runes := []rune(text)

	var messages []string

	for utf16Len(runes) > limit {
		end := max(fitUTF16(runes, limit), 1)

		cut := end
		if i := lastIndex(runes[:end], '\n'); i > end/2 {
			cut = i
		}

		if chunk := strings.TrimRight(string(runes[:cut]), "\n"); chunk != "" {
			messages = append(messages, chunk)
		}

		runes = runes[cut:]
		for len(runes) > 0 && runes[0] == '\n' {
			runes = runes[1:]
		}
	}

	if len(runes) > 0 {
		messages = append(messages, string(runes))
	}

	return messages
}

func truncate(text string, limit int) string {
	runes := []rune(text)
	if utf16Len(runes) <= limit {
		return text
	}

	return string(runes[:fitUTF16(runes, limit-1)]) + "…"
}

// fitUTF16 returns how many leading runes fit into limit UTF-16 code units.
func fitUTF16(runes []rune, limit int) int {
	units := 0

	for i, r := range runes {
		units += runeUnits(r)
		if units > limit {
			return i
		}
	}

	return len(runes)
}

func utf16Len(runes []rune) int {
	units := 0
	for _, r := range runes {
		units += runeUnits(r)
	}

	return units
}

func runeUnits(r rune) int {
	if n := utf16.RuneLen(r); n > 0 {
		return n
	}

	return 1
}

func lastIndex(runes []rune, r rune) int {
	for i := len(runes) - 1; i >= 0; i-- {
		if runes[i] == r {
			return i
		}
	}

	return -1
}
