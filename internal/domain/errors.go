package domain

import (
	"errors"
	"strings"
)

type ErrorKind int

const (
	KindUnexpected ErrorKind = iota
	KindMissingInput
	KindInvalidURL
	KindTranscriptUnavailable
	KindFetchFailed
	KindInsufficientContent
	KindGenerationFailed
)

func (k ErrorKind) String() string {
	switch k {
	case KindMissingInput:
		return "MissingInput"
	case KindInvalidURL:
		return "InvalidURL"
	case KindTranscriptUnavailable:
		return "TranscriptUnavailable"
	case KindFetchFailed:
		return "FetchFailed"
	case KindInsufficientContent:
		return "InsufficientContent"
	case KindGenerationFailed:
		return "GenerationFailed"
	default:
		return "Unexpected"
	}
}

// Title is the short human-readable message shown to the user.
func (k ErrorKind) Title() string {
	switch k {
	case KindMissingInput:
		return "Please provide the information"
	case KindInvalidURL:
		return "Please enter a valid URL (YouTube or website)"
	case KindTranscriptUnavailable:
		return "YouTube transcript error. Try a different video or use a web article URL instead"
	case KindFetchFailed:
		return "Failed to load content"
	case KindInsufficientContent:
		return "No meaningful content could be extracted from the URL"
	case KindGenerationFailed:
		return "Failed to generate summary"
	default:
		return "Unexpected error"
	}
}

// Error is a pipeline failure tagged with its kind.
type Error struct {
	Kind    ErrorKind
	Message string
	Cause   error
}

func NewError(kind ErrorKind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.String())

	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}

	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}

	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Detail returns the underlying cause string, or the message when there is no cause.
func (e *Error) Detail() string {
	if e.Cause != nil {
		return e.Cause.Error()
	}

	return e.Message
}

// Redact returns a copy of e whose message and cause never contain secret.
func (e *Error) Redact(secret string) *Error {
	if secret == "" {
		return e
	}

	redacted := &Error{
		Kind:    e.Kind,
		Message: strings.ReplaceAll(e.Message, secret, redactedMarker),
	}

	if e.Cause != nil {
		causeStr := e.Cause.Error()
		if strings.Contains(causeStr, secret) {
			redacted.Cause = errors.New(strings.ReplaceAll(causeStr, secret, redactedMarker))
		} else {
			redacted.Cause = e.Cause
		}
	}

	return redacted
}

const redactedMarker = "[redacted]"

// KindOf reports the kind of err, or KindUnexpected when err is not a *Error.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}

	return KindUnexpected
}
