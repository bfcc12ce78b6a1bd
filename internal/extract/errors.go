package extract

import (
	"errors"
	"fmt"
)

// Kind classifies pipeline failures so the HTTP boundary can choose a status code.
type Kind string

// Error kinds produced by the pipelines.
const (
	KindMissingInput      Kind = "missing_input"
	KindInvalidInput      Kind = "invalid_input"
	KindFetchFailure      Kind = "fetch_failure"
	KindUnsupportedFormat Kind = "unsupported_format"
	KindMalformedDocument Kind = "malformed_document"
	KindSubmissionFailed  Kind = "submission_failed"
	KindCrawlTimeout      Kind = "crawl_timeout"
	KindCrawlFailed       Kind = "crawl_failed"
	KindMissingDataset    Kind = "missing_dataset"
	KindEmptyDataset      Kind = "empty_dataset"
	KindUpstream          Kind = "upstream_error"
)

// Error is a classified pipeline failure.
type Error struct {
	Kind    Kind
	Message string
	// Format is set when the failure is tied to a detected document format.
	Format Format
	// ContentType and URL are populated for unsupported formats.
	ContentType string
	URL         string
	Err         error
}

// NewError builds an Error of the given kind wrapping cause (which may be nil).
func NewError(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Err: cause}
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error with the same Kind, so callers can use errors.Is with sentinels.
func (e *Error) Is(target error) bool {
	var other *Error
	if !errors.As(target, &other) {
		return false
	}
	return other.Kind == e.Kind && other.Message == ""
}

// Sentinels for errors.Is comparisons.
var (
	ErrMissingInput      = &Error{Kind: KindMissingInput}
	ErrInvalidInput      = &Error{Kind: KindInvalidInput}
	ErrFetchFailure      = &Error{Kind: KindFetchFailure}
	ErrUnsupportedFormat = &Error{Kind: KindUnsupportedFormat}
	ErrMalformedDocument = &Error{Kind: KindMalformedDocument}
	ErrSubmissionFailed  = &Error{Kind: KindSubmissionFailed}
	ErrCrawlTimeout      = &Error{Kind: KindCrawlTimeout}
	ErrCrawlFailed       = &Error{Kind: KindCrawlFailed}
	ErrMissingDataset    = &Error{Kind: KindMissingDataset}
	ErrEmptyDataset      = &Error{Kind: KindEmptyDataset}
)

// KindOf reports the Kind of err, defaulting to KindUpstream for unclassified errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUpstream
}
