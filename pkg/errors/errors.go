// Package errors defines the sentinel errors and the tagged AppError used by
// every retrieval component. Input errors abort only the item they concern,
// consistency errors abort a single request, and configuration errors are
// rejected at the boundary.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrInvalidInput               = errors.New("invalid input")
	ErrInvalidConfig              = errors.New("invalid configuration")
	ErrDimensionMismatch          = errors.New("vector dimension mismatch")
	ErrEmptyCollection            = errors.New("empty collection")
	ErrEmptyDocument              = errors.New("empty document")
	ErrMalformedJudgmentLine      = errors.New("malformed judgment line")
	ErrNoResults                  = errors.New("no results")
	ErrFeedbackDocumentOutOfRange = errors.New("feedback document out of range")
	ErrVocabularyMismatch         = errors.New("vocabulary built from a different collection")
	ErrDocumentNotFound           = errors.New("document not found")
	ErrNotFound                   = errors.New("not found")
	ErrUnavailable                = errors.New("backend unavailable")
	ErrInternal                   = errors.New("internal error")
)

// Kind classifies an error by how far its failure propagates.
type Kind int

const (
	KindUnknown Kind = iota
	// KindInput aborts only the offending item; processing of others continues.
	KindInput
	// KindConsistency aborts the current request.
	KindConsistency
	// KindConfig is raised at the boundary for unrecognised settings.
	KindConfig
	KindInternal
)

func (k Kind) String() string {
	switch k {
	case KindInput:
		return "input"
	case KindConsistency:
		return "consistency"
	case KindConfig:
		return "config"
	case KindInternal:
		return "internal"
	default:
		return "unknown"
	}
}

type AppError struct {
	Err        error
	Kind       Kind
	ID         string
	Message    string
	StatusCode int
}

func (e *AppError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("%s [%s]: %s", e.Err.Error(), e.ID, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Err.Error(), e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// New tags sentinel with the identifier of the item it concerns. The kind and
// HTTP status are derived from the sentinel.
func New(sentinel error, id string, message string) *AppError {
	return &AppError{
		Err:        sentinel,
		Kind:       kindOfSentinel(sentinel),
		ID:         id,
		Message:    message,
		StatusCode: statusOfSentinel(sentinel),
	}
}

func Newf(sentinel error, id string, format string, args ...any) *AppError {
	return New(sentinel, id, fmt.Sprintf(format, args...))
}

// KindOf reports the propagation class of err.
func KindOf(err error) Kind {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return kindOfSentinel(err)
}

// ItemID returns the identifier attached to err, if any.
func ItemID(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.ID
	}
	return ""
}

func HTTPStatusCode(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) && appErr.StatusCode != 0 {
		return appErr.StatusCode
	}
	return statusOfSentinel(err)
}

func kindOfSentinel(err error) Kind {
	switch {
	case errors.Is(err, ErrInvalidInput),
		errors.Is(err, ErrDimensionMismatch),
		errors.Is(err, ErrEmptyDocument),
		errors.Is(err, ErrMalformedJudgmentLine),
		errors.Is(err, ErrDocumentNotFound),
		errors.Is(err, ErrNotFound):
		return KindInput
	case errors.Is(err, ErrFeedbackDocumentOutOfRange),
		errors.Is(err, ErrVocabularyMismatch),
		errors.Is(err, ErrNoResults):
		return KindConsistency
	case errors.Is(err, ErrInvalidConfig), errors.Is(err, ErrEmptyCollection):
		return KindConfig
	case err == nil:
		return KindUnknown
	default:
		return KindInternal
	}
}

func statusOfSentinel(err error) int {
	switch {
	case errors.Is(err, ErrDocumentNotFound), errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrInvalidInput),
		errors.Is(err, ErrInvalidConfig),
		errors.Is(err, ErrDimensionMismatch),
		errors.Is(err, ErrEmptyDocument),
		errors.Is(err, ErrMalformedJudgmentLine):
		return http.StatusBadRequest
	case errors.Is(err, ErrFeedbackDocumentOutOfRange),
		errors.Is(err, ErrVocabularyMismatch):
		return http.StatusConflict
	case errors.Is(err, ErrEmptyCollection), errors.Is(err, ErrUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
