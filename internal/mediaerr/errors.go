// Package mediaerr defines the failure taxonomy shared by every media
// library operation.
//
// Operations return a *Error whose Kind is one of the sentinel values below.
// Callers match with errors.Is:
//
//	if errors.Is(err, mediaerr.ErrPermissionDenied) { ... }
package mediaerr

import (
	"errors"
	"fmt"
	"net/http"
)

// Failure kinds.
var (
	// ErrPermissionDenied means the required capability has not been granted.
	ErrPermissionDenied = errors.New("permission denied")

	// ErrNotFound means an asset or album id does not resolve.
	ErrNotFound = errors.New("not found")

	// ErrDecodeFailed means source bytes could not be parsed as image or video.
	ErrDecodeFailed = errors.New("decode failed")

	// ErrIncompatibleMedia means a video was rejected before any write.
	ErrIncompatibleMedia = errors.New("incompatible media")

	// ErrImportFailed means an import could not complete: the source could
	// not be resolved or decoded, or a store write or album link failed.
	// The cause may carry a more specific kind.
	ErrImportFailed = errors.New("import failed")

	// ErrUnavailable means enrichment or rendering could not complete.
	// It surfaces as an absent value rather than a fault.
	ErrUnavailable = errors.New("unavailable")
)

// Error is a typed failure of a single operation.
type Error struct {
	Kind    error
	Op      string
	AssetID string
	Err     error
}

// New builds an *Error. err may be nil.
func New(kind error, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// WithAsset records the asset the failure concerns.
func (e *Error) WithAsset(id string) *Error {
	e.AssetID = id
	return e
}

func (e *Error) Error() string {
	msg := e.Op + ": " + e.Kind.Error()
	if e.AssetID != "" {
		msg += fmt.Sprintf(" (asset %s)", e.AssetID)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap exposes both the kind and the cause to errors.Is / errors.As.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// AssetID returns the asset id carried by err, if any.
func AssetID(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.AssetID
	}
	return ""
}

// HTTPStatus maps an error to the status code the API reports for it.
func HTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrPermissionDenied):
		return http.StatusForbidden
	case errors.Is(err, ErrImportFailed):
		return importStatus(err)
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrDecodeFailed):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ErrIncompatibleMedia):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, ErrUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// importStatus maps a failed import by its cause: a missing or
// undecodable source is the caller's fault, anything else is ours.
func importStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrDecodeFailed):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// Code returns the stable name of err's kind for API payloads. An import
// failure reports ImportFailed whatever its cause.
func Code(err error) string {
	switch {
	case errors.Is(err, ErrPermissionDenied):
		return "PermissionDenied"
	case errors.Is(err, ErrImportFailed):
		return "ImportFailed"
	case errors.Is(err, ErrNotFound):
		return "NotFound"
	case errors.Is(err, ErrDecodeFailed):
		return "DecodeFailed"
	case errors.Is(err, ErrIncompatibleMedia):
		return "IncompatibleMedia"
	case errors.Is(err, ErrUnavailable):
		return "Unavailable"
	default:
		return "Internal"
	}
}
