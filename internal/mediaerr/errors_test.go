package mediaerr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestErrorMatchesKindAndCause(t *testing.T) {
	cause := errors.New("disk full")
	err := New(ErrImportFailed, "saveImage", cause).WithAsset("abc")

	if !errors.Is(err, ErrImportFailed) {
		t.Error("errors.Is(err, ErrImportFailed) = false")
	}
	if !errors.Is(err, cause) {
		t.Error("errors.Is(err, cause) = false")
	}
	if errors.Is(err, ErrNotFound) {
		t.Error("errors.Is(err, ErrNotFound) = true")
	}

	wrapped := fmt.Errorf("handler: %w", err)
	if got := AssetID(wrapped); got != "abc" {
		t.Errorf("AssetID() = %q, want %q", got, "abc")
	}

	want := "saveImage: import failed (asset abc): disk full"
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestHTTPStatusAndCode(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"permission", New(ErrPermissionDenied, "op", nil), http.StatusForbidden, "PermissionDenied"},
		{"not found", New(ErrNotFound, "op", nil), http.StatusNotFound, "NotFound"},
		{"decode", New(ErrDecodeFailed, "op", nil), http.StatusUnprocessableEntity, "DecodeFailed"},
		{"incompatible", New(ErrIncompatibleMedia, "op", nil), http.StatusUnsupportedMediaType, "IncompatibleMedia"},
		{"import", New(ErrImportFailed, "op", nil), http.StatusInternalServerError, "ImportFailed"},
		{"import missing source", New(ErrImportFailed, "op", fmt.Errorf("%w: gone", ErrNotFound)), http.StatusNotFound, "ImportFailed"},
		{"import undecodable source", New(ErrImportFailed, "op", fmt.Errorf("%w: junk", ErrDecodeFailed)), http.StatusUnprocessableEntity, "ImportFailed"},
		{"unavailable", New(ErrUnavailable, "op", nil), http.StatusServiceUnavailable, "Unavailable"},
		{"plain", errors.New("boom"), http.StatusInternalServerError, "Internal"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HTTPStatus(tt.err); got != tt.wantStatus {
				t.Errorf("HTTPStatus() = %d, want %d", got, tt.wantStatus)
			}
			if got := Code(tt.err); got != tt.wantCode {
				t.Errorf("Code() = %q, want %q", got, tt.wantCode)
			}
		})
	}
}
