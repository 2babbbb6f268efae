package handlers

import (
	"encoding/hex"
	"net/http"
	"strings"

	"golang.org/x/crypto/blake2b"
)

// etagFor returns a strong validator for a response body.
func etagFor(data []byte) string {
	sum := blake2b.Sum256(data)
	return `"` + hex.EncodeToString(sum[:16]) + `"`
}

// notModified sets the ETag header and, when the request already holds
// that version, answers 304 and reports true.
func notModified(w http.ResponseWriter, r *http.Request, data []byte) bool {
	etag := etagFor(data)
	w.Header().Set("ETag", etag)

	match := r.Header.Get("If-None-Match")
	if match == "" {
		return false
	}
	for _, candidate := range strings.Split(match, ",") {
		candidate = strings.TrimPrefix(strings.TrimSpace(candidate), "W/")
		if candidate == etag || candidate == "*" {
			w.WriteHeader(http.StatusNotModified)
			return true
		}
	}
	return false
}
