package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"media-library/internal/albums"
	"media-library/internal/authz"
	"media-library/internal/logging"
	"media-library/internal/mediaerr"
	"media-library/internal/middleware"
)

// maxBodyBytes bounds JSON request bodies. Imports carry data URIs, so
// this is generous.
const maxBodyBytes = 256 << 20

// errorResponse is the body of every failed request.
type errorResponse struct {
	Error       string `json:"error"`
	Code        string `json:"code"`
	AssetID     string `json:"assetId,omitempty"`
	SettingsURL string `json:"settingsUrl,omitempty"`
}

// writeJSON encodes v as JSON and writes it to the response writer.
// Any encoding or write errors are logged since we typically cannot
// recover from them in an HTTP handler context.
func writeJSON(w http.ResponseWriter, v any) {
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Error("failed to encode JSON response: %v", err)
	}
}

// writeJSONStatus writes v with the given status code.
func writeJSONStatus(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	writeJSON(w, v)
}

// writeBadRequest reports a malformed request.
func writeBadRequest(w http.ResponseWriter, message string) {
	writeJSONStatus(w, http.StatusBadRequest, errorResponse{Error: message, Code: "BadRequest"})
}

// writeError maps err to a status code and JSON body.
func writeError(w http.ResponseWriter, err error) {
	if errors.Is(err, albums.ErrInvalidDate) {
		writeBadRequest(w, err.Error())
		return
	}

	status := mediaerr.HTTPStatus(err)
	resp := errorResponse{
		Error:   err.Error(),
		Code:    mediaerr.Code(err),
		AssetID: mediaerr.AssetID(err),
	}
	if target, ok := authz.RedirectTarget(err); ok {
		resp.SettingsURL = target
	}
	if resp.AssetID != "" {
		w.Header().Set(middleware.AssetHeader, resp.AssetID)
	}

	if status >= http.StatusInternalServerError {
		logging.Error("request failed: %v", err)
	} else {
		logging.Debug("request rejected (%d): %v", status, err)
	}
	writeJSONStatus(w, status, resp)
}

// decodeBody decodes an optional JSON body into v. An empty body leaves
// v untouched.
func decodeBody(r *http.Request, v any) error {
	if r.Body == nil {
		return nil
	}
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// queryReader parses typed query parameters, keeping the first error.
type queryReader struct {
	r   *http.Request
	err error
}

func (q *queryReader) intVal(key string, dst *int) {
	v := q.r.URL.Query().Get(key)
	if v == "" || q.err != nil {
		return
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		q.err = errors.New("invalid " + key + ": want a non-negative integer")
		return
	}
	*dst = n
}

func (q *queryReader) floatVal(key string, dst *float64) {
	v := q.r.URL.Query().Get(key)
	if v == "" || q.err != nil {
		return
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f < 0 {
		q.err = errors.New("invalid " + key + ": want a non-negative number")
		return
	}
	*dst = f
}

func (q *queryReader) boolVal(key string, dst *bool) {
	v := q.r.URL.Query().Get(key)
	if v == "" || q.err != nil {
		return
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		q.err = errors.New("invalid " + key + ": want true or false")
		return
	}
	*dst = b
}
