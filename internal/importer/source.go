package importer

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	"media-library/internal/filesystem"
	"media-library/internal/mediaerr"
)

// maxFetchBytes caps remote downloads.
const maxFetchBytes = 1 << 30

var dataURIPattern = regexp.MustCompile(`^data:.+?;base64,`)

// payload is a resolved import source.
type payload struct {
	data []byte
	// name is the source's file name, empty for data URIs.
	name string
}

// importErr reports a failed import whose cause is classified by kind.
// The result matches both ErrImportFailed and kind.
func importErr(op string, kind, err error) *mediaerr.Error {
	return mediaerr.New(mediaerr.ErrImportFailed, op, fmt.Errorf("%w: %w", kind, err))
}

// resolve loads the bytes behind source. Data URIs are recognised
// first, then file URLs, http(s) URLs and plain paths.
func (w *Writer) resolve(ctx context.Context, op, source string) (*payload, error) {
	source = strings.TrimSpace(source)
	if source == "" {
		return nil, importErr(op, mediaerr.ErrNotFound, errors.New("empty source"))
	}

	if loc := dataURIPattern.FindStringIndex(source); loc != nil {
		data, err := base64.StdEncoding.DecodeString(source[loc[1]:])
		if err != nil {
			return nil, importErr(op, mediaerr.ErrDecodeFailed, fmt.Errorf("data URI: %w", err))
		}
		return &payload{data: data}, nil
	}

	u, err := url.Parse(source)
	if err != nil || u.Scheme == "" || len(u.Scheme) == 1 {
		// Plain path, including Windows drive letters.
		return readFile(op, source)
	}

	switch strings.ToLower(u.Scheme) {
	case "file":
		return readFile(op, u.Path)
	case "http", "https":
		return w.fetch(ctx, op, u)
	default:
		return nil, importErr(op, mediaerr.ErrNotFound, fmt.Errorf("unsupported source scheme %q", u.Scheme))
	}
}

func readFile(op, p string) (*payload, error) {
	data, err := filesystem.ReadFileWithRetry(p, filesystem.DefaultRetryConfig())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, importErr(op, mediaerr.ErrNotFound, err)
		}
		return nil, mediaerr.New(mediaerr.ErrImportFailed, op, err)
	}
	return &payload{data: data, name: filepath.Base(p)}, nil
}

func (w *Writer) fetch(ctx context.Context, op string, u *url.URL) (*payload, error) {
	ctx, cancel := context.WithTimeout(ctx, w.fetchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, importErr(op, mediaerr.ErrNotFound, err)
	}

	resp, err := w.client.Do(req)
	if err != nil {
		return nil, mediaerr.New(mediaerr.ErrImportFailed, op, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		return nil, importErr(op, mediaerr.ErrNotFound, fmt.Errorf("GET %s: %s", u.Redacted(), resp.Status))
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, mediaerr.New(mediaerr.ErrImportFailed, op, fmt.Errorf("GET %s: %s", u.Redacted(), resp.Status))
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxFetchBytes+1))
	if err != nil {
		return nil, mediaerr.New(mediaerr.ErrImportFailed, op, err)
	}
	if len(data) > maxFetchBytes {
		return nil, mediaerr.New(mediaerr.ErrImportFailed, op, fmt.Errorf("GET %s: body exceeds %d bytes", u.Redacted(), maxFetchBytes))
	}

	name := path.Base(u.Path)
	if name == "/" || name == "." {
		name = ""
	}
	return &payload{data: data, name: name}, nil
}
