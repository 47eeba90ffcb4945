package gridshift

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// HTTPStore serves grid files from a web server or public bucket endpoint.
// Each ReadAt becomes one HTTP range request, so only the header and the
// requested rows are transferred.
type HTTPStore struct {
	HTTPClient *http.Client
	BaseURL    string // e.g. "https://example.org/grids"
}

// NewHTTPStore returns a store with sensible client defaults.
func NewHTTPStore(baseURL string) *HTTPStore {
	return &HTTPStore{
		HTTPClient: &http.Client{Timeout: 60 * time.Second},
		BaseURL:    strings.TrimSuffix(baseURL, "/"),
	}
}

// Open checks that the grid exists with a HEAD request.
func (s *HTTPStore) Open(ctx context.Context, name string) (File, error) {
	url := s.BaseURL + "/" + name
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	resp.Body.Close()
	switch resp.StatusCode {
	case http.StatusOK:
		return &httpFile{ctx: ctx, client: s.HTTPClient, url: url}, nil
	case http.StatusNotFound, http.StatusForbidden:
		// Object stores answer 403 for missing keys without list permission.
		return nil, fmt.Errorf("%w: %s (HTTP %d)", ErrGridNotFound, url, resp.StatusCode)
	default:
		return nil, fmt.Errorf("HTTP %d opening %s", resp.StatusCode, url)
	}
}

type httpFile struct {
	ctx    context.Context
	client *http.Client
	url    string
}

// ReadAt fetches bytes [off, off+len(p)) with a Range request. Servers that
// ignore Range and answer 200 are handled by skipping to off.
func (f *httpFile) ReadAt(p []byte, off int64) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	req, err := http.NewRequestWithContext(f.ctx, http.MethodGet, f.url, nil)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Range", fmt.Sprintf("bytes=%d-%d", off, off+int64(len(p))-1))

	resp, err := f.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	body := io.Reader(resp.Body)
	switch resp.StatusCode {
	case http.StatusPartialContent:
	case http.StatusOK:
		if _, err := io.CopyN(io.Discard, resp.Body, off); err != nil {
			if err == io.EOF {
				return 0, io.EOF
			}
			return 0, err
		}
	case http.StatusRequestedRangeNotSatisfiable:
		return 0, io.EOF
	default:
		return 0, fmt.Errorf("HTTP %d fetching %s", resp.StatusCode, f.url)
	}
	// Never read more than asked, whatever the server sends.
	n, err := io.ReadFull(io.LimitReader(body, int64(len(p))), p)
	if err == io.ErrUnexpectedEOF {
		err = io.EOF
	}
	return n, err
}

func (f *httpFile) Close() error { return nil }
