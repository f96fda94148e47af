package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/notevault/notevault/internal/common"
)

// HTTPStore talks JSON over HTTP to a document store. Every failure —
// transport or non-2xx status — wraps ErrRemoteOperation so callers can
// classify it with errors.Is.
type HTTPStore struct {
	baseURL string
	http    *http.Client
}

// Option configures an HTTPStore during construction.
type Option func(*HTTPStore) error

// WithTimeout bounds the total time of a single request. Must be
// greater than zero.
func WithTimeout(d time.Duration) Option {
	return func(s *HTTPStore) error {
		if d <= 0 {
			return fmt.Errorf("timeout must be > 0")
		}
		s.http.Timeout = d
		return nil
	}
}

// WithHTTPClient replaces the underlying client entirely.
func WithHTTPClient(c *http.Client) Option {
	return func(s *HTTPStore) error {
		if c == nil {
			return fmt.Errorf("http client must not be nil")
		}
		s.http = c
		return nil
	}
}

func NewHTTPStore(baseURL string, opts ...Option) (*HTTPStore, error) {
	s := &HTTPStore{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (s *HTTPStore) SetDocument(ctx context.Context, path string, data any) error {
	resp, err := s.do(ctx, http.MethodPut, path, data)
	if err != nil {
		return err
	}
	defer drain(resp)
	return s.checkStatus(http.MethodPut, path, resp)
}

func (s *HTTPStore) UpdateDocument(ctx context.Context, path string, partial any) error {
	resp, err := s.do(ctx, http.MethodPatch, path, partial)
	if err != nil {
		return err
	}
	defer drain(resp)
	return s.checkStatus(http.MethodPatch, path, resp)
}

func (s *HTTPStore) DeleteDocument(ctx context.Context, path string) error {
	resp, err := s.do(ctx, http.MethodDelete, path, nil)
	if err != nil {
		return err
	}
	defer drain(resp)

	// delete-by-id is idempotent: an already-gone document is success
	if resp.StatusCode == http.StatusNotFound {
		return nil
	}
	return s.checkStatus(http.MethodDelete, path, resp)
}

func (s *HTTPStore) ListDocuments(ctx context.Context, path string) ([]json.RawMessage, error) {
	resp, err := s.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	defer drain(resp)

	if err := s.checkStatus(http.MethodGet, path, resp); err != nil {
		return nil, err
	}

	var docs []json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&docs); err != nil {
		return nil, fmt.Errorf("%w: decoding %s: %v", common.ErrRemoteOperation, path, err)
	}
	return docs, nil
}

func (s *HTTPStore) do(ctx context.Context, method, path string, body any) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encoding %s %s: %w", method, path, err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+"/"+path, reader)
	if err != nil {
		return nil, fmt.Errorf("building %s %s: %w", method, path, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s %s: %v", common.ErrRemoteOperation, method, path, err)
	}
	return resp, nil
}

func (s *HTTPStore) checkStatus(method, path string, resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	return fmt.Errorf("%w: %s %s: status %d", common.ErrRemoteOperation, method, path, resp.StatusCode)
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
}
