package textcontent

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Source supplies the raw document.
type Source interface {
	Read(ctx context.Context) (string, error)
}

// StatusError reports a non-2xx response from an HTTP source.
type StatusError struct {
	URL    string
	Status int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("textcontent: GET %s returned status %d", e.URL, e.Status)
}

// HTTPSource reads the document from a web server.
type HTTPSource struct {
	url    string
	client *http.Client
}

// NewHTTPSource builds a source for DocumentPath below baseURL.
func NewHTTPSource(baseURL string, client *http.Client) (*HTTPSource, error) {
	base := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if base == "" {
		return nil, errors.New("textcontent: base url is required")
	}
	endpoint, err := url.JoinPath(base, DocumentPath)
	if err != nil {
		return nil, fmt.Errorf("textcontent: invalid base url: %w", err)
	}
	if client == nil {
		client = &http.Client{Timeout: 5 * time.Second}
	}
	return &HTTPSource{url: endpoint, client: client}, nil
}

// URL returns the document endpoint.
func (s *HTTPSource) URL() string { return s.url }

func (s *HTTPSource) Read(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Accept", "text/plain")
	resp, err := s.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &StatusError{URL: s.url, Status: resp.StatusCode}
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("textcontent: read body: %w", err)
	}
	return string(body), nil
}

// FileSource reads the document from disk.
type FileSource struct {
	Path string
}

func (s FileSource) Read(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Fetcher pairs a Source with a Parser.
type Fetcher struct {
	source   Source
	parser   *Parser
	logger   *zap.Logger
	recorder Recorder
}

// NewFetcher builds a fetcher. Options apply to the embedded parser and to the
// fetcher's own logging.
func NewFetcher(source Source, opts ...Option) *Fetcher {
	parser := NewParser(opts...)
	return &Fetcher{
		source:   source,
		parser:   parser,
		logger:   parser.logger,
		recorder: parser.recorder,
	}
}

// Fetch reads and parses the document. Any failure to obtain the document is
// logged and answered with Empty(); Fetch makes a single attempt.
func (f *Fetcher) Fetch(ctx context.Context) TextContent {
	if f == nil || f.source == nil {
		return Empty()
	}
	doc, err := f.source.Read(ctx)
	if err != nil {
		f.recorder.RecordFetchFallback(fallbackReason(err))
		f.logger.Error("textcontent: fetch failed", zap.Error(err))
		return Empty()
	}
	return f.parser.Parse(doc)
}

func fallbackReason(err error) string {
	var statusErr *StatusError
	switch {
	case errors.As(err, &statusErr):
		return "status"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, os.ErrNotExist):
		return "missing"
	default:
		return "error"
	}
}
