package fetcher

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"time"
)

// ErrNotFound is returned for 404 and 410 responses.
var ErrNotFound = errors.New("remote document not found")

// Document is a fetched body with its declared media type.
type Document struct {
	URL       string
	MediaType string
	Body      []byte
}

// IsHTML reports whether the server declared an HTML body.
func (d *Document) IsHTML() bool {
	return d.MediaType == "text/html" || d.MediaType == "application/xhtml+xml"
}

type Fetcher struct {
	client *http.Client
}

// NewFetcher returns a Fetcher whose requests give up after timeout.
// A zero timeout means no limit.
func NewFetcher(timeout time.Duration) *Fetcher {
	return &Fetcher{
		client: &http.Client{Timeout: timeout},
	}
}

// Get downloads url and returns its body.
func (f *Fetcher) Get(url string) (*Document, error) {
	resp, err := f.client.Get(url)
	if err != nil {
		return nil, fmt.Errorf("failed to make HTTP request: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		return nil, fmt.Errorf("%w: status code %d", ErrNotFound, resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("failed to fetch document, status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	mediaType, _, _ := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	return &Document{URL: url, MediaType: mediaType, Body: body}, nil
}
