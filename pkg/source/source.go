// Package source resolves source names to readable text: local files,
// standard input, and http(s) URLs. HTML is reduced to one line of text per
// block element before it reaches the line scanner.
package source

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/dtnitsch/pattern-tally/pkg/caching"
	"github.com/dtnitsch/pattern-tally/pkg/fetcher"
	"github.com/dtnitsch/pattern-tally/pkg/parser"
	"github.com/dtnitsch/pattern-tally/pkg/scanner"
)

// IsURL reports whether name is fetched over HTTP.
func IsURL(name string) bool {
	return strings.HasPrefix(name, "http://") || strings.HasPrefix(name, "https://")
}

// IsHTMLFile reports whether a local file name looks like an HTML document.
func IsHTMLFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".html", ".htm", ".xhtml":
		return true
	}
	return false
}

// Resolver opens sources by name. It implements scanner.Opener.
//
// Local plain-text files are streamed. HTML files, URLs and standard input
// are materialized once and served from memory (or the cache) on every
// later open, so a source can be scanned once per pattern.
type Resolver struct {
	fetcher *fetcher.Fetcher
	parser  *parser.Parser
	cache   *caching.Cache // optional, URLs only
	stdin   io.Reader

	mu     sync.Mutex
	memory map[string][]byte
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithFetcher sets the HTTP fetcher for URL sources.
func WithFetcher(f *fetcher.Fetcher) Option {
	return func(r *Resolver) { r.fetcher = f }
}

// WithCache stores fetched URL text in c.
func WithCache(c *caching.Cache) Option {
	return func(r *Resolver) { r.cache = c }
}

// WithStdin replaces os.Stdin as the "-" source.
func WithStdin(in io.Reader) Option {
	return func(r *Resolver) { r.stdin = in }
}

// NewResolver returns a Resolver with a default fetcher.
func NewResolver(opts ...Option) *Resolver {
	r := &Resolver{
		fetcher: fetcher.NewFetcher(0),
		parser:  &parser.Parser{},
		stdin:   os.Stdin,
		memory:  make(map[string][]byte),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Open implements scanner.Opener.
func (r *Resolver) Open(name string) (io.ReadCloser, error) {
	switch {
	case name == scanner.Stdin:
		return r.remembered(name, func() ([]byte, error) {
			return io.ReadAll(r.stdin)
		})
	case IsURL(name):
		return r.remembered(name, func() ([]byte, error) {
			return r.fetch(name)
		})
	case IsHTMLFile(name):
		return r.remembered(name, func() ([]byte, error) {
			return r.readHTMLFile(name)
		})
	default:
		return scanner.FileOpener{}.Open(name)
	}
}

func (r *Resolver) remembered(name string, load func() ([]byte, error)) (io.ReadCloser, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	data, ok := r.memory[name]
	if !ok {
		var err error
		data, err = load()
		if err != nil {
			return nil, err
		}
		r.memory[name] = data
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (r *Resolver) fetch(url string) ([]byte, error) {
	if r.cache != nil {
		if data, ok := r.cache.Get(url); ok {
			return data, nil
		}
	}

	doc, err := r.fetcher.Get(url)
	if err != nil {
		if errors.Is(err, fetcher.ErrNotFound) {
			return nil, &scanner.SourceNotFoundError{Source: url, Err: err}
		}
		return nil, &scanner.SourceReadError{Source: url, Err: err}
	}

	data := doc.Body
	if doc.IsHTML() {
		data, err = r.htmlToText(url, doc.Body)
		if err != nil {
			return nil, &scanner.SourceReadError{Source: url, Err: err}
		}
	}

	if r.cache != nil {
		// a failed cache write only costs a refetch next time
		_ = r.cache.Set(url, data)
	}
	return data, nil
}

func (r *Resolver) readHTMLFile(name string) ([]byte, error) {
	raw, err := os.ReadFile(name)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) || errors.Is(err, os.ErrPermission) {
			return nil, &scanner.SourceNotFoundError{Source: name, Err: err}
		}
		return nil, &scanner.SourceReadError{Source: name, Err: err}
	}
	data, err := r.htmlToText("file://"+filepath.ToSlash(name), raw)
	if err != nil {
		return nil, &scanner.SourceReadError{Source: name, Err: err}
	}
	return data, nil
}

func (r *Resolver) htmlToText(url string, html []byte) ([]byte, error) {
	lines, err := r.parser.ToLines(url, string(html))
	if err != nil {
		return nil, fmt.Errorf("failed to extract text: %w", err)
	}
	var b bytes.Buffer
	for _, line := range lines {
		b.WriteString(line)
		b.WriteByte('\n')
	}
	return b.Bytes(), nil
}
