// Package partial reads and writes partial-result files: one "key|count"
// record per line, where the last '|' on the line separates the key from
// the count. Keys may themselves contain '|'.
package partial

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/dtnitsch/pattern-tally/pkg/storage"
	"github.com/dtnitsch/pattern-tally/pkg/tally"
)

// Delimiter separates key and count.
const Delimiter = "|"

// ErrUnwritableKey is returned by Write for a key that cannot be read back
// as a single record.
var ErrUnwritableKey = errors.New("key contains a line break")

// MalformedRecordError reports a line that is not a valid record.
type MalformedRecordError struct {
	Source string // file name, empty for anonymous readers
	Line   int    // 1-based
	Text   string
	Reason string
}

func (e *MalformedRecordError) Error() string {
	src := e.Source
	if src == "" {
		src = "<input>"
	}
	return fmt.Sprintf("%s:%d: malformed record %q: %s", src, e.Line, e.Text, e.Reason)
}

// MalformedHandler decides what happens to a malformed record. Returning nil
// skips the record and keeps reading; returning an error aborts the read
// with that error.
type MalformedHandler func(*MalformedRecordError) error

// Skip is a lenient MalformedHandler that drops every bad record.
func Skip(*MalformedRecordError) error { return nil }

type readConfig struct {
	source    string
	malformed MalformedHandler
}

// ReadOption configures Read.
type ReadOption func(*readConfig)

// WithSource names the input in errors.
func WithSource(name string) ReadOption {
	return func(c *readConfig) { c.source = name }
}

// WithMalformedHandler installs h. Without it reads are strict and the first
// malformed record is returned as the error.
func WithMalformedHandler(h MalformedHandler) ReadOption {
	return func(c *readConfig) { c.malformed = h }
}

// ParseRecord splits a single record at its last delimiter.
func ParseRecord(line string) (string, int64, error) {
	i := strings.LastIndex(line, Delimiter)
	if i < 0 {
		return "", 0, errors.New("missing delimiter")
	}
	digits := line[i+1:]
	if digits == "" {
		return "", 0, errors.New("missing count")
	}
	for _, r := range digits {
		if r < '0' || r > '9' {
			return "", 0, fmt.Errorf("count %q is not a non-negative integer", digits)
		}
	}
	n, err := strconv.ParseInt(digits, 10, 64)
	if err != nil {
		return "", 0, fmt.Errorf("count %q out of range", digits)
	}
	return line[:i], n, nil
}

// Read parses records from r. Repeated keys are summed.
func Read(r io.Reader, opts ...ReadOption) (*tally.Map, error) {
	cfg := readConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}

	m := tally.New()
	br := bufio.NewReader(r)
	lineNo := 0
	for {
		raw, readErr := br.ReadString('\n')
		if readErr != nil && readErr != io.EOF {
			return nil, fmt.Errorf("failed to read %s: %w", cfg.name(), readErr)
		}
		if raw != "" {
			lineNo++
			line := strings.TrimSuffix(strings.TrimSuffix(raw, "\n"), "\r")
			if err := cfg.record(m, lineNo, line); err != nil {
				return nil, err
			}
		}
		if readErr == io.EOF {
			return m, nil
		}
	}
}

func (c *readConfig) name() string {
	if c.source == "" {
		return "partial result"
	}
	return c.source
}

func (c *readConfig) record(m *tally.Map, lineNo int, line string) error {
	key, n, err := ParseRecord(line)
	if err == nil {
		err = m.Add(key, n)
		if err != nil {
			return fmt.Errorf("%s:%d: %w", c.name(), lineNo, err)
		}
		return nil
	}

	bad := &MalformedRecordError{Source: c.source, Line: lineNo, Text: line, Reason: err.Error()}
	if c.malformed == nil {
		return bad
	}
	return c.malformed(bad)
}

// Write emits one record per entry in insertion order.
func Write(w io.Writer, m *tally.Map) error {
	bw := bufio.NewWriter(w)
	err := m.Each(func(key string, count int64) error {
		if strings.Contains(key, "\n") {
			return fmt.Errorf("%w: %q", ErrUnwritableKey, key)
		}
		_, err := fmt.Fprintf(bw, "%s%s%d\n", key, Delimiter, count)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to write partial result: %w", err)
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("failed to write partial result: %w", err)
	}
	return nil
}

// ReadFile reads the partial-result file at path.
func ReadFile(path string, opts ...ReadOption) (*tally.Map, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open partial result: %w", err)
	}
	defer f.Close()

	return Read(f, append([]ReadOption{WithSource(path)}, opts...)...)
}

// WriteFile writes m to path. On any failure no file is left at path.
func WriteFile(path string, m *tally.Map) error {
	return WriteFiles(Output{Path: path, Map: m})
}

// Output pairs a destination path with the table written there.
type Output struct {
	Path string
	Map  *tally.Map
}

// WriteFiles writes every output or none of them.
func WriteFiles(outputs ...Output) error {
	files := make([]storage.PendingFile, len(outputs))
	for i, out := range outputs {
		files[i] = storage.PendingFile{
			Path:  out.Path,
			Write: func(w io.Writer) error { return Write(w, out.Map) },
		}
	}
	s := &storage.Storage{}
	return s.WriteFilesAtomic(files...)
}
