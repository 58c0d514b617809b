// Package scanner streams the lines of a named source one at a time.
package scanner

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"iter"
	"os"
	"strings"
)

// Stdin is the source name that reads standard input.
const Stdin = "-"

// SourceNotFoundError reports a source that does not exist or cannot be opened.
type SourceNotFoundError struct {
	Source string
	Err    error
}

func (e *SourceNotFoundError) Error() string {
	return fmt.Sprintf("source %q not found: %v", e.Source, e.Err)
}

func (e *SourceNotFoundError) Unwrap() error { return e.Err }

// SourceReadError reports an I/O fault in the middle of a scan.
type SourceReadError struct {
	Source string
	Line   int // lines successfully read before the fault
	Err    error
}

func (e *SourceReadError) Error() string {
	return fmt.Sprintf("failed to read source %q after line %d: %v", e.Source, e.Line, e.Err)
}

func (e *SourceReadError) Unwrap() error { return e.Err }

// Opener opens a named source for one full pass.
type Opener interface {
	Open(name string) (io.ReadCloser, error)
}

// FileOpener opens local files, or standard input for "-".
type FileOpener struct{}

// Open implements Opener.
func (FileOpener) Open(name string) (io.ReadCloser, error) {
	if name == Stdin {
		return io.NopCloser(os.Stdin), nil
	}
	f, err := os.Open(name)
	if err != nil {
		return nil, &SourceNotFoundError{Source: name, Err: err}
	}
	info, err := f.Stat()
	if err == nil && info.IsDir() {
		_ = f.Close()
		return nil, &SourceNotFoundError{Source: name, Err: errors.New("is a directory")}
	}
	return f, nil
}

// Scanner reads sources through an Opener.
type Scanner struct {
	opener Opener
}

// New returns a Scanner. A nil opener reads local files.
func New(opener Opener) *Scanner {
	if opener == nil {
		opener = FileOpener{}
	}
	return &Scanner{opener: opener}
}

func (s *Scanner) open(name string) (io.ReadCloser, error) {
	rc, err := s.opener.Open(name)
	if err == nil {
		return rc, nil
	}
	var nf *SourceNotFoundError
	if errors.As(err, &nf) {
		return nil, err
	}
	if errors.Is(err, fs.ErrNotExist) || errors.Is(err, fs.ErrPermission) {
		return nil, &SourceNotFoundError{Source: name, Err: err}
	}
	return nil, &SourceReadError{Source: name, Err: err}
}

// Each opens name and calls fn for every line in order, with the line
// terminator ("\n" or "\r\n") removed. The source is closed before Each
// returns. An error from fn stops the scan and is returned as is.
func (s *Scanner) Each(name string, fn func(line string) error) error {
	rc, err := s.open(name)
	if err != nil {
		return err
	}
	defer rc.Close()

	br := bufio.NewReader(rc)
	lineNo := 0
	for {
		raw, readErr := br.ReadString('\n')
		if readErr != nil && readErr != io.EOF {
			return &SourceReadError{Source: name, Line: lineNo, Err: readErr}
		}
		if raw != "" {
			lineNo++
			if err := fn(trimEOL(raw)); err != nil {
				return err
			}
		}
		if readErr == io.EOF {
			return nil
		}
	}
}

// Lines returns the lines of name as an iterator. A failure is yielded once
// as the final pair with an empty line.
func (s *Scanner) Lines(name string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		stopped := errors.New("stopped")
		err := s.Each(name, func(line string) error {
			if !yield(line, nil) {
				return stopped
			}
			return nil
		})
		if err != nil && err != stopped {
			yield("", err)
		}
	}
}

// Head returns at most n lines from the start of name.
func (s *Scanner) Head(name string, n int) ([]string, error) {
	if n <= 0 {
		return nil, nil
	}
	lines := make([]string, 0, n)
	for line, err := range s.Lines(name) {
		if err != nil {
			return nil, err
		}
		lines = append(lines, line)
		if len(lines) == n {
			break
		}
	}
	return lines, nil
}

func trimEOL(s string) string {
	s = strings.TrimSuffix(s, "\n")
	return strings.TrimSuffix(s, "\r")
}
