// Package patterns loads the ordered, immutable set of match rules applied
// to each line of a source.
package patterns

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"
)

const (
	// AddressID identifies the built-in address pattern.
	AddressID = "address"
	// UserID identifies the built-in user pattern.
	UserID = "user"

	// AddressExpr matches dotted groups of one to three digits. Octet ranges
	// are not validated, so 999.1.1.1 is an address.
	AddressExpr = `\b(?:\d{1,3}\.){3}\d{1,3}\b`
	// UserExpr matches "user NAME"; group 1 is the key.
	UserExpr = `user (\w+)`
)

// Pattern is a compiled match rule. Its key for a match is either the whole
// match (group 0) or one designated capture group.
type Pattern struct {
	id    string
	re    *regexp.Regexp
	group int
}

// SyntaxError reports a pattern that failed to compile.
type SyntaxError struct {
	Line    int // 1-based line in the pattern list, 0 when not loaded from a list
	Pattern string
	Err     error
}

func (e *SyntaxError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("invalid pattern on line %d %q: %v", e.Line, e.Pattern, e.Err)
	}
	return fmt.Sprintf("invalid pattern %q: %v", e.Pattern, e.Err)
}

func (e *SyntaxError) Unwrap() error { return e.Err }

// Compile builds a Pattern whose ID is its source text.
func Compile(expr string, group int) (*Pattern, error) {
	return CompileNamed(expr, expr, group)
}

// CompileNamed builds a Pattern with an explicit ID.
func CompileNamed(id, expr string, group int) (*Pattern, error) {
	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, &SyntaxError{Pattern: expr, Err: err}
	}
	if group < 0 || group > re.NumSubexp() {
		return nil, &SyntaxError{
			Pattern: expr,
			Err:     fmt.Errorf("capture group %d out of range, pattern has %d", group, re.NumSubexp()),
		}
	}
	return &Pattern{id: id, re: re, group: group}, nil
}

// ID returns the pattern identifier.
func (p *Pattern) ID() string { return p.id }

// Expr returns the regular expression source.
func (p *Pattern) Expr() string { return p.re.String() }

// Group returns the capture group that yields keys (0 for the whole match).
func (p *Pattern) Group() int { return p.group }

// Regexp returns the compiled expression.
func (p *Pattern) Regexp() *regexp.Regexp { return p.re }

// Set is an ordered list of patterns.
type Set struct {
	patterns []*Pattern
	byID     map[string]*Pattern
}

// NewSet builds a Set in the given order. Later patterns with an ID already
// present are dropped.
func NewSet(ps ...*Pattern) *Set {
	s := &Set{byID: make(map[string]*Pattern, len(ps))}
	for _, p := range ps {
		if _, dup := s.byID[p.id]; dup {
			continue
		}
		s.byID[p.id] = p
		s.patterns = append(s.patterns, p)
	}
	return s
}

// Patterns returns the patterns in load order.
func (s *Set) Patterns() []*Pattern {
	out := make([]*Pattern, len(s.patterns))
	copy(out, s.patterns)
	return out
}

// Len returns the number of patterns.
func (s *Set) Len() int { return len(s.patterns) }

// Get returns the pattern with the given ID.
func (s *Set) Get(id string) (*Pattern, bool) {
	p, ok := s.byID[id]
	return p, ok
}

// Builtin returns the log-scanning set: addresses first, then users.
func Builtin() *Set {
	s, err := BuiltinWith("", "")
	if err != nil {
		panic(err) // constants always compile
	}
	return s
}

// BuiltinWith returns the log-scanning set with optional replacement
// expressions. An empty string keeps the default. A replacement user
// expression must have a capture group; group 1 is the key.
func BuiltinWith(addressExpr, userExpr string) (*Set, error) {
	if addressExpr == "" {
		addressExpr = AddressExpr
	}
	if userExpr == "" {
		userExpr = UserExpr
	}
	address, err := CompileNamed(AddressID, addressExpr, 0)
	if err != nil {
		return nil, err
	}
	user, err := CompileNamed(UserID, userExpr, 1)
	if err != nil {
		return nil, err
	}
	return NewSet(address, user), nil
}

// Load reads one pattern per line. Lines are trimmed and blank lines are
// skipped. Every pattern counts whole matches and is identified by its
// trimmed source. The first invalid pattern fails the whole load.
func Load(r io.Reader) (*Set, error) {
	var ps []*Pattern
	br := bufio.NewReader(r)
	lineNo := 0
	for {
		raw, readErr := br.ReadString('\n')
		if readErr != nil && readErr != io.EOF {
			return nil, fmt.Errorf("failed to read patterns: %w", readErr)
		}
		if raw != "" {
			lineNo++
			expr := strings.TrimSpace(raw)
			if expr != "" {
				p, err := Compile(expr, 0)
				if err != nil {
					if se, ok := err.(*SyntaxError); ok {
						se.Line = lineNo
					}
					return nil, err
				}
				ps = append(ps, p)
			}
		}
		if readErr == io.EOF {
			break
		}
	}
	return NewSet(ps...), nil
}

// LoadFile loads a pattern list from path.
func LoadFile(path string) (*Set, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open pattern file: %w", err)
	}
	defer f.Close()

	return Load(f)
}
