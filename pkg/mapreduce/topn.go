package mapreduce

import (
	"fmt"
	"io"

	"github.com/dtnitsch/pattern-tally/pkg/tally"
)

// TopKeywords returns the top N keys as "key:count" strings, highest count
// first. Equal counts keep first-seen order.
func TopKeywords(m *tally.Map, n int) []string {
	top := m.Top(n)
	keywords := make([]string, len(top))
	for i, e := range top {
		keywords[i] = fmt.Sprintf("%s:%d", e.Key, e.Count)
	}
	return keywords
}

// PrintTopKeywords writes the top N keys as a numbered list.
func PrintTopKeywords(w io.Writer, m *tally.Map, n int) error {
	for i, e := range m.Top(n) {
		if _, err := fmt.Fprintf(w, "%d. %s: %d\n", i+1, e.Key, e.Count); err != nil {
			return err
		}
	}
	return nil
}
