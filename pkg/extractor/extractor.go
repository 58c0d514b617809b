package extractor

import (
	"github.com/dtnitsch/pattern-tally/pkg/patterns"
)

// Extract returns the key of every non-overlapping match of p in line, left
// to right. A pattern with a designated group yields that group's text;
// otherwise the whole match is the key.
func Extract(line string, p *patterns.Pattern) []string {
	var keys []string
	Each(line, p, func(key string) {
		keys = append(keys, key)
	})
	return keys
}

// Each calls fn with the key of every match of p in line. Empty keys are
// skipped; Count still counts empty matches.
func Each(line string, p *patterns.Pattern, fn func(key string)) {
	re := p.Regexp()
	group := p.Group()

	if group == 0 {
		for _, loc := range re.FindAllStringIndex(line, -1) {
			if loc[0] == loc[1] {
				continue
			}
			fn(line[loc[0]:loc[1]])
		}
		return
	}

	for _, loc := range re.FindAllStringSubmatchIndex(line, -1) {
		start, end := loc[2*group], loc[2*group+1]
		if start < 0 || start == end {
			// group did not participate or matched nothing
			continue
		}
		fn(line[start:end])
	}
}

// Count returns the number of matches of p in line.
func Count(line string, p *patterns.Pattern) int {
	return len(p.Regexp().FindAllStringIndex(line, -1))
}
