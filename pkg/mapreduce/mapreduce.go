package mapreduce

import (
	"fmt"

	"github.com/dtnitsch/pattern-tally/pkg/extractor"
	"github.com/dtnitsch/pattern-tally/pkg/partial"
	"github.com/dtnitsch/pattern-tally/pkg/patterns"
	"github.com/dtnitsch/pattern-tally/pkg/scanner"
	"github.com/dtnitsch/pattern-tally/pkg/tally"
)

// Result holds one frequency table per pattern from a single scan.
type Result struct {
	Source      string
	LinesParsed int
	order       []string
	counts      map[string]*tally.Map
}

// For returns the table of the pattern with the given ID, or an empty table.
func (r *Result) For(id string) *tally.Map {
	if m, ok := r.counts[id]; ok {
		return m
	}
	return tally.New()
}

// PatternIDs returns the pattern IDs in set order.
func (r *Result) PatternIDs() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// ScanAndCount reads source once and, for every line, applies each pattern
// of set in order, counting the extracted keys per pattern.
func ScanAndCount(sc *scanner.Scanner, source string, set *patterns.Set) (*Result, error) {
	ps := set.Patterns()
	res := &Result{
		Source: source,
		counts: make(map[string]*tally.Map, len(ps)),
	}
	for _, p := range ps {
		res.order = append(res.order, p.ID())
		res.counts[p.ID()] = tally.New()
	}

	err := sc.Each(source, func(line string) error {
		res.LinesParsed++
		for _, p := range ps {
			extractor.Each(line, p, res.counts[p.ID()].Observe)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// CountPatterns counts the matches of every pattern in source, keyed by
// pattern ID in set order. Each pattern is matched against a full re-read of
// the source; a pattern that never matches is recorded with count 0.
func CountPatterns(sc *scanner.Scanner, source string, set *patterns.Set) (*tally.Map, error) {
	out := tally.New()
	for _, p := range set.Patterns() {
		var count int64
		err := sc.Each(source, func(line string) error {
			count += int64(extractor.Count(line, p))
			return nil
		})
		if err != nil {
			return nil, err
		}
		if err := out.Add(p.ID(), count); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// WritePartial writes m to destination as a partial-result file.
func WritePartial(m *tally.Map, destination string) error {
	if err := partial.WriteFile(destination, m); err != nil {
		return fmt.Errorf("failed to write partial result %s: %w", destination, err)
	}
	return nil
}

// WritePartials writes several partial-result files as a unit: either all
// of them exist afterwards or none of the new ones do.
func WritePartials(outputs ...partial.Output) error {
	if err := partial.WriteFiles(outputs...); err != nil {
		return fmt.Errorf("failed to write partial results: %w", err)
	}
	return nil
}

// Reduce folds maps left to right with tally.Merge.
func Reduce(maps []*tally.Map) (*tally.Map, error) {
	final := tally.New()
	for _, m := range maps {
		next, err := tally.Merge(final, m)
		if err != nil {
			return nil, err
		}
		final = next
	}
	return final, nil
}

// SourceOutcome describes how one partial-result file fed a merge.
type SourceOutcome struct {
	Path    string
	Records int // distinct keys read
	Skipped []*partial.MalformedRecordError
	Err     error // set when a lenient merge left the whole file out
}

// MergeReport reads each source in order and folds it into a running total,
// one source at a time. onMalformed decides between strict (nil) and lenient
// merging; every record it lets through is listed in that source's outcome.
// A lenient merge also leaves out a source that cannot be read and records
// why in its outcome; an error returned by onMalformed still aborts.
func MergeReport(sources []string, onMalformed partial.MalformedHandler) (*tally.Map, []SourceOutcome, error) {
	final := tally.New()
	outcomes := make([]SourceOutcome, 0, len(sources))

	for _, path := range sources {
		outcome := SourceOutcome{Path: path}
		var aborted error
		opts := []partial.ReadOption{}
		if onMalformed != nil {
			opts = append(opts, partial.WithMalformedHandler(func(bad *partial.MalformedRecordError) error {
				if err := onMalformed(bad); err != nil {
					aborted = err
					return err
				}
				outcome.Skipped = append(outcome.Skipped, bad)
				return nil
			}))
		}

		m, err := partial.ReadFile(path, opts...)
		if err != nil {
			if onMalformed == nil || aborted != nil {
				return nil, outcomes, err
			}
			outcome.Skipped = nil
			outcome.Err = err
			outcomes = append(outcomes, outcome)
			continue
		}
		outcome.Records = m.Size()

		final, err = tally.Merge(final, m)
		if err != nil {
			return nil, outcomes, fmt.Errorf("failed to merge %s: %w", path, err)
		}
		outcomes = append(outcomes, outcome)
	}
	return final, outcomes, nil
}

// MergeAll reads and merges sources in the order given. The first malformed
// record aborts the merge.
func MergeAll(sources []string) (*tally.Map, error) {
	m, _, err := MergeReport(sources, nil)
	return m, err
}
