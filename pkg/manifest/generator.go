package manifest

import (
	"fmt"
	"time"

	"github.com/dtnitsch/pattern-tally/pkg/mapreduce"
	"github.com/dtnitsch/pattern-tally/pkg/storage"
	"github.com/dtnitsch/pattern-tally/pkg/tally"
	"gopkg.in/yaml.v3"
)

// Suffix is appended to an output path to name its manifest.
const Suffix = ".manifest.yaml"

// Input is the outcome of one source, passed in by the command actions.
type Input struct {
	Path    string
	Records int
	Err     error
	Skipped []SkippedRecord
}

// Build assembles a manifest for a run that produced counts (which may be
// nil when the run failed before producing any).
func Build(command string, inputs []Input, counts *tally.Map, top int) *RunManifest {
	m := &RunManifest{
		GeneratedAt:  time.Now().Format(time.RFC3339),
		Command:      command,
		TotalSources: len(inputs),
	}

	for _, in := range inputs {
		summary := SourceSummary{
			Path:    in.Path,
			Records: in.Records,
			Skipped: in.Skipped,
		}
		if in.Err != nil {
			m.Failed++
			summary.Status = "error"
			summary.ErrorMessage = in.Err.Error()
		} else {
			m.Successful++
			summary.Status = "success"
		}
		m.Sources = append(m.Sources, summary)
	}

	if counts != nil {
		m.DistinctKeys = counts.Size()
		m.TotalCount = counts.Total()
		m.TopKeys = mapreduce.TopKeywords(counts, top)
	}
	return m
}

// Save writes the manifest for outputPath and returns the manifest's path.
// When the output file exists its size is recorded.
func Save(m *RunManifest, outputPath string, s *storage.Storage) (string, error) {
	m.Output = outputPath
	if stats, err := s.GetFileStats(outputPath); err == nil {
		m.OutputBytes = stats.SizeBytes
	}

	data, err := yaml.Marshal(m)
	if err != nil {
		return "", fmt.Errorf("error marshalling manifest: %w", err)
	}

	manifestPath := outputPath + Suffix
	if err := s.SaveFile(manifestPath, data); err != nil {
		return "", fmt.Errorf("error saving manifest: %w", err)
	}
	return manifestPath, nil
}
