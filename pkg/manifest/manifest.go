package manifest

// RunManifest summarizes one run: which sources fed it, how each fared, and
// what was produced. It is written as YAML next to the run's output.
type RunManifest struct {
	GeneratedAt  string          `yaml:"generated_at"`
	Command      string          `yaml:"command"`
	Output       string          `yaml:"output,omitempty"`
	OutputBytes  int64           `yaml:"output_bytes,omitempty"`
	Language     string          `yaml:"language,omitempty"`
	TotalSources int             `yaml:"total_sources"`
	Successful   int             `yaml:"successful"`
	Failed       int             `yaml:"failed"`
	DistinctKeys int             `yaml:"distinct_keys"`
	TotalCount   int64           `yaml:"total_count"`
	TopKeys      []string        `yaml:"top_keys,omitempty"`
	Sources      []SourceSummary `yaml:"sources"`
}

// SourceSummary describes a single input of a run.
type SourceSummary struct {
	Path         string          `yaml:"path"`
	Status       string          `yaml:"status"` // "success" or "error"
	Records      int             `yaml:"records,omitempty"`
	ErrorMessage string          `yaml:"error_message,omitempty"`
	Skipped      []SkippedRecord `yaml:"skipped,omitempty"`
}

// SkippedRecord is a malformed record dropped by a lenient merge.
type SkippedRecord struct {
	Line   int    `yaml:"line"`
	Text   string `yaml:"text"`
	Reason string `yaml:"reason"`
}
