package models

import (
	"fmt"
	"strings"
)

// PrintMode selects which listings the logs report includes.
type PrintMode int

const (
	PrintSummary   PrintMode = iota // counts only
	PrintAddresses                  // address listing, then counts
	PrintUsers                      // user listing, then counts
)

// ResolvePrintMode maps a numeric flag to a PrintMode. Unknown values fall
// back to the summary.
func ResolvePrintMode(flag int) PrintMode {
	switch PrintMode(flag) {
	case PrintAddresses, PrintUsers:
		return PrintMode(flag)
	default:
		return PrintSummary
	}
}

// OutputFormat selects how reports are rendered.
type OutputFormat string

const (
	FormatText OutputFormat = "text"
	FormatYAML OutputFormat = "yaml"
	FormatJSON OutputFormat = "json"
)

// ParseOutputFormat accepts text, yaml or json (case-insensitive). Empty means text.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch f := OutputFormat(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatText, nil
	case FormatText, FormatYAML, FormatJSON:
		return f, nil
	default:
		return "", fmt.Errorf("unknown output format %q (want text, yaml or json)", s)
	}
}
