package models

import "github.com/dtnitsch/pattern-tally/pkg/tally"

// LogReport is the result of scanning one log for addresses and users.
type LogReport struct {
	Source          string        `json:"source" yaml:"source"`
	LinesParsed     int           `json:"lines_parsed" yaml:"lines_parsed"`
	UniqueAddresses int           `json:"unique_addresses" yaml:"unique_addresses"`
	UniqueUsers     int           `json:"unique_users" yaml:"unique_users"`
	Addresses       []tally.Entry `json:"addresses,omitempty" yaml:"addresses,omitempty"`
	Users           []tally.Entry `json:"users,omitempty" yaml:"users,omitempty"`
	Partials        []string      `json:"partials,omitempty" yaml:"partials,omitempty"`
}

// CountReport is the result of counting a pattern list against one text.
type CountReport struct {
	Source   string        `json:"source" yaml:"source"`
	Output   string        `json:"output" yaml:"output"`
	Patterns int           `json:"patterns" yaml:"patterns"`
	Language string        `json:"language,omitempty" yaml:"language,omitempty"`
	Counts   []tally.Entry `json:"counts" yaml:"counts"`
}

// MergeReport is the consolidated result of merging partial-result files.
type MergeReport struct {
	Sources      []string      `json:"sources" yaml:"sources"`
	DistinctKeys int           `json:"distinct_keys" yaml:"distinct_keys"`
	Total        int64         `json:"total" yaml:"total"`
	Top          []string      `json:"top,omitempty" yaml:"top,omitempty"`
	Counts       []tally.Entry `json:"counts" yaml:"counts"`
}
