package manifest

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/dtnitsch/pattern-tally/pkg/storage"
	"github.com/dtnitsch/pattern-tally/pkg/tally"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestBuild(t *testing.T) {
	counts, err := tally.FromEntries(
		tally.Entry{Key: "foo", Count: 3},
		tally.Entry{Key: "bar", Count: 5},
	)
	require.NoError(t, err)

	m := Build("merge", []Input{
		{Path: "a_wc.txt", Records: 2},
		{Path: "b_wc.txt", Records: 1, Skipped: []SkippedRecord{{Line: 2, Text: "oops", Reason: "missing delimiter"}}},
		{Path: "c_wc.txt", Err: errors.New("permission denied")},
	}, counts, 1)

	require.Equal(t, "merge", m.Command)
	require.Equal(t, 3, m.TotalSources)
	require.Equal(t, 2, m.Successful)
	require.Equal(t, 1, m.Failed)
	require.Equal(t, 2, m.DistinctKeys)
	require.Equal(t, int64(8), m.TotalCount)
	require.Equal(t, []string{"bar:5"}, m.TopKeys)
	require.Equal(t, "error", m.Sources[2].Status)
	require.Equal(t, "permission denied", m.Sources[2].ErrorMessage)
	require.Len(t, m.Sources[1].Skipped, 1)
}

func TestBuildWithoutCounts(t *testing.T) {
	m := Build("count", []Input{{Path: "x.txt", Err: errors.New("not found")}}, nil, 25)
	require.Equal(t, 0, m.DistinctKeys)
	require.Empty(t, m.TopKeys)
}

func TestSave(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "Moby_wc.txt")
	require.NoError(t, os.WriteFile(out, []byte("whale|3\n"), 0600))

	m := Build("count", []Input{{Path: "moby.txt", Records: 1}}, nil, 0)
	path, err := Save(m, out, &storage.Storage{})
	require.NoError(t, err)
	require.Equal(t, out+Suffix, path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var got RunManifest
	require.NoError(t, yaml.Unmarshal(data, &got))
	require.Equal(t, out, got.Output)
	require.Equal(t, int64(len("whale|3\n")), got.OutputBytes)
	require.Equal(t, "count", got.Command)
	require.Equal(t, "success", got.Sources[0].Status)
}
