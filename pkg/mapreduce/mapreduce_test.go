package mapreduce

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dtnitsch/pattern-tally/pkg/partial"
	"github.com/dtnitsch/pattern-tally/pkg/patterns"
	"github.com/dtnitsch/pattern-tally/pkg/scanner"
	"github.com/dtnitsch/pattern-tally/pkg/tally"
	"github.com/stretchr/testify/require"
)

// memOpener serves fixed in-memory sources and counts opens.
type memOpener struct {
	sources map[string]string
	opens   int
}

func (o *memOpener) Open(name string) (io.ReadCloser, error) {
	text, ok := o.sources[name]
	if !ok {
		return nil, os.ErrNotExist
	}
	o.opens++
	return io.NopCloser(strings.NewReader(text)), nil
}

func newScanner(sources map[string]string) (*scanner.Scanner, *memOpener) {
	o := &memOpener{sources: sources}
	return scanner.New(o), o
}

func writePartial(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0600))
	return path
}

func TestScanAndCountUsers(t *testing.T) {
	sc, _ := newScanner(map[string]string{
		"auth.log": "user alice login\nuser bob login\nuser alice logout\n",
	})

	res, err := ScanAndCount(sc, "auth.log", patterns.Builtin())
	require.NoError(t, err)

	users := res.For(patterns.UserID)
	require.Equal(t, []tally.Entry{{Key: "alice", Count: 2}, {Key: "bob", Count: 1}}, users.Entries())
	require.Equal(t, 0, res.For(patterns.AddressID).Size())
	require.Equal(t, 3, res.LinesParsed)
	require.Equal(t, []string{patterns.AddressID, patterns.UserID}, res.PatternIDs())
}

func TestScanAndCountAddresses(t *testing.T) {
	sc, _ := newScanner(map[string]string{
		"net.log": "connect from 10.0.0.1 and 10.0.0.1 again\n",
	})

	res, err := ScanAndCount(sc, "net.log", patterns.Builtin())
	require.NoError(t, err)
	require.Equal(t, []tally.Entry{{Key: "10.0.0.1", Count: 2}}, res.For(patterns.AddressID).Entries())
}

func TestScanAndCountMixedLog(t *testing.T) {
	log := strings.Join([]string{
		"Jan 1 sshd: user root from 192.168.0.7 failed",
		"Jan 1 sshd: user deploy from 10.1.1.1 accepted",
		"Jan 2 kernel: eth0 up",
		"Jan 2 sshd: user root from 192.168.0.7 failed; retry from 192.168.0.8",
	}, "\n")
	sc, _ := newScanner(map[string]string{"mixed.log": log})

	res, err := ScanAndCount(sc, "mixed.log", patterns.Builtin())
	require.NoError(t, err)

	addrs := res.For(patterns.AddressID)
	require.Equal(t, []string{"192.168.0.7", "10.1.1.1", "192.168.0.8"}, addrs.Keys())
	require.Equal(t, int64(2), addrs.Count("192.168.0.7"))
	require.Equal(t, int64(4), addrs.Total())

	users := res.For(patterns.UserID)
	require.Equal(t, []string{"root", "deploy"}, users.Keys())
	require.Equal(t, int64(2), users.Count("root"))
	require.Equal(t, 4, res.LinesParsed)
}

func TestScanAndCountEmptySource(t *testing.T) {
	sc, _ := newScanner(map[string]string{"empty.log": ""})

	res, err := ScanAndCount(sc, "empty.log", patterns.Builtin())
	require.NoError(t, err)
	require.Equal(t, 0, res.LinesParsed)
	require.Equal(t, 0, res.For(patterns.AddressID).Size())
	require.Equal(t, 0, res.For(patterns.UserID).Size())
	require.Equal(t, 0, res.For("unknown").Size())
}

func TestScanAndCountMissingSource(t *testing.T) {
	sc, _ := newScanner(map[string]string{})

	res, err := ScanAndCount(sc, "missing.log", patterns.Builtin())
	require.Nil(t, res)
	var nf *scanner.SourceNotFoundError
	require.ErrorAs(t, err, &nf)
}

func TestCountPatterns(t *testing.T) {
	novel := "Call me Ishmael.\nThe whale, the WHALE!\nthe end\n"
	sc, o := newScanner(map[string]string{"moby.txt": novel})

	set, err := patterns.Load(strings.NewReader("the\n[Ww]hale\nkraken\n(?i)whale\n"))
	require.NoError(t, err)

	counts, err := CountPatterns(sc, "moby.txt", set)
	require.NoError(t, err)
	require.Equal(t, []tally.Entry{
		{Key: "the", Count: 2},
		{Key: "[Ww]hale", Count: 1},
		{Key: "kraken", Count: 0},
		{Key: "(?i)whale", Count: 2},
	}, counts.Entries())

	// one full pass per pattern
	require.Equal(t, set.Len(), o.opens)
}

func TestCountPatternsAgreesWithSinglePass(t *testing.T) {
	text := "a.b a.b\n1.2.3.4 user x\nuser y 5.6.7.8 5.6.7.8\n"
	sc, _ := newScanner(map[string]string{"t": text})
	set, err := patterns.Load(strings.NewReader(patterns.AddressExpr + "\nuser \\w+\na\\.b\n"))
	require.NoError(t, err)

	perPattern, err := CountPatterns(sc, "t", set)
	require.NoError(t, err)

	single, err := ScanAndCount(sc, "t", set)
	require.NoError(t, err)
	for _, id := range single.PatternIDs() {
		require.Equal(t, single.For(id).Total(), perPattern.Count(id), id)
	}
}

func TestCountPatternsMissingSource(t *testing.T) {
	sc, _ := newScanner(map[string]string{})
	set, err := patterns.Load(strings.NewReader("x\n"))
	require.NoError(t, err)

	_, err = CountPatterns(sc, "nope.txt", set)
	var nf *scanner.SourceNotFoundError
	require.ErrorAs(t, err, &nf)
}

func TestWritePartialThenMerge(t *testing.T) {
	dir := t.TempDir()
	m, err := tally.FromEntries(tally.Entry{Key: "the", Count: 10}, tally.Entry{Key: "a|b", Count: 1})
	require.NoError(t, err)

	dest := filepath.Join(dir, "Moby_wc.txt")
	require.NoError(t, WritePartial(m, dest))

	got, err := MergeAll([]string{dest})
	require.NoError(t, err)
	require.Equal(t, m.Entries(), got.Entries())
}

func TestMergeAllIsOrderIndependent(t *testing.T) {
	dir := t.TempDir()
	one := writePartial(t, dir, "one_wc.txt", "foo|3\nbar|1\n")
	two := writePartial(t, dir, "two_wc.txt", "bar|4\nbaz|2\n")

	forward, err := MergeAll([]string{one, two})
	require.NoError(t, err)
	backward, err := MergeAll([]string{two, one})
	require.NoError(t, err)

	want, err := tally.FromEntries(
		tally.Entry{Key: "foo", Count: 3},
		tally.Entry{Key: "bar", Count: 5},
		tally.Entry{Key: "baz", Count: 2},
	)
	require.NoError(t, err)

	require.True(t, want.Equal(forward))
	require.True(t, want.Equal(backward))
	// only counts are invariant; line order follows argument order
	require.Equal(t, []string{"foo", "bar", "baz"}, forward.Keys())
	require.Equal(t, []string{"bar", "baz", "foo"}, backward.Keys())
}

func TestMergeAllEmpty(t *testing.T) {
	m, err := MergeAll(nil)
	require.NoError(t, err)
	require.Equal(t, 0, m.Size())
}

func TestMergeAllStrictNamesFile(t *testing.T) {
	dir := t.TempDir()
	good := writePartial(t, dir, "good_wc.txt", "foo|1\n")
	bad := writePartial(t, dir, "bad_wc.txt", "foo|1\nbroken line\n")

	_, err := MergeAll([]string{good, bad})
	var rec *partial.MalformedRecordError
	require.ErrorAs(t, err, &rec)
	require.Equal(t, bad, rec.Source)
	require.Equal(t, 2, rec.Line)
}

func TestMergeReportLenient(t *testing.T) {
	dir := t.TempDir()
	good := writePartial(t, dir, "good_wc.txt", "foo|1\nbar|2\n")
	bad := writePartial(t, dir, "bad_wc.txt", "foo|1\nbroken\nbar|x\nqux|4\n")

	m, outcomes, err := MergeReport([]string{good, bad}, partial.Skip)
	require.NoError(t, err)
	require.Equal(t, []tally.Entry{{Key: "foo", Count: 2}, {Key: "bar", Count: 2}, {Key: "qux", Count: 4}}, m.Entries())

	require.Len(t, outcomes, 2)
	require.Empty(t, outcomes[0].Skipped)
	require.Equal(t, 2, outcomes[0].Records)
	require.Len(t, outcomes[1].Skipped, 2)
	require.Equal(t, 2, outcomes[1].Skipped[0].Line)
	require.Equal(t, 3, outcomes[1].Skipped[1].Line)
	require.Equal(t, 2, outcomes[1].Records)
}

func TestMergeReportLenientLeavesOutUnreadableSource(t *testing.T) {
	dir := t.TempDir()
	good := writePartial(t, dir, "good_wc.txt", "foo|1\n")
	gone := filepath.Join(dir, "gone_wc.txt")
	later := writePartial(t, dir, "later_wc.txt", "foo|2\n")

	m, outcomes, err := MergeReport([]string{good, gone, later}, partial.Skip)
	require.NoError(t, err)
	require.Equal(t, int64(3), m.Count("foo"))

	require.Len(t, outcomes, 3)
	require.NoError(t, outcomes[0].Err)
	require.ErrorIs(t, outcomes[1].Err, os.ErrNotExist)
	require.Equal(t, 0, outcomes[1].Records)
	require.NoError(t, outcomes[2].Err)

	_, _, err = MergeReport([]string{good, gone}, nil)
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestMergeReportHandlerAbort(t *testing.T) {
	dir := t.TempDir()
	bad := writePartial(t, dir, "bad_wc.txt", "broken\n")
	stop := errors.New("policy says stop")

	_, _, err := MergeReport([]string{bad}, func(*partial.MalformedRecordError) error { return stop })
	require.ErrorIs(t, err, stop)
}

func TestMergeAllMissingFile(t *testing.T) {
	_, err := MergeAll([]string{filepath.Join(t.TempDir(), "gone_wc.txt")})
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestReduceMatchesMergeAll(t *testing.T) {
	a, _ := tally.FromEntries(tally.Entry{Key: "x", Count: 1})
	b, _ := tally.FromEntries(tally.Entry{Key: "y", Count: 2}, tally.Entry{Key: "x", Count: 3})
	c := tally.New()

	got, err := Reduce([]*tally.Map{a, b, c})
	require.NoError(t, err)
	require.Equal(t, []tally.Entry{{Key: "x", Count: 4}, {Key: "y", Count: 2}}, got.Entries())
}

func TestTopKeywords(t *testing.T) {
	m, _ := tally.FromEntries(
		tally.Entry{Key: "a", Count: 1},
		tally.Entry{Key: "b", Count: 9},
		tally.Entry{Key: "c", Count: 9},
	)
	require.Equal(t, []string{"b:9", "c:9"}, TopKeywords(m, 2))
	require.Equal(t, []string{"b:9", "c:9", "a:1"}, TopKeywords(m, 25))

	var buf bytes.Buffer
	require.NoError(t, PrintTopKeywords(&buf, m, 1))
	require.Equal(t, "1. b: 9\n", buf.String())
}
