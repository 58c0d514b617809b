package logs

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/dtnitsch/pattern-tally/internal/common"
	"github.com/dtnitsch/pattern-tally/models"
	"github.com/dtnitsch/pattern-tally/pkg/mapreduce"
	"github.com/dtnitsch/pattern-tally/pkg/partial"
	"github.com/dtnitsch/pattern-tally/pkg/patterns"
	"github.com/dtnitsch/pattern-tally/pkg/scanner"
	"github.com/dtnitsch/pattern-tally/pkg/storage"
	"github.com/dtnitsch/pattern-tally/pkg/tally"
	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v2"
)

// LogsAction scans a log for addresses and users and prints the report.
func LogsAction(c *cli.Context) error {
	logger := common.NewLogger(c)

	if c.NArg() != 1 {
		return common.Usage("Error: expected exactly one log file (use '-' for stdin)")
	}
	src := c.Args().First()

	config, err := common.LoadConfig(c)
	if err != nil {
		return common.Fail(logger, "failed to load config", err)
	}

	mode := models.ResolvePrintMode(config.PrintMode)
	if c.IsSet("print-mode") {
		mode = models.ResolvePrintMode(c.Int("print-mode"))
	}
	formatName := config.Format
	if c.IsSet("format") {
		formatName = c.String("format")
	}
	format, err := models.ParseOutputFormat(formatName)
	if err != nil {
		return common.Usage("Error: %v", err)
	}

	set, err := patterns.BuiltinWith(config.AddressPattern, config.UserPattern)
	if err != nil {
		return common.Fail(logger, "invalid log pattern in config", err)
	}

	resolver, err := common.NewResolver(config, src)
	if err != nil {
		return common.Fail(logger, "failed to set up sources", err)
	}

	logger.Debug("Scanning log", "source", src)
	res, err := mapreduce.ScanAndCount(scanner.New(resolver), src, set)
	if err != nil {
		return common.Fail(logger, "failed to scan log", err)
	}

	report := BuildReport(res)
	logger.Info("Scan complete",
		"source", src,
		"lines", humanize.Comma(int64(report.LinesParsed)),
		"unique_addresses", report.UniqueAddresses,
		"unique_users", report.UniqueUsers)

	if dir := c.String("save-dir"); dir != "" {
		saved, err := SavePartials(res, dir, src, config.Suffix)
		if err != nil {
			return common.Fail(logger, "failed to save partial results", err)
		}
		report.Partials = saved
		for _, path := range saved {
			logger.Info("Saved partial", "path", path)
		}
	}

	out := common.Stdout(c)
	if format != models.FormatText {
		if err := common.Render(out, format, report); err != nil {
			return common.Fail(logger, "failed to render report", err)
		}
		return nil
	}
	if err := WriteText(out, report, mode); err != nil {
		return common.Fail(logger, "failed to write report", err)
	}
	return nil
}

// BuildReport turns a scan result into a report.
func BuildReport(res *mapreduce.Result) *models.LogReport {
	addresses := res.For(patterns.AddressID)
	users := res.For(patterns.UserID)
	return &models.LogReport{
		Source:          res.Source,
		LinesParsed:     res.LinesParsed,
		UniqueAddresses: addresses.Size(),
		UniqueUsers:     users.Size(),
		Addresses:       addresses.Entries(),
		Users:           users.Entries(),
	}
}

// WriteText prints the plain report. The address or user listing is
// included according to mode; the totals always follow.
func WriteText(w io.Writer, report *models.LogReport, mode models.PrintMode) error {
	var b strings.Builder
	switch mode {
	case models.PrintAddresses:
		b.WriteString("IP Address: \n")
		writeListing(&b, report.Addresses)
	case models.PrintUsers:
		b.WriteString("Username: \n")
		writeListing(&b, report.Users)
	}
	fmt.Fprintf(&b, "Total number of lines parsed: %d\n", report.LinesParsed)
	fmt.Fprintf(&b, "There are %d unique address in the log.\n", report.UniqueAddresses)
	fmt.Fprintf(&b, "There are %d unique users in the log.\n", report.UniqueUsers)

	_, err := io.WriteString(w, b.String())
	return err
}

func writeListing(b *strings.Builder, entries []tally.Entry) {
	for _, e := range entries {
		fmt.Fprintf(b, "%s: %d\n", e.Key, e.Count)
	}
}

// SavePartials writes the address and user tables of res to dir as
// <base>_addresses<suffix> and <base>_users<suffix>. Either both files are
// written or neither is.
func SavePartials(res *mapreduce.Result, dir, src, suffix string) ([]string, error) {
	if suffix == "" {
		suffix = storage.DefaultSuffix
	}
	base := partialBase(src)
	outputs := []partial.Output{
		{Path: filepath.Join(dir, base+"_addresses"+suffix), Map: res.For(patterns.AddressID)},
		{Path: filepath.Join(dir, base+"_users"+suffix), Map: res.For(patterns.UserID)},
	}
	if err := mapreduce.WritePartials(outputs...); err != nil {
		return nil, err
	}

	saved := make([]string, len(outputs))
	for i, out := range outputs {
		saved[i] = out.Path
	}
	return saved, nil
}

func partialBase(src string) string {
	if src == scanner.Stdin {
		return "stdin"
	}
	base := filepath.Base(strings.TrimRight(src, "/"))
	if ext := filepath.Ext(base); ext != "" && ext != base {
		base = strings.TrimSuffix(base, ext)
	}
	return base
}
