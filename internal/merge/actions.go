package merge

import (
	"fmt"
	"path/filepath"

	"github.com/dtnitsch/pattern-tally/internal/common"
	"github.com/dtnitsch/pattern-tally/models"
	"github.com/dtnitsch/pattern-tally/pkg/manifest"
	"github.com/dtnitsch/pattern-tally/pkg/mapreduce"
	"github.com/dtnitsch/pattern-tally/pkg/partial"
	"github.com/dtnitsch/pattern-tally/pkg/storage"
	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v2"
)

// manifestBase names the manifest of a merge printed to stdout.
const manifestBase = "merge"

// MergeAction merges every partial-result file in a directory into one table.
func MergeAction(c *cli.Context) error {
	logger := common.NewLogger(c)

	if c.NArg() > 1 {
		return common.Usage("Error: expected at most one directory")
	}
	dir := "."
	if c.NArg() == 1 {
		dir = c.Args().First()
	}

	config, err := common.LoadConfig(c)
	if err != nil {
		return common.Fail(logger, "failed to load config", err)
	}
	suffix := config.Suffix
	if c.IsSet("suffix") {
		suffix = c.String("suffix")
	}
	strict := config.IsStrict() && !c.Bool("lenient")
	top := config.Top
	if c.IsSet("top") {
		top = c.Int("top")
	}
	formatName := config.Format
	if c.IsSet("format") {
		formatName = c.String("format")
	}
	format, err := models.ParseOutputFormat(formatName)
	if err != nil {
		return common.Usage("Error: %v", err)
	}
	outPath := c.String("out")

	s := &storage.Storage{}
	sources, err := s.ListPartials(dir, suffix)
	if err != nil {
		return common.Fail(logger, "failed to list partial results", err)
	}
	sources = withoutOutput(sources, outPath)
	if len(sources) == 0 {
		logger.Warn("No partial results found", "dir", dir, "suffix", suffix)
	}

	var onMalformed partial.MalformedHandler
	if !strict {
		onMalformed = common.LogSkipped(logger)
	}
	merged, outcomes, err := mapreduce.MergeReport(sources, onMalformed)
	if err != nil {
		return common.Fail(logger, "failed to merge partial results", err)
	}
	for _, o := range outcomes {
		if o.Err != nil {
			logger.Warn("Left out unreadable partial", "path", o.Path, "error", o.Err)
			continue
		}
		logger.Info("Merged partial", "path", o.Path, "records", o.Records, "skipped", len(o.Skipped))
	}
	logger.Info("Merge complete",
		"files", len(sources),
		"distinct_keys", humanize.Comma(int64(merged.Size())),
		"total", humanize.Comma(merged.Total()))

	if outPath != "" {
		if s.HasFile(outPath) {
			logger.Info("Replacing existing merged result", "path", outPath)
		}
		if err := mapreduce.WritePartial(merged, outPath); err != nil {
			return common.Fail(logger, "failed to save merged result", err)
		}
	}

	if c.Bool("manifest") {
		target := outPath
		if target == "" {
			target = filepath.Join(dir, manifestBase)
		}
		m := manifest.Build("merge", manifestInputs(outcomes), merged, top)
		manifestPath, err := manifest.Save(m, target, s)
		if err != nil {
			return common.Fail(logger, "failed to save manifest", err)
		}
		logger.Info("Saved manifest", "path", manifestPath)
	}

	out := common.Stdout(c)
	switch {
	case format != models.FormatText:
		report := &models.MergeReport{
			Sources:      sources,
			DistinctKeys: merged.Size(),
			Total:        merged.Total(),
			Top:          mapreduce.TopKeywords(merged, top),
			Counts:       merged.Entries(),
		}
		err = common.Render(out, format, report)
	case outPath != "":
		_, err = fmt.Fprintln(out, "Merge complete.  File saved to "+outPath)
	case c.IsSet("top"):
		err = mapreduce.PrintTopKeywords(out, merged, top)
	default:
		err = partial.Write(out, merged)
	}
	if err != nil {
		return common.Fail(logger, "failed to write merged result", err)
	}
	return nil
}

// withoutOutput drops the merge's own output file from its inputs, so a
// re-run into the same directory does not count it twice.
func withoutOutput(sources []string, outPath string) []string {
	if outPath == "" {
		return sources
	}
	target, err := filepath.Abs(outPath)
	if err != nil {
		return sources
	}
	kept := sources[:0:0]
	for _, src := range sources {
		if abs, err := filepath.Abs(src); err == nil && abs == target {
			continue
		}
		kept = append(kept, src)
	}
	return kept
}

func manifestInputs(outcomes []mapreduce.SourceOutcome) []manifest.Input {
	inputs := make([]manifest.Input, 0, len(outcomes))
	for _, o := range outcomes {
		in := manifest.Input{Path: o.Path, Records: o.Records, Err: o.Err}
		for _, bad := range o.Skipped {
			in.Skipped = append(in.Skipped, manifest.SkippedRecord{
				Line:   bad.Line,
				Text:   bad.Text,
				Reason: bad.Reason,
			})
		}
		inputs = append(inputs, in)
	}
	return inputs
}
