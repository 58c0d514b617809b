package count

import (
	"fmt"
	"log/slog"
	"net/url"
	"path"
	"path/filepath"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/dtnitsch/pattern-tally/internal/common"
	"github.com/dtnitsch/pattern-tally/models"
	"github.com/dtnitsch/pattern-tally/pkg/langdetect"
	"github.com/dtnitsch/pattern-tally/pkg/manifest"
	"github.com/dtnitsch/pattern-tally/pkg/mapreduce"
	"github.com/dtnitsch/pattern-tally/pkg/patterns"
	"github.com/dtnitsch/pattern-tally/pkg/scanner"
	"github.com/dtnitsch/pattern-tally/pkg/source"
	"github.com/dtnitsch/pattern-tally/pkg/storage"
	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v2"
)

// CountAction counts every pattern of a pattern file against a text and
// writes the counts as a partial-result file.
func CountAction(c *cli.Context) error {
	logger := common.NewLogger(c)

	if c.NArg() != 2 {
		return common.Usage("Error processing arguments.  Please use format as 'ptally count novel_file.txt regex_file.txt'")
	}
	src := c.Args().Get(0)
	patternFile := c.Args().Get(1)

	config, err := common.LoadConfig(c)
	if err != nil {
		return common.Fail(logger, "failed to load config", err)
	}
	formatName := config.Format
	if c.IsSet("format") {
		formatName = c.String("format")
	}
	format, err := models.ParseOutputFormat(formatName)
	if err != nil {
		return common.Usage("Error: %v", err)
	}
	outDir := config.OutputDir
	if c.IsSet("out-dir") {
		outDir = c.String("out-dir")
	}

	out := common.Stdout(c)
	if format == models.FormatText {
		fmt.Fprintln(out, "Processing...")
	}

	set, err := patterns.LoadFile(patternFile)
	if err != nil {
		return common.Fail(logger, "failed to load patterns", err)
	}
	logger.Debug("Loaded patterns", "file", patternFile, "count", set.Len())

	resolver, err := common.NewResolver(config, src)
	if err != nil {
		return common.Fail(logger, "failed to set up sources", err)
	}
	sc := scanner.New(resolver)

	counts, err := mapreduce.CountPatterns(sc, src, set)
	if err != nil {
		return common.Fail(logger, "failed to count patterns", err)
	}

	var language string
	if config.DetectLanguage || c.Bool("detect-language") {
		language = detectLanguage(sc, src, logger)
	}

	dest := filepath.Join(outDir, OutputName(src, config.Suffix))
	s := &storage.Storage{}
	if s.HasFile(dest) {
		logger.Info("Replacing existing partial", "path", dest)
	}
	if err := mapreduce.WritePartial(counts, dest); err != nil {
		return common.Fail(logger, "failed to save counts", err)
	}
	logger.Info("Counted patterns",
		"source", src,
		"patterns", set.Len(),
		"matches", humanize.Comma(counts.Total()),
		"output", dest)

	if c.Bool("manifest") {
		m := manifest.Build("count", []manifest.Input{{Path: src, Records: counts.Size()}}, counts, config.Top)
		m.Language = language
		manifestPath, err := manifest.Save(m, dest, s)
		if err != nil {
			return common.Fail(logger, "failed to save manifest", err)
		}
		logger.Info("Saved manifest", "path", manifestPath, "size", humanize.Bytes(uint64(m.OutputBytes)))
	}

	if format != models.FormatText {
		report := &models.CountReport{
			Source:   src,
			Output:   dest,
			Patterns: set.Len(),
			Language: language,
			Counts:   counts.Entries(),
		}
		if err := common.Render(out, format, report); err != nil {
			return common.Fail(logger, "failed to render report", err)
		}
		return nil
	}

	fmt.Fprintln(out, "Processing complete.  File saved to "+dest)
	return nil
}

// detectLanguage samples the head of src. A failed sample is logged and
// yields no language; it never fails the run.
func detectLanguage(sc *scanner.Scanner, src string, logger *slog.Logger) string {
	lines, err := sc.Head(src, langdetect.SampleLines)
	if err != nil {
		logger.Warn("Language detection skipped", "source", src, "error", err)
		return ""
	}
	detection, ok := langdetect.New().Detect(lines)
	if !ok {
		logger.Warn("Language could not be determined", "source", src)
		return ""
	}
	logger.Info("Detected language",
		"source", src,
		"language", detection.Language,
		"confidence", fmt.Sprintf("%.2f", detection.Confidence))
	return detection.ISOCode
}

// OutputName derives the partial-result file name for src: the base name
// without a .txt extension, lower-cased with the first letter upper-cased,
// followed by suffix (the default suffix when empty).
func OutputName(src, suffix string) string {
	if suffix == "" {
		suffix = storage.DefaultSuffix
	}
	var name string
	switch {
	case src == scanner.Stdin:
		name = "stdin"
	case source.IsURL(src):
		if u, err := url.Parse(src); err == nil {
			name = path.Base(u.Path)
			if name == "/" || name == "." {
				name = u.Hostname()
			}
		}
	default:
		name = filepath.Base(src)
	}

	name = strings.ToLower(strings.TrimSuffix(name, ".txt"))
	if name == "" {
		name = "output"
	}
	r, size := utf8.DecodeRuneInString(name)
	return string(unicode.ToUpper(r)) + name[size:] + suffix
}
