// Package common holds the plumbing shared by the command actions: logger
// construction, config loading, source resolution and report rendering.
package common

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"slices"

	"github.com/dtnitsch/pattern-tally/models"
	"github.com/dtnitsch/pattern-tally/pkg/caching"
	"github.com/dtnitsch/pattern-tally/pkg/fetcher"
	"github.com/dtnitsch/pattern-tally/pkg/partial"
	"github.com/dtnitsch/pattern-tally/pkg/patterns"
	"github.com/dtnitsch/pattern-tally/pkg/scanner"
	"github.com/dtnitsch/pattern-tally/pkg/source"
	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"
)

// Exit codes shared by every command.
const (
	ExitUsage   = 1
	ExitRuntime = 2
)

// NewLogger returns a JSON logger on stderr. --quiet keeps errors only,
// --verbose enables debug output.
func NewLogger(c *cli.Context) *slog.Logger {
	logLevel := slog.LevelInfo
	switch {
	case c.Bool("quiet"):
		logLevel = slog.LevelError
	case c.Bool("verbose"):
		logLevel = slog.LevelDebug
	}
	return slog.New(slog.NewJSONHandler(Stderr(c), &slog.HandlerOptions{Level: logLevel}))
}

// LoadConfig reads the file named by --config, or the default config file
// when the flag is absent. Only an explicitly named file must exist.
func LoadConfig(c *cli.Context) (*models.Config, error) {
	path := c.String("config")
	if path == "" {
		path = models.DefaultConfigFile
	}
	return models.LoadConfig(path, c.IsSet("config"))
}

// NewResolver builds a source resolver from config. The fetch cache under
// cache_dir is only set up when one of sources is a URL.
func NewResolver(config *models.Config, sources ...string) (*source.Resolver, error) {
	opts := []source.Option{source.WithFetcher(fetcher.NewFetcher(config.HTTPTimeout))}
	if config.CacheDir != "" && slices.ContainsFunc(sources, source.IsURL) {
		cache, err := caching.NewCache(config.CacheDir, config.CacheTTL)
		if err != nil {
			return nil, err
		}
		opts = append(opts, source.WithCache(cache))
	}
	return source.NewResolver(opts...), nil
}

// Render writes v as YAML or JSON.
func Render(w io.Writer, format models.OutputFormat, v any) error {
	var data []byte
	var err error
	switch format {
	case models.FormatJSON:
		data, err = json.MarshalIndent(v, "", "  ")
		if err == nil {
			data = append(data, '\n')
		}
	case models.FormatYAML:
		data, err = yaml.Marshal(v)
	default:
		return fmt.Errorf("format %q is not a structured format", format)
	}
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	_, err = w.Write(data)
	return err
}

// ExitCode maps an error to the process exit code: bad input the user can fix
// is a usage error, everything else is a runtime failure.
func ExitCode(err error) int {
	var syntax *patterns.SyntaxError
	var notFound *scanner.SourceNotFoundError
	switch {
	case errors.As(err, &syntax):
		return ExitUsage
	case errors.As(err, &notFound):
		return ExitUsage
	case errors.Is(err, fs.ErrNotExist):
		return ExitUsage
	default:
		return ExitRuntime
	}
}

// Fail logs err and returns it as a cli exit error with the matching code.
func Fail(logger *slog.Logger, msg string, err error) error {
	logger.Error(msg, "error", err)
	return cli.Exit(fmt.Sprintf("%s: %v", msg, err), ExitCode(err))
}

// Usage returns a usage error without logging.
func Usage(format string, args ...any) error {
	return cli.Exit(fmt.Sprintf(format, args...), ExitUsage)
}

// LogSkipped returns a lenient malformed-record handler that logs each
// dropped record at warn level.
func LogSkipped(logger *slog.Logger) partial.MalformedHandler {
	return func(bad *partial.MalformedRecordError) error {
		logger.Warn("Skipping malformed record",
			"file", bad.Source,
			"line", bad.Line,
			"reason", bad.Reason)
		return partial.Skip(bad)
	}
}

// Stdout is where reports go.
func Stdout(c *cli.Context) io.Writer {
	if c.App.Writer != nil {
		return c.App.Writer
	}
	return os.Stdout
}

// Stderr is where logs go.
func Stderr(c *cli.Context) io.Writer {
	if c.App.ErrWriter != nil {
		return c.App.ErrWriter
	}
	return os.Stderr
}
