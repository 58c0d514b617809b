package main

import (
	"fmt"
	"os"

	"github.com/dtnitsch/pattern-tally/internal/count"
	"github.com/dtnitsch/pattern-tally/internal/logs"
	"github.com/dtnitsch/pattern-tally/internal/merge"
	"github.com/dtnitsch/pattern-tally/internal/patterns"
	"github.com/dtnitsch/pattern-tally/models"
	"github.com/dtnitsch/pattern-tally/pkg/help"
	"github.com/urfave/cli/v2"
)

func newApp() *cli.App {
	formatFlag := &cli.StringFlag{
		Name:  "format",
		Usage: "Output format: text, yaml or json",
		Value: string(models.FormatText),
	}

	return &cli.App{
		Name:  "ptally",
		Usage: "Count pattern matches in text and merge partial counts",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   fmt.Sprintf("Path to YAML config file (default %s when present)", models.DefaultConfigFile),
			},
			&cli.BoolFlag{
				Name:    "quiet",
				Aliases: []string{"q"},
				Usage:   "Only log errors",
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "Log debug output",
			},
		},
		Commands: []*cli.Command{
			{
				Name:      "logs",
				Usage:     "Count IP addresses and users in a log file",
				ArgsUsage: "<logfile|->",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:    "print-mode",
						Aliases: []string{"p"},
						Usage:   "0: totals only, 1: list addresses, 2: list users",
					},
					formatFlag,
					&cli.StringFlag{
						Name:  "save-dir",
						Usage: "Also write address and user counts as partial results to this directory",
					},
				},
				Action: logs.LogsAction,
			},
			{
				Name:      "count",
				Usage:     "Count each pattern of a pattern file in a text",
				ArgsUsage: "<text|url|-> <patterns>",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "out-dir",
						Aliases: []string{"o"},
						Usage:   "Directory for the partial-result file",
					},
					&cli.BoolFlag{
						Name:  "detect-language",
						Usage: "Detect the language of the text",
					},
					&cli.BoolFlag{
						Name:  "manifest",
						Usage: "Write a YAML manifest next to the output",
					},
					formatFlag,
				},
				Action: count.CountAction,
			},
			{
				Name:      "merge",
				Usage:     "Merge partial-result files in a directory",
				ArgsUsage: "[dir]",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "suffix",
						Usage: "File name suffix of partial results",
						Value: "_wc.txt",
					},
					&cli.BoolFlag{
						Name:  "lenient",
						Usage: "Skip malformed records instead of failing",
					},
					&cli.StringFlag{
						Name:  "out",
						Usage: "Write the merged result to this file instead of stdout",
					},
					&cli.IntFlag{
						Name:  "top",
						Usage: "Only print the N highest counts",
					},
					&cli.BoolFlag{
						Name:  "manifest",
						Usage: "Write a YAML manifest next to the output",
					},
					formatFlag,
				},
				Action: merge.MergeAction,
			},
			{
				Name:  "quickstart",
				Usage: "Print a YAML quick start",
				Action: func(c *cli.Context) error {
					_, err := fmt.Fprint(c.App.Writer, help.QuickstartYAML)
					return err
				},
			},
			{
				Name:      "patterns",
				Usage:     "Validate a pattern file and list its patterns",
				ArgsUsage: "<patterns>",
				Flags:     []cli.Flag{formatFlag},
				Action:    patterns.PatternsAction,
			},
		},
	}
}

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
}
