package patterns

import (
	"fmt"
	"strings"

	"github.com/dtnitsch/pattern-tally/internal/common"
	"github.com/dtnitsch/pattern-tally/models"
	patternspkg "github.com/dtnitsch/pattern-tally/pkg/patterns"
	"github.com/urfave/cli/v2"
)

type patternInfo struct {
	Index int    `json:"index" yaml:"index"`
	Expr  string `json:"expr" yaml:"expr"`
	Group int    `json:"group" yaml:"group"`
}

// PatternsAction validates a pattern file and lists its patterns in order.
func PatternsAction(c *cli.Context) error {
	logger := common.NewLogger(c)

	if c.NArg() != 1 {
		return common.Usage("Error: expected exactly one pattern file")
	}
	path := c.Args().First()

	set, err := patternspkg.LoadFile(path)
	if err != nil {
		return common.Fail(logger, "invalid pattern file", err)
	}
	logger.Debug("Loaded patterns", "file", path, "count", set.Len())

	format, err := models.ParseOutputFormat(c.String("format"))
	if err != nil {
		return common.Usage("Error: %v", err)
	}

	infos := make([]patternInfo, 0, set.Len())
	for i, p := range set.Patterns() {
		infos = append(infos, patternInfo{Index: i + 1, Expr: p.Expr(), Group: p.Group()})
	}

	out := common.Stdout(c)
	if format != models.FormatText {
		return common.Render(out, format, infos)
	}

	var b strings.Builder
	for _, info := range infos {
		fmt.Fprintf(&b, "%d. %s\n", info.Index, info.Expr)
	}
	fmt.Fprintf(&b, "%d patterns OK\n", len(infos))
	_, err = fmt.Fprint(out, b.String())
	return err
}
