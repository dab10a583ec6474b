package frame

import (
	"fmt"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"

	"github.com/matzehuels/tilegrid/pkg/errors"
)

// Templates write one row per line or separate rows with "|" or ";".
// Cells are integers; "." and "_" are empty cells.
//
//	1 1 2
//	1 1 3 | 4 . 3
var (
	templateLexer = lexer.MustSimple([]lexer.SimpleRule{
		{Name: "Whitespace", Pattern: `[ \t\r]+`},
		{Name: "Comment", Pattern: `#[^\n]*`},
		{Name: "Int", Pattern: `\d+`},
		{Name: "Empty", Pattern: `[._]`},
		{Name: "Sep", Pattern: `[|;\n]`},
	})

	templateParser = participle.MustBuild[template](
		participle.Lexer(templateLexer),
		participle.Elide("Whitespace", "Comment"),
	)
)

type template struct {
	Rows []*templateRow `parser:"( @@ | Sep )*"`
}

type templateRow struct {
	Cells []*templateCell `parser:"@@+"`
}

type templateCell struct {
	Value *int `parser:"  @Int"`
	Empty bool `parser:"| @Empty"`
}

// ParseTemplate parses a textual frame.
func ParseTemplate(s string) ([][]int, error) {
	ast, err := templateParser.ParseString("", s)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFrame, err, "parse frame template")
	}
	if len(ast.Rows) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidFrame, "frame template has no rows")
	}
	frame := make([][]int, len(ast.Rows))
	for y, row := range ast.Rows {
		frame[y] = make([]int, len(row.Cells))
		for x, c := range row.Cells {
			if c.Value != nil {
				frame[y][x] = *c.Value
			}
		}
	}
	return frame, nil
}

// FormatTemplate writes frame in the template syntax, one row per line with
// cells padded to a common width.
func FormatTemplate(frame [][]int) string {
	width := 1
	for _, row := range frame {
		for _, c := range row {
			width = max(width, len(fmt.Sprint(c)))
		}
	}
	var b strings.Builder
	for y, row := range frame {
		if y > 0 {
			b.WriteByte('\n')
		}
		for x, c := range row {
			if x > 0 {
				b.WriteByte(' ')
			}
			cell := "."
			if c > 0 {
				cell = fmt.Sprint(c)
			}
			fmt.Fprintf(&b, "%*s", width, cell)
		}
	}
	return b.String()
}
