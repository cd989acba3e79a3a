package ast

import (
	"fmt"
	"strings"

	"github.com/kartiknair/fun/pkg/token"
)

// Module is one compilation unit. Each stage fills in the fields it owns:
// the lexer sets Tokens, the parser sets Statements, Discarded and Unparsed.
type Module struct {
	Path       string
	Source     string
	Tokens     []token.Token
	Statements []Node

	// Discarded counts statements parsed at the same level before a
	// `fun main()` and dropped in favour of it.
	Discarded int
	// Unparsed counts tokens left after the top-level main function closed.
	Unparsed int
}

func (m *Module) TokenSourceContext(t *token.Token) string {
	return m.SourceContext(t.Pos)
}

// SourceContext renders the line holding pos with a caret under its column,
// surrounded by the previous and next line when they exist.
func (m *Module) SourceContext(pos token.Pos) string {
	source := strings.ReplaceAll(m.Source, "\r\n", "\n")
	sourceLines := strings.Split(source, "\n")

	if pos.Line < 1 || pos.Line > len(sourceLines) {
		return ""
	}

	line := []rune(sourceLines[pos.Line-1])
	column := pos.Column
	if column < 1 {
		column = 1
	} else if column > len(line)+1 {
		column = len(line) + 1
	}

	offsetHighlight := make([]rune, column)
	for i := 0; i < column-1; i++ {
		if line[i] == '\t' {
			offsetHighlight[i] = '\t'
		} else {
			offsetHighlight[i] = ' '
		}
	}
	offsetHighlight[column-1] = '^'

	var b strings.Builder
	if pos.Line > 1 {
		fmt.Fprintf(&b, "\n%4d | %s", pos.Line-1, sourceLines[pos.Line-2])
	}
	fmt.Fprintf(&b, "\n%4d | %s", pos.Line, sourceLines[pos.Line-1])
	fmt.Fprintf(&b, "\n     | %s", string(offsetHighlight))
	if pos.Line < len(sourceLines) && sourceLines[pos.Line] != "" {
		fmt.Fprintf(&b, "\n%4d | %s", pos.Line+1, sourceLines[pos.Line])
	}

	return b.String()
}
