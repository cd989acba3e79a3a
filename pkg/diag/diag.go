package diag

import (
	"errors"
	"fmt"

	"github.com/kartiknair/fun/pkg/token"
)

type Severity int

const (
	// Recoverable errors abort the current compilation but leave the caller
	// free to report them and carry on.
	Recoverable Severity = iota
	// Fatal errors mean the input cannot even be tokenized.
	Fatal
)

func (s Severity) String() string {
	if s == Fatal {
		return "fatal"
	}
	return "recoverable"
}

const (
	LexStage   = "lex-error"
	ParseStage = "parse-error"
	GenStage   = "gen-error"
)

type Error struct {
	Severity Severity
	Stage    string
	Pos      token.Pos
	// Context is a rendered excerpt of the source around Pos, possibly empty.
	Context string
	Err     error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %d:%d: %s", e.Stage, e.Pos.Line, e.Pos.Column, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Report renders the error together with its source excerpt.
func (e *Error) Report() string {
	if e.Context == "" {
		return e.Error()
	}
	return fmt.Sprintf("%s\n%s", e.Context, e.Error())
}

func IsFatal(err error) bool {
	var d *Error
	if errors.As(err, &d) {
		return d.Severity == Fatal
	}
	return false
}

// Report renders any error, using the source excerpt when one is attached.
func Report(err error) string {
	var d *Error
	if errors.As(err, &d) {
		return d.Report()
	}
	return err.Error()
}
