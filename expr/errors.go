package expr

import (
	"errors"
	"fmt"

	"github.com/Comcast/parley/core"
)

// SyntaxError occurs when the parser finds a token it didn't want.
//
// The whole evaluation is abandoned.  The caller can try again with
// different input.
type SyntaxError struct {
	Source string
	Want   Kind
	Got    Token
}

func (e *SyntaxError) Error() string {
	if e.Want == None {
		return fmt.Sprintf("syntax error at %d in %q: unexpected %s", e.Got.Pos, e.Source, e.Got)
	}
	return fmt.Sprintf("syntax error at %d in %q: wanted %s, got %s", e.Got.Pos, e.Source, e.Want, e.Got)
}

// TypeError occurs when a variable's declared type doesn't fit the
// context it's used in.
type TypeError struct {
	Name string
	Want core.Type
	Got  core.Type
}

func (e *TypeError) Error() string {
	return `variable "` + e.Name + `" is ` + e.Got.String() + ", not " + e.Want.String()
}

// UndefinedVariable occurs when an expression references a variable
// the VarStore doesn't know.
type UndefinedVariable struct {
	Name string
}

func (e *UndefinedVariable) Error() string {
	return `undefined variable "` + e.Name + `"`
}

// ErrTooDeep is returned when an expression nests more deeply than
// Evaluator.MaxDepth.
var ErrTooDeep = errors.New("expression nested too deeply")

// These two indicate a bug in the parser: an action found the wrong
// type of value on the stack.
var (
	errNotInteger = errors.New("internal error: expected an integer on the stack")
	errNotText    = errors.New("internal error: expected text on the stack")
)
