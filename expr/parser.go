/* Copyright 2018 Comcast Cable Communications Management, LLC
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 * http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package expr implements the game expression language.
//
// Numeric expressions are used for conditions ("%score% >= 10 and
// %lamp% = 1"); string expressions compute text ("upper(%name%) +
// \"!\"").  There's no syntax tree: a recursive-descent parser drives
// a small value stack directly, applying each operator as soon as its
// operands have been parsed.
//
// Precedence, lowest to highest:
//
//   or and
//   = <> > < >= <=
//   + - ^ mod
//   * /
//
// Yes, ^ and mod bind like +.  Games depend on it.
package expr

import (
	"log"
	"math/rand"
	"time"

	"github.com/Comcast/parley/core"
)

// DefaultMaxDepth is the default limit on nested factors.
var DefaultMaxDepth = 256

// Evaluator evaluates expressions.
//
// An Evaluator is not safe for concurrent use.  It's cheap to make
// another one.
type Evaluator struct {
	// Rand drives either() and rand().
	Rand *rand.Rand

	// Logf receives warnings (division by zero, unterminated
	// strings).  Defaults to log.Printf.
	Logf func(format string, args ...interface{})

	// MaxDepth limits nesting (parentheses, unary operators,
	// function arguments).
	MaxDepth int

	src   string
	lex   Lexer
	look  Token
	vars  core.VarStore
	stack Stack
	depth int
}

// NewEvaluator makes an Evaluator with its own random source.
func NewEvaluator() *Evaluator {
	return &Evaluator{
		Rand:     rand.New(rand.NewSource(time.Now().UnixNano())),
		MaxDepth: DefaultMaxDepth,
	}
}

// EvalNumeric evaluates a numeric expression with a fresh Evaluator.
func EvalNumeric(src string, vars core.VarStore) (int, error) {
	return NewEvaluator().EvalNumeric(src, vars)
}

// EvalString evaluates a string expression with a fresh Evaluator.
func EvalString(src string, vars core.VarStore) (string, error) {
	return NewEvaluator().EvalString(src, vars)
}

// Stats reports owned-text accounting for the most recent
// evaluation.  After any evaluation, successful or not, Live() is
// zero.
func (e *Evaluator) Stats() Stats {
	return e.stack.Stats()
}

// Depth is the number of values left on the stack by the most recent
// evaluation.  Always zero between evaluations.
func (e *Evaluator) Depth() int {
	return e.stack.Len()
}

func (e *Evaluator) logf(format string, args ...interface{}) {
	if e.Logf != nil {
		e.Logf(format, args...)
		return
	}
	log.Printf(format, args...)
}

func (e *Evaluator) start(src string, vars core.VarStore) {
	if e.Rand == nil {
		e.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if e.MaxDepth <= 0 {
		e.MaxDepth = DefaultMaxDepth
	}
	if vars == nil {
		vars = core.NewVars()
	}
	e.src = src
	e.vars = vars
	e.depth = 0
	e.stack.reset()
	e.lex.Logf = e.Logf
	e.lex.Start(src)
	e.look = e.lex.Next()
}

// EvalNumeric evaluates a numeric expression.
func (e *Evaluator) EvalNumeric(src string, vars core.VarStore) (int, error) {
	e.start(src, vars)
	defer e.stack.unwind()

	if err := e.numericElement(); err != nil {
		return 0, err
	}
	if err := e.match(EOS); err != nil {
		return 0, err
	}
	if e.stack.Len() != 1 {
		return 0, ErrStackUnderflow
	}
	return e.stack.popInt()
}

// EvalString evaluates a string expression.
func (e *Evaluator) EvalString(src string, vars core.VarStore) (string, error) {
	e.start(src, vars)
	defer e.stack.unwind()

	if err := e.stringElement(); err != nil {
		return "", err
	}
	if err := e.match(EOS); err != nil {
		return "", err
	}
	if e.stack.Len() != 1 {
		return "", ErrStackUnderflow
	}
	return e.stack.popText()
}

// Check lexes the whole source and reports the first token the lexer
// couldn't make sense of.  Doesn't parse.
func Check(src string) error {
	var l Lexer
	l.Logf = func(string, ...interface{}) {}
	l.Start(src)
	for {
		t := l.Next()
		switch t.Kind {
		case EOS:
			return nil
		case Invalid:
			return &SyntaxError{Source: src, Got: t}
		}
	}
}

func (e *Evaluator) unexpected() error {
	return &SyntaxError{Source: e.src, Got: e.look}
}

// match consumes the lookahead if it's the wanted kind.
func (e *Evaluator) match(k Kind) error {
	if e.look.Kind != k {
		return &SyntaxError{Source: e.src, Want: k, Got: e.look}
	}
	e.look = e.lex.Next()
	return nil
}

func (e *Evaluator) enter() error {
	e.depth++
	if e.MaxDepth < e.depth {
		return ErrTooDeep
	}
	return nil
}

func (e *Evaluator) leave() {
	e.depth--
}

// numericElement is the lowest level: "and" and "or".
func (e *Evaluator) numericElement() error {
	if err := e.enter(); err != nil {
		return err
	}
	defer e.leave()

	if err := e.numericCompare(); err != nil {
		return err
	}
	for e.look.Kind == And || e.look.Kind == Or {
		op := e.look.Kind
		if err := e.match(op); err != nil {
			return err
		}
		if err := e.numericCompare(); err != nil {
			return err
		}
		if err := e.action(op); err != nil {
			return err
		}
	}
	return nil
}

func isComparison(k Kind) bool {
	switch k {
	case Equal, NotEqual, Greater, Less, GreaterEq, LessEq:
		return true
	}
	return false
}

func (e *Evaluator) numericCompare() error {
	if err := e.numericAdd(); err != nil {
		return err
	}
	for isComparison(e.look.Kind) {
		op := e.look.Kind
		if err := e.match(op); err != nil {
			return err
		}
		if err := e.numericAdd(); err != nil {
			return err
		}
		if err := e.action(op); err != nil {
			return err
		}
	}
	return nil
}

func (e *Evaluator) numericAdd() error {
	if err := e.numericMultiply(); err != nil {
		return err
	}
	for {
		op := e.look.Kind
		switch op {
		case Add, Subtract, Power, Mod:
		default:
			return nil
		}
		if err := e.match(op); err != nil {
			return err
		}
		if err := e.numericMultiply(); err != nil {
			return err
		}
		if err := e.action(op); err != nil {
			return err
		}
	}
}

func (e *Evaluator) numericMultiply() error {
	if err := e.numericFactor(); err != nil {
		return err
	}
	for e.look.Kind == Multiply || e.look.Kind == Divide {
		op := e.look.Kind
		if err := e.match(op); err != nil {
			return err
		}
		if err := e.numericFactor(); err != nil {
			return err
		}
		if err := e.action(op); err != nil {
			return err
		}
	}
	return nil
}

// args parses "(" followed by the given argument parsers separated by
// commas, then ")".
func (e *Evaluator) args(parsers ...func() error) error {
	if err := e.match(LParen); err != nil {
		return err
	}
	for i, p := range parsers {
		if 0 < i {
			if err := e.match(Comma); err != nil {
				return err
			}
		}
		if err := p(); err != nil {
			return err
		}
	}
	return e.match(RParen)
}

// varargs parses a parenthesized, non-empty, comma-separated list of
// numeric elements and then pushes their count.
func (e *Evaluator) varargs() error {
	if err := e.match(LParen); err != nil {
		return err
	}
	if err := e.numericElement(); err != nil {
		return err
	}
	count := 1
	for e.look.Kind == Comma {
		if err := e.match(Comma); err != nil {
			return err
		}
		if err := e.numericElement(); err != nil {
			return err
		}
		count++
	}
	if err := e.match(RParen); err != nil {
		return err
	}
	return e.stack.push(intValue(count))
}

func (e *Evaluator) variable(want core.Type) (value, error) {
	name := e.look.Text
	v, have := e.vars.Get(name)
	if !have {
		return value{}, &UndefinedVariable{Name: name}
	}
	if v.Type != want {
		return value{}, &TypeError{Name: name, Want: want, Got: v.Type}
	}
	if want == core.Text {
		return ownedText(v.Text), nil
	}
	return intValue(v.Int), nil
}

func (e *Evaluator) numericFactor() error {
	if err := e.enter(); err != nil {
		return err
	}
	defer e.leave()

	op := e.look.Kind
	switch op {
	case LParen:
		if err := e.match(LParen); err != nil {
			return err
		}
		if err := e.numericElement(); err != nil {
			return err
		}
		return e.match(RParen)

	case UMinus:
		if err := e.match(op); err != nil {
			return err
		}
		if err := e.numericFactor(); err != nil {
			return err
		}
		return e.action(UMinus)

	case UPlus:
		if err := e.match(op); err != nil {
			return err
		}
		return e.numericFactor()

	case Integer:
		if err := e.stack.push(intValue(e.look.Int)); err != nil {
			return err
		}
		return e.match(Integer)

	case Variable:
		v, err := e.variable(core.Integer)
		if err != nil {
			return err
		}
		if err = e.stack.push(v); err != nil {
			return err
		}
		return e.match(Variable)

	case Abs:
		if err := e.match(op); err != nil {
			return err
		}
		if err := e.args(e.numericElement); err != nil {
			return err
		}
		return e.action(op)

	case If:
		if err := e.match(op); err != nil {
			return err
		}
		if err := e.args(e.numericElement, e.numericElement, e.numericElement); err != nil {
			return err
		}
		return e.action(op)

	case Min, Max, Either:
		if err := e.match(op); err != nil {
			return err
		}
		if err := e.varargs(); err != nil {
			return err
		}
		return e.action(op)

	case Random:
		if err := e.match(op); err != nil {
			return err
		}
		if err := e.args(e.numericElement, e.numericElement); err != nil {
			return err
		}
		return e.action(op)

	case Instr:
		if err := e.match(op); err != nil {
			return err
		}
		if err := e.args(e.stringElement, e.stringElement); err != nil {
			return err
		}
		return e.action(op)

	case Len, Val:
		if err := e.match(op); err != nil {
			return err
		}
		if err := e.args(e.stringElement); err != nil {
			return err
		}
		return e.action(op)
	}

	return e.unexpected()
}

// stringElement is a sequence of string factors joined by "+" or
// "&".
func (e *Evaluator) stringElement() error {
	if err := e.enter(); err != nil {
		return err
	}
	defer e.leave()

	if err := e.stringFactor(); err != nil {
		return err
	}
	for e.look.Kind == Add || e.look.Kind == Concatenate {
		if err := e.match(e.look.Kind); err != nil {
			return err
		}
		if err := e.stringFactor(); err != nil {
			return err
		}
		if err := e.action(Concatenate); err != nil {
			return err
		}
	}
	return nil
}

func (e *Evaluator) stringFactor() error {
	if err := e.enter(); err != nil {
		return err
	}
	defer e.leave()

	op := e.look.Kind
	switch op {
	case LParen:
		if err := e.match(LParen); err != nil {
			return err
		}
		if err := e.stringElement(); err != nil {
			return err
		}
		return e.match(RParen)

	case String:
		if err := e.stack.push(ownedText(e.look.Text)); err != nil {
			return err
		}
		return e.match(String)

	case Variable:
		v, err := e.variable(core.Text)
		if err != nil {
			return err
		}
		if err = e.stack.push(v); err != nil {
			return err
		}
		return e.match(Variable)

	case Left, Right:
		if err := e.match(op); err != nil {
			return err
		}
		if err := e.args(e.stringElement, e.numericElement); err != nil {
			return err
		}
		return e.action(op)

	case Mid:
		if err := e.match(op); err != nil {
			return err
		}
		if err := e.args(e.stringElement, e.numericElement, e.numericElement); err != nil {
			return err
		}
		return e.action(op)

	case Str:
		if err := e.match(op); err != nil {
			return err
		}
		if err := e.args(e.numericElement); err != nil {
			return err
		}
		return e.action(op)

	case Upper, Lower, Proper:
		if err := e.match(op); err != nil {
			return err
		}
		if err := e.args(e.stringElement); err != nil {
			return err
		}
		return e.action(op)
	}

	return e.unexpected()
}
