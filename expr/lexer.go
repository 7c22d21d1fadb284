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

package expr

import (
	"log"
	"strconv"
	"strings"
)

// Kind is a token type.
type Kind int

const (
	None Kind = iota

	Add
	Subtract
	Multiply
	Divide
	Power
	Mod
	And
	Or
	Concatenate
	UMinus
	UPlus

	Equal
	NotEqual
	Greater
	Less
	GreaterEq
	LessEq

	LParen
	RParen
	Comma

	If
	Min
	Max
	Either
	Random
	Instr
	Len
	Val
	Abs
	Upper
	Lower
	Proper
	Left
	Right
	Mid
	Str

	Integer
	String
	Variable
	Ident

	EOS

	// Invalid is a character (or a broken %variable%) the lexer
	// couldn't make sense of.  The parser will never want one.
	Invalid
)

var kindNames = map[Kind]string{
	None:        "nothing",
	Add:         "+",
	Subtract:    "-",
	Multiply:    "*",
	Divide:      "/",
	Power:       "^",
	Mod:         "mod",
	And:         "and",
	Or:          "or",
	Concatenate: "&",
	UMinus:      "unary -",
	UPlus:       "unary +",
	Equal:       "=",
	NotEqual:    "<>",
	Greater:     ">",
	Less:        "<",
	GreaterEq:   ">=",
	LessEq:      "<=",
	LParen:      "(",
	RParen:      ")",
	Comma:       ",",
	If:          "if",
	Min:         "min",
	Max:         "max",
	Either:      "either",
	Random:      "rand",
	Instr:       "instr",
	Len:         "len",
	Val:         "val",
	Abs:         "abs",
	Upper:       "upper",
	Lower:       "lower",
	Proper:      "proper",
	Left:        "left",
	Right:       "right",
	Mid:         "mid",
	Str:         "str",
	Integer:     "integer",
	String:      "string",
	Variable:    "variable",
	Ident:       "identifier",
	EOS:         "end of expression",
	Invalid:     "invalid token",
}

func (k Kind) String() string {
	if s, have := kindNames[k]; have {
		return s
	}
	return "kind " + strconv.Itoa(int(k))
}

// functions maps (lower-case) function names to their tokens.
//
// "and", "or", and "mod" are operators, but they look like names.
var functions = map[string]Kind{
	"if":     If,
	"min":    Min,
	"max":    Max,
	"either": Either,
	"rand":   Random,
	"random": Random,
	"instr":  Instr,
	"len":    Len,
	"val":    Val,
	"abs":    Abs,
	"upper":  Upper,
	"ucase":  Upper,
	"lower":  Lower,
	"lcase":  Lower,
	"proper": Proper,
	"pcase":  Proper,
	"left":   Left,
	"right":  Right,
	"mid":    Mid,
	"str":    Str,
	"mod":    Mod,
	"and":    And,
	"or":     Or,
}

var doubles = map[string]Kind{
	"&&": And,
	"||": Or,
	"==": Equal,
	"!=": NotEqual,
	"<>": NotEqual,
	">=": GreaterEq,
	"<=": LessEq,
}

var singles = map[byte]Kind{
	'+': Add,
	'-': Subtract,
	'*': Multiply,
	'/': Divide,
	'^': Power,
	'&': Concatenate,
	'=': Equal,
	'>': Greater,
	'<': Less,
	'(': LParen,
	')': RParen,
	',': Comma,
}

// Token is a Kind plus its payload (if any).
type Token struct {
	Kind Kind

	// Int is the value of an Integer.
	Int int

	// Text is the value of a String, the name of a Variable, or the
	// spelling of an Ident.
	Text string

	// Pos is the byte offset of the token in the source.
	Pos int
}

func (t Token) String() string {
	switch t.Kind {
	case Integer:
		return strconv.Itoa(t.Int)
	case String:
		return strconv.Quote(t.Text)
	case Variable:
		return "%" + t.Text + "%"
	case Ident:
		return t.Text
	}
	return t.Kind.String()
}

// Lexer produces tokens one at a time from an expression.
//
// A Lexer is cheap; make one per expression.
type Lexer struct {
	src  string
	pos  int
	prev Kind
	tok  Token

	// Logf, if not nil, receives warnings.  Defaults to
	// log.Printf.
	Logf func(format string, args ...interface{})
}

// Start resets the lexer to the beginning of the given source.
func (l *Lexer) Start(src string) {
	l.src = src
	l.pos = 0
	l.prev = None
	l.tok = Token{}
}

// Value returns the most recent token (with its payload).
func (l *Lexer) Value() Token {
	return l.tok
}

func (l *Lexer) warnf(format string, args ...interface{}) {
	if l.Logf != nil {
		l.Logf(format, args...)
		return
	}
	log.Printf(format, args...)
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\v' || c == '\f'
}

func isDigit(c byte) bool {
	return '0' <= c && c <= '9'
}

func isAlpha(c byte) bool {
	return ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z')
}

// unaryContext reports whether a '+' or '-' following a token of the
// given kind is a sign rather than an operator.
func unaryContext(k Kind) bool {
	switch k {
	case None, LParen, Comma,
		Add, Subtract, Multiply, Divide, Power, Mod, And, Or, Concatenate, UMinus, UPlus,
		Equal, NotEqual, Greater, Less, GreaterEq, LessEq:
		return true
	}
	return false
}

// Next scans the next token.
func (l *Lexer) Next() Token {
	t := l.scan()
	if t.Kind == Add || t.Kind == Subtract {
		if unaryContext(l.prev) {
			if t.Kind == Add {
				t.Kind = UPlus
			} else {
				t.Kind = UMinus
			}
		}
	}
	l.prev = t.Kind
	l.tok = t
	return t
}

func (l *Lexer) scan() Token {
	for l.pos < len(l.src) && isSpace(l.src[l.pos]) {
		l.pos++
	}

	start := l.pos
	if len(l.src) <= l.pos {
		return Token{Kind: EOS, Pos: start}
	}

	c := l.src[l.pos]
	switch {
	case isDigit(c):
		for l.pos < len(l.src) && isDigit(l.src[l.pos]) {
			l.pos++
		}
		n, err := strconv.Atoi(l.src[start:l.pos])
		if err != nil {
			l.warnf("warning: integer literal %q out of range", l.src[start:l.pos])
			return Token{Kind: Invalid, Text: l.src[start:l.pos], Pos: start}
		}
		return Token{Kind: Integer, Int: n, Pos: start}

	case c == '%':
		end := strings.IndexByte(l.src[start+1:], '%')
		if end < 0 {
			l.pos = len(l.src)
			return Token{Kind: Invalid, Text: l.src[start:], Pos: start}
		}
		name := l.src[start+1 : start+1+end]
		l.pos = start + end + 2
		return Token{Kind: Variable, Text: name, Pos: start}

	case c == '"' || c == '\'':
		end := strings.IndexByte(l.src[start+1:], c)
		if end < 0 {
			l.warnf("warning: unterminated string in expression %q", l.src)
			l.pos = len(l.src)
			return Token{Kind: String, Text: l.src[start+1:], Pos: start}
		}
		l.pos = start + end + 2
		return Token{Kind: String, Text: l.src[start+1 : start+1+end], Pos: start}

	case isAlpha(c):
		for l.pos < len(l.src) && isAlpha(l.src[l.pos]) {
			l.pos++
		}
		word := l.src[start:l.pos]
		if k, have := functions[strings.ToLower(word)]; have {
			return Token{Kind: k, Pos: start}
		}
		return Token{Kind: Ident, Text: word, Pos: start}
	}

	if l.pos+1 < len(l.src) {
		if k, have := doubles[l.src[l.pos:l.pos+2]]; have {
			l.pos += 2
			return Token{Kind: k, Pos: start}
		}
	}

	l.pos++
	if k, have := singles[c]; have {
		return Token{Kind: k, Pos: start}
	}
	return Token{Kind: Invalid, Text: string(c), Pos: start}
}
