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

package match

import (
	"strconv"
	"strings"
)

// TokenKind is a pattern token type.
type TokenKind int

const (
	TokNone TokenKind = iota
	TokLBracket
	TokRBracket
	TokLBrace
	TokRBrace
	TokSlash
	TokStar
	TokCharacter
	TokObject
	TokNumber
	TokText
	TokVariable
	TokWhitespace
	TokWord
	TokEOS

	// TokInvalid is a '%' with no closing '%'.
	TokInvalid
)

var tokenNames = map[TokenKind]string{
	TokNone:       "nothing",
	TokLBracket:   "[",
	TokRBracket:   "]",
	TokLBrace:     "{",
	TokRBrace:     "}",
	TokSlash:      "/",
	TokStar:       "*",
	TokCharacter:  "%character%",
	TokObject:     "%object%",
	TokNumber:     "%number%",
	TokText:       "%text%",
	TokVariable:   "variable",
	TokWhitespace: "whitespace",
	TokWord:       "word",
	TokEOS:        "end of pattern",
	TokInvalid:    "unterminated %",
}

func (k TokenKind) String() string {
	if s, have := tokenNames[k]; have {
		return s
	}
	return "token " + strconv.Itoa(int(k))
}

// Token is a pattern token.
type Token struct {
	Kind TokenKind

	// Text is the word or the variable name.
	Text string

	// Pos is the byte offset in the pattern.
	Pos int
}

func (t Token) String() string {
	switch t.Kind {
	case TokWord:
		return strconv.Quote(t.Text)
	case TokVariable:
		return "%" + t.Text + "%"
	}
	return t.Kind.String()
}

var refTokens = map[string]TokenKind{
	"character": TokCharacter,
	"object":    TokObject,
	"number":    TokNumber,
	"text":      TokText,
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\v' || c == '\f'
}

func isSpecial(c byte) bool {
	switch c {
	case '[', ']', '{', '}', '/', '*', '%':
		return true
	}
	return isSpace(c)
}

// Lexer tokenizes a pattern one token at a time.
type Lexer struct {
	src string
	pos int
}

// NewLexer makes a Lexer for the given pattern.
func NewLexer(src string) *Lexer {
	return &Lexer{src: src}
}

// Next returns the next token.  At the end of the pattern, Next
// returns TokEOS forever.
func (l *Lexer) Next() Token {
	start := l.pos
	if len(l.src) <= l.pos {
		return Token{Kind: TokEOS, Pos: start}
	}

	c := l.src[l.pos]
	switch c {
	case '[':
		l.pos++
		return Token{Kind: TokLBracket, Pos: start}
	case ']':
		l.pos++
		return Token{Kind: TokRBracket, Pos: start}
	case '{':
		l.pos++
		return Token{Kind: TokLBrace, Pos: start}
	case '}':
		l.pos++
		return Token{Kind: TokRBrace, Pos: start}
	case '/':
		l.pos++
		return Token{Kind: TokSlash, Pos: start}
	case '*':
		l.pos++
		return Token{Kind: TokStar, Pos: start}
	case '%':
		end := strings.IndexByte(l.src[start+1:], '%')
		if end < 0 {
			l.pos = len(l.src)
			return Token{Kind: TokInvalid, Text: l.src[start:], Pos: start}
		}
		name := l.src[start+1 : start+1+end]
		l.pos = start + end + 2
		if k, have := refTokens[strings.ToLower(name)]; have {
			return Token{Kind: k, Pos: start}
		}
		return Token{Kind: TokVariable, Text: name, Pos: start}
	}

	if isSpace(c) {
		for l.pos < len(l.src) && isSpace(l.src[l.pos]) {
			l.pos++
		}
		return Token{Kind: TokWhitespace, Pos: start}
	}

	for l.pos < len(l.src) && !isSpecial(l.src[l.pos]) {
		l.pos++
	}
	return Token{Kind: TokWord, Text: l.src[start:l.pos], Pos: start}
}
