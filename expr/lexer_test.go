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
	"testing"
)

func kinds(src string) []Kind {
	var l Lexer
	l.Logf = func(string, ...interface{}) {}
	l.Start(src)
	var acc []Kind
	for {
		t := l.Next()
		acc = append(acc, t.Kind)
		if t.Kind == EOS {
			return acc
		}
	}
}

func TestLexerKinds(t *testing.T) {
	tests := []struct {
		src  string
		want []Kind
	}{
		{"-3+1", []Kind{UMinus, Integer, Add, Integer, EOS}},
		{"x-1", []Kind{Ident, Subtract, Integer, EOS}},
		{"(-1)-1", []Kind{LParen, UMinus, Integer, RParen, Subtract, Integer, EOS}},
		{"2*-+3", []Kind{Integer, Multiply, UMinus, UPlus, Integer, EOS}},
		{"a <> b", []Kind{Ident, NotEqual, Ident, EOS}},
		{"1 && 2 || 3", []Kind{Integer, And, Integer, Or, Integer, EOS}},
		{"1>=2<=3>4<5", []Kind{Integer, GreaterEq, Integer, LessEq, Integer, Greater, Integer, Less, Integer, EOS}},
		{"%x% mod 2", []Kind{Variable, Mod, Integer, EOS}},
		{`"a" & 'b'`, []Kind{String, Concatenate, String, EOS}},
		{"MAX(1,-2)", []Kind{Max, LParen, Integer, Comma, UMinus, Integer, RParen, EOS}},
		{"ucase lcase pcase random", []Kind{Upper, Lower, Proper, Random, EOS}},
		{"1 ; 2", []Kind{Integer, Invalid, Integer, EOS}},
		{"", []Kind{EOS}},
		{"   ", []Kind{EOS}},
	}

	for _, tc := range tests {
		got := kinds(tc.src)
		if len(got) != len(tc.want) {
			t.Fatalf("%q: got %v, wanted %v", tc.src, got, tc.want)
		}
		for i := range got {
			if got[i] != tc.want[i] {
				t.Fatalf("%q: got %v, wanted %v", tc.src, got, tc.want)
			}
		}
	}
}

func TestLexerPayloads(t *testing.T) {
	var l Lexer
	l.Start(` 42 %Score% "hi there" 'x' zork`)

	if tok := l.Next(); tok.Kind != Integer || tok.Int != 42 || tok.Pos != 1 {
		t.Fatalf("%#v", tok)
	}
	if tok := l.Next(); tok.Kind != Variable || tok.Text != "Score" {
		t.Fatalf("%#v", tok)
	}
	if tok := l.Next(); tok.Kind != String || tok.Text != "hi there" {
		t.Fatalf("%#v", tok)
	}
	if tok := l.Value(); tok.Text != "hi there" {
		t.Fatalf("%#v", tok)
	}
	if tok := l.Next(); tok.Kind != String || tok.Text != "x" {
		t.Fatalf("%#v", tok)
	}
	if tok := l.Next(); tok.Kind != Ident || tok.Text != "zork" {
		t.Fatalf("%#v", tok)
	}
	if tok := l.Next(); tok.Kind != EOS {
		t.Fatalf("%#v", tok)
	}
}

func TestLexerBigInteger(t *testing.T) {
	var l Lexer
	l.Logf = func(string, ...interface{}) {}
	l.Start("99999999999999999999999")
	if tok := l.Next(); tok.Kind != Invalid {
		t.Fatalf("%#v", tok)
	}
}

func TestTokenString(t *testing.T) {
	tests := map[string]Token{
		"12":      {Kind: Integer, Int: 12},
		`"a"`:     {Kind: String, Text: "a"},
		"%x%":     {Kind: Variable, Text: "x"},
		"mod":     {Kind: Mod},
		"unary -": {Kind: UMinus},
	}
	for want, tok := range tests {
		if got := tok.String(); got != want {
			t.Fatalf("%#v: %q != %q", tok, got, want)
		}
	}
}
