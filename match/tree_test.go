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
	"testing"
)

func TestLexer(t *testing.T) {
	l := NewLexer("get [the/a]  %Object%{x} * %score% %NUMBER%")
	want := []TokenKind{
		TokWord, TokWhitespace, TokLBracket, TokWord, TokSlash, TokWord, TokRBracket,
		TokWhitespace, TokObject, TokLBrace, TokWord, TokRBrace, TokWhitespace, TokStar,
		TokWhitespace, TokVariable, TokWhitespace, TokNumber, TokEOS, TokEOS,
	}
	for i, k := range want {
		tok := l.Next()
		if tok.Kind != k {
			t.Fatalf("%d: got %s, wanted %s", i, tok.Kind, k)
		}
		if tok.Kind == TokVariable && tok.Text != "score" {
			t.Fatal(tok.Text)
		}
	}
}

func TestTreeShape(t *testing.T) {
	tr, err := Parse("get {the/a} [red/blue] ball")
	if err != nil {
		t.Fatal(err)
	}
	kids := tr.Children(tr.Root())
	want := []Kind{Word, Whitespace, Optional, Whitespace, Choice, Whitespace, Word, EndOfInput}
	if len(kids) != len(want) {
		t.Fatal(len(kids))
	}
	for i, k := range want {
		if tr.Kind(kids[i]) != k {
			t.Fatalf("%d: %s != %s", i, tr.Kind(kids[i]), k)
		}
	}
	alts := tr.Children(kids[2])
	if len(alts) != 2 || tr.Kind(alts[0]) != List {
		t.Fatal(len(alts))
	}
	if w := tr.Children(alts[1])[0]; tr.Text(w) != "a" {
		t.Fatal(tr.Text(w))
	}

	count := 0
	maxDepth := 0
	tr.Walk(func(id NodeID, depth int) {
		count++
		if maxDepth < depth {
			maxDepth = depth
		}
	})
	if count != tr.Size() {
		t.Fatalf("%d != %d", count, tr.Size())
	}
	if maxDepth != 3 {
		t.Fatal(maxDepth)
	}
}

func TestImplicitWhitespace(t *testing.T) {
	tr, err := Parse("{the}[red/blue]{big}ball")
	if err != nil {
		t.Fatal(err)
	}
	kids := tr.Children(tr.Root())
	want := []Kind{Optional, Whitespace, Choice, Whitespace, Optional, Word, EndOfInput}
	if len(kids) != len(want) {
		t.Fatal(len(kids))
	}
	for i, k := range want {
		if tr.Kind(kids[i]) != k {
			t.Fatalf("%d: %s != %s", i, tr.Kind(kids[i]), k)
		}
	}
}

func TestTreeString(t *testing.T) {
	tests := map[string]string{
		"get {the/a} [red/blue] ball": "get {the/a} [red/blue] ball",
		"{a}{b}":                      "{a} {b}",
		"say %text% to %Character%":   "say %text% to %character%",
		"score %Score% *":             "score %Score% *",
		"[/x]":                        "[/x]",
	}
	for pattern, want := range tests {
		tr, err := Parse(pattern)
		if err != nil {
			t.Fatal(err)
		}
		if got := tr.String(); got != want {
			t.Fatalf("%q: %q", pattern, got)
		}
	}
}
