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

package tools

import (
	"context"
	"io/ioutil"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Comcast/parley/interpreters"
	"github.com/Comcast/parley/match"
)

func TestInline(t *testing.T) {
	input := `
I like %inline("tacos"), and
I also like %inline("queso").
Both are delicious.
`
	want := `
I like TACOS, and
I also like QUESO.
Both are delicious.
`

	find := func(name string) ([]byte, error) {
		return []byte(strings.ToUpper(name)), nil
	}

	got, err := Inline([]byte(input), find)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != want {
		t.Fatalf("got %s", got)
	}
}

func TestInlineIndented(t *testing.T) {
	input := "a:\n  b: |\n    %inline(\"x\")\nc: 1\n"
	find := func(name string) ([]byte, error) {
		return []byte("one\ntwo\n"), nil
	}
	got, err := Inline([]byte(input), find)
	if err != nil {
		t.Fatal(err)
	}
	if want := "a:\n  b: |\n    one\n    two\nc: 1\n"; string(got) != want {
		t.Fatalf("got %q", got)
	}
}

func TestReadGameInlines(t *testing.T) {
	dir := t.TempDir()
	src := `
name: inlined
playerRoom: here
commands:
  - name: hi
    patterns: ["hi"]
    response:
      interpreter: goja
      source: |
        %inline("hi.js")
`
	js := "var who = \"world\";\nreturn \"Hello, \" + who + \".\";\n"
	if err := ioutil.WriteFile(filepath.Join(dir, "game.yaml"), []byte(src), 0644); err != nil {
		t.Fatal(err)
	}
	if err := ioutil.WriteFile(filepath.Join(dir, "hi.js"), []byte(js), 0644); err != nil {
		t.Fatal(err)
	}

	g, err := ReadGame(filepath.Join(dir, "game.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if err = g.Compile(context.Background(), interpreters.Standard(), match.NewMatcher(), false); err != nil {
		t.Fatal(err)
	}
	s, err := g.NewSession(nil)
	if err != nil {
		t.Fatal(err)
	}
	ss, err := s.Step(context.Background(), "hi")
	if err != nil {
		t.Fatal(err)
	}
	if got := ss[0].Output[0]; got != "Hello, world." {
		t.Fatal(got)
	}
}
