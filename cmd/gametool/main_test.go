package main

import (
	"bytes"
	"context"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Comcast/parley/game"
	"github.com/Comcast/parley/interpreters"
	. "github.com/Comcast/parley/util/testutil"
)

func cellar(t *testing.T) []byte {
	bs, err := ioutil.ReadFile("../../games/cellar.yaml")
	if err != nil {
		t.Fatal(err)
	}
	return bs
}

func runTool(t *testing.T, in []byte, args ...string) string {
	var out, errOut bytes.Buffer
	if err := run(args, bytes.NewReader(in), &out, &errOut); err != nil {
		t.Fatalf("%v: %s (%s)", args, err, errOut.String())
	}
	return out.String()
}

func TestVerbs(t *testing.T) {
	out := runTool(t, cellar(t), "verbs")
	for _, v := range []string{"take", "greet", "count"} {
		if !strings.Contains(out, v+"\n") {
			t.Fatal(out)
		}
	}
}

func TestAnalyze(t *testing.T) {
	if out := runTool(t, cellar(t), "analyze"); !strings.Contains(out, "kitchen") {
		t.Fatal(out)
	}
}

func TestAddHelpCommand(t *testing.T) {
	out := runTool(t, cellar(t), "addHelpCommand")

	g, err := game.ParseGame([]byte(out))
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	if err = g.Compile(ctx, interpreters.Standard(), nil, false); err != nil {
		t.Fatal(err)
	}
	s, err := g.NewSession(nil)
	if err != nil {
		t.Fatal(err)
	}
	ss, err := s.Step(ctx, "help")
	if err != nil {
		t.Fatal(err)
	}
	if len(ss) != 1 || !strings.Contains(ss[0].Output[0], "greet") {
		t.Fatal(ss[0].Output)
	}

	var errOut bytes.Buffer
	if err = run([]string{"addHelpCommand"}, strings.NewReader(out), &bytes.Buffer{}, &errOut); err != CommandExists {
		t.Fatal(err)
	}
}

func TestAddCommand(t *testing.T) {
	out := runTool(t, cellar(t), "addCommand", "-n", "xyzzy", "-p", "xyzzy", "-r", "Nothing happens.", "-first")

	g, err := game.ParseGame([]byte(out))
	if err != nil {
		t.Fatal(err)
	}
	if g.Commands[0].Name != "xyzzy" {
		t.Fatal(g.Commands[0].Name)
	}
	if !strings.Contains(g.Doc, "AddCommand") {
		t.Fatal(g.Doc)
	}
}

func TestYAMLToJSON(t *testing.T) {
	js := runTool(t, cellar(t), "yamltojson")
	m, is := Dwimjs(js).(map[string]interface{})
	if !is || m["playerRoom"] != "kitchen" || m["name"] != "cellar" {
		t.Fatal(js)
	}
	y := runTool(t, []byte(js), "jsontoyaml")
	g, err := game.ParseGame([]byte(y))
	if err != nil {
		t.Fatal(err)
	}
	if len(g.Commands) != 8 {
		t.Fatal(len(g.Commands))
	}
}

func TestExpand(t *testing.T) {
	dir, err := ioutil.TempDir("", "macros")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(dir)

	macro := `function expand(g) { g.name = g.name + "-expanded"; return g; }`
	if err = ioutil.WriteFile(filepath.Join(dir, "expand.js"), []byte(macro), 0644); err != nil {
		t.Fatal(err)
	}

	out := runTool(t, cellar(t), "expand", dir)
	if !strings.Contains(out, "cellar-expanded") {
		t.Fatal(out)
	}
}

func TestUnknown(t *testing.T) {
	var out, errOut bytes.Buffer
	if err := run([]string{"nope"}, strings.NewReader(""), &out, &errOut); err == nil {
		t.Fatal("didn't protest")
	}
	if !strings.Contains(errOut.String(), "addHelpCommand") {
		t.Fatal(errOut.String())
	}
}
