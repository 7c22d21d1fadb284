package game

import (
	"context"
	"strings"
	"testing"

	"github.com/Comcast/parley/core"
	"github.com/Comcast/parley/interpreters"
	"github.com/Comcast/parley/match"
	. "github.com/Comcast/parley/util/testutil"
)

var cellarYAML = `
name: cellar
intro: "You are in the %place%."
playerRoom: kitchen
variables:
  score: 0
  place: kitchen
characters:
  - name: Marge
    gender: female
    room: kitchen
  - name: Homer
    gender: male
    room: cellar
objects:
  - name: lamp
    prefix: brass
    room: kitchen
  - name: key
    prefix: iron
    room: cellar
  - name: key
    prefix: bronze
    room: cellar
commands:
  - name: take
    patterns:
      - "{get/take/pick up} %object%"
    condition: "%score% < 10"
    otherwise: "You've taken enough."
    response: "You take the %object%."
    take: true
    set:
      score: "%score% + 1"
  - name: drop
    patterns: ["drop %object%"]
    response: "Dropped."
    drop: true
  - name: down
    patterns: ["{go} down", "d"]
    response: "You climb down."
    goto: cellar
    set:
      place:
        interpreter: native-text
        source: '"cellar"'
  - name: greet
    patterns: ["{say} hello to %character%", "greet %character%"]
    response:
      interpreter: goja
      source: 'return "Hello, " + _.entity("character", _.refs.character).name + ".";'
  - name: count
    patterns: ["count to %number%"]
    condition: "%number% > 0"
    response:
      interpreter: native-text
      source: '"Counted" + str(%number%) + "!"'
  - name: score
    patterns: ["score"]
    response: "Score: %score%."
`

func newSession(t *testing.T) *Session {
	g, err := ParseGame([]byte(cellarYAML))
	if err != nil {
		t.Fatal(err)
	}
	m := match.NewMatcher()
	if err = g.Compile(context.Background(), interpreters.Standard(), m, false); err != nil {
		t.Fatal(err)
	}
	s, err := g.NewSession(m)
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func step(t *testing.T, s *Session, line string) []*Stride {
	ss, err := s.Step(context.Background(), line)
	if err != nil {
		t.Fatal(err)
	}
	return ss
}

func output(ss []*Stride) string {
	acc := make([]string, 0, len(ss))
	for _, st := range ss {
		acc = append(acc, strings.Join(st.Output, " "))
	}
	return strings.Join(acc, " | ")
}

func TestParse(t *testing.T) {
	g, err := ParseGame([]byte(cellarYAML))
	if err != nil {
		t.Fatal(err)
	}
	if g.Characters[1].Gender != core.Male {
		t.Fatal(g.Characters[1].Gender)
	}
	if g.Commands[0].Condition.Source != "%score% < 10" {
		t.Fatal(JS(g.Commands[0].Condition))
	}
	if g.Commands[3].Response.Interpreter != "goja" {
		t.Fatal(JS(g.Commands[3].Response))
	}

	if _, err := g.NewSession(nil); err != ErrNotCompiled {
		t.Fatal(err)
	}
}

func TestCompileErrors(t *testing.T) {
	for name, src := range map[string]string{
		"pattern":   `commands: [{name: bad, patterns: ["get [lamp"]}]`,
		"none":      `commands: [{name: bad}]`,
		"condition": `commands: [{name: bad, patterns: ["x"], condition: {interpreter: nope, source: "1"}}]`,
		"take":      `commands: [{name: bad, patterns: ["x"], take: true}]`,
		"variable":  `variables: {x: [1]}`,
	} {
		t.Run(name, func(t *testing.T) {
			g, err := ParseGame([]byte(src))
			if err != nil {
				t.Fatal(err)
			}
			if err = g.Compile(context.Background(), interpreters.Standard(), nil, false); err == nil {
				t.Fatal("didn't protest")
			}
		})
	}
}

func TestSession(t *testing.T) {
	s := newSession(t)

	if got := s.Intro(); got != "You are in the kitchen." {
		t.Fatal(got)
	}

	ss := step(t, s, "take the brass lamp")
	if len(ss) != 1 || !ss[0].Understood || ss[0].Matched != "take" {
		t.Fatal(JS(ss))
	}
	if got := output(ss); got != "You take the brass lamp." {
		t.Fatal(got)
	}
	if s.World.Objects[0].Room != core.Carried {
		t.Fatal(JS(s.World.Objects[0]))
	}
	if v, _ := s.Vars.Get("score"); v.Int != 1 {
		t.Fatal(v)
	}
	if s.Pronouns.Object != 0 {
		t.Fatal(JS(s.Pronouns))
	}

	ss = step(t, s, "drop it")
	if !ss[0].Expanded || ss[0].Command != "drop brass lamp" {
		t.Fatal(JS(ss))
	}
	if s.World.Objects[0].Room != "kitchen" {
		t.Fatal(JS(s.World.Objects[0]))
	}

	if got := output(step(t, s, "greet marge")); got != "Hello, Marge." {
		t.Fatal(got)
	}
	if s.Pronouns.Female != 0 {
		t.Fatal(JS(s.Pronouns))
	}
	if got := step(t, s, "greet her")[0].Command; got != "greet Marge" {
		t.Fatal(got)
	}

	if got := output(step(t, s, "count to 3")); got != "Counted 3!" {
		t.Fatal(got)
	}

	if got := output(step(t, s, "score")); got != "Score: 1." {
		t.Fatal(got)
	}
}

func TestMultipleAndAgain(t *testing.T) {
	s := newSession(t)

	if got := output(step(t, s, "again")); got != CannotRepeat {
		t.Fatal(got)
	}

	ss := step(t, s, "go down. score, g")
	if len(ss) != 3 {
		t.Fatal(JS(ss))
	}
	if got := output(ss); got != "You climb down. | Score: 0. | Score: 0." {
		t.Fatal(got)
	}
	if s.World.PlayerRoom != "cellar" {
		t.Fatal(s.World.PlayerRoom)
	}
	if v, _ := s.Vars.Get("place"); v.Text != "cellar" {
		t.Fatal(v)
	}
	if s.Turns != 3 {
		t.Fatal(s.Turns)
	}
}

func TestNotUnderstood(t *testing.T) {
	s := newSession(t)

	ss := step(t, s, "tak  lamp. score")
	if len(ss) != 1 {
		t.Fatalf("kept going: %s", JS(ss))
	}
	st := ss[0]
	if st.Understood {
		t.Fatal(JS(st))
	}
	if got := output(ss); got != `I don't understand "tak lamp".` {
		t.Fatal(got)
	}
	if st.Suggestion != "take" && st.Suggestion != "get" {
		t.Fatal(st.Suggestion)
	}
	if s.Turns != 0 {
		t.Fatal(s.Turns)
	}
}

func TestConditionOtherwise(t *testing.T) {
	s := newSession(t)
	s.Vars.SetInt("score", 10)

	ss := step(t, s, "get lamp")
	if !ss[0].Understood || output(ss) != "You've taken enough." {
		t.Fatal(JS(ss))
	}
	if s.World.Objects[0].Room != "kitchen" {
		t.Fatal(JS(s.World.Objects[0]))
	}

	// A false condition without an "otherwise" falls through.
	if ss = step(t, s, "count to 0"); ss[0].Understood {
		t.Fatal(JS(ss))
	}
}

func TestAmbiguousPronoun(t *testing.T) {
	s := newSession(t)
	step(t, s, "go down")

	// Two keys, so "it" shouldn't move.
	step(t, s, "take lamp")
	step(t, s, "take key")
	if s.Pronouns.Object != 0 {
		t.Fatal(JS(s.Pronouns))
	}
	step(t, s, "take iron key")
	if s.Pronouns.Object != 1 {
		t.Fatal(JS(s.Pronouns))
	}
}

func TestState(t *testing.T) {
	s := newSession(t)
	step(t, s, "take lamp. go down")

	st := s.State()

	s2 := newSession(t)
	if err := s2.Restore(st); err != nil {
		t.Fatal(err)
	}
	if JS(s2.State()) != JS(st) {
		t.Fatalf("%s != %s", JS(s2.State()), JS(st))
	}
	if got := output(step(t, s2, "drop it")); got != "Dropped." {
		t.Fatal(got)
	}
	if s2.World.Objects[0].Room != "cellar" {
		t.Fatal(JS(s2.World.Objects[0]))
	}

	st.Game = "other"
	if err := s2.Restore(st); err == nil {
		t.Fatal("didn't protest")
	}
}

func TestRender(t *testing.T) {
	world := &core.World{
		Objects: []*core.Entity{{Name: "lamp", Prefix: "brass"}},
	}
	vars := core.NewVars().SetInt("n", 3)
	vars.Refs.Object = 0
	vars.Refs.Text = "xyzzy"

	for in, want := range map[string]string{
		"plain":                 "plain",
		"%n% lamps":             "3 lamps",
		"the %object%":          "the brass lamp",
		"50% off %n%":           "50% off 3",
		"%nope% %n%":            "%nope% 3",
		"you said %text%":       "you said xyzzy",
		"100%":                  "100%",
		"%character% is absent": "%character% is absent",
	} {
		if got := Render(in, vars, world); got != want {
			t.Fatalf("%q: %q != %q", in, got, want)
		}
	}
}

func TestSplit(t *testing.T) {
	for in, want := range map[string]string{
		"":                  `[]`,
		"look":              `["look"]`,
		"look. take lamp":   `["look","take lamp"]`,
		".":                 `["."]`,
		"a,b.c":             `["a","b","c"]`,
		"  take lamp  .  ":  `["take lamp"]`,
		"take lamp,, drop":  `["take lamp",", drop"]`,
	} {
		if got := JS(Split(in)); got != want {
			t.Fatalf("%q: %s != %s", in, got, want)
		}
	}
}

func TestSuggest(t *testing.T) {
	verbs := []string{"take", "drop", "look", "greet"}
	for in, want := range map[string]string{
		"tak lamp": "take",
		"lok":      "look",
		"grete":    "greet",
		"take it":  "",
		"xyzzy":    "",
		"":         "",
	} {
		if got := Suggest(in, verbs); got != want {
			t.Fatalf("%q: %q != %q", in, got, want)
		}
	}
}

func TestVerbs(t *testing.T) {
	s := newSession(t)
	want := `["get","take","pick","drop","go","down","d","say","hello","greet","count","score"]`
	if got := JS(s.Game.Verbs()); got != want {
		t.Fatal(got)
	}
}
