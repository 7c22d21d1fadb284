package sio

import (
	"bytes"
	"context"
	"io/ioutil"
	"strings"
	"testing"
	"time"

	"github.com/Comcast/parley/game"
	"github.com/Comcast/parley/interpreters"
	"github.com/Comcast/parley/match"
	"github.com/Comcast/parley/storage"
)

func loadGame(t *testing.T) *game.Game {
	g, err := game.ReadGame("../games/cellar.yaml")
	if err != nil {
		t.Fatal(err)
	}
	if err = g.Compile(context.Background(), interpreters.Standard(), match.NewMatcher(), false); err != nil {
		t.Fatal(err)
	}
	return g
}

func process(t *testing.T, r *Runner, in *Input) *Result {
	res, err := r.ProcessInput(context.Background(), in)
	if err != nil {
		t.Fatal(err)
	}
	if res.Err != "" {
		t.Fatal(res.Err)
	}
	return res
}

func TestParseInput(t *testing.T) {
	in, err := ParseInput(`{"session":"s1","line":"take lamp"}`)
	if err != nil {
		t.Fatal(err)
	}
	if in.Session != "s1" || in.Line != "take lamp" {
		t.Fatal(JS(in))
	}
	if in, err = ParseInput("  look  \n"); err != nil {
		t.Fatal(err)
	}
	if in.Session != "" || in.Line != "look" {
		t.Fatal(JS(in))
	}
	if _, err = ParseInput(`{"session":`); err == nil {
		t.Fatal("expected an error")
	}
}

func TestRunnerBasic(t *testing.T) {
	r := newRunner(loadGame(t), nil)

	res := process(t, r, &Input{Line: "take lamp"})
	if res.Session != DefaultSession {
		t.Fatal(res.Session)
	}
	if !strings.HasPrefix(res.Intro, "You are in the kitchen.") {
		t.Fatal(res.Intro)
	}
	if got := strings.Join(res.Output()[1:], " "); got != "You take the brass lamp." {
		t.Fatal(got)
	}
	ch, have := res.Changed[DefaultSession]
	if !have || ch.State == nil {
		t.Fatal(JS(res.Changed))
	}
	if v, _ := ch.State.Vars.Get("score"); v.Int != 1 {
		t.Fatal(JS(ch.State.Vars))
	}

	// Second input: no intro.
	res = process(t, r, &Input{Line: "score"})
	if res.Intro != "" {
		t.Fatal(res.Intro)
	}
	if got := strings.Join(res.Output(), " "); got != "Score: 1." {
		t.Fatal(got)
	}
}

func TestRunnerSessions(t *testing.T) {
	r := newRunner(loadGame(t), nil)

	process(t, r, &Input{Session: "a", Line: "take lamp"})
	res := process(t, r, &Input{Session: "b", Line: "score"})
	if got := res.Output()[1]; got != "Score: 0." {
		t.Fatal(got)
	}
	if _, have := res.Changed["a"]; have {
		t.Fatal("a shouldn't have changed")
	}

	res = process(t, r, &Input{Session: "a", Reset: true})
	if res.Intro == "" {
		t.Fatal("no intro after reset")
	}
	if res = process(t, r, &Input{Session: "a", Line: "score"}); res.Output()[0] != "Score: 0." {
		t.Fatal(res.Output())
	}

	res = process(t, r, &Input{Session: "b", Delete: true})
	if ch := res.Changed["b"]; ch == nil || !ch.Deleted {
		t.Fatal(JS(res.Changed))
	}
	if _, have := r.Sessions["b"]; have {
		t.Fatal("b survived")
	}
}

func TestRunnerStorage(t *testing.T) {
	var (
		ctx   = context.Background()
		g     = loadGame(t)
		store = storage.NewMemStorage()
	)
	if err := store.MakeGame(ctx, g.Name); err != nil {
		t.Fatal(err)
	}

	r := newRunner(g, nil)
	r.Storage = store
	process(t, r, &Input{Session: "s", Line: "take lamp. d"})

	st, err := storage.Load(ctx, store, g.Name, "s")
	if err != nil {
		t.Fatal(err)
	}
	if st == nil || st.PlayerRoom != "cellar" {
		t.Fatal(JS(st))
	}

	// A new runner picks up where the first left off.
	r = newRunner(g, nil)
	r.Storage = store
	res := process(t, r, &Input{Session: "s", Line: "score"})
	if res.Intro != "" {
		t.Fatal(res.Intro)
	}
	if got := res.Output()[0]; got != "Score: 1." {
		t.Fatal(got)
	}

	process(t, r, &Input{Session: "s", Delete: true})
	if st, err = storage.Load(ctx, store, g.Name, "s"); err != nil {
		t.Fatal(err)
	}
	if st != nil {
		t.Fatal(JS(st))
	}
}

func TestRunnerHistory(t *testing.T) {
	r := newRunner(loadGame(t), &RunnerConf{
		HistorySize: 2,
	})
	for _, line := range []string{"score", "take lamp", "drop lamp"} {
		process(t, r, &Input{Line: line})
	}
	h := r.History()
	if len(h) != 2 {
		t.Fatal(len(h))
	}
	if h[0].Strides[0].Input != "take lamp" || h[1].Strides[0].Input != "drop lamp" {
		t.Fatal(JS(h))
	}
	// Calling History doesn't disturb it.
	if h = r.History(); len(h) != 2 || h[0].Strides[0].Input != "take lamp" {
		t.Fatal(JS(h))
	}
}

func TestRunnerLoopStdio(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var out bytes.Buffer
	s := NewStdio(false)
	s.In = strings.NewReader("# comment\ntake lamp\n\n{\"line\":\"score\"}\n")
	s.Out = &out
	s.StateOutputFilename = ""

	r, err := NewRunner(ctx, loadGame(t), &RunnerConf{HaltOnInputEOF: true}, s)
	if err != nil {
		t.Fatal(err)
	}
	if err = r.Loop(ctx); err != nil {
		t.Fatal(err)
	}
	<-s.InputEOF
	cancel()
	if err = s.Stop(context.Background()); err != nil {
		t.Fatal(err)
	}

	got := out.String()
	for _, want := range []string{"You take the brass lamp.", "Score: 1."} {
		if !strings.Contains(got, want) {
			t.Fatalf("%q doesn't contain %q", got, want)
		}
	}
	if st := s.State[DefaultSession]; st == nil || st.Turns != 2 {
		t.Fatal(JS(s.State))
	}
}

func TestJSONStore(t *testing.T) {
	var (
		ctx = context.Background()
		dir = t.TempDir()
		s   = NewJSONStore()
	)
	s.StateOutputFilename = dir + "/state.json"

	r := newRunner(loadGame(t), nil)
	if err := s.Update(process(t, r, &Input{Session: "x", Line: "take lamp"})); err != nil {
		t.Fatal(err)
	}
	if err := s.Stop(ctx, false); err != nil {
		t.Fatal(err)
	}
	if _, err := ioutil.ReadFile(s.StateOutputFilename); err != nil {
		t.Fatal(err)
	}

	s2 := NewJSONStore()
	s2.StateInputFilename = s.StateOutputFilename
	ss, err := s2.Read(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if ss["x"] == nil {
		t.Fatal(JS(ss))
	}
	if v, _ := ss["x"].Vars.Get("score"); v.Int != 1 {
		t.Fatal(JS(ss))
	}
}
