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

// Package main is a command-line game debugger in the spirit of gdb.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"io/ioutil"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/Comcast/parley/core"
	"github.com/Comcast/parley/expr"
	"github.com/Comcast/parley/game"
	"github.com/Comcast/parley/interpreters"
	"github.com/Comcast/parley/match"
	"github.com/Comcast/parley/tools"
	"github.com/Comcast/parley/util"

	"github.com/edwingeng/deque"
	"github.com/fatih/color"
)

type Opts struct {
	gameFilename string
	echo         bool
	noColor      bool
}

func main() {

	opts := &Opts{}
	flag.StringVar(&opts.gameFilename, "g", "", "game filename to load at start")
	flag.BoolVar(&opts.echo, "e", false, "echo input")
	flag.BoolVar(&opts.noColor, "no-color", false, "disable color")
	flag.Parse()

	if opts.noColor {
		color.NoColor = true
	}

	if err := opts.run(); err != nil {
		panic(err)
	}
}

func (opts *Opts) run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	h := NewHost(os.Stdout)

	if opts.gameFilename != "" {
		if err := h.Do(ctx, "load "+opts.gameFilename); err != nil {
			return err
		}
	}

	r := bufio.NewReader(os.Stdin)
	for {
		line, err := r.ReadString('\n')
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		line = strings.TrimSpace(line)

		if opts.echo {
			fmt.Println(line)
		}

		if err = h.Do(ctx, line); err != nil {
			return err
		}
	}
}

var (
	loadGame = regexp.MustCompile("^load +(.*)")

	reloadGame = regexp.MustCompile("^reload$")

	restart = regexp.MustCompile("^restart$")

	setVar = regexp.MustCompile("^set +([a-zA-Z0-9_]+) +(.*)")

	gotoRoom = regexp.MustCompile("^goto +(.*)")

	print = regexp.MustCompile("^print( +([a-zA-Z0-9_]+))?$")

	world = regexp.MustCompile("^world$")

	pronouns = regexp.MustCompile("^pronouns$")

	send = regexp.MustCompile("^(run +|> *)(.*)$")

	queueLine = regexp.MustCompile("^queue +(.*)")

	printqueue = regexp.MustCompile("^printqueue$")

	pop = regexp.MustCompile("^pop$")

	drop = regexp.MustCompile("^drop$")

	matchPattern = regexp.MustCompile("^match +(.*?) *:: *(.*)$")

	evalNumeric = regexp.MustCompile("^eval +(.*)")

	evalText = regexp.MustCompile("^text +(.*)")

	history = regexp.MustCompile("^history$")

	help = regexp.MustCompile("^(help|h|\\?)$")

	save = regexp.MustCompile("^save +(.*)")

	restore = regexp.MustCompile("^restore +(.*)")

	debug = regexp.MustCompile("^debug(ging)? (on|off)")

	outputPrefix = "# "

	// commands are offered as suggestions for unsupported input.
	commands = []string{
		"load", "reload", "restart", "set", "goto", "print", "world",
		"pronouns", "run", "queue", "printqueue", "pop", "drop",
		"match", "eval", "text", "history", "help", "save",
		"restore", "debug",
	}
)

// Host holds the debugger's game and session.
type Host struct {
	Game     *game.Game
	Session  *game.Session
	Matcher  *match.Matcher
	Filename string

	w            io.Writer
	interpreters core.InterpretersMap
	queue        deque.Deque
	history      deque.Deque
	historySize  int
	debugging    bool
}

func NewHost(w io.Writer) *Host {
	return &Host{
		Matcher:      match.NewMatcher(),
		w:            w,
		interpreters: interpreters.Standard(),
		queue:        deque.NewDeque(),
		history:      deque.NewDeque(),
		historySize:  100,
	}
}

func (h *Host) say(format string, args ...interface{}) {
	fmt.Fprintf(h.w, outputPrefix+format+"\n", args...)
}

func (h *Host) protest(format string, args ...interface{}) {
	h.say("%s", color.RedString("error: "+format, args...))
}

// Load reads, compiles, and starts a game.
func (h *Host) Load(ctx context.Context, filename string) error {
	g, err := tools.ReadGame(filename)
	if err != nil {
		return err
	}
	if err = g.Compile(ctx, h.interpreters, h.Matcher, true); err != nil {
		return err
	}
	s, err := g.NewSession(h.Matcher)
	if err != nil {
		return err
	}
	s.Debug = h.debugging
	h.Game, h.Session, h.Filename = g, s, filename
	return nil
}

func (h *Host) remember(line string) {
	h.history.PushBack(line)
	for h.historySize < h.history.Len() {
		h.history.PopFront()
	}
}

// each visits every element of the deque in order, leaving the
// deque as it was.
func each(d deque.Deque, f func(i int, x interface{})) {
	n := d.Len()
	for i := 0; i < n; i++ {
		x := d.PopFront()
		f(i, x)
		d.PushBack(x)
	}
}

// Do executes one debugger command.  Only internal errors are
// returned; problems with the command are reported to the writer.
func (h *Host) Do(ctx context.Context, line string) error {
	line = strings.TrimSpace(line)

	if line == "" || strings.HasPrefix(line, "#") {
		return nil
	}

	var ss []string

	if ss = help.FindStringSubmatch(line); 0 < len(ss) {
		for _, s := range strings.Split(doc(), "\n") {
			h.say("%s", s)
		}
		return nil
	}

	if ss = reloadGame.FindStringSubmatch(line); 0 < len(ss) {
		if h.Filename == "" {
			h.protest("no game to reload")
			return nil
		}
		h.say("reloading %s", h.Filename)
		line = "load " + h.Filename
		// Fall through!
	}

	if ss = loadGame.FindStringSubmatch(line); 0 < len(ss) {
		filename := ss[1]
		if err := h.Load(ctx, filename); err != nil {
			h.protest("couldn't load %s: %s", filename, err)
			return nil
		}
		h.say("game '%s' has %d commands", h.Game.Name, len(h.Game.Commands))
		if intro := h.Session.Intro(); intro != "" {
			h.say("%s", intro)
		}
		return nil
	}

	if ss = history.FindStringSubmatch(line); 0 < len(ss) {
		each(h.history, func(i int, x interface{}) {
			h.say("%d. %s", i, x)
		})
		return nil
	}

	if ss = queueLine.FindStringSubmatch(line); 0 < len(ss) {
		h.queue.PushBack(ss[1])
		h.say("queue now has %d lines", h.queue.Len())
		return nil
	}

	if ss = printqueue.FindStringSubmatch(line); 0 < len(ss) {
		if h.queue.Empty() {
			h.say("queue is empty")
			return nil
		}
		each(h.queue, func(i int, x interface{}) {
			h.say("%d. %s", i, x)
		})
		return nil
	}

	if ss = drop.FindStringSubmatch(line); 0 < len(ss) {
		if h.queue.Empty() {
			h.protest("queue is empty")
			return nil
		}
		h.queue.PopFront()
		h.say("queue now has %d lines", h.queue.Len())
		return nil
	}

	if ss = pop.FindStringSubmatch(line); 0 < len(ss) {
		if h.queue.Empty() {
			h.protest("queue is empty")
			return nil
		}
		input := h.queue.PopFront().(string)
		h.say("processing %s", input)
		line = "run " + input
		// Fall through!
	}

	if ss = debug.FindStringSubmatch(line); 0 < len(ss) {
		switch ss[2] {
		case "on":
			h.debugging = true
			h.say("debugging")
		case "off":
			h.debugging = false
			h.say("not debugging")
		}
		util.Logging = h.debugging
		if h.Session != nil {
			h.Session.Debug = h.debugging
		}
		return nil
	}

	if ss = matchPattern.FindStringSubmatch(line); 0 < len(ss) {
		pattern, subject := ss[1], match.Normalize(ss[2])
		var (
			vars core.VarStore = core.NewVars()
			reg  core.Registry
		)
		if h.Session != nil {
			vars, reg = h.Session.Vars, h.Session.World
		}
		r, err := h.Matcher.Match(ctx, pattern, subject, core.ReadOnly(vars), reg)
		if err != nil {
			h.protest("%s", err)
			return nil
		}
		if r.Matched {
			h.say("%s (%d steps)", color.GreenString("matched"), r.Steps)
		} else {
			h.say("%s (%d steps)", color.YellowString("no match"), r.Steps)
		}
		h.sayEntities(core.Characters, r.Characters)
		h.sayEntities(core.Objects, r.Objects)
		return nil
	}

	if ss = evalNumeric.FindStringSubmatch(line); 0 < len(ss) {
		n, err := expr.EvalNumeric(ss[1], h.vars())
		if err != nil {
			h.protest("%s", err)
			return nil
		}
		h.say("%d", n)
		return nil
	}

	if ss = evalText.FindStringSubmatch(line); 0 < len(ss) {
		s, err := expr.EvalString(ss[1], h.vars())
		if err != nil {
			h.protest("%s", err)
			return nil
		}
		h.say("%q", s)
		return nil
	}

	// Everything else needs a session.
	if h.Session == nil {
		if h.supported(line) {
			h.protest("no game loaded")
			return nil
		}
		h.unsupported(line)
		return nil
	}
	s := h.Session

	if ss = restart.FindStringSubmatch(line); 0 < len(ss) {
		fresh, err := h.Game.NewSession(h.Matcher)
		if err != nil {
			return err // Internal error
		}
		fresh.Debug = h.debugging
		h.Session = fresh
		h.say("restarted")
		return nil
	}

	if ss = send.FindStringSubmatch(line); 0 < len(ss) {
		input := ss[2]
		h.remember(input)
		strides, err := s.Step(ctx, input)
		if err != nil {
			h.protest("step failed: %s", err)
		}
		Render(h.w, outputPrefix, strides)
		if h.debugging {
			js, _ := json.MarshalIndent(strides, "  ", "  ")
			fmt.Fprintln(h.w, string(js))
		}
		return nil
	}

	if ss = setVar.FindStringSubmatch(line); 0 < len(ss) {
		name, val := ss[1], ss[2]
		if n, err := strconv.Atoi(val); err == nil {
			s.Vars.SetInt(name, n)
		} else {
			if uq, err := strconv.Unquote(val); err == nil {
				val = uq
			}
			s.Vars.SetText(name, val)
		}
		v, _ := s.Vars.Get(name)
		h.say("%s = %s", strings.ToLower(name), v)
		return nil
	}

	if ss = gotoRoom.FindStringSubmatch(line); 0 < len(ss) {
		s.World.PlayerRoom = ss[1]
		h.say("player is in %s", s.World.PlayerRoom)
		return nil
	}

	if ss = print.FindStringSubmatch(line); 0 < len(ss) {
		if name := ss[2]; name != "" {
			v, have := s.Vars.Get(name)
			if !have {
				h.protest("no variable '%s'", name)
				return nil
			}
			h.say("%s = %s (%s)", name, v, v.Type)
			return nil
		}
		h.say("  game:   %s", h.Game.Name)
		h.say("  room:   %s", s.World.PlayerRoom)
		h.say("  turns:  %d", s.Turns)
		js, err := json.Marshal(s.Vars)
		if err != nil {
			return err // Internal error
		}
		h.say("  vars:   %s", js)
		return nil
	}

	if ss = world.FindStringSubmatch(line); 0 < len(ss) {
		h.say("player is in %s", s.World.PlayerRoom)
		for _, class := range []core.Class{core.Characters, core.Objects} {
			for i, n := 0, s.World.Count(class); i < n; i++ {
				e := s.World.Entity(class, i)
				flags := ""
				if e.Seen {
					flags += " seen"
				}
				if s.World.Reachable(class, i) {
					flags += color.GreenString(" reachable")
				}
				h.say("  %s %d %-16s %-10s%s", class, i, e.FullName(), e.Room, flags)
			}
		}
		return nil
	}

	if ss = pronouns.FindStringSubmatch(line); 0 < len(ss) {
		p := s.Pronouns
		for _, b := range []struct {
			word  string
			class core.Class
			i     int
		}{
			{"it/them", core.Objects, p.Object},
			{"him", core.Characters, p.Male},
			{"her", core.Characters, p.Female},
			{"it (character)", core.Characters, p.Neuter},
		} {
			name := "-"
			if e := s.World.Entity(b.class, b.i); e != nil {
				name = e.FullName()
			}
			h.say("  %-15s %s", b.word, name)
		}
		return nil
	}

	if ss = save.FindStringSubmatch(line); 0 < len(ss) {
		filename := ss[1]
		js, err := json.MarshalIndent(s.State(), "", "  ")
		if err != nil {
			return err // Internal error
		}
		if err = ioutil.WriteFile(filename, js, 0644); err != nil {
			h.protest("writing file: %s", err)
			return nil
		}
		h.say("saved %s", filename)
		return nil
	}

	if ss = restore.FindStringSubmatch(line); 0 < len(ss) {
		filename := ss[1]
		js, err := ioutil.ReadFile(filename)
		if err != nil {
			h.protest("reading file '%s': %s", filename, err)
			return nil
		}
		var st game.State
		if err = json.Unmarshal(js, &st); err != nil {
			h.protest("loading data from %s: %s", filename, err)
			return nil
		}
		if err = s.Restore(&st); err != nil {
			h.protest("%s", err)
			return nil
		}
		h.say("restored %s (turn %d)", filename, s.Turns)
		return nil
	}

	h.unsupported(line)
	return nil
}

func (h *Host) vars() core.VarStore {
	if h.Session == nil {
		return core.NewVars()
	}
	return core.ReadOnly(h.Session.Vars)
}

func (h *Host) sayEntities(class core.Class, is []int) {
	for _, i := range is {
		name := "?"
		if h.Session != nil {
			if e := h.Session.World.Entity(class, i); e != nil {
				name = e.FullName()
			}
		}
		h.say("  %s %d %s", class, i, name)
	}
}

func (h *Host) supported(line string) bool {
	word := strings.Fields(line)[0]
	for _, c := range commands {
		if c == word {
			return true
		}
	}
	return word == ">"
}

func (h *Host) unsupported(line string) {
	h.protest("unsupported command: %s", line)
	if suggestion := game.Suggest(line, commands); suggestion != "" {
		h.say("did you mean '%s'?", suggestion)
	}
}

func doc() string {
	return `
  load FILENAME              Load and start the game in that file
  reload                     Reload the last game
  restart                    Start the current game over
  run LINE (or > LINE)       Give the player's input to the game
  queue LINE                 Add a line to the input queue
  printqueue                 Show the input queue
  pop                        Run the first line in the queue
  drop                       Drop the first line in the queue
  history                    Show recent input
  set VAR VALUE              Set a variable (integer or text)
  goto ROOM                  Move the player
  print [VAR]                Print the session (or one variable)
  world                      Print characters and objects
  pronouns                   Print pronoun bindings
  match PATTERN :: INPUT     Try a pattern against some input
  eval EXPR                  Evaluate a numeric expression
  text EXPR                  Evaluate a text expression
  save FILENAME              Save the session state to this file
  restore FILENAME           Restore the session state from this file
  debug on/off               When debugging, show stride details
  help                       Show this documentation
`
}

// Render writes strides in the debugger's format.
func Render(w io.Writer, prefix string, strides []*game.Stride) {
	for i, st := range strides {
		status := color.GreenString(st.Matched)
		if !st.Understood {
			status = color.YellowString("not understood")
		}
		fmt.Fprintf(w, "%s%02d %q %s\n", prefix, i, st.Input, status)
		if st.Expanded {
			fmt.Fprintf(w, "%s   as %q\n", prefix, st.Command)
		}
		for _, out := range st.Output {
			fmt.Fprintf(w, "%s   %s\n", prefix, out)
		}
		if st.Suggestion != "" {
			fmt.Fprintf(w, "%s   %s\n", prefix, color.CyanString("try '%s'", st.Suggestion))
		}
	}
}
