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

package game

import (
	"context"
	"errors"
	"log"
	"strings"

	"github.com/Comcast/parley/core"
	"github.com/Comcast/parley/match"
	"github.com/Comcast/parley/pronoun"
)

var (
	// Separators split a line of input into commands.
	Separators = ".,"

	// Again are the inputs that repeat the last command.
	Again = []string{"again", "g"}

	// CannotRepeat is the response to "again" with nothing to
	// repeat.
	CannotRepeat = "You can hardly repeat that."

	// ErrNotCompiled is returned by NewSession for a Game that
	// hasn't been compiled.
	ErrNotCompiled = errors.New("game not compiled")
)

// Session is one player's game in progress.
//
// A Session is not safe for concurrent use.
type Session struct {
	Game     *Game
	Vars     *core.Vars
	World    *core.World
	Pronouns *pronoun.Pronouns
	Matcher  *match.Matcher

	// Turns counts understood commands.
	Turns int

	// Echo, when true, reports the rewritten command (after
	// pronoun expansion) in each Stride's output.
	Echo bool

	// Debug turns on some logging.
	Debug bool

	prior string
}

// Stride reports what happened to one command.
type Stride struct {
	// Input is the command as the player typed it.
	Input string `json:"input"`

	// Command is the input after normalization and pronoun
	// expansion.
	Command string `json:"command,omitempty"`

	// Expanded is true when a pronoun was replaced.
	Expanded bool `json:"expanded,omitempty"`

	// Understood is true if some command ran.
	Understood bool `json:"understood"`

	// Matched is the name of the command that ran.
	Matched string `json:"matched,omitempty"`

	// Output is what the player should see.
	Output []string `json:"output,omitempty"`

	// Suggestion is a known verb that resembles an input that
	// wasn't understood.
	Suggestion string `json:"suggestion,omitempty"`
}

// NewSession starts a game.  The Game must be compiled.
func (g *Game) NewSession(m *match.Matcher) (*Session, error) {
	if !g.compiled {
		return nil, ErrNotCompiled
	}
	if m == nil {
		m = match.DefaultMatcher
	}
	s := &Session{
		Game:     g,
		Vars:     g.vars.Copy(),
		World:    g.World(),
		Pronouns: pronoun.New(g.LegacyPronouns),
		Matcher:  m,
	}
	s.Pronouns.Matcher = m
	s.look()
	return s, nil
}

func (s *Session) logf(format string, args ...interface{}) {
	if s.Debug {
		log.Printf(format, args...)
	}
}

// Intro renders the game's introduction.
func (s *Session) Intro() string {
	return Render(s.Game.Intro, s.Vars, s.World)
}

// look marks everything the player can reach as seen.
func (s *Session) look() {
	for _, class := range []core.Class{core.Characters, core.Objects} {
		for i, n := 0, s.World.Count(class); i < n; i++ {
			if s.World.Reachable(class, i) {
				s.World.Entity(class, i).Seen = true
			}
		}
	}
}

// Split breaks a line into commands at Separators.  The first
// character always belongs to the first command, so that "." is one
// (not understood) command rather than two empty ones.
func Split(line string) []string {
	line = strings.TrimSpace(line)
	acc := make([]string, 0, 2)
	for line != "" {
		n := 1 + strings.IndexAny(line[1:], Separators)
		if n == 0 {
			n = len(line)
		}
		acc = append(acc, strings.TrimSpace(line[:n]))
		if n < len(line) {
			n++
		}
		line = strings.TrimSpace(line[n:])
	}
	return acc
}

func isAgain(s string) bool {
	for _, a := range Again {
		if strings.EqualFold(s, a) {
			return true
		}
	}
	return false
}

// Step runs a line of player input, which can contain several
// commands.  Processing stops after the first command that isn't
// understood.
func (s *Session) Step(ctx context.Context, line string) ([]*Stride, error) {
	elements := Split(line)
	acc := make([]*Stride, 0, len(elements))
	for _, element := range elements {
		st, err := s.step(ctx, element)
		if err != nil {
			return acc, err
		}
		acc = append(acc, st)
		if !st.Understood {
			break
		}
	}
	return acc, nil
}

func (s *Session) step(ctx context.Context, element string) (*Stride, error) {
	st := &Stride{
		Input: element,
	}

	if isAgain(element) {
		if s.prior == "" {
			st.Understood = true
			st.Output = append(st.Output, CannotRepeat)
			return st, nil
		}
		element = s.prior
	}

	command, expanded := s.Pronouns.Expand(match.Normalize(element), s.World)
	st.Command, st.Expanded = command, expanded
	if expanded && s.Echo {
		st.Output = append(st.Output, "["+command+"]")
	}

	c, err := s.run(ctx, st, command)
	if err != nil {
		return nil, err
	}

	if c == nil {
		if command == "" {
			st.Understood = true
			return st, nil
		}
		s.Vars.SetRefText(match.Normalize(element))
		st.Output = append(st.Output, Render(s.Game.NotUnderstood, s.Vars, s.World))
		st.Suggestion = Suggest(command, s.Game.Verbs())
		return st, nil
	}

	st.Understood = true
	st.Matched = c.Name
	s.Turns++
	s.prior = element

	if err = s.Pronouns.Assign(ctx, command, s.Vars, s.World); err != nil {
		return nil, err
	}

	return st, nil
}

// run tries each command in order.  Returns the command that ran, if
// any.
func (s *Session) run(ctx context.Context, st *Stride, command string) (*Command, error) {
	env := &core.Env{
		Vars:     s.Vars,
		Registry: s.World,
		Props: map[string]interface{}{
			"turns": s.Turns,
			"game":  s.Game.Name,
		},
	}

	for _, c := range s.Game.Commands {
		matched, err := s.matches(ctx, c, command)
		if err != nil {
			return nil, err
		}
		if !matched {
			continue
		}
		s.logf("debug: %q matched %s", command, c.Name)

		if c.condition != nil {
			x, err := c.condition.Exec(ctx, env)
			if err != nil {
				return nil, &CommandError{Command: c.Name, Err: err}
			}
			if !core.Truthy(x) {
				if c.otherwise == nil {
					continue
				}
				out, err := s.render(ctx, env, c.otherwise)
				if err != nil {
					return nil, &CommandError{Command: c.Name, Err: err}
				}
				st.Output = append(st.Output, out)
				return c, nil
			}
		}

		if err = s.execute(ctx, env, c); err != nil {
			return nil, &CommandError{Command: c.Name, Err: err}
		}

		if c.response != nil {
			out, err := s.render(ctx, env, c.response)
			if err != nil {
				return nil, &CommandError{Command: c.Name, Err: err}
			}
			st.Output = append(st.Output, out)
		}

		return c, nil
	}

	return nil, nil
}

func (s *Session) matches(ctx context.Context, c *Command, command string) (bool, error) {
	for _, p := range c.Patterns {
		r, err := s.Matcher.Match(ctx, p, command, s.Vars, s.World)
		if err != nil {
			return false, &CommandError{Command: c.Name, Err: err}
		}
		if r.Matched {
			return true, nil
		}
	}
	return false, nil
}

// execute does the command's effects.
func (s *Session) execute(ctx context.Context, env *core.Env, c *Command) error {
	for _, a := range c.set {
		x, err := a.action.Exec(ctx, env)
		if err != nil {
			return err
		}
		switch vv := x.(type) {
		case int:
			s.Vars.SetInt(a.name, vv)
		case string:
			s.Vars.SetText(a.name, vv)
		case bool:
			n := 0
			if vv {
				n = 1
			}
			s.Vars.SetInt(a.name, n)
		default:
			s.Vars.SetText(a.name, core.AsText(x))
		}
	}

	if c.Take || c.Drop {
		i := s.Vars.Refs.Object
		e := s.World.Entity(core.Objects, i)
		if e == nil {
			return &core.UnknownEntity{Class: core.Objects, Index: i}
		}
		if c.Take {
			e.Room = core.Carried
		} else {
			e.Room = s.World.PlayerRoom
		}
	}

	if c.Goto != "" {
		s.World.PlayerRoom = c.Goto
	}

	s.look()

	return nil
}

func (s *Session) render(ctx context.Context, env *core.Env, t *text) (string, error) {
	if t.action == nil {
		return Render(t.template, s.Vars, s.World), nil
	}
	x, err := t.action.Exec(ctx, env)
	if err != nil {
		return "", err
	}
	return core.AsText(x), nil
}
