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

// Package game ties patterns, expressions, and pronouns together
// into a playable command loop.
//
// A Game is usually read from YAML:
//
//   name: cellar
//   playerRoom: kitchen
//   variables:
//     score: 0
//   objects:
//     - name: lamp
//       prefix: brass
//       room: kitchen
//   commands:
//     - name: take
//       patterns: ["{get/take/pick up} %object%"]
//       condition: "%score% < 10"
//       response: "You take the %object%."
//       take: true
//
// Then a Session, made with Game.NewSession, runs player input
// through the commands.
package game

import (
	"context"
	"errors"
	"fmt"
	"io/ioutil"
	"sort"
	"strings"

	"github.com/Comcast/parley/core"
	"github.com/Comcast/parley/match"

	"github.com/jsccast/yaml"
)

var (
	// DefaultNotUnderstood is the response when no command
	// matches and the Game doesn't say otherwise.
	DefaultNotUnderstood = "I don't understand \"%text%\"."

	// DefaultResponseInterpreter is used for a Response or
	// Otherwise that names an interpreter other than the
	// template renderer.
	DefaultResponseInterpreter = "native-text"
)

// Game is the static description of a game.
type Game struct {
	Name    string `json:"name,omitempty" yaml:",omitempty"`
	Version string `json:"version,omitempty" yaml:",omitempty"`
	Doc     string `json:"doc,omitempty" yaml:",omitempty"`

	// LegacyPronouns is for older games without character
	// genders.
	LegacyPronouns bool `json:"legacyPronouns,omitempty" yaml:"legacyPronouns,omitempty"`

	// Variables are the initial game variables.  Values are
	// integers or strings.
	Variables map[string]interface{} `json:"variables,omitempty" yaml:",omitempty"`

	PlayerRoom string         `json:"playerRoom,omitempty" yaml:"playerRoom,omitempty"`
	Characters []*core.Entity `json:"characters,omitempty" yaml:",omitempty"`
	Objects    []*core.Entity `json:"objects,omitempty" yaml:",omitempty"`

	// Commands are tried in order.
	Commands []*Command `json:"commands,omitempty" yaml:",omitempty"`

	// NotUnderstood is the template rendered when no command
	// matches.  The input is available as %text%.
	NotUnderstood string `json:"notUnderstood,omitempty" yaml:"notUnderstood,omitempty"`

	// Intro is rendered when a session starts.
	Intro string `json:"intro,omitempty" yaml:",omitempty"`

	vars     *core.Vars
	compiled bool
}

// Command is one thing the player can do.
type Command struct {
	Name string `json:"name,omitempty" yaml:",omitempty"`
	Doc  string `json:"doc,omitempty" yaml:",omitempty"`

	// Patterns are the ways of saying this command.  The first
	// that matches wins.
	Patterns []string `json:"patterns" yaml:"patterns"`

	// Condition, if given, must be true for the command to run.
	// Defaults to the native (numeric) interpreter.
	Condition *core.Source `json:"condition,omitempty" yaml:",omitempty"`

	// Response is what the player sees.  Without an interpreter,
	// it's a template with %variable% substitutions.
	Response *core.Source `json:"response,omitempty" yaml:",omitempty"`

	// Otherwise, if given, is the response when the pattern
	// matches but the condition doesn't hold.  Without it, later
	// commands get a chance.
	Otherwise *core.Source `json:"otherwise,omitempty" yaml:",omitempty"`

	// Set assigns game variables after the command runs.
	// Defaults to the native interpreter.
	Set map[string]*core.Source `json:"set,omitempty" yaml:",omitempty"`

	// Goto moves the player to another room.
	Goto string `json:"goto,omitempty" yaml:",omitempty"`

	// Take and Drop move the referenced object to or from the
	// player.
	Take bool `json:"take,omitempty" yaml:",omitempty"`
	Drop bool `json:"drop,omitempty" yaml:",omitempty"`

	condition core.Action
	response  *text
	otherwise *text
	set       []assignment
}

// text is either a template or an action that makes text.
type text struct {
	template string
	action   core.Action
}

type assignment struct {
	name   string
	action core.Action
}

// ParseGame reads a Game from YAML (or JSON).
func ParseGame(bs []byte) (*Game, error) {
	var g Game
	if err := yaml.Unmarshal(bs, &g); err != nil {
		return nil, err
	}
	return &g, nil
}

// ReadGame reads a Game from a file.
func ReadGame(filename string) (*Game, error) {
	bs, err := ioutil.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	return ParseGame(bs)
}

// CommandError says which command couldn't compile.
type CommandError struct {
	Command string
	Index   int
	Err     error
}

func (e *CommandError) Error() string {
	name := e.Command
	if name == "" {
		name = fmt.Sprintf("#%d", e.Index)
	}
	return fmt.Sprintf("command %s: %s", name, e.Err)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

func asValue(name string, x interface{}) (core.Value, error) {
	switch vv := x.(type) {
	case int:
		return core.IntValue(vv), nil
	case int64:
		return core.IntValue(int(vv)), nil
	case float64:
		if vv != float64(int(vv)) {
			return core.Value{}, fmt.Errorf("variable %s: %v isn't an integer", name, vv)
		}
		return core.IntValue(int(vv)), nil
	case string:
		return core.TextValue(vv), nil
	case bool:
		if vv {
			return core.IntValue(1), nil
		}
		return core.IntValue(0), nil
	default:
		return core.Value{}, fmt.Errorf("variable %s: bad value %#v (%T)", name, x, x)
	}
}

func compileText(ctx context.Context, src *core.Source, interpreters core.InterpretersMap) (*text, error) {
	if src == nil {
		return nil, nil
	}
	if src.Interpreter == "" || src.Interpreter == "template" {
		s, is := src.Source.(string)
		if !is {
			return nil, fmt.Errorf("template should be a string, not a %T", src.Source)
		}
		return &text{template: s}, nil
	}
	action, err := src.Compile(ctx, interpreters)
	if err != nil {
		return nil, err
	}
	return &text{action: action}, nil
}

// Compile checks every pattern and compiles every condition,
// response, and assignment.
//
// The given Matcher (if any) is given the patterns so that they are
// cached.
func (g *Game) Compile(ctx context.Context, interpreters core.InterpretersMap, m *match.Matcher, force bool) error {
	if g.compiled && !force {
		return nil
	}

	vars := core.NewVars()
	for name, x := range g.Variables {
		v, err := asValue(name, x)
		if err != nil {
			return err
		}
		vars.Set(name, v)
	}
	g.vars = vars

	if g.NotUnderstood == "" {
		g.NotUnderstood = DefaultNotUnderstood
	}

	for i, c := range g.Commands {
		if c == nil {
			return &CommandError{Index: i, Err: errors.New("empty command")}
		}
		wrap := func(err error) error {
			return &CommandError{Command: c.Name, Index: i, Err: err}
		}

		if len(c.Patterns) == 0 {
			return wrap(errors.New("no patterns"))
		}
		for _, p := range c.Patterns {
			var err error
			if m != nil {
				err = m.Compile(p)
			} else {
				_, err = match.Parse(p)
			}
			if err != nil {
				return wrap(err)
			}
		}

		c.condition = nil
		if c.Condition != nil {
			action, err := c.Condition.Compile(ctx, interpreters)
			if err != nil {
				return wrap(err)
			}
			c.condition = action
		}

		var err error
		if c.response, err = compileText(ctx, c.Response, interpreters); err != nil {
			return wrap(err)
		}
		if c.otherwise, err = compileText(ctx, c.Otherwise, interpreters); err != nil {
			return wrap(err)
		}

		names := make([]string, 0, len(c.Set))
		for name := range c.Set {
			names = append(names, name)
		}
		sort.Strings(names)
		c.set = c.set[:0]
		for _, name := range names {
			src := c.Set[name]
			if src == nil {
				return wrap(fmt.Errorf("nothing to set %s to", name))
			}
			action, err := src.Compile(ctx, interpreters)
			if err != nil {
				return wrap(err)
			}
			c.set = append(c.set, assignment{
				name:   strings.ToLower(name),
				action: action,
			})
		}

		if (c.Take || c.Drop) && !mentions(c.Patterns, "%object%") {
			return wrap(errors.New("take or drop without an %object%"))
		}
	}

	g.compiled = true

	return nil
}

func mentions(patterns []string, ref string) bool {
	for _, p := range patterns {
		if strings.Contains(strings.ToLower(p), ref) {
			return true
		}
	}
	return false
}

// World makes a fresh copy of the game's initial world.
func (g *Game) World() *core.World {
	copyAll := func(es []*core.Entity) []*core.Entity {
		acc := make([]*core.Entity, len(es))
		for i, e := range es {
			acc[i] = e.Copy()
		}
		return acc
	}
	return &core.World{
		PlayerRoom: g.PlayerRoom,
		Characters: copyAll(g.Characters),
		Objects:    copyAll(g.Objects),
	}
}

// Verbs returns the words that can start each command (once each,
// in command order).  That's the first word of a pattern or, when a
// pattern starts with a group, the first word of each alternative.
func (g *Game) Verbs() []string {
	var (
		acc  = make([]string, 0, len(g.Commands))
		seen = make(map[string]bool)
	)
	for _, c := range g.Commands {
		for _, p := range c.Patterns {
			for _, w := range leadingWords(p) {
				if !seen[w] {
					seen[w] = true
					acc = append(acc, w)
				}
			}
		}
	}
	return acc
}

func leadingWords(pattern string) []string {
	var (
		acc   []string
		l     = match.NewLexer(pattern)
		fresh = true
		depth = 0
	)
	for {
		t := l.Next()
		switch t.Kind {
		case match.TokEOS, match.TokInvalid:
			return acc
		case match.TokWhitespace:
		case match.TokLBrace, match.TokLBracket:
			depth++
			fresh = true
		case match.TokSlash:
			fresh = true
		case match.TokRBrace:
			// An optional group can be skipped, so what
			// follows can also start the command.
			depth--
			fresh = depth == 0
		case match.TokRBracket:
			depth--
			if depth <= 0 {
				return acc
			}
			fresh = false
		case match.TokWord:
			if fresh {
				acc = append(acc, strings.ToLower(t.Text))
			}
			if depth <= 0 {
				return acc
			}
			fresh = false
		default:
			if depth <= 0 {
				return acc
			}
			fresh = false
		}
	}
}
