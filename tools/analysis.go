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
	"io"
	"regexp"
	"sort"
	"strings"

	"github.com/Comcast/parley/core"
	"github.com/Comcast/parley/game"
	"github.com/Comcast/parley/match"

	"github.com/jsccast/yaml"
)

// GameAnalysis reports on a game's structure and on likely mistakes.
type GameAnalysis struct {
	game *game.Game

	Errors     []string `yaml:"errors,omitempty"`
	Commands   int      `yaml:"commands"`
	Patterns   int      `yaml:"patterns"`
	Conditions int      `yaml:"conditions"`

	// Scripts counts sources that name an interpreter.
	Scripts int `yaml:"scripts"`

	// Verbs are the words that can start a command.
	Verbs []string `yaml:"verbs,omitempty"`

	// Rooms are all rooms mentioned anywhere.
	Rooms []string `yaml:"rooms,omitempty"`

	// UnreachableRooms have entities but no way to get there.
	UnreachableRooms []string `yaml:"unreachableRooms,omitempty"`

	// Shadowed are commands with a pattern that an earlier command
	// already has, so that pattern never reaches them.
	Shadowed []string `yaml:"shadowed,omitempty"`

	// UnknownVariables are referenced but never declared.
	UnknownVariables []string `yaml:"unknownVariables,omitempty"`

	// DuplicateNames are command names used more than once.
	DuplicateNames []string `yaml:"duplicateNames,omitempty"`

	Interpreters []string `yaml:"interpreters,omitempty"`
}

var templateVariable = regexp.MustCompile(`%([A-Za-z_][A-Za-z0-9_]*)%`)

// builtin variables that every session can render.
var builtinVariables = map[string]bool{
	"character": true,
	"object":    true,
	"number":    true,
	"text":      true,
}

// Analyze examines a game without compiling it.
func Analyze(g *game.Game) (*GameAnalysis, error) {
	a := GameAnalysis{
		game:     g,
		Commands: len(g.Commands),
		Errors:   make([]string, 0, 8),
	}

	var (
		declared     = make(map[string]bool, len(g.Variables))
		referenced   = make(map[string]bool)
		interpreters = make(map[string]bool)
		rooms        = make(map[string]bool)
		targets      = make(map[string]bool)
		inhabited    = make(map[string]bool)
		patterns     = make(map[string]string)
		names        = make(map[string]int)
		shadowed     = make(map[string]bool)
	)

	for name := range g.Variables {
		declared[strings.ToLower(name)] = true
	}

	refer := func(s string) {
		for _, m := range templateVariable.FindAllStringSubmatch(s, -1) {
			referenced[strings.ToLower(m[1])] = true
		}
	}

	source := func(src *core.Source, def string) {
		if src == nil {
			return
		}
		in := src.Interpreter
		if in == "" {
			in = def
		} else if in != "template" {
			a.Scripts++
		}
		interpreters[in] = true
		if s, is := src.Source.(string); is {
			refer(s)
		}
	}

	if g.PlayerRoom != "" {
		rooms[g.PlayerRoom] = true
		targets[g.PlayerRoom] = true
	}
	for _, es := range [][]*core.Entity{g.Characters, g.Objects} {
		for _, e := range es {
			if e.Room != "" && e.Room != core.Carried {
				rooms[e.Room] = true
				inhabited[e.Room] = true
			}
		}
	}

	refer(g.Intro)
	refer(g.NotUnderstood)

	for _, c := range g.Commands {
		names[c.Name]++
		if len(c.Patterns) == 0 {
			a.Errors = append(a.Errors, "command "+c.Name+" has no patterns")
		}
		for _, p := range c.Patterns {
			a.Patterns++
			t, err := match.Parse(p)
			if err != nil {
				a.Errors = append(a.Errors, "command "+c.Name+": "+err.Error())
				continue
			}
			canonical := t.String()
			if earlier, have := patterns[canonical]; have && earlier != c.Name {
				shadowed[c.Name] = true
			} else if !have {
				patterns[canonical] = c.Name
			}
			t.Walk(func(id match.NodeID, depth int) {
				if t.Kind(id) == match.Variable {
					referenced[strings.ToLower(t.Text(id))] = true
				}
			})
		}
		if c.Condition != nil {
			a.Conditions++
		}
		source(c.Condition, core.DefaultInterpreter)
		source(c.Response, "template")
		source(c.Otherwise, "template")
		for name, src := range c.Set {
			declared[strings.ToLower(name)] = true
			source(src, core.DefaultInterpreter)
		}
		if c.Goto != "" {
			rooms[c.Goto] = true
			targets[c.Goto] = true
		}
	}

	unknown := make(map[string]bool)
	for name := range referenced {
		if !declared[name] && !builtinVariables[name] {
			unknown[name] = true
		}
	}

	unreachable := make(map[string]bool)
	for room := range inhabited {
		if !targets[room] {
			unreachable[room] = true
		}
	}

	duplicates := make(map[string]bool)
	for name, n := range names {
		if 1 < n {
			duplicates[name] = true
		}
	}

	a.Verbs = g.Verbs()
	a.Rooms = keysToStringSlice(rooms)
	a.UnreachableRooms = keysToStringSlice(unreachable)
	a.Shadowed = keysToStringSlice(shadowed)
	a.UnknownVariables = keysToStringSlice(unknown)
	a.DuplicateNames = keysToStringSlice(duplicates)
	a.Interpreters = keysToStringSlice(interpreters)

	return &a, nil
}

// Report writes the analysis as YAML.
func (a *GameAnalysis) Report(w io.Writer) error {
	bs, err := yaml.Marshal(a)
	if err != nil {
		return err
	}
	_, err = w.Write(bs)
	return err
}

// keysToStringSlice returns the map's keys in order.
func keysToStringSlice(m map[string]bool) []string {
	list := make([]string, 0, len(m))
	for key := range m {
		list = append(list, key)
	}
	sort.Strings(list)
	return list
}
