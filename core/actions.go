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

package core

import (
	"context"
	"errors"
	"strconv"
	"strings"
)

var (
	// InterpreterNotFound occurs when you try to Compile a Source
	// and the required interpreter isn't in the given map of
	// interpreters.
	InterpreterNotFound = errors.New("interpreter not found")

	// DefaultInterpreters will be used in Source.Compile if given
	// nil interpreters.
	//
	// Packages under interpreters/ register themselves here.
	DefaultInterpreters = NewInterpretersMap()

	// DefaultInterpreter is the name used when a Source doesn't
	// say.
	DefaultInterpreter = "native"
)

// Env is what an interpreter can see when it runs game code.
type Env struct {
	Vars     VarStore
	Registry Registry

	// Props are opaque extras (session id, turn number, ...).
	Props map[string]interface{}
}

// Interpreter can optionally compile and then evaluate game code
// (conditions and computed text).
type Interpreter interface {
	// Compile can make something that helps when Exec()ing the
	// code later.
	Compile(ctx context.Context, code interface{}) (interface{}, error)

	// Exec evaluates the code.  The result of previous Compile()
	// might be provided.
	//
	// The result is an int, a string, a bool, or nil.
	Exec(ctx context.Context, env *Env, code interface{}, compiled interface{}) (interface{}, error)
}

// InterpretersMap maps names to Interpreters.
type InterpretersMap map[string]Interpreter

func NewInterpretersMap() InterpretersMap {
	return make(InterpretersMap, 4)
}

// Find returns the named interpreter (or nil).
func (m InterpretersMap) Find(name string) Interpreter {
	return m[name]
}

// Action is compiled game code ready to run.
type Action interface {
	Exec(ctx context.Context, env *Env) (interface{}, error)
}

// FuncAction is an Action backed by a Go function.
type FuncAction struct {
	F func(ctx context.Context, env *Env) (interface{}, error)
}

// Exec runs the given action.
func (a *FuncAction) Exec(ctx context.Context, env *Env) (interface{}, error) {
	if a == nil || a.F == nil {
		return nil, nil
	}
	return a.F(ctx, env)
}

// Source can be compiled to an Action.
type Source struct {
	Interpreter string      `json:"interpreter,omitempty" yaml:",omitempty"`
	Source      interface{} `json:"source" yaml:"source"`
}

// Copy makes a shallow copy.
func (s *Source) Copy() *Source {
	if s == nil {
		return nil
	}
	return &Source{
		Interpreter: s.Interpreter,
		Source:      s.Source,
	}
}

// UnmarshalYAML lets a game file give a bare string, which is then
// code for the DefaultInterpreter.
func (s *Source) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var code string
	if err := unmarshal(&code); err == nil {
		s.Source = code
		return nil
	}
	var full struct {
		Interpreter string      `yaml:"interpreter"`
		Source      interface{} `yaml:"source"`
	}
	if err := unmarshal(&full); err != nil {
		return err
	}
	s.Interpreter = full.Interpreter
	s.Source = full.Source
	return nil
}

// Compile attempts to compile the Source into an Action using the
// given interpreters, which defaults to DefaultInterpreters.
func (s *Source) Compile(ctx context.Context, interpreters InterpretersMap) (Action, error) {
	if interpreters == nil {
		interpreters = DefaultInterpreters
	}

	name := s.Interpreter
	if name == "" {
		name = DefaultInterpreter
	}

	interpreter, have := interpreters[name]
	if !have {
		return nil, InterpreterNotFound
	}

	x, err := interpreter.Compile(ctx, s.Source)
	if err != nil {
		return nil, err
	}

	return &FuncAction{
		F: func(ctx context.Context, env *Env) (interface{}, error) {
			return interpreter.Exec(ctx, env, s.Source, x)
		},
	}, nil
}

// Truthy interprets an action result as a condition.
//
// Non-zero numbers, non-empty strings other than "false" and "0", and
// true are true.
func Truthy(x interface{}) bool {
	switch vv := x.(type) {
	case nil:
		return false
	case bool:
		return vv
	case int:
		return vv != 0
	case int64:
		return vv != 0
	case float64:
		return vv != 0
	case string:
		switch strings.ToLower(strings.TrimSpace(vv)) {
		case "", "0", "false":
			return false
		}
		return true
	default:
		return true
	}
}

// AsText renders an action result as text.
func AsText(x interface{}) string {
	switch vv := x.(type) {
	case nil:
		return ""
	case string:
		return vv
	case int:
		return strconv.Itoa(vv)
	case int64:
		return strconv.FormatInt(vv, 10)
	case float64:
		return strconv.FormatFloat(vv, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(vv)
	default:
		return JS(x)
	}
}
