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
	"strconv"
	"strings"
)

// Type is the declared type of a game variable.
type Type int

const (
	Integer Type = iota
	Text
)

func (t Type) String() string {
	switch t {
	case Integer:
		return "integer"
	case Text:
		return "text"
	default:
		return "unknown"
	}
}

// Value is a typed game variable value.
type Value struct {
	Type Type   `json:"type" yaml:"type"`
	Int  int    `json:"int,omitempty" yaml:"int,omitempty"`
	Text string `json:"text,omitempty" yaml:"text,omitempty"`
}

// IntValue makes an Integer Value.
func IntValue(n int) Value {
	return Value{Type: Integer, Int: n}
}

// TextValue makes a Text Value.
func TextValue(s string) Value {
	return Value{Type: Text, Text: s}
}

// String renders the value the way the pattern matcher compares it:
// integers in canonical decimal, text as is.
func (v Value) String() string {
	if v.Type == Integer {
		return strconv.Itoa(v.Int)
	}
	return v.Text
}

// VarStore is what expressions and patterns need from the game's
// variables.
//
// The four reference setters are only called as side effects of a
// successful reference match.  Last write wins.
type VarStore interface {
	Get(name string) (Value, bool)

	SetRefCharacter(i int)
	SetRefObject(i int)
	SetRefNumber(n int)
	SetRefText(s string)
}

// Refs holds the "last matched" reference slots.
//
// A negative index means nothing has been referenced yet.
type Refs struct {
	Character int    `json:"character" yaml:"character"`
	Object    int    `json:"object" yaml:"object"`
	Number    int    `json:"number" yaml:"number"`
	Text      string `json:"text" yaml:"text"`
}

// NoRefs is the initial state of a Refs.
func NoRefs() Refs {
	return Refs{
		Character: -1,
		Object:    -1,
	}
}

// Vars is a simple in-memory VarStore.
//
// Names are case-insensitive.  The names "number" and "text", when not
// shadowed by a declared variable, read back the corresponding
// reference slots.
type Vars struct {
	Values map[string]Value `json:"values" yaml:"values"`
	Refs   Refs             `json:"refs" yaml:"refs"`
}

// NewVars makes an empty Vars.
func NewVars() *Vars {
	return &Vars{
		Values: make(map[string]Value, 8),
		Refs:   NoRefs(),
	}
}

// Set declares (or redeclares) a variable.
func (vs *Vars) Set(name string, v Value) *Vars {
	if vs.Values == nil {
		vs.Values = make(map[string]Value, 8)
	}
	vs.Values[strings.ToLower(name)] = v
	return vs
}

// SetInt is a convenience for Set(name, IntValue(n)).
func (vs *Vars) SetInt(name string, n int) *Vars {
	return vs.Set(name, IntValue(n))
}

// SetText is a convenience for Set(name, TextValue(s)).
func (vs *Vars) SetText(name string, s string) *Vars {
	return vs.Set(name, TextValue(s))
}

// Get implements VarStore.
func (vs *Vars) Get(name string) (Value, bool) {
	name = strings.ToLower(name)
	if v, have := vs.Values[name]; have {
		return v, true
	}
	switch name {
	case "number":
		return IntValue(vs.Refs.Number), true
	case "text":
		return TextValue(vs.Refs.Text), true
	}
	return Value{}, false
}

// RefReader is a VarStore that can report its reference slots.
type RefReader interface {
	References() Refs
}

// References implements RefReader.
func (vs *Vars) References() Refs { return vs.Refs }

func (vs *Vars) SetRefCharacter(i int) { vs.Refs.Character = i }
func (vs *Vars) SetRefObject(i int)    { vs.Refs.Object = i }
func (vs *Vars) SetRefNumber(n int)    { vs.Refs.Number = n }
func (vs *Vars) SetRefText(s string)   { vs.Refs.Text = s }

// Copy makes a shallow copy.
func (vs *Vars) Copy() *Vars {
	acc := &Vars{
		Values: make(map[string]Value, len(vs.Values)),
		Refs:   vs.Refs,
	}
	for k, v := range vs.Values {
		acc.Values[k] = v
	}
	return acc
}

// ReadOnly wraps a VarStore so that reference writes are dropped.
//
// Pronoun assignment runs the matcher for its candidate sets only and
// must not disturb the slots left by the command that just ran.
func ReadOnly(vs VarStore) VarStore {
	if vs == nil {
		vs = NewVars()
	}
	return readOnly{vs}
}

type readOnly struct {
	VarStore
}

// References implements RefReader if the wrapped store does.
func (r readOnly) References() Refs {
	if rr, is := r.VarStore.(RefReader); is {
		return rr.References()
	}
	return NoRefs()
}

func (readOnly) SetRefCharacter(int) {}
func (readOnly) SetRefObject(int)    {}
func (readOnly) SetRefNumber(int)    {}
func (readOnly) SetRefText(string)   {}
