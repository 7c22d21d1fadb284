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
	"errors"
	"strings"
)

// Class distinguishes characters from objects.
type Class int

const (
	Characters Class = iota
	Objects
)

func (c Class) String() string {
	if c == Characters {
		return "character"
	}
	return "object"
}

// Gender of a character.  Objects don't have one.
type Gender int

const (
	Male Gender = iota
	Female
	Neuter
)

func (g Gender) String() string {
	switch g {
	case Male:
		return "male"
	case Female:
		return "female"
	default:
		return "neuter"
	}
}

// ParseGender accepts "male", "female", "neuter" (and a few
// abbreviations).  The empty string is Male, which is what old game
// data without gender information gets.
func ParseGender(s string) (Gender, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "male", "m", "he":
		return Male, nil
	case "female", "f", "she":
		return Female, nil
	case "neuter", "n", "it":
		return Neuter, nil
	default:
		return Male, errors.New("unknown gender '" + s + "'")
	}
}

// UnmarshalYAML lets game files say "gender: female".
func (g *Gender) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	x, err := ParseGender(s)
	if err != nil {
		return err
	}
	*g = x
	return nil
}

// MarshalYAML is the inverse of UnmarshalYAML.
func (g Gender) MarshalYAML() (interface{}, error) {
	return g.String(), nil
}

// Entity is a character or an object as far as the parser cares.
type Entity struct {
	// Name is the display name ("brass lantern").
	Name string `json:"name" yaml:"name"`

	// Prefix is an optional leading word or two ("a", "the old").
	Prefix string `json:"prefix,omitempty" yaml:"prefix,omitempty"`

	// Aliases are alternative names.
	Aliases []string `json:"aliases,omitempty" yaml:"aliases,omitempty"`

	// Seen is set once the player has encountered the entity.
	Seen bool `json:"seen,omitempty" yaml:"seen,omitempty"`

	// Gender is ignored for objects.
	Gender Gender `json:"gender,omitempty" yaml:"gender,omitempty"`

	// Room is where the entity is.  The special room "player"
	// means the player is carrying it.
	Room string `json:"room,omitempty" yaml:"room,omitempty"`
}

// FullName is "<prefix> <name>", or just the name without a prefix.
func (e *Entity) FullName() string {
	if e.Prefix == "" {
		return e.Name
	}
	return e.Prefix + " " + e.Name
}

// Copy makes a copy that shares nothing with the original.
func (e *Entity) Copy() *Entity {
	if e == nil {
		return nil
	}
	c := *e
	if e.Aliases != nil {
		c.Aliases = append([]string(nil), e.Aliases...)
	}
	return &c
}

// Registry is the parser's view of the game's characters and objects.
//
// Entities are addressed by their index within their class.
type Registry interface {
	Count(c Class) int
	Entity(c Class, i int) *Entity
	Reachable(c Class, i int) bool
}

// World is a simple Registry.
type World struct {
	// PlayerRoom is the room the player is in.
	PlayerRoom string `json:"playerRoom" yaml:"playerRoom"`

	Characters []*Entity `json:"characters,omitempty" yaml:"characters,omitempty"`
	Objects    []*Entity `json:"objects,omitempty" yaml:"objects,omitempty"`
}

// Carried is the room name for things the player holds.
const Carried = "player"

func (w *World) list(c Class) []*Entity {
	if w == nil {
		return nil
	}
	if c == Characters {
		return w.Characters
	}
	return w.Objects
}

// Count implements Registry.
func (w *World) Count(c Class) int {
	return len(w.list(c))
}

// Entity implements Registry.
func (w *World) Entity(c Class, i int) *Entity {
	es := w.list(c)
	if i < 0 || len(es) <= i {
		return nil
	}
	return es[i]
}

// Reachable implements Registry.  An entity is reachable if it's in
// the player's room or (objects only) carried.
func (w *World) Reachable(c Class, i int) bool {
	e := w.Entity(c, i)
	if e == nil {
		return false
	}
	if c == Objects && e.Room == Carried {
		return true
	}
	return e.Room != "" && e.Room == w.PlayerRoom
}

// Add appends an entity and returns its index.
func (w *World) Add(c Class, e *Entity) int {
	if c == Characters {
		w.Characters = append(w.Characters, e)
		return len(w.Characters) - 1
	}
	w.Objects = append(w.Objects, e)
	return len(w.Objects) - 1
}

// Find returns the index of the first entity with the given name
// (case-insensitive), or -1.
func (w *World) Find(c Class, name string) int {
	for i, e := range w.list(c) {
		if strings.EqualFold(e.Name, name) {
			return i
		}
	}
	return -1
}
