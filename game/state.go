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
	"fmt"

	"github.com/Comcast/parley/core"
	"github.com/Comcast/parley/pronoun"
)

// Placement is the mutable part of an entity.
type Placement struct {
	Room string `json:"room,omitempty" yaml:"room,omitempty"`
	Seen bool   `json:"seen,omitempty" yaml:"seen,omitempty"`
}

// State is everything about a Session that changes.  A State can be
// stored and later restored into a new Session for the same Game.
type State struct {
	Game       string            `json:"game,omitempty" yaml:"game,omitempty"`
	Vars       *core.Vars        `json:"vars" yaml:"vars"`
	PlayerRoom string            `json:"playerRoom,omitempty" yaml:"playerRoom,omitempty"`
	Characters []Placement       `json:"characters,omitempty" yaml:"characters,omitempty"`
	Objects    []Placement       `json:"objects,omitempty" yaml:"objects,omitempty"`
	Pronouns   *pronoun.Pronouns `json:"pronouns" yaml:"pronouns"`
	Turns      int               `json:"turns" yaml:"turns"`
	Prior      string            `json:"prior,omitempty" yaml:"prior,omitempty"`
}

func placements(es []*core.Entity) []Placement {
	acc := make([]Placement, len(es))
	for i, e := range es {
		acc[i] = Placement{Room: e.Room, Seen: e.Seen}
	}
	return acc
}

// State captures the session's current state.
func (s *Session) State() *State {
	p := *s.Pronouns
	p.Matcher = nil
	return &State{
		Game:       s.Game.Name,
		Vars:       s.Vars.Copy(),
		PlayerRoom: s.World.PlayerRoom,
		Characters: placements(s.World.Characters),
		Objects:    placements(s.World.Objects),
		Pronouns:   &p,
		Turns:      s.Turns,
		Prior:      s.prior,
	}
}

// Restore replaces the session's state.
func (s *Session) Restore(st *State) error {
	if st.Game != s.Game.Name {
		return fmt.Errorf("state is for game '%s', not '%s'", st.Game, s.Game.Name)
	}
	if len(st.Characters) != len(s.World.Characters) || len(st.Objects) != len(s.World.Objects) {
		return fmt.Errorf("state has %d characters and %d objects, but game has %d and %d",
			len(st.Characters), len(st.Objects), len(s.World.Characters), len(s.World.Objects))
	}

	if st.Vars != nil {
		s.Vars = st.Vars.Copy()
	}
	s.World.PlayerRoom = st.PlayerRoom
	for i, p := range st.Characters {
		s.World.Characters[i].Room, s.World.Characters[i].Seen = p.Room, p.Seen
	}
	for i, p := range st.Objects {
		s.World.Objects[i].Room, s.World.Objects[i].Seen = p.Room, p.Seen
	}
	if st.Pronouns != nil {
		p := *st.Pronouns
		p.Matcher = s.Matcher
		s.Pronouns = &p
	}
	s.Turns = st.Turns
	s.prior = st.Prior

	return nil
}
