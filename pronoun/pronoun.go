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

// Package pronoun binds "it", "them", "him", and "her" to recently
// mentioned entities and expands them in player input.
package pronoun

import (
	"context"
	"strings"

	"github.com/Comcast/parley/core"
	"github.com/Comcast/parley/match"
	"github.com/Comcast/parley/util"
)

// Patterns used to find entity mentions in a command.
var (
	ObjectPattern    = "* %object% *"
	CharacterPattern = "* %character% *"
)

// Pronouns holds the current bindings.  An index of -1 means
// unbound.
type Pronouns struct {
	// Legacy is for games without character genders.  "him" and
	// "her" both refer to the last character, and "it" never does.
	Legacy bool `json:"legacy,omitempty" yaml:"legacy,omitempty"`

	// Object is what "it" and "them" refer to.
	Object int `json:"object" yaml:"object"`

	// Male, Female, and Neuter are characters for "him", "her",
	// and (when no object is bound) "it".
	Male   int `json:"male" yaml:"male"`
	Female int `json:"female" yaml:"female"`
	Neuter int `json:"neuter" yaml:"neuter"`

	// Matcher finds mentions.  Defaults to match.DefaultMatcher.
	Matcher *match.Matcher `json:"-" yaml:"-"`
}

// New makes Pronouns with nothing bound.
func New(legacy bool) *Pronouns {
	p := &Pronouns{Legacy: legacy}
	p.Reset()
	return p
}

// Reset unbinds everything.
func (p *Pronouns) Reset() {
	p.Object, p.Male, p.Female, p.Neuter = -1, -1, -1, -1
}

// Resolve returns the entity a pronoun refers to, if any.
func (p *Pronouns) Resolve(word string, reg core.Registry) (*core.Entity, bool) {
	if reg == nil {
		return nil, false
	}
	class, i := core.Objects, -1
	switch strings.ToLower(word) {
	case "it":
		if 0 <= p.Object {
			i = p.Object
		} else if !p.Legacy && 0 <= p.Neuter {
			class, i = core.Characters, p.Neuter
		}
	case "them":
		i = p.Object
	case "him":
		class, i = core.Characters, p.Male
	case "her":
		class, i = core.Characters, p.Female
	}
	if i < 0 {
		return nil, false
	}
	e := reg.Entity(class, i)
	return e, e != nil
}

// Expand replaces each bound pronoun in the subject with the full
// name of what it refers to.
//
// If nothing was replaced, Expand returns the subject unchanged and
// false.
func (p *Pronouns) Expand(subject string, reg core.Registry) (string, bool) {
	var (
		acc     *strings.Builder
		emitted int
		i       int
	)
	for i < len(subject) {
		for i < len(subject) && isSpace(subject[i]) {
			i++
		}
		start := i
		for i < len(subject) && !isSpace(subject[i]) {
			i++
		}
		if start == i {
			break
		}
		e, have := p.Resolve(subject[start:i], reg)
		if !have {
			continue
		}
		if acc == nil {
			acc = &strings.Builder{}
			acc.Grow(len(subject) + 32)
		}
		acc.WriteString(subject[emitted:start])
		acc.WriteString(e.FullName())
		emitted = i
	}
	if acc == nil {
		return subject, false
	}
	acc.WriteString(subject[emitted:])
	return acc.String(), true
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\v' || c == '\f'
}

func (p *Pronouns) matcher() *match.Matcher {
	if p.Matcher != nil {
		return p.Matcher
	}
	return match.DefaultMatcher
}

// Assign looks for entities mentioned in the subject and binds
// pronouns to them.
//
// The reference slots in vars aren't touched.
func (p *Pronouns) Assign(ctx context.Context, subject string, vars core.VarStore, reg core.Registry) error {
	if reg == nil {
		return core.ErrNoRegistry
	}
	ro := core.ReadOnly(vars)

	objs, err := p.matcher().Match(ctx, ObjectPattern, subject, ro, reg)
	if err != nil {
		return err
	}
	chars, err := p.matcher().Match(ctx, CharacterPattern, subject, ro, reg)
	if err != nil {
		return err
	}
	p.Bind(chars.Characters, objs.Objects, reg)
	return nil
}

// only returns the single candidate that's been seen and is
// reachable, or -1 if there are none or several.
func only(class core.Class, candidates []int, reg core.Registry) int {
	found := -1
	for _, i := range candidates {
		e := reg.Entity(class, i)
		if e == nil || !e.Seen || !reg.Reachable(class, i) {
			continue
		}
		if 0 <= found {
			return -1
		}
		found = i
	}
	return found
}

// Bind updates the bindings from candidate entities.  A class with
// other than exactly one seen and reachable candidate leaves its
// bindings alone.
func (p *Pronouns) Bind(chars, objs []int, reg core.Registry) {
	if i := only(core.Objects, objs, reg); 0 <= i {
		util.Logf("pronoun: it -> object %d", i)
		p.Object = i
	}

	i := only(core.Characters, chars, reg)
	if i < 0 {
		return
	}
	util.Logf("pronoun: character %d", i)
	if p.Legacy {
		p.Male, p.Female = i, i
		return
	}
	switch reg.Entity(core.Characters, i).Gender {
	case core.Male:
		p.Male = i
	case core.Female:
		p.Female = i
	default:
		p.Neuter = i
	}
}
