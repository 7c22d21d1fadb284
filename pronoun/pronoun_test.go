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

package pronoun

import (
	"context"
	"testing"

	"github.com/Comcast/parley/core"
	. "github.com/Comcast/parley/util/testutil"
)

func world() *core.World {
	return &core.World{
		PlayerRoom: "hall",
		Characters: []*core.Entity{
			{Name: "Bob", Gender: core.Male, Room: "hall", Seen: true},
			{Name: "Alice", Gender: core.Female, Room: "hall", Seen: true},
			{Name: "robot", Prefix: "the", Gender: core.Neuter, Room: "hall", Seen: true},
			{Name: "Carol", Gender: core.Female, Room: "attic", Seen: true},
		},
		Objects: []*core.Entity{
			{Name: "brass lantern", Prefix: "a", Aliases: []string{"lantern"}, Room: "hall", Seen: true},
			{Name: "key", Room: "hall", Seen: true},
			{Name: "key", Room: "hall", Seen: true},
			{Name: "sword", Room: "player", Seen: true},
			{Name: "ghost", Room: "hall"},
			{Name: "statue", Room: "garden", Seen: true},
		},
	}
}

func TestAssignObject(t *testing.T) {
	ctx := context.Background()
	p := New(false)
	w := world()
	vars := core.NewVars()

	if err := p.Assign(ctx, "get the lantern", vars, w); err != nil {
		t.Fatal(err)
	}
	if p.Object != 0 {
		t.Fatal(p.Object)
	}
	// Reference slots aren't disturbed.
	if vars.Refs.Object != -1 {
		t.Fatal(vars.Refs.Object)
	}

	// Carried things are reachable.
	if err := p.Assign(ctx, "wield sword", vars, w); err != nil {
		t.Fatal(err)
	}
	if p.Object != 3 {
		t.Fatal(p.Object)
	}

	// Unseen, unreachable, and ambiguous mentions leave "it"
	// alone.
	for _, s := range []string{"look at ghost", "look at statue", "get key", "dance"} {
		if err := p.Assign(ctx, s, vars, w); err != nil {
			t.Fatal(err)
		}
		if p.Object != 3 {
			t.Fatalf("%s: %d", s, p.Object)
		}
	}
}

func TestAmbiguityBlocksBinding(t *testing.T) {
	p := New(false)
	w := world()
	if err := p.Assign(context.Background(), "key", core.NewVars(), w); err != nil {
		t.Fatal(err)
	}
	if p.Object != -1 {
		t.Fatal(p.Object)
	}
	if _, changed := p.Expand("get it", w); changed {
		t.Fatal("expanded")
	}
}

func TestAssignCharacters(t *testing.T) {
	ctx := context.Background()
	p := New(false)
	w := world()

	for _, s := range []string{"talk to bob", "kiss alice", "kick the robot", "wave at carol"} {
		if err := p.Assign(ctx, s, nil, w); err != nil {
			t.Fatal(err)
		}
	}
	if p.Male != 0 || p.Female != 1 || p.Neuter != 2 {
		t.Fatal(JS(p))
	}

	s, changed := p.Expand("ask him about her", w)
	if !changed {
		t.Fatal("unchanged")
	}
	if s != "ask Bob about Alice" {
		t.Fatal(s)
	}

	// With no object bound, "it" can be a neuter character.
	if s, _ = p.Expand("oil it", w); s != "oil the robot" {
		t.Fatal(s)
	}
	p.Object = 1
	if s, _ = p.Expand("oil it", w); s != "oil key" {
		t.Fatal(s)
	}
}

func TestLegacy(t *testing.T) {
	ctx := context.Background()
	p := New(true)
	w := world()

	if err := p.Assign(ctx, "kick the robot", nil, w); err != nil {
		t.Fatal(err)
	}
	if p.Male != 2 || p.Female != 2 || p.Neuter != -1 {
		t.Fatal(JS(p))
	}
	if _, changed := p.Expand("push it", w); changed {
		t.Fatal("it is a character")
	}
	if s, _ := p.Expand("push HER", w); s != "push the robot" {
		t.Fatal(s)
	}
}

func TestExpand(t *testing.T) {
	w := world()
	p := New(false)
	p.Object = 0

	tests := []struct {
		in, want string
		changed  bool
	}{
		{"drop it", "drop a brass lantern", true},
		{"  put it  in it ", "  put a brass lantern  in a brass lantern ", true},
		{"examine them", "examine a brass lantern", true},
		{"hit him", "hit him", false},
		{"italic", "italic", false},
		{"", "", false},
	}
	for _, tc := range tests {
		got, changed := p.Expand(tc.in, w)
		if changed != tc.changed || got != tc.want {
			t.Fatalf("%q: %q %v", tc.in, got, changed)
		}
	}
}

func TestNoRegistry(t *testing.T) {
	p := New(false)
	if err := p.Assign(context.Background(), "x", nil, nil); err != core.ErrNoRegistry {
		t.Fatal(err)
	}
	if _, changed := p.Expand("get it", nil); changed {
		t.Fatal("expanded")
	}
}
