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

// Package match implements the command pattern matcher.
//
// A pattern describes acceptable player input:
//
//   get {the/a} [red/blue] ball
//   give %object% to %character%
//   say %text%
//   drop *
//
// Words match case-insensitively.  "[a/b]" requires one of its
// alternatives and takes whichever consumes the most input.  "{a/b}"
// is optional and is skipped when the rest of the pattern matches
// without it.  "*" skips as little input as possible.  The reference
// slots %character%, %object%, %number%, and %text% match entities
// from a core.Registry, a signed integer, or free text, and record
// what they matched in the core.VarStore.
package match

import (
	"context"
	"errors"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/Comcast/parley/core"
	"github.com/Comcast/parley/util"

	"github.com/edwingeng/deque"
)

var (
	// ErrStepLimit is returned when a match takes more than
	// Matcher.StepLimit steps.
	ErrStepLimit = errors.New("pattern match step limit exceeded")

	// ErrTooDeep is returned when matching recurses more than
	// Matcher.MaxDepth times.
	ErrTooDeep = errors.New("pattern match recursion too deep")
)

// Result is what a match found.
type Result struct {
	Matched bool `json:"matched"`

	// Characters and Objects are the indexes of every entity that
	// a reference node matched (with the rest of the pattern also
	// matching).  More than one means the reference was
	// ambiguous.
	Characters []int `json:"characters,omitempty"`
	Objects    []int `json:"objects,omitempty"`

	// Steps is the number of node visits.
	Steps int `json:"steps"`
}

// Matcher matches patterns against subjects.
//
// A Matcher is safe for concurrent use; calls are serialized.
type Matcher struct {
	// NodePoolSize and WordPoolSize are the capacities of the
	// Matcher's Pool, which is made on first use.
	NodePoolSize int
	WordPoolSize int

	// StepLimit, if positive, bounds the number of node visits in
	// one match.
	StepLimit int

	// MaxDepth, if positive, bounds recursion.
	MaxDepth int

	// CacheSize is the number of compiled patterns to keep.  Zero
	// means don't cache.
	CacheSize int

	sync.Mutex
	pool  *Pool
	cache map[string]*Tree
	order deque.Deque
}

// NewMatcher makes a Matcher with default limits.
func NewMatcher() *Matcher {
	return &Matcher{
		NodePoolSize: DefaultNodePoolSize,
		WordPoolSize: DefaultWordPoolSize,
		StepLimit:    1000000,
		MaxDepth:     1000,
		CacheSize:    64,
	}
}

// DefaultMatcher is used by Match.
var DefaultMatcher = NewMatcher()

// Match uses DefaultMatcher.
func Match(pattern, subject string, vars core.VarStore, reg core.Registry) (*Result, error) {
	return DefaultMatcher.Match(context.Background(), pattern, subject, vars, reg)
}

func (m *Matcher) ensurePool() {
	if m.pool == nil {
		m.pool = NewPool(m.NodePoolSize, m.WordPoolSize)
	}
}

// PoolStats reports on the Matcher's Pool.
func (m *Matcher) PoolStats() PoolStats {
	m.Lock()
	defer m.Unlock()
	m.ensurePool()
	return m.pool.Stats()
}

// Flush releases all cached patterns.
func (m *Matcher) Flush() error {
	m.Lock()
	defer m.Unlock()
	return m.flush()
}

func (m *Matcher) flush() error {
	var first error
	for _, t := range m.cache {
		if err := t.Free(); err != nil && first == nil {
			first = err
		}
	}
	m.cache = nil
	m.order = nil
	return first
}

// compile gets a tree from the cache or builds one.  The caller must
// release the tree if and only if it's not cached.
func (m *Matcher) compile(pattern string) (*Tree, bool, error) {
	if t, have := m.cache[pattern]; have {
		return t, true, nil
	}
	m.ensurePool()
	t, err := m.pool.Build(pattern)
	if err != nil {
		return nil, false, err
	}
	if m.CacheSize <= 0 {
		return t, false, nil
	}
	if m.cache == nil {
		m.cache = make(map[string]*Tree, m.CacheSize)
		m.order = deque.NewDeque()
	}
	for m.CacheSize <= len(m.cache) && !m.order.Empty() {
		old := m.order.PopFront().(string)
		util.Logf("match: evicting %q", old)
		if evicted, have := m.cache[old]; have {
			delete(m.cache, old)
			if err := evicted.Free(); err != nil {
				t.Free()
				return nil, false, err
			}
		}
	}
	m.cache[pattern] = t
	m.order.PushBack(pattern)
	return t, true, nil
}

// Compile checks a pattern.
func (m *Matcher) Compile(pattern string) error {
	m.Lock()
	defer m.Unlock()
	t, cached, err := m.compile(pattern)
	if err != nil {
		return err
	}
	if !cached {
		return t.Free()
	}
	return nil
}

// Match matches the subject against the pattern.
//
// Reference nodes write the last matched character, object, number,
// and text into vars.  The registry can be nil if the pattern has no
// %character% or %object%.
func (m *Matcher) Match(ctx context.Context, pattern, subject string, vars core.VarStore, reg core.Registry) (*Result, error) {
	m.Lock()
	defer m.Unlock()

	t, cached, err := m.compile(pattern)
	if err != nil {
		return nil, err
	}
	r, err := m.matchTree(ctx, t, subject, vars, reg)
	if !cached {
		if ferr := t.Free(); ferr != nil && err == nil {
			err = ferr
		}
	}
	return r, err
}

// MatchTree matches the subject against an already compiled tree.
func (m *Matcher) MatchTree(ctx context.Context, t *Tree, subject string, vars core.VarStore, reg core.Registry) (*Result, error) {
	return m.matchTree(ctx, t, subject, vars, reg)
}

func (m *Matcher) matchTree(ctx context.Context, t *Tree, subject string, vars core.VarStore, reg core.Registry) (*Result, error) {
	if vars == nil {
		vars = core.NewVars()
	}
	c := &cursor{
		ctx:      ctx,
		tree:     t,
		subject:  subject,
		vars:     vars,
		reg:      reg,
		limit:    m.StepLimit,
		maxDepth: m.MaxDepth,
		chars:    make(map[int]bool),
		objs:     make(map[int]bool),
	}

	matched := c.list(t.nodes[t.root].kids)
	if c.err != nil {
		return nil, c.err
	}

	return &Result{
		Matched:    matched,
		Characters: sortedKeys(c.chars),
		Objects:    sortedKeys(c.objs),
		Steps:      c.steps,
	}, nil
}

func sortedKeys(m map[int]bool) []int {
	if len(m) == 0 {
		return nil
	}
	acc := make([]int, 0, len(m))
	for i := range m {
		acc = append(acc, i)
	}
	sort.Ints(acc)
	return acc
}

// cursor is the state of one match.
type cursor struct {
	ctx     context.Context
	tree    *Tree
	subject string
	pos     int
	vars    core.VarStore
	reg     core.Registry

	steps    int
	limit    int
	depth    int
	maxDepth int

	// err, once set, makes every node fail.
	err error

	chars map[int]bool
	objs  map[int]bool
}

func (c *cursor) step() bool {
	if c.err != nil {
		return false
	}
	c.steps++
	if 0 < c.limit && c.limit < c.steps {
		c.err = ErrStepLimit
		return false
	}
	if c.steps%1024 == 0 && c.ctx != nil {
		if err := c.ctx.Err(); err != nil {
			c.err = err
			return false
		}
	}
	return true
}

// list matches a sequence of nodes in order.  An empty sequence
// never matches.
func (c *cursor) list(ids []NodeID) bool {
	if len(ids) == 0 {
		return false
	}
	for i, id := range ids {
		if !c.node(id, ids[i+1:]) {
			return false
		}
	}
	return true
}

// remainder reports whether the rest of a sequence matches from the
// current position.  The position is restored either way.
func (c *cursor) remainder(rest []NodeID) bool {
	at := c.pos
	ok := c.list(rest)
	c.pos = at
	return ok
}

// node matches one node.  The rest are the siblings that follow it,
// which lookahead nodes need.
func (c *cursor) node(id NodeID, rest []NodeID) bool {
	if !c.step() {
		return false
	}
	c.depth++
	defer func() { c.depth-- }()
	if 0 < c.maxDepth && c.maxDepth < c.depth {
		c.err = ErrTooDeep
		return false
	}

	n := c.tree.nodes[id]
	switch n.kind {
	case List:
		start := c.pos
		if c.list(n.kids) {
			return true
		}
		c.pos = start
		return false
	case Word:
		if hasPrefixFold(c.subject[c.pos:], n.word) {
			c.pos += len(n.word)
			return true
		}
		return false
	case Variable:
		return c.variable(string(n.word))
	case Whitespace:
		return c.whitespace()
	case Choice:
		return c.choice(n.kids)
	case Optional:
		return c.optional(n.kids, rest)
	case Wildcard:
		return c.wildcard(rest)
	case CharacterRef:
		return c.entity(core.Characters, rest)
	case ObjectRef:
		return c.entity(core.Objects, rest)
	case NumberRef:
		return c.number()
	case TextRef:
		return c.text(rest)
	case EndOfInput:
		return c.pos == len(c.subject)
	}
	return false
}

func hasPrefixFold(s string, word []byte) bool {
	if len(s) < len(word) {
		return false
	}
	for i, b := range word {
		if lower(s[i]) != lower(b) {
			return false
		}
	}
	return true
}

func lower(c byte) byte {
	if 'A' <= c && c <= 'Z' {
		return c + 'a' - 'A'
	}
	return c
}

func (c *cursor) variable(name string) bool {
	v, have := c.vars.Get(name)
	if !have {
		return false
	}
	var s string
	if v.Type == core.Integer {
		s = strconv.Itoa(v.Int)
		if !strings.HasPrefix(c.subject[c.pos:], s) {
			return false
		}
	} else {
		s = v.Text
		if !hasPrefixFold(c.subject[c.pos:], []byte(s)) {
			return false
		}
	}
	c.pos += len(s)
	return true
}

// whitespace matches one or more spaces.  It also matches nothing at
// the start or end of the subject or right after a space.
func (c *cursor) whitespace() bool {
	if c.pos < len(c.subject) && isSpace(c.subject[c.pos]) {
		for c.pos < len(c.subject) && isSpace(c.subject[c.pos]) {
			c.pos++
		}
		return true
	}
	return c.pos == 0 || c.pos == len(c.subject) || isSpace(c.subject[c.pos-1])
}

// choice tries every alternative and keeps the one that consumed the
// most.
func (c *cursor) choice(alts []NodeID) bool {
	start, best := c.pos, -1
	for _, alt := range alts {
		c.pos = start
		if c.node(alt, nil) && best < c.pos {
			best = c.pos
		}
		if c.err != nil {
			return false
		}
	}
	if best < 0 {
		c.pos = start
		return false
	}
	c.pos = best
	return true
}

// optional skips itself if the rest of the pattern matches (and
// consumes something) without it.  Otherwise it's a choice that
// can't fail.
func (c *cursor) optional(alts, rest []NodeID) bool {
	start := c.pos
	if c.list(rest) && start < c.pos {
		c.pos = start
		return true
	}
	c.pos = start
	if c.err != nil {
		return false
	}
	if !c.choice(alts) {
		c.pos = start
	}
	return c.err == nil
}

// wildcard advances to the first position where the rest of the
// pattern matches.  If there isn't one, it matches nothing.
func (c *cursor) wildcard(rest []NodeID) bool {
	if 0 < len(rest) && c.tree.nodes[rest[0]].kind == Wildcard {
		return true
	}
	start := c.pos
	for at := start; at <= len(c.subject); at++ {
		c.pos = at
		if c.remainder(rest) {
			return true
		}
		if c.err != nil {
			return false
		}
	}
	c.pos = start
	return true
}

// text captures the shortest non-empty span after which the rest of
// the pattern matches.
func (c *cursor) text(rest []NodeID) bool {
	start := c.pos
	for at := start + 1; at <= len(c.subject); at++ {
		c.pos = at
		if c.remainder(rest) {
			c.vars.SetRefText(strings.ToLower(c.subject[start:at]))
			return true
		}
		if c.err != nil {
			return false
		}
	}
	c.pos = start
	return false
}

func isDigit(c byte) bool {
	return '0' <= c && c <= '9'
}

func (c *cursor) number() bool {
	at := c.pos
	if at < len(c.subject) && (c.subject[at] == '-' || c.subject[at] == '+') {
		at++
	}
	digits := at
	for at < len(c.subject) && isDigit(c.subject[at]) {
		at++
	}
	if at == digits {
		return false
	}
	n, err := strconv.Atoi(c.subject[c.pos:at])
	if err != nil {
		return false
	}
	c.vars.SetRefNumber(n)
	c.pos = at
	return true
}

// entity matches a character or object by name or alias.
//
// Every entity whose name matches (with the rest of the pattern
// matching after it) is a candidate.  The match extends as far as
// the longest candidate, and the reference slot gets the last entity
// seen with that extent.
func (c *cursor) entity(class core.Class, rest []NodeID) bool {
	if c.reg == nil {
		return false
	}
	start := c.pos
	best, chosen := 0, -1
	count := c.reg.Count(class)
	for i := 0; i < count; i++ {
		e := c.reg.Entity(class, i)
		if e == nil {
			continue
		}
		for _, name := range names(e) {
			n := matchName(c.subject, start, name)
			if n == 0 {
				continue
			}
			c.pos = start + n
			ok := c.remainder(rest)
			if c.err != nil {
				return false
			}
			if !ok {
				continue
			}
			if class == core.Characters {
				c.chars[i] = true
			} else {
				c.objs[i] = true
			}
			if best <= n {
				best, chosen = n, i
			}
		}
	}

	if chosen < 0 {
		c.pos = start
		return false
	}
	if class == core.Characters {
		c.vars.SetRefCharacter(chosen)
	} else {
		c.vars.SetRefObject(chosen)
	}
	c.pos = start + best
	return true
}
