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

package match

import "errors"

// WordSize is the capacity of a pooled word slot.  Longer words go to
// the heap.
const WordSize = 64

var (
	// DefaultNodePoolSize is the number of pooled node slots a
	// Matcher gets by default.
	DefaultNodePoolSize = 128

	// DefaultWordPoolSize is the number of pooled word slots a
	// Matcher gets by default.
	DefaultWordPoolSize = 64
)

// ErrDoubleFree means something tried to release a node or a word
// that was already released.
var ErrDoubleFree = errors.New("pattern node freed twice")

// node is a pattern tree node.
//
// A node lives either in a Pool's fixed array or on the heap.  Either
// way it's released through Pool.freeNode, which marks it Unused.
type node struct {
	kind Kind

	// word holds Word text or a Variable name.
	word     []byte
	wordSlot int
	hasWord  bool

	// kids are a List's children or a Choice's/Optional's
	// alternatives (each a List).
	kids []NodeID

	pooled bool
}

type wordSlot struct {
	buf  [WordSize]byte
	used bool
}

// PoolStats counts what a Pool has handed out.
type PoolStats struct {
	NodeAllocs int `json:"nodeAllocs"`
	NodeFrees  int `json:"nodeFrees"`
	NodeSpills int `json:"nodeSpills"`
	WordAllocs int `json:"wordAllocs"`
	WordFrees  int `json:"wordFrees"`
	WordSpills int `json:"wordSpills"`
}

// Live is the number of nodes and words not yet released.
func (s PoolStats) Live() int {
	return s.NodeAllocs - s.NodeFrees + s.WordAllocs - s.WordFrees
}

// Pool is fixed-capacity storage for pattern nodes and short words.
//
// Slots are found by scanning from a ring cursor.  When the pool is
// full, allocation falls back to the heap.  The caller can't tell the
// difference, and release works the same either way.
//
// A Pool is not safe for concurrent use.  Matcher serializes access
// to its own.
type Pool struct {
	nodes      []node
	nodeCursor int
	words      []wordSlot
	wordCursor int
	stats      PoolStats
}

// NewPool makes a Pool with the given capacities.  Either can be
// zero, in which case everything comes from the heap.
func NewPool(nodes, words int) *Pool {
	if nodes < 0 {
		nodes = 0
	}
	if words < 0 {
		words = 0
	}
	return &Pool{
		nodes: make([]node, nodes),
		words: make([]wordSlot, words),
	}
}

// Stats returns the pool's counters.
func (p *Pool) Stats() PoolStats {
	return p.stats
}

func (p *Pool) allocNode(kind Kind) *node {
	p.stats.NodeAllocs++
	for i := 0; i < len(p.nodes); i++ {
		j := (p.nodeCursor + i) % len(p.nodes)
		if p.nodes[j].kind == Unused {
			p.nodeCursor = (j + 1) % len(p.nodes)
			n := &p.nodes[j]
			*n = node{kind: kind, wordSlot: -1, pooled: true}
			return n
		}
	}
	p.stats.NodeSpills++
	return &node{kind: kind, wordSlot: -1}
}

func (p *Pool) freeNode(n *node) error {
	if n.kind == Unused {
		return ErrDoubleFree
	}
	if n.hasWord {
		if err := p.freeWord(n.wordSlot); err != nil {
			return err
		}
	}
	p.stats.NodeFrees++
	pooled := n.pooled
	*n = node{pooled: pooled, wordSlot: -1}
	return nil
}

// allocWord copies s into a word slot (or onto the heap) and returns
// the bytes along with the slot index (-1 for the heap).
func (p *Pool) allocWord(s string) ([]byte, int) {
	p.stats.WordAllocs++
	if len(s) <= WordSize {
		for i := 0; i < len(p.words); i++ {
			j := (p.wordCursor + i) % len(p.words)
			w := &p.words[j]
			if !w.used {
				p.wordCursor = (j + 1) % len(p.words)
				w.used = true
				n := copy(w.buf[:], s)
				return w.buf[:n:n], j
			}
		}
	}
	p.stats.WordSpills++
	return []byte(s), -1
}

func (p *Pool) freeWord(slot int) error {
	if 0 <= slot {
		if slot >= len(p.words) || !p.words[slot].used {
			return ErrDoubleFree
		}
		p.words[slot].used = false
	}
	p.stats.WordFrees++
	return nil
}
