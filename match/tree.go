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

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind is a pattern node type.
type Kind int

const (
	// Unused marks a free node slot.
	Unused Kind = iota

	List
	Choice
	Optional
	Wildcard
	Whitespace
	Word
	Variable
	CharacterRef
	ObjectRef
	NumberRef
	TextRef
	EndOfInput
)

var kindNames = map[Kind]string{
	Unused:       "unused",
	List:         "list",
	Choice:       "choice",
	Optional:     "optional",
	Wildcard:     "wildcard",
	Whitespace:   "whitespace",
	Word:         "word",
	Variable:     "variable",
	CharacterRef: "character",
	ObjectRef:    "object",
	NumberRef:    "number",
	TextRef:      "text",
	EndOfInput:   "end",
}

func (k Kind) String() string {
	if s, have := kindNames[k]; have {
		return s
	}
	return "kind " + strconv.Itoa(int(k))
}

// NodeID addresses a node within its Tree.
type NodeID int

// SyntaxError reports a malformed pattern.
type SyntaxError struct {
	Pattern string
	Pos     int
	Msg     string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("pattern syntax error at %d in %q: %s", e.Pos, e.Pattern, e.Msg)
}

// Tree is a compiled pattern.
//
// The root is a List ending with an EndOfInput node.  Nodes are
// addressed by NodeID, and the Tree owns all of them.  Call Free to
// return them to the Pool they came from.
type Tree struct {
	Pattern string

	root  NodeID
	nodes []*node
	pool  *Pool
}

// Root returns the top-level List.
func (t *Tree) Root() NodeID {
	return t.root
}

// Size is the number of nodes in the tree.
func (t *Tree) Size() int {
	return len(t.nodes)
}

// Kind returns the node's type.
func (t *Tree) Kind(id NodeID) Kind {
	return t.nodes[id].kind
}

// Text returns a Word's text or a Variable's name.
func (t *Tree) Text(id NodeID) string {
	return string(t.nodes[id].word)
}

// Children returns a List's children or the alternatives of a Choice
// or Optional.  Don't modify the result.
func (t *Tree) Children(id NodeID) []NodeID {
	return t.nodes[id].kids
}

// Walk visits every node depth-first, parents before children.
func (t *Tree) Walk(f func(id NodeID, depth int)) {
	var walk func(id NodeID, depth int)
	walk = func(id NodeID, depth int) {
		f(id, depth)
		for _, kid := range t.nodes[id].kids {
			walk(kid, depth+1)
		}
	}
	walk(t.root, 0)
}

// Free releases every node.  The Tree is unusable afterwards.
// Freeing an already freed Tree does nothing.
func (t *Tree) Free() error {
	var first error
	for _, n := range t.nodes {
		if err := t.pool.freeNode(n); err != nil && first == nil {
			first = err
		}
	}
	t.nodes = nil
	return first
}

// String renders the tree back into pattern syntax.  Implicit
// whitespace shows up as a space.
func (t *Tree) String() string {
	var b strings.Builder
	t.render(&b, t.root)
	return b.String()
}

func (t *Tree) render(b *strings.Builder, id NodeID) {
	n := t.nodes[id]
	switch n.kind {
	case List:
		for _, kid := range n.kids {
			t.render(b, kid)
		}
	case Choice, Optional:
		open, close := "[", "]"
		if n.kind == Optional {
			open, close = "{", "}"
		}
		b.WriteString(open)
		for i, kid := range n.kids {
			if 0 < i {
				b.WriteByte('/')
			}
			t.render(b, kid)
		}
		b.WriteString(close)
	case Wildcard:
		b.WriteByte('*')
	case Whitespace:
		b.WriteByte(' ')
	case Word:
		b.Write(n.word)
	case Variable:
		b.WriteString("%" + string(n.word) + "%")
	case CharacterRef, ObjectRef, NumberRef, TextRef:
		b.WriteString("%" + n.kind.String() + "%")
	}
}

// Parse compiles a pattern using only the heap.
func Parse(pattern string) (*Tree, error) {
	return NewPool(0, 0).Build(pattern)
}

// Build compiles a pattern using the pool's storage.
//
// On error, everything allocated so far has been released.
func (p *Pool) Build(pattern string) (*Tree, error) {
	b := &builder{
		lex:  NewLexer(pattern),
		tree: &Tree{Pattern: pattern, pool: p},
	}
	b.look = b.lex.Next()

	root, err := b.list(true)
	if err == nil && b.look.Kind != TokEOS {
		err = b.errorf("unexpected %s", b.look)
	}
	if err != nil {
		b.tree.Free()
		return nil, err
	}
	b.tree.root = root
	return b.tree, nil
}

type builder struct {
	lex  *Lexer
	look Token
	tree *Tree
}

func (b *builder) errorf(format string, args ...interface{}) error {
	return &SyntaxError{
		Pattern: b.tree.Pattern,
		Pos:     b.look.Pos,
		Msg:     fmt.Sprintf(format, args...),
	}
}

func (b *builder) add(kind Kind) NodeID {
	n := b.tree.pool.allocNode(kind)
	b.tree.nodes = append(b.tree.nodes, n)
	return NodeID(len(b.tree.nodes) - 1)
}

func (b *builder) addWord(kind Kind, s string) NodeID {
	id := b.add(kind)
	n := b.tree.nodes[id]
	n.word, n.wordSlot = b.tree.pool.allocWord(s)
	n.hasWord = true
	return id
}

func (b *builder) advance() {
	b.look = b.lex.Next()
}

func isGroup(k Kind) bool {
	return k == Choice || k == Optional
}

// list builds a List up to a closing token.  At the top level, the
// end of the pattern gets an EndOfInput node.
func (b *builder) list(top bool) (NodeID, error) {
	id := b.add(List)
	var kids []NodeID

	push := func(kid NodeID) {
		kids = append(kids, kid)
	}

	for {
		switch b.look.Kind {
		case TokWord:
			push(b.addWord(Word, b.look.Text))
			b.advance()
		case TokVariable:
			push(b.addWord(Variable, b.look.Text))
			b.advance()
		case TokWhitespace:
			push(b.add(Whitespace))
			b.advance()
		case TokStar:
			push(b.add(Wildcard))
			b.advance()
		case TokCharacter:
			push(b.add(CharacterRef))
			b.advance()
		case TokObject:
			push(b.add(ObjectRef))
			b.advance()
		case TokNumber:
			push(b.add(NumberRef))
			b.advance()
		case TokText:
			push(b.add(TextRef))
			b.advance()
		case TokLBracket, TokLBrace:
			kind, close := Choice, TokRBrace
			if b.look.Kind == TokLBracket {
				close = TokRBracket
			} else {
				kind = Optional
			}
			// Adjacent groups still count as separate words.
			if 0 < len(kids) && isGroup(b.tree.nodes[kids[len(kids)-1]].kind) {
				push(b.add(Whitespace))
			}
			b.advance()
			group, err := b.group(kind, close)
			if err != nil {
				b.tree.nodes[id].kids = kids
				return id, err
			}
			push(group)
		case TokInvalid:
			b.tree.nodes[id].kids = kids
			return id, b.errorf("unterminated %%")
		case TokEOS:
			if !top {
				b.tree.nodes[id].kids = kids
				return id, b.errorf("unclosed group")
			}
			push(b.add(EndOfInput))
			b.tree.nodes[id].kids = kids
			return id, nil
		default:
			// ], }, or /
			b.tree.nodes[id].kids = kids
			if top {
				return id, b.errorf("unexpected %s", b.look)
			}
			return id, nil
		}
	}
}

// group builds the alternatives of a Choice or Optional.  The opening
// token has been consumed.
func (b *builder) group(kind Kind, close TokenKind) (NodeID, error) {
	id := b.add(kind)
	var alts []NodeID
	for {
		alt, err := b.list(false)
		alts = append(alts, alt)
		b.tree.nodes[id].kids = alts
		if err != nil {
			return id, err
		}
		switch b.look.Kind {
		case TokSlash:
			b.advance()
		case close:
			b.advance()
			return id, nil
		default:
			return id, b.errorf("wanted %s, got %s", close, b.look)
		}
	}
}
