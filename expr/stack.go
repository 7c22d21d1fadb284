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

package expr

import "errors"

// StackSize is the capacity of the evaluation stack.
const StackSize = 32

var (
	// ErrStackOverflow means an expression needed more than
	// StackSize pending values.
	ErrStackOverflow = errors.New("expression stack overflow")

	// ErrStackUnderflow means an action wanted a value that wasn't
	// there.  The parser shouldn't let that happen.
	ErrStackUnderflow = errors.New("expression stack underflow")
)

// value is an Integer or a Text.
//
// Text that the evaluator made (literals, variable copies, function
// results) is owned by the stack while it sits there.
type value struct {
	text  bool
	owned bool
	n     int
	s     string
}

func intValue(n int) value {
	return value{n: n}
}

func ownedText(s string) value {
	return value{text: true, owned: true, s: s}
}

// Stats counts owned text handled by a Stack.
//
// Every owned text pushed is eventually either consumed by an action
// (or the final result) or released when the stack is unwound, so
// Allocs == Frees whenever the stack is empty.
type Stats struct {
	Allocs int `json:"allocs"`
	Frees  int `json:"frees"`
}

// Live is the number of owned texts not yet freed.
func (s Stats) Live() int {
	return s.Allocs - s.Frees
}

// Stack is the bounded evaluation stack.
type Stack struct {
	vals  [StackSize]value
	n     int
	stats Stats
}

// Len is the number of values on the stack.
func (s *Stack) Len() int {
	return s.n
}

// Stats returns the ownership counters.
func (s *Stack) Stats() Stats {
	return s.stats
}

func (s *Stack) push(v value) error {
	if s.n == StackSize {
		return ErrStackOverflow
	}
	if v.owned {
		s.stats.Allocs++
	}
	s.vals[s.n] = v
	s.n++
	return nil
}

// pop transfers ownership of the top value to the caller, who has
// consumed it once pop returns.
func (s *Stack) pop() (value, error) {
	if s.n == 0 {
		return value{}, ErrStackUnderflow
	}
	s.n--
	v := s.vals[s.n]
	s.vals[s.n] = value{}
	if v.owned {
		s.stats.Frees++
	}
	return v, nil
}

func (s *Stack) popInt() (int, error) {
	v, err := s.pop()
	if err != nil {
		return 0, err
	}
	if v.text {
		return 0, errNotInteger
	}
	return v.n, nil
}

func (s *Stack) popText() (string, error) {
	v, err := s.pop()
	if err != nil {
		return "", err
	}
	if !v.text {
		return "", errNotText
	}
	return v.s, nil
}

// unwind releases everything left on the stack.  Called on every
// exit from an evaluation, so a failure anywhere leaves the stack
// empty.
func (s *Stack) unwind() {
	for s.n > 0 {
		s.pop()
	}
}

// reset clears the stack and its counters.
func (s *Stack) reset() {
	s.unwind()
	s.stats = Stats{}
}
