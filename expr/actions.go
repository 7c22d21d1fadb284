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

import (
	"fmt"
	"math"
	"strings"
)

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// action pops an operator's operands, applies it, and pushes the
// result.
func (e *Evaluator) action(op Kind) error {
	s := &e.stack

	switch op {
	case UMinus, Abs:
		n, err := s.popInt()
		if err != nil {
			return err
		}
		if op == UMinus {
			n = -n
		} else {
			n = abs(n)
		}
		return s.push(intValue(n))

	case Add, Subtract, Multiply, Divide, Power, Mod, And, Or,
		Equal, NotEqual, Greater, Less, GreaterEq, LessEq:
		b, err := s.popInt()
		if err != nil {
			return err
		}
		a, err := s.popInt()
		if err != nil {
			return err
		}
		return s.push(intValue(e.binary(op, a, b)))

	case If:
		f, err := s.popInt()
		if err != nil {
			return err
		}
		t, err := s.popInt()
		if err != nil {
			return err
		}
		c, err := s.popInt()
		if err != nil {
			return err
		}
		if c != 0 {
			return s.push(intValue(t))
		}
		return s.push(intValue(f))

	case Min, Max, Either:
		count, err := s.popInt()
		if err != nil {
			return err
		}
		if count < 1 {
			return ErrStackUnderflow
		}
		ns := make([]int, count)
		for i := count - 1; 0 <= i; i-- {
			if ns[i], err = s.popInt(); err != nil {
				return err
			}
		}
		acc := ns[0]
		switch op {
		case Min:
			for _, n := range ns[1:] {
				if n < acc {
					acc = n
				}
			}
		case Max:
			for _, n := range ns[1:] {
				if acc < n {
					acc = n
				}
			}
		case Either:
			acc = ns[e.Rand.Intn(count)]
		}
		return s.push(intValue(acc))

	case Random:
		hi, err := s.popInt()
		if err != nil {
			return err
		}
		lo, err := s.popInt()
		if err != nil {
			return err
		}
		if hi < lo {
			lo, hi = hi, lo
		}
		return s.push(intValue(e.between(lo, hi)))

	case Instr:
		needle, err := s.popText()
		if err != nil {
			return err
		}
		haystack, err := s.popText()
		if err != nil {
			return err
		}
		return s.push(intValue(strings.Index(haystack, needle) + 1))

	case Len:
		str, err := s.popText()
		if err != nil {
			return err
		}
		return s.push(intValue(len(str)))

	case Val:
		str, err := s.popText()
		if err != nil {
			return err
		}
		return s.push(intValue(val(str)))

	case Concatenate:
		b, err := s.popText()
		if err != nil {
			return err
		}
		a, err := s.popText()
		if err != nil {
			return err
		}
		return s.push(ownedText(a + b))

	case Left, Right:
		n, err := s.popInt()
		if err != nil {
			return err
		}
		str, err := s.popText()
		if err != nil {
			return err
		}
		if 0 <= n && n <= len(str) {
			if op == Left {
				str = str[:n]
			} else {
				str = str[len(str)-n:]
			}
		}
		return s.push(ownedText(str))

	case Mid:
		length, err := s.popInt()
		if err != nil {
			return err
		}
		start, err := s.popInt()
		if err != nil {
			return err
		}
		str, err := s.popText()
		if err != nil {
			return err
		}
		return s.push(ownedText(mid(str, start, length)))

	case Str:
		n, err := s.popInt()
		if err != nil {
			return err
		}
		return s.push(ownedText(fmt.Sprintf("% d", n)))

	case Upper, Lower, Proper:
		str, err := s.popText()
		if err != nil {
			return err
		}
		switch op {
		case Upper:
			str = strings.ToUpper(str)
		case Lower:
			str = strings.ToLower(str)
		default:
			str = proper(str)
		}
		return s.push(ownedText(str))
	}

	return fmt.Errorf("internal error: no action for %s", op)
}

func (e *Evaluator) binary(op Kind, a, b int) int {
	switch op {
	case Add:
		return a + b
	case Subtract:
		return a - b
	case Multiply:
		return a * b
	case Divide:
		q, ok := divide(a, b)
		if !ok {
			e.logf("warning: division by zero in %q", e.src)
		}
		return q
	case Mod:
		r, ok := modulo(a, b)
		if !ok {
			e.logf("warning: modulo by zero in %q", e.src)
		}
		return r
	case Power:
		p, ok := power(a, b)
		if !ok {
			e.logf("warning: zero to a negative power in %q", e.src)
		}
		return p
	case And:
		return boolInt(a != 0 && b != 0)
	case Or:
		return boolInt(a != 0 || b != 0)
	case Equal:
		return boolInt(a == b)
	case NotEqual:
		return boolInt(a != b)
	case Greater:
		return boolInt(a > b)
	case Less:
		return boolInt(a < b)
	case GreaterEq:
		return boolInt(a >= b)
	case LessEq:
		return boolInt(a <= b)
	}
	return 0
}

// mid takes length bytes starting at the 1-based start, clamping both
// into range.
func mid(s string, start, length int) string {
	if start < 1 {
		start = 1
	}
	if len(s)+1 < start {
		start = len(s) + 1
	}
	from := start - 1
	if length < 0 {
		length = 0
	}
	if len(s)-from < length {
		length = len(s) - from
	}
	return s[from : from+length]
}

// proper upper-cases each character that follows whitespace (or
// starts the string) and lower-cases everything else.
func proper(s string) string {
	bs := []byte(s)
	initial := true
	for i, c := range bs {
		switch {
		case 'a' <= c && c <= 'z' && initial:
			bs[i] = c - 'a' + 'A'
		case 'A' <= c && c <= 'Z' && !initial:
			bs[i] = c - 'A' + 'a'
		}
		initial = isSpace(c)
	}
	return string(bs)
}

// val parses optional leading spaces, an optional sign, and digits.
// Anything unparsable is 0.
func val(s string) int {
	i := 0
	for i < len(s) && isSpace(s[i]) {
		i++
	}
	neg := false
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		neg = s[i] == '-'
		i++
	}
	n := 0
	for i < len(s) && isDigit(s[i]) {
		n = n*10 + int(s[i]-'0')
		i++
	}
	if neg {
		n = -n
	}
	return n
}

// between returns a uniform integer in [lo, hi].  The span is
// computed in uint64 so that ranges wider than math.MaxInt64 work.
func (e *Evaluator) between(lo, hi int) int {
	span := uint64(hi) - uint64(lo)
	if span == math.MaxUint64 {
		return int(e.Rand.Uint64())
	}
	if span < math.MaxInt64 {
		return lo + int(e.Rand.Int63n(int64(span)+1))
	}
	return lo + int(e.Rand.Uint64()%(span+1))
}
