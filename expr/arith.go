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

// Integer arithmetic with the game language's rounding rules.
//
// Each function returns false when it would divide by zero.  The
// caller logs that and carries on with 0.

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

// divide rounds half away from zero.
//
// The two boundary tests agree over the integers; games were written
// against them as they are, so they stay as they are.
func divide(a, b int) (int, bool) {
	if b == 0 {
		return 0, false
	}
	x, y := abs(a), abs(b)
	q, r := x/y, x%y
	agree := (a < 0) == (b < 0)
	if agree {
		if 2*r >= y {
			q++
		}
	} else {
		if 2*r > y-1 {
			q++
		}
	}
	if !agree {
		q = -q
	}
	return q, true
}

// modulo takes the sign of the dividend.
//
// Note that a != divide(a, b)*b + modulo(a, b) in general, since
// divide rounds and modulo doesn't.
func modulo(a, b int) (int, bool) {
	if b == 0 {
		return 0, false
	}
	r := abs(a) % abs(b)
	if a < 0 {
		r = -r
	}
	return r, true
}

// power does square-and-multiply for positive exponents.
//
// Negative exponents give 0 except for bases 1 and -1 (and base 0,
// which is a division by zero).
func power(base, exp int) (int, bool) {
	switch {
	case exp == 0:
		return 1, true
	case exp < 0:
		switch base {
		case 0:
			return 0, false
		case 1:
			return 1, true
		case -1:
			if exp%2 == 0 {
				return 1, true
			}
			return -1, true
		}
		return 0, true
	}

	acc := 1
	for exp > 0 {
		if exp&1 == 1 {
			acc *= base
		}
		base *= base
		exp >>= 1
	}
	return acc, true
}
