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

import "testing"

func TestDivideRounding(t *testing.T) {
	for a := -20; a <= 20; a++ {
		for b := -7; b <= 7; b++ {
			if b == 0 {
				continue
			}
			got, ok := divide(a, b)
			if !ok {
				t.Fatalf("%d/%d", a, b)
			}
			// Half away from zero.
			want := (2*abs(a) + abs(b)) / (2 * abs(b))
			if (a < 0) != (b < 0) {
				want = -want
			}
			if got != want {
				t.Fatalf("%d/%d = %d, wanted %d", a, b, got, want)
			}
		}
	}
}

func TestZeroDivisors(t *testing.T) {
	if _, ok := divide(3, 0); ok {
		t.Fatal("divide")
	}
	if _, ok := modulo(3, 0); ok {
		t.Fatal("modulo")
	}
	if _, ok := power(0, -2); ok {
		t.Fatal("power")
	}
	if n, ok := power(0, 0); !ok || n != 1 {
		t.Fatal(n)
	}
}

func TestModuloIsNotRemainderOfDivide(t *testing.T) {
	// 7/2 rounds to 4, so 4*2 + 1 != 7.
	q, _ := divide(7, 2)
	r, _ := modulo(7, 2)
	if q*2+r == 7 {
		t.Fatal("consistent")
	}
}

func TestPower(t *testing.T) {
	tests := []struct{ base, exp, want int }{
		{2, 10, 1024},
		{3, 3, 27},
		{-2, 3, -8},
		{-2, 2, 4},
		{7, 1, 7},
		{5, 0, 1},
		{5, -1, 0},
		{-5, -1, 0},
		{1, -9, 1},
		{-1, -9, -1},
		{-1, -8, 1},
	}
	for _, tc := range tests {
		got, ok := power(tc.base, tc.exp)
		if !ok || got != tc.want {
			t.Fatalf("%d^%d = %d, wanted %d", tc.base, tc.exp, got, tc.want)
		}
	}
}
