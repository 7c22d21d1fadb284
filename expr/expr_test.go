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
	"math/rand"
	"strings"
	"testing"

	"github.com/Comcast/parley/core"
	. "github.com/Comcast/parley/util/testutil"
)

func testVars() *core.Vars {
	return core.NewVars().
		SetInt("score", 10).
		SetInt("lamp", 1).
		SetText("name", "bob")
}

func quiet() (*Evaluator, *Logs) {
	logs := &Logs{}
	e := NewEvaluator()
	e.Rand = rand.New(rand.NewSource(42))
	e.Logf = logs.Logf
	return e, logs
}

func TestNumeric(t *testing.T) {
	tests := []struct {
		src  string
		want int
	}{
		{"2+3*4", 14},
		{"(2+3)*4", 20},
		{"-3+1", -2},
		{"- -3", 3},
		{"+4", 4},
		{"10-2-3", 5},

		{"7/2", 4},
		{"-7/2", -4},
		{"7/-2", -4},
		{"-7/-2", 4},
		{"5/4", 1},
		{"6/4", 2},
		{"-6/4", -2},
		{"8/3", 3},
		{"9/3", 3},

		{"7 mod 2", 1},
		{"-7 mod 2", -1},
		{"7 mod -2", 1},
		{"-7 mod -3", -1},

		{"2^10", 1024},
		{"5^0", 1},
		{"(-1)^3", -1},
		{"(-1)^4", 1},
		{"2^-1", 0},
		{"1^-5", 1},
		{"(-1)^-3", -1},
		{"(-1)^-2", 1},

		// ^ and mod bind like + and -.
		{"2^3*2", 64},
		{"1+2 mod 2", 1},

		{"3>2", 1},
		{"3<2", 0},
		{"3>=3", 1},
		{"3<=2", 0},
		{"3=3", 1},
		{"3==3", 1},
		{"3<>3", 0},
		{"3!=4", 1},
		{"2 = 2 and 3 = 4", 0},
		{"2 = 2 or 3 = 4", 1},
		{"1 && 1", 1},
		{"0 || 0", 0},
		{"1+1=2 AND 2*2=4", 1},

		{"abs(-5)", 5},
		{"abs(5)", 5},
		{"if(1, 10, 20)", 10},
		{"if(0, 10, 20)", 20},
		{"IF(3>2, 1+1, 0)", 2},
		{"min(4, 2, 9)", 2},
		{"max(4, 2, 9)", 9},
		{"max(-1)", -1},
		{"min(3, -7) + max(1, 2)", -5},
		{"rand(3, 3)", 3},
		{"random(7, 7)", 7},
		{`instr("hello", "ll")`, 3},
		{`instr("hello", "z")`, 0},
		{`instr("Hello", "h")`, 0},
		{`len("hello")`, 5},
		{`len("")`, 0},
		{`len("ab" + "cd")`, 4},
		{`val("  -42x")`, -42},
		{`val("+7")`, 7},
		{`val("abc")`, 0},

		{"%score% * 2", 20},
		{"%SCORE% + %lamp%", 11},
		{"%score% >= 10 and %lamp% = 1", 1},
	}

	for _, tc := range tests {
		t.Run(tc.src, func(t *testing.T) {
			e, _ := quiet()
			got, err := e.EvalNumeric(tc.src, testVars())
			if err != nil {
				t.Fatal(err)
			}
			if got != tc.want {
				t.Fatalf("%s: got %d, wanted %d", tc.src, got, tc.want)
			}
			if e.Depth() != 0 {
				t.Fatalf("%s left %d values", tc.src, e.Depth())
			}
			if n := e.Stats().Live(); n != 0 {
				t.Fatalf("%s leaked %d", tc.src, n)
			}
		})
	}
}

func TestString(t *testing.T) {
	tests := []struct {
		src  string
		want string
	}{
		{`"ab"+"cd"`, "abcd"},
		{`"ab" & 'cd'`, "abcd"},
		{`upper("ab")`, "AB"},
		{`ucase("ab")`, "AB"},
		{`lower('AB')`, "ab"},
		{`lcase('AB')`, "ab"},
		{`proper("hELLO wORLD")`, "Hello World"},
		{`pcase("o'neil's  cat")`, "O'neil's  Cat"},
		{`mid("hello",2,3)`, "ell"},
		{`mid("hello",0,2)`, "he"},
		{`mid("hello",4,10)`, "lo"},
		{`mid("hello",9,2)`, ""},
		{`mid("hello",2,-1)`, ""},
		{`left("hello",2)`, "he"},
		{`left("hello",9)`, "hello"},
		{`left("hello",0)`, ""},
		{`right("hello",3)`, "llo"},
		{`right("hi",-1)`, "hi"},
		{`str(5)`, " 5"},
		{`str(-5)`, "-5"},
		{`str(1+2)`, " 3"},
		{`"a" & %name%`, "abob"},
		{`upper(%name%) + "!"`, "BOB!"},
		{`("a" + "b") + ("c")`, "abc"},
		{`left("hello", len("hi"))`, "he"},
	}

	for _, tc := range tests {
		t.Run(tc.src, func(t *testing.T) {
			e, _ := quiet()
			got, err := e.EvalString(tc.src, testVars())
			if err != nil {
				t.Fatal(err)
			}
			if got != tc.want {
				t.Fatalf("%s: got %q, wanted %q", tc.src, got, tc.want)
			}
			if e.Depth() != 0 {
				t.Fatalf("%s left %d values", tc.src, e.Depth())
			}
			if n := e.Stats().Live(); n != 0 {
				t.Fatalf("%s leaked %d", tc.src, n)
			}
		})
	}
}

func TestEither(t *testing.T) {
	e, _ := quiet()
	seen := make(map[int]bool)
	for i := 0; i < 200; i++ {
		n, err := e.EvalNumeric("either(1, 2, 3)", nil)
		if err != nil {
			t.Fatal(err)
		}
		if n < 1 || 3 < n {
			t.Fatal(n)
		}
		seen[n] = true
	}
	if len(seen) != 3 {
		t.Fatalf("only saw %v", seen)
	}
}

func TestRandomReversed(t *testing.T) {
	e, _ := quiet()
	for i := 0; i < 100; i++ {
		n, err := e.EvalNumeric("rand(5, 1)", nil)
		if err != nil {
			t.Fatal(err)
		}
		if n < 1 || 5 < n {
			t.Fatal(n)
		}
	}
}

func TestRandomWideRange(t *testing.T) {
	tests := []struct {
		src string
		lo  int
	}{
		{"rand(0, 9223372036854775807)", 0},
		{"rand(-5, 9223372036854775807)", -5},
	}
	for _, test := range tests {
		e, _ := quiet()
		for i := 0; i < 20; i++ {
			n, err := e.EvalNumeric(test.src, nil)
			if err != nil {
				t.Fatalf("%s: %s", test.src, err)
			}
			if n < test.lo {
				t.Fatalf("%s: %d", test.src, n)
			}
		}
	}
}

func TestDivideByZero(t *testing.T) {
	for _, src := range []string{"1 + 5/0", "1 + (5 mod 0)", "1 + (0^-1)"} {
		e, logs := quiet()
		n, err := e.EvalNumeric(src, nil)
		if err != nil {
			t.Fatalf("%s: %s", src, err)
		}
		if n != 1 {
			t.Fatalf("%s: %d", src, n)
		}
		if !logs.Contains("warning") {
			t.Fatalf("%s: no warning in %v", src, logs.Lines)
		}
	}
}

func TestUnterminatedString(t *testing.T) {
	e, logs := quiet()
	s, err := e.EvalString(`"abc`, nil)
	if err != nil {
		t.Fatal(err)
	}
	if s != "abc" {
		t.Fatal(s)
	}
	if !logs.Contains("unterminated") {
		t.Fatal(logs.Lines)
	}
}

func TestNumberAndTextRefs(t *testing.T) {
	vs := core.NewVars()
	vs.SetRefNumber(12)
	vs.SetRefText("brass key")

	n, err := EvalNumeric("%number% + 1", vs)
	if err != nil {
		t.Fatal(err)
	}
	if n != 13 {
		t.Fatal(n)
	}

	s, err := EvalString("upper(%text%)", vs)
	if err != nil {
		t.Fatal(err)
	}
	if s != "BRASS KEY" {
		t.Fatal(s)
	}
}

func TestSyntaxErrors(t *testing.T) {
	for _, src := range []string{"2+", "(2", "2 3", "foo", "%x", "1 + * 2", "min()", "if(1,2)", "", "abs 3"} {
		e, _ := quiet()
		_, err := e.EvalNumeric(src, nil)
		if err == nil {
			t.Fatalf("%q: expected an error", src)
		}
		if _, is := err.(*SyntaxError); !is {
			t.Fatalf("%q: %T %s", src, err, err)
		}
		if e.Depth() != 0 {
			t.Fatalf("%q left %d values", src, e.Depth())
		}
	}
}

func TestTypeErrors(t *testing.T) {
	e, _ := quiet()

	_, err := e.EvalNumeric("1 + %name%", testVars())
	te, is := err.(*TypeError)
	if !is {
		t.Fatalf("%T %v", err, err)
	}
	if te.Name != "name" || te.Want != core.Integer || te.Got != core.Text {
		t.Fatal(JS(te))
	}

	if _, err = e.EvalString(`"a" + %score%`, testVars()); err == nil {
		t.Fatal("expected an error")
	} else if _, is := err.(*TypeError); !is {
		t.Fatalf("%T %v", err, err)
	}

	if _, err = e.EvalNumeric("%nope% + 1", testVars()); err == nil {
		t.Fatal("expected an error")
	} else if uv, is := err.(*UndefinedVariable); !is || uv.Name != "nope" {
		t.Fatalf("%T %v", err, err)
	}
}

// TestFailuresRelease checks that owned text on the stack at the
// point of failure is always released.
func TestFailuresRelease(t *testing.T) {
	deep := strings.Repeat(`"a" + (`, 40) + `"a"` + strings.Repeat(")", 40)

	tests := []struct {
		name    string
		src     string
		numeric bool
	}{
		{"undefined", `"a" + "b" + left("c", %n%)`, false},
		{"type", `upper("a") + mid("bc", 1, %name%)`, false},
		{"syntax", `"a" + "b" + (`, false},
		{"syntax-in-number", `len("abc" + "d") + instr("x", "y" + `, true},
		{"trailing", `"a" "b"`, false},
		{"overflow", deep, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			e, _ := quiet()
			var err error
			if tc.numeric {
				_, err = e.EvalNumeric(tc.src, testVars())
			} else {
				_, err = e.EvalString(tc.src, testVars())
			}
			if err == nil {
				t.Fatal("expected an error")
			}
			if e.Depth() != 0 {
				t.Fatalf("left %d values", e.Depth())
			}
			st := e.Stats()
			if st.Allocs == 0 {
				t.Fatal("nothing was allocated")
			}
			if st.Live() != 0 {
				t.Fatalf("leaked %d (%s)", st.Live(), JS(st))
			}
		})
	}
}

func TestOverflow(t *testing.T) {
	src := strings.Repeat("1+(", 40) + "1" + strings.Repeat(")", 40)
	e, _ := quiet()
	if _, err := e.EvalNumeric(src, nil); err != ErrStackOverflow {
		t.Fatal(err)
	}

	src = strings.Repeat("1+(", 20) + "1" + strings.Repeat(")", 20)
	n, err := e.EvalNumeric(src, nil)
	if err != nil {
		t.Fatal(err)
	}
	if n != 21 {
		t.Fatal(n)
	}
}

func TestTooDeep(t *testing.T) {
	e, _ := quiet()
	e.MaxDepth = 10
	src := strings.Repeat("(", 12) + "1" + strings.Repeat(")", 12)
	if _, err := e.EvalNumeric(src, nil); err != ErrTooDeep {
		t.Fatal(err)
	}
	if e.Depth() != 0 {
		t.Fatal(e.Depth())
	}
}

func TestCheck(t *testing.T) {
	if err := Check("1 + %score% * len('abc')"); err != nil {
		t.Fatal(err)
	}
	if err := Check("1 + %score"); err == nil {
		t.Fatal("expected an error")
	}
	if err := Check("1 ; 2"); err == nil {
		t.Fatal("expected an error")
	}
}
