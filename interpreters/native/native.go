// Package native provides core.Interpreters for the game expression
// language in package expr.
//
// "native" evaluates numeric expressions (the usual language for
// conditions), and "native-text" evaluates string expressions (for
// computed responses).
package native

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/Comcast/parley/core"
	"github.com/Comcast/parley/expr"
)

func init() {
	core.DefaultInterpreters["native"] = NewInterpreter()
	core.DefaultInterpreters["native-text"] = NewTextInterpreter()
}

// Interpreter implements core.Interpreter using expr.
type Interpreter struct {
	// Text selects string expressions rather than numeric ones.
	Text bool

	// Silent suppresses warnings (like division by zero).
	Silent bool

	// Seed, if not zero, makes either() and rand() repeatable.
	Seed int64

	sync.Mutex
	rand *rand.Rand
}

// NewInterpreter makes an Interpreter for numeric expressions.
func NewInterpreter() *Interpreter {
	return &Interpreter{}
}

// NewTextInterpreter makes an Interpreter for string expressions.
func NewTextInterpreter() *Interpreter {
	return &Interpreter{
		Text: true,
	}
}

func asCode(code interface{}) (string, error) {
	switch vv := code.(type) {
	case string:
		return strings.TrimSpace(vv), nil
	case int:
		return fmt.Sprintf("%d", vv), nil
	default:
		return "", fmt.Errorf("bad native source (%T)", code)
	}
}

// Compile only checks that every token is legal.  Expressions are
// cheap to parse, so there's nothing worth keeping.
func (i *Interpreter) Compile(ctx context.Context, code interface{}) (interface{}, error) {
	src, err := asCode(code)
	if err != nil {
		return nil, err
	}
	if src == "" {
		return nil, nil
	}
	return nil, expr.Check(src)
}

func (i *Interpreter) evaluator() *expr.Evaluator {
	i.Lock()
	defer i.Unlock()
	if i.rand == nil {
		seed := i.Seed
		if seed == 0 {
			seed = time.Now().UnixNano()
		}
		i.rand = rand.New(rand.NewSource(seed))
	}
	e := expr.NewEvaluator()
	e.Rand = rand.New(rand.NewSource(i.rand.Int63()))
	if i.Silent {
		e.Logf = func(string, ...interface{}) {}
	} else {
		e.Logf = log.Printf
	}
	return e
}

// Exec evaluates the code against env.Vars.  Empty code is a numeric
// 1 (so a missing condition is true) or the empty string.
func (i *Interpreter) Exec(ctx context.Context, env *core.Env, code interface{}, compiled interface{}) (interface{}, error) {
	src, err := asCode(code)
	if err != nil {
		return nil, err
	}

	var vars core.VarStore
	if env != nil {
		vars = env.Vars
	}

	if i.Text {
		if src == "" {
			return "", nil
		}
		return i.evaluator().EvalString(src, vars)
	}

	if src == "" {
		return 1, nil
	}
	return i.evaluator().EvalNumeric(src, vars)
}
