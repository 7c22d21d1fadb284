package noop

import (
	"context"
	"log"

	"github.com/Comcast/parley/core"
)

// Interpreter is an core.Interpreter which just returns the code
// without evaluating it.  Handy for responses that are literal text.
type Interpreter struct {
	// Silent, if false, will suppress warning log messages.
	Silent bool
}

func (i *Interpreter) Compile(ctx context.Context, code interface{}) (interface{}, error) {
	if !i.Silent {
		log.Printf("warning: Using noop Interpreter for compilation")
	}
	return nil, nil
}

func (i *Interpreter) Exec(ctx context.Context, env *core.Env, code interface{}, compiled interface{}) (interface{}, error) {
	if !i.Silent {
		log.Printf("warning: Using noop Interpreter for execution")
	}
	return code, nil
}

func NewInterpreter() *Interpreter {
	return &Interpreter{}
}
