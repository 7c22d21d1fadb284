// Package interpreters collects the standard core.Interpreters.
package interpreters

import (
	"github.com/Comcast/parley/core"
	"github.com/Comcast/parley/interpreters/goja"
	"github.com/Comcast/parley/interpreters/native"
	"github.com/Comcast/parley/interpreters/noop"
)

// Standard returns a new map with every interpreter game files can
// name.
func Standard() core.InterpretersMap {
	is := core.NewInterpretersMap()

	is["native"] = native.NewInterpreter()
	is["native-text"] = native.NewTextInterpreter()

	js := goja.NewInterpreter()
	is["goja"] = js
	is["javascript"] = js

	is["noop"] = &noop.Interpreter{Silent: true}

	return is
}
