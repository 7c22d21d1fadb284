package interpreters

import (
	"context"
	"testing"

	"github.com/Comcast/parley/core"
)

func TestStandard(t *testing.T) {
	is := Standard()
	for _, name := range []string{"native", "native-text", "goja", "noop"} {
		if is.Find(name) == nil {
			t.Fatalf("no %s", name)
		}
	}

	ctx := context.Background()
	vars := core.NewVars().SetInt("n", 4)
	env := &core.Env{Vars: vars}

	for name, code := range map[string]string{
		"native": "%n% * 2",
		"goja":   `return _.get("n") * 2;`,
	} {
		src := &core.Source{Interpreter: name, Source: code}
		action, err := src.Compile(ctx, is)
		if err != nil {
			t.Fatal(err)
		}
		x, err := action.Exec(ctx, env)
		if err != nil {
			t.Fatal(err)
		}
		if x != 8 {
			t.Fatalf("%s: %#v (%T)", name, x, x)
		}
	}
}
