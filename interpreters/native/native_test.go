package native

import (
	"bytes"
	"context"
	"log"
	"os"
	"strings"
	"testing"

	"github.com/Comcast/parley/core"
)

func TestNumeric(t *testing.T) {
	ctx := context.Background()
	i := NewInterpreter()
	env := &core.Env{Vars: core.NewVars().SetInt("score", 3)}

	x, err := i.Exec(ctx, env, "%score% * 2 >= 6", nil)
	if err != nil {
		t.Fatal(err)
	}
	if x != 1 {
		t.Fatalf("%#v", x)
	}

	if x, err = i.Exec(ctx, nil, "  ", nil); err != nil {
		t.Fatal(err)
	}
	if !core.Truthy(x) {
		t.Fatalf("empty condition %#v", x)
	}

	if _, err = i.Exec(ctx, env, "%nope% + 1", nil); err == nil {
		t.Fatal("didn't protest")
	}
}

func TestText(t *testing.T) {
	ctx := context.Background()
	i := NewTextInterpreter()
	env := &core.Env{Vars: core.NewVars().SetText("name", "bob")}

	x, err := i.Exec(ctx, env, `proper(%name%) + " waves"`, nil)
	if err != nil {
		t.Fatal(err)
	}
	if x != "Bob waves" {
		t.Fatalf("%#v", x)
	}

	if x, err = i.Exec(ctx, env, "", nil); err != nil {
		t.Fatal(err)
	}
	if x != "" {
		t.Fatalf("%#v", x)
	}
}

func TestCompile(t *testing.T) {
	ctx := context.Background()
	i := NewInterpreter()
	if _, err := i.Compile(ctx, "1 + 2"); err != nil {
		t.Fatal(err)
	}
	if _, err := i.Compile(ctx, "1 # 2"); err == nil {
		t.Fatal("didn't protest")
	}
	if _, err := i.Compile(ctx, []string{"1"}); err == nil {
		t.Fatal("didn't protest")
	}
}

func TestSource(t *testing.T) {
	ctx := context.Background()

	src := &core.Source{Source: "%n% mod 2 = 1"}
	action, err := src.Compile(ctx, nil)
	if err != nil {
		t.Fatal(err)
	}
	x, err := action.Exec(ctx, &core.Env{Vars: core.NewVars().SetInt("n", 7)})
	if err != nil {
		t.Fatal(err)
	}
	if !core.Truthy(x) {
		t.Fatalf("%#v", x)
	}
}

func TestSeeded(t *testing.T) {
	ctx := context.Background()
	a := &Interpreter{Seed: 7, Silent: true}
	b := &Interpreter{Seed: 7, Silent: true}
	for n := 0; n < 10; n++ {
		x, err := a.Exec(ctx, nil, "rand(1, 1000)", nil)
		if err != nil {
			t.Fatal(err)
		}
		y, err := b.Exec(ctx, nil, "rand(1, 1000)", nil)
		if err != nil {
			t.Fatal(err)
		}
		if x != y {
			t.Fatalf("%v != %v", x, y)
		}
	}
}

func TestWarningsLogged(t *testing.T) {
	var buf bytes.Buffer
	log.SetOutput(&buf)
	defer log.SetOutput(os.Stderr)

	i := NewInterpreter()
	x, err := i.Exec(context.Background(), nil, "1 + 5/0", nil)
	if err != nil {
		t.Fatal(err)
	}
	if x != 1 {
		t.Fatalf("%#v", x)
	}
	got := buf.String()
	if !strings.Contains(got, "warning: division by zero") {
		t.Fatal(got)
	}
	if strings.Contains(got, "warning: warning:") {
		t.Fatal(got)
	}
}
