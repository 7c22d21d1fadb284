package goja

import (
	"context"
	"fmt"

	"github.com/dop251/goja/ast"
	"github.com/dop251/goja/parser"
)

// InlineRequires generates new source code that replaces top-level
// require("name") calls with the code that those calls reference.
//
// Action code is wrapped in a function (so it can "return"), which a
// top-level parse would reject, so this function is for libraries.
// A library can require other libraries, which are inlined
// recursively up to a depth of MaxRequireDepth.
func InlineRequires(ctx context.Context, src string, provider func(context.Context, string) (string, error)) (string, error) {
	return inlineRequires(ctx, src, provider, 0)
}

// MaxRequireDepth limits nested requires.
var MaxRequireDepth = 8

func inlineRequires(ctx context.Context, src string, provider func(context.Context, string) (string, error), depth int) (string, error) {
	if MaxRequireDepth < depth {
		return "", fmt.Errorf("requires nested more than %d deep", MaxRequireDepth)
	}

	p, err := parser.ParseFile(nil, "", src, 0)
	if err != nil {
		return "", err
	}

	type Required struct {
		From int
		To   int
		Name string
	}

	requires := make([]Required, 0, 8)

	for _, s := range p.Body {
		exps, is := s.(*ast.ExpressionStatement)
		if !is {
			continue
		}

		call, is := exps.Expression.(*ast.CallExpression)
		if !is {
			continue
		}

		id, is := call.Callee.(*ast.Identifier)
		if !is {
			continue
		}
		if id.Name != "require" {
			continue
		}
		if len(call.ArgumentList) != 1 {
			return "", fmt.Errorf("bad require args: %#v", call.ArgumentList)
		}

		arg := call.ArgumentList[0]
		lit, is := arg.(*ast.StringLiteral)
		if !is {
			return "", fmt.Errorf("bad require arg: %#v", arg)
		}

		// Idx values are 1-based.
		to := int(exps.Idx1()) - 1
		if to < len(src) && src[to] == ';' {
			to++
		}
		requires = append(requires, Required{
			From: int(exps.Idx0()) - 1,
			To:   to,
			Name: string(lit.Value),
		})
	}

	if len(requires) == 0 {
		return src, nil
	}

	var inlined string
	at := 0
	for _, r := range requires {
		lib, err := provider(ctx, r.Name)
		if err != nil {
			return "", err
		}
		if lib, err = inlineRequires(ctx, lib, provider, depth+1); err != nil {
			return "", err
		}
		inlined += src[at:r.From] + lib + "\n"
		at = r.To
	}
	inlined += src[at:]

	return inlined, nil
}
