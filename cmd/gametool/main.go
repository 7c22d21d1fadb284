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

// Package main is a tool that reads a game (YAML) on stdin and does
// something with it.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"io/ioutil"
	"os"

	"github.com/Comcast/parley/game"
	"github.com/Comcast/parley/tools"

	"github.com/jsccast/yaml"
)

func main() {
	if len(os.Args) < 2 {
		Usage(os.Stdout)
		os.Exit(1)
	}

	if err := run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func readGame(in io.Reader) (*game.Game, error) {
	bs, err := ioutil.ReadAll(in)
	if err != nil {
		return nil, err
	}
	if len(bs) == 0 {
		bs = []byte(DefaultGameYAML)
	}
	return game.ParseGame(bs)
}

func run(args []string, in io.Reader, out, errOut io.Writer) error {
	switch args[0] {
	case "inline":
		// Works on a file so that inlined filenames are relative
		// to something.
		if len(args) != 2 {
			return fmt.Errorf("usage: inline FILENAME")
		}
		bs, err := tools.ReadFileWithInlines(args[1])
		if err != nil {
			return err
		}
		_, err = out.Write(bs)
		return err

	case "expand":
		if len(args) != 2 {
			return fmt.Errorf("usage: expand MACRODIR")
		}
		bs, err := ioutil.ReadAll(in)
		if err != nil {
			return err
		}
		var x interface{}
		if err = yaml.Unmarshal(bs, &x); err != nil {
			return err
		}

		if x, err = MacroExpand(stringKeys(x), args[1]); err != nil {
			return err
		}

		if bs, err = yaml.Marshal(&x); err != nil {
			return err
		}

		fmt.Fprintf(out, "%s\n", bs)
		return nil

	case "yamltojson":
		pretty := false

		switch len(args) {
		case 1:
		case 2:
			switch args[1] {
			case "-p":
				pretty = true
			default:
				return fmt.Errorf("unsupported args: %v", args)
			}
		default:
			return fmt.Errorf("unsupported args: %v", args)
		}

		g, err := readGame(in)
		if err != nil {
			return err
		}

		var bs []byte
		if pretty {
			bs, err = json.MarshalIndent(g, "  ", "  ")
		} else {
			bs, err = json.Marshal(g)
		}
		if err != nil {
			return err
		}

		_, err = out.Write(bs)
		return err

	case "jsontoyaml":
		bs, err := ioutil.ReadAll(in)
		if err != nil {
			return err
		}

		var g *game.Game
		if err = json.Unmarshal(bs, &g); err != nil {
			return err
		}

		if bs, err = yaml.Marshal(g); err != nil {
			return err
		}

		_, err = out.Write(bs)
		return err

	default:
		mod, have := Mods[args[0]]
		if !have {
			fmt.Fprintf(errOut, "Unknown subcommand \"%s\"\n", args[0])
			Usage(errOut)
			return fmt.Errorf("unknown subcommand %s", args[0])
		}

		if err := mod.Flags().Parse(args[1:]); err != nil {
			return err
		}

		g, err := readGame(in)
		if err != nil {
			return err
		}

		modified, err := mod.F(g, out)
		if err != nil {
			return err
		}
		if !modified {
			return nil
		}

		bs, err := yaml.Marshal(g)
		if err != nil {
			return err
		}

		_, err = out.Write(bs)
		return err
	}
}

// stringKeys makes YAML maps into something encoding/json can
// handle.
func stringKeys(x interface{}) interface{} {
	switch vv := x.(type) {
	case map[interface{}]interface{}:
		m := make(map[string]interface{}, len(vv))
		for k, v := range vv {
			m[fmt.Sprintf("%v", k)] = stringKeys(v)
		}
		return m
	case map[string]interface{}:
		for k, v := range vv {
			vv[k] = stringKeys(v)
		}
		return vv
	case []interface{}:
		for i, v := range vv {
			vv[i] = stringKeys(v)
		}
		return vv
	default:
		return x
	}
}

func Usage(w io.Writer) {
	fmt.Fprintf(w, "Subcommands:\n\n")
	for _, name := range modNames() {
		mod := Mods[name]
		fs := mod.Flags()
		fs.SetOutput(w)
		fmt.Fprintf(w, "%s\n", name)
		fs.PrintDefaults()
		fmt.Fprintln(w, "  "+mod.Doc())
		fmt.Fprintln(w)
	}
	fmt.Fprintf(w, "yamltojson\n  -p    pretty-print\n\n")
	fmt.Fprintf(w, "jsontoyaml (no arguments)\n\n")
	fmt.Fprintf(w, "inline FILENAME\n  Print the file with %%inline(\"...\") expanded.\n\n")
	fmt.Fprintf(w, "expand MACRODIR\n  Expand the game with the Javascript macros in MACRODIR.\n\n")
}

var DefaultGameYAML = `commands:
`
