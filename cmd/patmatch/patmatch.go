/* Copyright 2018-2019 Comcast Cable Communications Management, LLC
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

// Package main is a little command-line utility to invoke pattern
// matching.
//
//   patmatch -p 'get [the/a] {red} %object%' -s 'get the ball' -g games/cellar.yaml
//
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/Comcast/parley/core"
	"github.com/Comcast/parley/game"
	"github.com/Comcast/parley/match"

	"github.com/fatih/color"
)

// Report is what patmatch prints.
type Report struct {
	*match.Result
	Refs core.Refs              `json:"refs"`
	Vars map[string]interface{} `json:"vars,omitempty"`
}

func main() {
	var (
		pattern  = flag.String("p", "", "pattern")
		subject  = flag.String("s", "", "subject (player input)")
		varsJS   = flag.String("vars", "{}", "variables in JSON")
		gameFile = flag.String("g", "", "optional game file for characters and objects")
		room     = flag.String("room", "", "player's room (defaults to the game's)")
		want     = flag.String("w", "", `"true" or "false" to check whether the pattern matched`)
		tree     = flag.Bool("tree", false, "print the parsed pattern")

		bench = flag.Int("bench", 0, "number of times to run (and report time)")

		noColor = flag.Bool("no-color", false, "disable color output")
		verbose = flag.Bool("v", false, "verbosity")
	)

	flag.Parse()

	if *noColor {
		color.NoColor = true
	}

	var (
		ctx   = context.Background()
		vars  = core.NewVars()
		world = &core.World{}
		m     = match.NewMatcher()
	)

	var init map[string]interface{}
	if err := json.Unmarshal([]byte(*varsJS), &init); err != nil {
		panic(err)
	}
	for name, x := range init {
		switch vv := x.(type) {
		case float64:
			vars.SetInt(name, int(vv))
		case string:
			vars.SetText(name, vv)
		default:
			panic(fmt.Errorf("variable %s: bad value %#v", name, x))
		}
	}

	if *gameFile != "" {
		g, err := game.ReadGame(*gameFile)
		if err != nil {
			panic(err)
		}
		world = g.World()
		if *room != "" {
			world.PlayerRoom = *room
		}
		// Everything counts as seen here.
		for _, es := range [][]*core.Entity{world.Characters, world.Objects} {
			for _, e := range es {
				e.Seen = true
			}
		}
	}

	if *tree {
		t, err := match.Parse(*pattern)
		if err != nil {
			fmt.Fprintln(os.Stderr, color.RedString("%s", err))
			os.Exit(1)
		}
		t.Walk(func(id match.NodeID, depth int) {
			fmt.Printf("%s%s %s\n", strings.Repeat("  ", depth), t.Kind(id), t.Text(id))
		})
	}

	if 0 < *bench {
		var stats runtime.MemStats
		runtime.ReadMemStats(&stats)
		allocs := stats.TotalAlloc
		then := time.Now()
		for i := 0; i < *bench; i++ {
			if _, err := m.Match(ctx, *pattern, *subject, vars.Copy(), world); err != nil {
				panic(err)
			}
		}
		elapsed := time.Now().Sub(then)
		meanNanos := elapsed.Nanoseconds() / int64(*bench)

		runtime.ReadMemStats(&stats)
		allocated := (stats.TotalAlloc - allocs) / uint64(*bench)

		log.Printf("%d iterations, %d mean ns/Match, %d mean bytes allocated per Match", *bench, meanNanos, allocated)
	}

	r, err := m.Match(ctx, *pattern, match.Normalize(*subject), vars, world)
	if err != nil {
		fmt.Fprintln(os.Stderr, color.RedString("%s", err))
		os.Exit(1)
	}

	if *want != "" {
		ok := fmt.Sprintf("%v", r.Matched) == *want
		fmt.Printf("%v\n", ok)
		if !ok {
			os.Exit(1)
		}
		return
	}

	if r.Matched {
		color.Green("matched")
	} else {
		color.Red("no match")
	}

	report := &Report{
		Result: r,
		Refs:   vars.Refs,
	}
	if *verbose {
		report.Vars = make(map[string]interface{}, len(vars.Values))
		for name, v := range vars.Values {
			report.Vars[name] = v.String()
		}
	}

	js, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		panic(err)
	}
	fmt.Printf("%s\n", js)

	for _, i := range r.Characters {
		fmt.Printf("character %d: %s\n", i, color.CyanString(world.Entity(core.Characters, i).FullName()))
	}
	for _, i := range r.Objects {
		fmt.Printf("object %d: %s\n", i, color.CyanString(world.Entity(core.Objects, i).FullName()))
	}
}
