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

package tools

import (
	"fmt"
	"io"
	"log"
	"os"
	"os/exec"
	"strings"

	"github.com/Comcast/parley/game"
	"github.com/Comcast/parley/match"

	"gopkg.in/yaml.v2"
)

// Effects gathers what a command does (other than its response) for
// display.
func Effects(c *game.Command) map[string]interface{} {
	m := make(map[string]interface{})
	if c.Condition != nil {
		m["condition"] = c.Condition.Source
	}
	if 0 < len(c.Set) {
		set := make(map[string]interface{}, len(c.Set))
		for name, src := range c.Set {
			set[name] = src.Source
		}
		m["set"] = set
	}
	if c.Goto != "" {
		m["goto"] = c.Goto
	}
	if c.Take {
		m["take"] = true
	}
	if c.Drop {
		m["drop"] = true
	}
	return m
}

func htmlEscape(s string) string {
	s = strings.Replace(s, "&", `&amp;`, -1)
	s = strings.Replace(s, "<", `&lt;`, -1)
	s = strings.Replace(s, ">", `&gt;`, -1)
	return s
}

// nodeLabel is the label for a pattern node, or "" for nodes that
// aren't drawn.
func nodeLabel(t *match.Tree, id match.NodeID) (string, string) {
	switch k := t.Kind(id); k {
	case match.Word:
		return t.Text(id), "#99ddc8"
	case match.Variable:
		return "%" + t.Text(id) + "%", "#f2e394"
	case match.CharacterRef, match.ObjectRef, match.NumberRef, match.TextRef:
		return "%" + k.String() + "%", "#f2b880"
	case match.Choice:
		return "[choice]", "#2d93ad"
	case match.Optional:
		return "{optional}", "#52aa5e"
	case match.Wildcard:
		return "*", "#dddddd"
	case match.List:
		return "", ""
	default:
		return "", ""
	}
}

// PatternDot writes the nodes and edges (but not the surrounding
// graph) for a pattern.  Node names start with the given prefix, and
// the pattern's root is connected to the node named from.
func PatternDot(t *match.Tree, w io.Writer, prefix, from string) {
	var walk func(id match.NodeID, parent string)
	walk = func(id match.NodeID, parent string) {
		label, fill := nodeLabel(t, id)
		here := parent
		if label != "" {
			here = fmt.Sprintf("%s_%d", prefix, id)
			fmt.Fprintf(w, "  %s [shape=\"box\", style=\"rounded,filled\", fillcolor=\"%s\", label=<%s> ]\n",
				here, fill, htmlEscape(label))
			fmt.Fprintf(w, "  %s -> %s\n", parent, here)
		}
		for _, kid := range t.Children(id) {
			walk(kid, here)
		}
	}
	walk(t.Root(), from)
}

// Dot makes a Graphviz dot file for the given game: each command with
// its pattern trees.
//
// The optional highlight is the name of a command to draw in red.
func Dot(g *game.Game, w io.WriteCloser, highlight string) error {

	log.Printf("processing %d commands", len(g.Commands))

	fmt.Fprintf(w, "digraph G {\n")
	fmt.Fprintf(w, `  graph [ordering=out,rankdir=LR,nodesep=0.3,ranksep=0.6]
  node [shape="record" style="rounded,filled"]
  edge [fontsize = "12"]
`)

	name := g.Name
	if name == "" {
		name = "game"
	}
	fmt.Fprintf(w, "  game [shape=\"doubleoctagon\", style=\"filled,bold\", fillcolor=\"#eeeeee\", label=<%s> ]\n",
		htmlEscape(name))

	for i, c := range g.Commands {
		cid := fmt.Sprintf("c%d", i)
		label := htmlEscape(c.Name)
		if c.Doc != "" {
			doc := c.Doc
			if 40 < len(doc) {
				if period := strings.Index(doc, ". "); 0 < period {
					doc = doc[0 : period+1]
				}
			}
			label += "<BR/><FONT POINT-SIZE='8'>" + htmlEscape(doc) + "</FONT>"
		}
		if effects := Effects(c); 0 < len(effects) {
			bs, err := yaml.Marshal(effects)
			if err != nil {
				bs = []byte(err.Error())
			}
			label += `<FONT POINT-SIZE="6">` +
				`<BR/>` + strings.Replace(htmlEscape(string(bs)), "\n", `<BR ALIGN="LEFT"/>`, -1) +
				`</FONT>`
		}
		color, fill := "black", "#bcf2db"
		if c.Name == highlight {
			color, fill = "red", "#f98b8b"
		}
		fmt.Fprintf(w, "  %s [shape=\"note\", style=\"filled\", color=\"%s\", fillcolor=\"%s\", label=<%s> ]\n",
			cid, color, fill, label)
		fmt.Fprintf(w, "  game -> %s\n", cid)

		for j, p := range c.Patterns {
			t, err := match.Parse(p)
			if err != nil {
				log.Printf("command %s pattern %d: %v", c.Name, j, err)
				fmt.Fprintf(w, "  %s_p%d [shape=\"box\", color=\"red\", label=<%s> ]\n",
					cid, j, htmlEscape(err.Error()))
				fmt.Fprintf(w, "  %s -> %s_p%d\n", cid, cid, j)
				continue
			}
			PatternDot(t, w, fmt.Sprintf("%s_p%d", cid, j), cid)
		}
	}

	fmt.Fprintf(w, "}\n")
	return w.Close()
}

// PNG generates a PNG image based on output from Dot.
//
// This function with write two files: basename.dot and basename.png,
// where the basename is the given string.
func PNG(g *game.Game, basename string, highlight string) (string, error) {
	dotname := basename + ".dot"
	pngname := basename + ".png"

	dotfile, err := os.Create(dotname)
	if err != nil {
		return pngname, err
	}
	if err := Dot(g, dotfile, highlight); err != nil {
		return pngname, err
	}
	cmd := "dot -Tpng -Gstart=1 " + dotname + " > " + pngname
	if err := exec.Command("bash", "-c", cmd).Run(); err != nil {
		return pngname, err
	}
	return pngname, nil
}
