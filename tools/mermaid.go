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
	"strings"

	"github.com/Comcast/parley/game"
	"github.com/Comcast/parley/match"
)

type MermaidOpts struct {
	// ShowPatterns adds a node for each of a command's patterns.
	ShowPatterns bool `json:"showPatterns"`

	// ShowRooms adds an edge from a command to the room it
	// moves the player to.
	ShowRooms bool `json:"showRooms"`

	// ActionFill is the fill color of for command nodes.  Does
	// not apply if ActionClass is set.
	ActionFill string `json:"actionFill,omitempty"`

	// ActionClass will be the CSS class for command nodes.
	ActionClass string `json:"actionClass,omitempty"`
}

func mermaidText(s string) string {
	return strings.Replace(s, `"`, `#quot;`, -1)
}

// Mermaid makes a Mermaid (https://mermaidjs.github.io/) input file
// for the given game.
//
// The optional highlight is the name of a command to emphasize.
func Mermaid(g *game.Game, w io.WriteCloser, opts *MermaidOpts, highlight string) error {

	if opts == nil {
		opts = &MermaidOpts{
			ShowPatterns: true,
			ShowRooms:    true,
			ActionFill:   "#bcf2db",
		}
	}

	log.Printf("processing %d commands", len(g.Commands))

	fmt.Fprintf(w, "graph LR\n")

	rooms := make(map[string]string)
	room := func(name string) string {
		if rid, have := rooms[name]; have {
			return rid
		}
		rid := fmt.Sprintf("r%d", len(rooms))
		rooms[name] = rid
		fmt.Fprintf(w, "  %s{{\"%s\"}}\n", rid, mermaidText(name))
		return rid
	}

	for i, c := range g.Commands {
		cid := fmt.Sprintf("c%d", i)
		fmt.Fprintf(w, "  %s[\"%s\"]\n", cid, mermaidText(c.Name))
		switch {
		case opts.ActionClass != "":
			fmt.Fprintf(w, "  class %s %s\n", cid, opts.ActionClass)
		case c.Name == highlight:
			fmt.Fprintf(w, "  style %s fill:#f98b8b,stroke:red\n", cid)
		case opts.ActionFill != "":
			fmt.Fprintf(w, "  style %s fill:%s\n", cid, opts.ActionFill)
		}

		if opts.ShowPatterns {
			for j, p := range c.Patterns {
				label := p
				if t, err := match.Parse(p); err != nil {
					label = "error: " + err.Error()
				} else {
					label = t.String()
				}
				fmt.Fprintf(w, "  %s_p%d(\"%s\") --> %s\n", cid, j, mermaidText(label), cid)
			}
		}

		if opts.ShowRooms && c.Goto != "" {
			fmt.Fprintf(w, "  %s -- goto --> %s\n", cid, room(c.Goto))
		}
	}

	fmt.Fprintf(w, "\n")
	log.Printf("mermaid gen done")

	return w.Close()
}
