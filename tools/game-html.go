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
	"encoding/json"
	"fmt"
	"io"

	"github.com/Comcast/parley/core"
	"github.com/Comcast/parley/game"
	"github.com/Comcast/parley/match"

	md "github.com/russross/blackfriday/v2"
	"golang.org/x/net/html"
)

func sourceText(src *core.Source) string {
	if s, is := src.Source.(string); is {
		return s
	}
	return fmt.Sprintf("%v", src.Source)
}

// RenderGameHTML writes an HTML description of the game's commands.
// Docs are Markdown.
func RenderGameHTML(g *game.Game, out io.Writer) error {
	f := func(format string, args ...interface{}) {
		fmt.Fprintf(out, format+"\n", args...)
	}
	esc := html.EscapeString

	f(`<div class="gameDoc doc">%s</div>`, md.Run([]byte(g.Doc)))

	if g.Intro != "" {
		f(`<div class="intro"><pre>%s</pre></div>`, esc(g.Intro))
	}

	f(`<div class="commands"><table>`)
	for i, c := range g.Commands {
		id := fmt.Sprintf("command-%d", i)
		f(`<tr class="command"><td><span id="%s" class="commandName">%s</span></td><td>`, id, esc(c.Name))

		if c.Doc != "" {
			f(`<div class="commandDoc doc">%s</div>`, md.Run([]byte(c.Doc)))
		}

		f(`<table>`)
		for _, p := range c.Patterns {
			class := "pattern"
			if _, err := match.Parse(p); err != nil {
				class = "pattern error"
			}
			f(`<tr><td>pattern</td><td><code class="%s">%s</code></td></tr>`, class, esc(p))
		}
		row := func(label string, src *core.Source) {
			if src == nil {
				return
			}
			in := src.Interpreter
			if in == "" {
				in = "default"
			}
			f(`<tr><td>%s</td><td><div class="code" title="%s"><pre>%s</pre></div></td></tr>`,
				label, esc(in), esc(sourceText(src)))
		}
		row("condition", c.Condition)
		row("response", c.Response)
		row("otherwise", c.Otherwise)
		for name, src := range c.Set {
			row("set "+esc(name), src)
		}
		if c.Goto != "" {
			f(`<tr><td>goto</td><td><code>%s</code></td></tr>`, esc(c.Goto))
		}
		if c.Take {
			f(`<tr><td>take</td><td></td></tr>`)
		}
		if c.Drop {
			f(`<tr><td>drop</td><td></td></tr>`)
		}
		f(`</table>`)
		f(`</td></tr>`)
	}
	f(`</table></div>`)

	return nil
}

// RenderGamePage writes a complete HTML page for the game.
func RenderGamePage(g *game.Game, out io.Writer, cssFiles []string, includeData bool) error {

	if cssFiles == nil {
		cssFiles = []string{"/static/game-html.css"}
	}

	title := html.EscapeString(g.Name)

	fmt.Fprintf(out, `<!DOCTYPE html>
<html>
  <head>
  <meta charset="utf-8">
  <title>%s</title>
`, title)

	if includeData {
		js, err := json.Marshal(g)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, `
  <script>
  var thisGame = %s;
  </script>
`, js)
	}

	for _, cssFile := range cssFiles {
		fmt.Fprintf(out, "  <link href=\"%s\" rel=\"stylesheet\">\n", html.EscapeString(cssFile))
	}

	fmt.Fprintf(out, `
  </head>
  <body>
    <h1>%s</h1>
`, title)

	if err := RenderGameHTML(g, out); err != nil {
		return err
	}

	fmt.Fprintf(out, `
  </body>
</html>
`)

	return nil
}

// ReadAndRenderGamePage reads a game file and renders it.
func ReadAndRenderGamePage(filename string, cssFiles []string, out io.Writer, includeData bool) error {
	g, err := game.ReadGame(filename)
	if err != nil {
		return err
	}
	return RenderGamePage(g, out, cssFiles, includeData)
}
