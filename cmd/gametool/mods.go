package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/Comcast/parley/core"
	"github.com/Comcast/parley/game"
	"github.com/Comcast/parley/tools"

	"github.com/jsccast/yaml"
)

var Mods = map[string]Mod{
	"addCommand":     &AddCommandMod{},
	"addHelpCommand": &AddHelpCommandMod{},
	"analyze":        &Analyzer{},
	"graph":          &Grapher{},
	"mermaid":        &Mermaider{},
	"html":           &HTMLer{},
	"verbs":          &Verber{},
}

func modNames() []string {
	acc := make([]string, 0, len(Mods))
	for name := range Mods {
		acc = append(acc, name)
	}
	sort.Strings(acc)
	return acc
}

var (
	CommandExists = errors.New("command exists")
	NoPattern     = errors.New("no pattern")
)

// Mod does something with a game.  If F returns true, the (modified)
// game is written as YAML.
type Mod interface {
	F(g *game.Game, w io.Writer) (bool, error)
	Doc() string
	Flags() *flag.FlagSet
}

func find(g *game.Game, name string) int {
	for i, c := range g.Commands {
		if c != nil && c.Name == name {
			return i
		}
	}
	return -1
}

// AddCommand adds a command with the given pattern and template
// response.  With first, the command is tried before all others.
//
// The Game's Doc is updated to note that this processing has
// occurred.
func AddCommand(g *game.Game, name, pattern, response string, first bool) error {
	if pattern == "" {
		return NoPattern
	}
	if 0 <= find(g, name) {
		return CommandExists
	}

	c := &game.Command{
		Name:     name,
		Patterns: []string{pattern},
	}
	if response != "" {
		c.Response = &core.Source{
			Source: response,
		}
	}

	if first {
		g.Commands = append([]*game.Command{c}, g.Commands...)
	} else {
		g.Commands = append(g.Commands, c)
	}

	g.Doc = g.Doc + fmt.Sprintf(`

This game has processed by AddCommand with command "%s".
`, name)

	return nil
}

type AddCommandMod struct {
	Name     string
	Pattern  string
	Response string
	First    bool
}

func (c *AddCommandMod) Doc() string {
	return `
Adds a command with the given pattern and response.
`
}

func (c *AddCommandMod) Flags() *flag.FlagSet {
	flags := flag.NewFlagSet("addCommand", flag.ContinueOnError)

	flags.StringVar(&c.Name, "n", "added", "command name")
	flags.StringVar(&c.Pattern, "p", "", "pattern")
	flags.StringVar(&c.Response, "r", "", "response template")
	flags.BoolVar(&c.First, "first", false, "try this command before the others")

	return flags
}

func (c *AddCommandMod) F(g *game.Game, w io.Writer) (bool, error) {
	return true, AddCommand(g, c.Name, c.Pattern, c.Response, c.First)
}

// HelpCommandYAML is a command that lists the game's verbs, which
// AddHelpCommand substitutes for VERBS.
var HelpCommandYAML = `
name: help
doc: List the verbs this game knows.
patterns: ["help"]
response: "You can try: VERBS."
`

// AddHelpCommand adds a 'help' command as given by HelpCommandYAML.
func AddHelpCommand(g *game.Game) error {
	if 0 <= find(g, "help") {
		return CommandExists
	}

	var c game.Command
	if err := yaml.Unmarshal([]byte(HelpCommandYAML), &c); err != nil {
		return err
	}

	verbs := strings.Join(g.Verbs(), ", ")
	if s, is := c.Response.Source.(string); is {
		c.Response.Source = strings.Replace(s, "VERBS", verbs, 1)
	}

	g.Commands = append(g.Commands, &c)

	return nil
}

type AddHelpCommandMod struct {
}

func (m *AddHelpCommandMod) Doc() string {
	return `
Adds a 'help' command that lists the game's verbs.
`
}

func (m *AddHelpCommandMod) Flags() *flag.FlagSet {
	return flag.NewFlagSet("addHelpCommand", flag.ContinueOnError)
}

func (m *AddHelpCommandMod) F(g *game.Game, w io.Writer) (bool, error) {
	return true, AddHelpCommand(g)
}

type Analyzer struct {
}

func (m *Analyzer) F(g *game.Game, w io.Writer) (bool, error) {
	a, err := tools.Analyze(g)
	if err != nil {
		return false, err
	}
	return false, a.Report(w)
}

func (m *Analyzer) Doc() string {
	return "Reports commands, rooms, variables, and likely problems."
}

func (m *Analyzer) Flags() *flag.FlagSet {
	return flag.NewFlagSet("analyze", flag.ContinueOnError)
}

type Grapher struct {
	OutputFilename string
	Highlight      string
	PNG            bool
}

func (m *Grapher) F(g *game.Game, w io.Writer) (bool, error) {
	if m.PNG {
		filename, err := tools.PNG(g, strings.TrimSuffix(m.OutputFilename, ".dot"), m.Highlight)
		if err == nil {
			fmt.Fprintf(w, "%s\n", filename)
		}
		return false, err
	}

	f, err := os.Create(m.OutputFilename)
	if err != nil {
		return false, err
	}

	return false, tools.Dot(g, f, m.Highlight) // Will Close f.
}

func (m *Grapher) Doc() string {
	return "Writes a Graphviz graph of commands and their patterns."
}

func (m *Grapher) Flags() *flag.FlagSet {
	fs := flag.NewFlagSet("graph", flag.ContinueOnError)
	fs.StringVar(&m.OutputFilename, "o", "game.dot", "output filename")
	fs.StringVar(&m.Highlight, "h", "", "command to highlight")
	fs.BoolVar(&m.PNG, "png", false, "also render a PNG (requires 'dot')")
	return fs
}

type Mermaider struct {
	OutputFilename string
	Highlight      string
	NoPatterns     bool
}

type nopCloser struct {
	io.Writer
}

func (nopCloser) Close() error { return nil }

func (m *Mermaider) F(g *game.Game, w io.Writer) (bool, error) {
	var out io.WriteCloser = nopCloser{w}
	if m.OutputFilename != "" && m.OutputFilename != "-" {
		f, err := os.Create(m.OutputFilename)
		if err != nil {
			return false, err
		}
		out = f
	}
	opts := &tools.MermaidOpts{
		ShowPatterns: !m.NoPatterns,
		ShowRooms:    true,
		ActionFill:   "#bcf2db",
	}
	return false, tools.Mermaid(g, out, opts, m.Highlight)
}

func (m *Mermaider) Doc() string {
	return "Writes a Mermaid flowchart of commands and rooms."
}

func (m *Mermaider) Flags() *flag.FlagSet {
	fs := flag.NewFlagSet("mermaid", flag.ContinueOnError)
	fs.StringVar(&m.OutputFilename, "o", "-", "output filename")
	fs.StringVar(&m.Highlight, "h", "", "command to highlight")
	fs.BoolVar(&m.NoPatterns, "no-patterns", false, "don't show patterns")
	return fs
}

type HTMLer struct {
	CSS         string
	IncludeData bool
}

func (m *HTMLer) F(g *game.Game, w io.Writer) (bool, error) {
	var css []string
	if m.CSS != "" {
		css = strings.Split(m.CSS, ",")
	}
	return false, tools.RenderGamePage(g, w, css, m.IncludeData)
}

func (m *HTMLer) Doc() string {
	return "Renders the game as an HTML page."
}

func (m *HTMLer) Flags() *flag.FlagSet {
	fs := flag.NewFlagSet("html", flag.ContinueOnError)
	fs.StringVar(&m.CSS, "css", "", "comma-separated CSS files")
	fs.BoolVar(&m.IncludeData, "data", false, "include the game as JSON")
	return fs
}

type Verber struct {
}

func (m *Verber) F(g *game.Game, w io.Writer) (bool, error) {
	for _, v := range g.Verbs() {
		fmt.Fprintln(w, v)
	}
	return false, nil
}

func (m *Verber) Doc() string {
	return "Lists the words that can start a command."
}

func (m *Verber) Flags() *flag.FlagSet {
	return flag.NewFlagSet("verbs", flag.ContinueOnError)
}
