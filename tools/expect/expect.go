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

// Package expect is a tool for testing games.
//
// You construct a Session, which has inputs and expected outputs.
// Then run the session to see if the expected outputs actually
// appeared.
//
// An expected output is a command pattern that an output line must
// match.  Specifying what's expected can be simple, as in some
// literal output, or fairly fancy, as in a guard that checks what
// the pattern captured.
//
// A Session can run in-process against a game or against a
// subprocess (like cmd/sio) that reads lines from stdin and writes
// lines to stdout.
//
// See ../../cmd/mexpect for command-line use.
package expect

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/Comcast/parley/core"
	"github.com/Comcast/parley/game"
	"github.com/Comcast/parley/match"
	. "github.com/Comcast/parley/util/testutil"
)

// Output is a description of an output line that's expected.
type Output struct {
	// Doc is an opaque documentation string.
	Doc string `json:"doc,omitempty" yaml:"doc,omitempty"`

	// Pattern must be matched by an output line.
	Pattern string `json:"pattern" yaml:"pattern"`

	// GuardSource is an optional condition that's evaluated
	// after a match with what the pattern captured.
	GuardSource *core.Source `json:"guard,omitempty" yaml:"guard,omitempty"`

	// Line, which is the output that matched, is written during
	// processing.  Just for diagnostics.
	Line string `json:"line,omitempty" yaml:"line,omitempty"`

	// Inverted means that matching output isn't desired!
	Inverted bool `json:"inverted,omitempty" yaml:"inverted,omitempty"`
}

// IO is a package of input lines and required output
// descriptions.
type IO struct {
	// Doc is an opaque documentation string.
	Doc string `json:"doc,omitempty" yaml:"doc,omitempty"`

	// WaitBefore is the time to wait before sending the first
	// line (subprocess only).
	WaitBefore time.Duration `json:"waitBefore,omitempty" yaml:"waitBefore,omitempty"`

	// WaitBetween is the time to wait between sending lines
	// (subprocess only).
	WaitBetween time.Duration `json:"waitBetween,omitempty" yaml:"waitBetween,omitempty"`

	// Inputs are the lines to send.
	Inputs []string `json:"inputs,omitempty" yaml:"inputs,omitempty"`

	// WaitAfter is the time to wait after sending the last
	// line (subprocess only).
	WaitAfter time.Duration `json:"waitAfter,omitempty" yaml:"waitAfter,omitempty"`

	// OutputSet is the set (not a list) of outputs to verify.
	OutputSet []Output `json:"outputSet,omitempty" yaml:"outputSet,omitempty"`

	// Vars are variable values to check afterwards (in-process
	// only).
	Vars map[string]interface{} `json:"vars,omitempty" yaml:"vars,omitempty"`

	// Room is the room the player should be in afterwards
	// (in-process only).
	Room string `json:"room,omitempty" yaml:"room,omitempty"`

	// Timeout is the optional timeout for this set.
	// Session.DefaultTimeout is the default value.
	Timeout time.Duration `json:"timeout,omitempty" yaml:"timeout,omitempty"`
}

// Session is mostly a sequence of IOs.
type Session struct {
	// Doc is an opaque documentation string.
	Doc string `json:"doc,omitempty" yaml:"doc,omitempty"`

	// Game is the game's filename (for RunFile).
	Game string `json:"game,omitempty" yaml:"game,omitempty"`

	// IOs is sequence of IOs that this session will run.
	IOs []IO `json:"ios" yaml:"ios"`

	// Interpreters are used (if necessary) to compile any
	// GuardSources and the game.
	Interpreters core.InterpretersMap `json:"-" yaml:"-"`

	// Matcher matches expected output.  Defaults to
	// match.DefaultMatcher.
	Matcher *match.Matcher `json:"-" yaml:"-"`

	// DefaultTimeout is the default timeout for each IO.
	DefaultTimeout time.Duration `json:"defaultTimeout,omitempty" yaml:"defaultTimeout,omitempty"`

	// ShowStderr controls whether the subprocess's stderr is
	// logged.
	ShowStderr bool `json:"showStderr,omitempty" yaml:"showStderr,omitempty"`

	// ShowStdin controls whether the subprocess's stdin is
	// logged.
	ShowStdin bool `json:"showStdin,omitempty" yaml:"showStdin,omitempty"`

	// ShowStdout controls whether the subprocess's stdout is
	// logged.
	ShowStdout bool `json:"showStdout,omitempty" yaml:"showStdout,omitempty"`

	// OutputPrefix specifies a prefix of output lines that
	// should be removed.
	OutputPrefix string `json:"outputPrefix,omitempty" yaml:"outputPrefix,omitempty"`

	Verbose bool `json:"verbose,omitempty" yaml:"verbose,omitempty"`
}

// Failure reports an IO that didn't go as expected.
type Failure struct {
	// IO is the index of the IO.
	IO int

	Msg string

	// Lines is the output for the IO.
	Lines []string
}

func (f *Failure) Error() string {
	return fmt.Sprintf("io %d: %s (output: %s)", f.IO, f.Msg, JS(f.Lines))
}

func (s *Session) matcher() *match.Matcher {
	if s.Matcher != nil {
		return s.Matcher
	}
	return match.DefaultMatcher
}

// check reports whether the line satisfies the output.
func (s *Session) check(ctx context.Context, o *Output, line string, reg core.Registry) (bool, error) {
	if reg == nil {
		reg = &core.World{}
	}
	vars := core.NewVars()
	r, err := s.matcher().Match(ctx, o.Pattern, line, vars, reg)
	if err != nil {
		return false, err
	}
	if !r.Matched {
		return false, nil
	}
	if o.GuardSource == nil {
		return true, nil
	}
	guard, err := o.GuardSource.Compile(ctx, s.Interpreters)
	if err != nil {
		return false, err
	}
	x, err := guard.Exec(ctx, &core.Env{
		Vars:     vars,
		Registry: reg,
	})
	if err != nil {
		return false, err
	}
	return core.Truthy(x), nil
}

// verify checks all of an IO's outputs against the lines.
func (s *Session) verify(ctx context.Context, i int, iop *IO, lines []string, reg core.Registry) error {
	for j := range iop.OutputSet {
		o := &iop.OutputSet[j]
		found := false
		for _, line := range lines {
			ok, err := s.check(ctx, o, line, reg)
			if err != nil {
				return err
			}
			if ok {
				o.Line = line
				found = true
				break
			}
		}
		if found && o.Inverted {
			return &Failure{IO: i, Msg: fmt.Sprintf("undesired output %q", o.Line), Lines: lines}
		}
		if !found && !o.Inverted {
			return &Failure{IO: i, Msg: fmt.Sprintf("no output matched %q", o.Pattern), Lines: lines}
		}
	}
	return nil
}

// RunGame processes all the IOs in-process with a new session of the
// given (compiled) game.
func (s *Session) RunGame(ctx context.Context, g *game.Game) error {
	sess, err := g.NewSession(s.Matcher)
	if err != nil {
		return err
	}

	for i := range s.IOs {
		iop := &s.IOs[i]
		lines := make([]string, 0, 8)
		if i == 0 && g.Intro != "" {
			lines = append(lines, sess.Intro())
		}
		for _, in := range iop.Inputs {
			if s.ShowStdin {
				log.Printf("in %s", in)
			}
			strides, err := sess.Step(ctx, in)
			if err != nil {
				return err
			}
			for _, st := range strides {
				lines = append(lines, st.Output...)
			}
		}
		if s.ShowStdout {
			log.Printf("out %s", JS(lines))
		}
		if err = s.verify(ctx, i, iop, lines, sess.World); err != nil {
			return err
		}
		for name, want := range iop.Vars {
			v, have := sess.Vars.Get(name)
			if !have {
				return &Failure{IO: i, Msg: "no variable " + name, Lines: lines}
			}
			if got, want := v.String(), fmt.Sprintf("%v", want); got != want {
				return &Failure{IO: i, Msg: fmt.Sprintf("%s is %q, not %q", name, got, want), Lines: lines}
			}
		}
		if iop.Room != "" && iop.Room != sess.World.PlayerRoom {
			return &Failure{IO: i, Msg: "player is in " + sess.World.PlayerRoom + ", not " + iop.Room, Lines: lines}
		}
	}
	return nil
}

// RunFile reads and compiles s.Game (relative to dir) and then calls
// RunGame.
func (s *Session) RunFile(ctx context.Context, dir string) error {
	filename := s.Game
	if dir != "" && !strings.HasPrefix(filename, "/") {
		filename = dir + string(os.PathSeparator) + filename
	}
	g, err := game.ReadGame(filename)
	if err != nil {
		return err
	}
	if err = g.Compile(ctx, s.Interpreters, s.Matcher, false); err != nil {
		return err
	}
	return s.RunGame(ctx, g)
}

// Run processes all the IOs in the Session with a subprocess.
//
// The current directory is changed to 'dir' (and then hopefully
// restored).
//
// The subprocess is given by the args. The first arg is the
// executable.  Example args:
//
//   "sio", "-game", "games/cellar.yaml"
//
// Output lines are only read until every IO's (uninverted) outputs
// have been seen, so an inverted Output only checks those lines.
func (s *Session) Run(ctx context.Context, dir string, args ...string) error {

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if dir != "" {
		cwd, err := os.Getwd()
		if err != nil {
			return err
		}
		if err := os.Chdir(dir); err != nil {
			return err
		}
		// Far from perfect ...
		defer func() {
			if err := os.Chdir(cwd); err != nil {
				log.Printf("error restoring cwd %s", cwd)
			}
		}()
	}

	if len(args) == 0 {
		return fmt.Errorf("need a command (and optional args) (for expect.Session.Run)")
	}

	cmd := exec.Command(args[0], args[1:]...)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return err
	}
	defer stdin.Close()

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return err
	}
	defer stdout.Close()
	out := bufio.NewReader(stdout)

	stderr, err := cmd.StderrPipe()
	if err != nil {
		return err
	}
	defer stderr.Close()

	if err := cmd.Start(); err != nil {
		return err
	}

	// Log subprocess's stderr.
	go func() {
		out := bufio.NewReader(stderr)
		for {
			line, err := out.ReadString('\n')
			if err == io.EOF {
				break
			}
			if err != nil {
				if strings.Index(err.Error(), "already closed") < 0 {
					log.Printf("stderr error %s", err)
				}
				break
			}
			if s.ShowStderr {
				log.Printf("stderr %s", line)
			}
		}
	}()

	for i := range s.IOs {
		iop := &s.IOs[i]

		if iop.Timeout == 0 {
			iop.Timeout = s.DefaultTimeout
		}

		var (
			errs = make(chan error, 4)

			happy    = errors.New("happy")
			timeout  = errors.New("timeout")
			canceled = errors.New("canceled")

			lines = make(chan []string, 1)
		)

		if 0 < iop.Timeout {
			timer := time.AfterFunc(iop.Timeout, func() {
				errs <- timeout
				errs <- timeout
			})
			defer timer.Stop()
		}

		// Consume stdout.
		go func() {
			f := func() error {
				var (
					acc  = make([]string, 0, 8)
					need = make(map[int]bool)
				)
				defer func() {
					lines <- acc
				}()

				for j, o := range iop.OutputSet {
					if !o.Inverted {
						need[j] = true
					}
				}

				for 0 < len(need) {
					line, err := out.ReadString('\n')
					if err != nil {
						return err
					}

					if s.ShowStdout {
						log.Printf("out %s", line)
					}

					line = strings.TrimSpace(strings.TrimPrefix(line, s.OutputPrefix))
					acc = append(acc, line)

					for j := range need {
						ok, err := s.check(ctx, &iop.OutputSet[j], line, nil)
						if err != nil {
							return err
						}
						if ok {
							iop.OutputSet[j].Line = line
							delete(need, j)
						}
					}
				}

				return nil
			}

			if err := f(); err == nil {
				errs <- happy
			} else {
				errs <- err
			}
		}()

		// Send lines to stdin.
		go func() {

			f := func() error {
				s.pause("waitBefore", iop.WaitBefore)

				for j, input := range iop.Inputs {
					if 0 < j {
						s.pause("waitBetween", iop.WaitBetween)
					}

					if s.ShowStdin {
						log.Printf("in %s\n", input)
					}

					if _, err := io.WriteString(stdin, input+"\n"); err != nil {
						return err
					}
				}

				s.pause("waitAfter", iop.WaitAfter)
				return nil
			}

			if err := f(); err == nil {
				errs <- happy
			} else {
				errs <- err
			}
		}()

		// Wait until we are done.

		happies := 0
		want := 2

	LOOP:
		for happies < want {
			select {
			case <-ctx.Done():
				return canceled
			case err = <-errs:
				switch err {
				case happy:
					happies++
				default:
					break LOOP
				}
			}
		}

		if happies < want {
			return err
		}

		got := <-lines
		for _, o := range iop.OutputSet {
			if !o.Inverted {
				continue
			}
			for _, line := range got {
				ok, err := s.check(ctx, &o, line, nil)
				if err != nil {
					return err
				}
				if ok {
					return &Failure{IO: i, Msg: fmt.Sprintf("undesired output %q", line), Lines: got}
				}
			}
		}
	}

	cancel()

	if err := stdin.Close(); err != nil {
		log.Printf("stdin.Close() error %s", err)
	}

	if err := stdout.Close(); err != nil {
		log.Printf("stdout.Close() error %s", err)
	}

	if err := cmd.Wait(); err != nil {
		return err
	}

	return nil
}

func (s *Session) pause(why string, d time.Duration) {
	if 0 < d {
		if s.Verbose {
			log.Printf("pause %s %s", why, d)
		}
		time.Sleep(d)
	}
}
