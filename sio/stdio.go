/* Copyright 2019 Comcast Cable Communications Management, LLC
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

package sio

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/Comcast/parley/core"

	"github.com/fatih/color"
)

// Stdio is a fairly simple Couplings that uses stdin for input and
// stdout for output.
//
// Each input line is either plain text for the default session or
// a JSON Input.  State is optionally crudely written as JSON to a
// file.
type Stdio struct {
	// In is coupled to runner input.
	In io.Reader

	// Out is coupled to runner output.
	Out io.Writer

	// ShellExpand enables input to include inline shell commands
	// delimited by '<<' and '>>'.  Use at your wown risk, of
	// course!
	ShellExpand bool

	// Timestamps prepends a timestamp to each output line.
	Timestamps bool

	// EchoInput writes input lines (prepended with "input") to
	// the output.
	EchoInput bool

	// Tags prefixes tags indicating type of output ("input",
	// "say", "diag").
	Tags bool

	// PadTags adds some padding to tags.
	PadTags bool

	// JSON writes each Result as JSON rather than as text.
	JSON bool

	// Color highlights suggestions and errors.
	Color bool

	JSONStore

	// InputEOF will be closed on EOF from stdin.
	InputEOF chan bool

	// WriteStatePerMsg will write out ALL state after every input
	// is processed.
	//
	// Inefficient!
	WriteStatePerMsg bool

	// PrintDiag turns on printing of diagnostic data.
	PrintDiag bool
}

// NewStdio creates a new Stdio.
//
// In and Out are initialized with os.Stdin and os.Stdout
// respectively.
func NewStdio(shellExpand bool) *Stdio {
	return &Stdio{
		In:          os.Stdin,
		Out:         os.Stdout,
		ShellExpand: shellExpand,
		InputEOF:    make(chan bool),
	}
}

// Stop writes out the state if requested by StateOutputFilename.
//
// This function waits until IO is complete or was terminated via its
// context.
func (s *Stdio) Stop(ctx context.Context) error {
	return s.JSONStore.Stop(ctx, true)
}

func (s *Stdio) printf(tag, format string, args ...interface{}) {
	if s.PadTags {
		tag = fmt.Sprintf("% 10s", tag)
	}
	if s.Tags {
		format = tag + " " + format
	}
	if s.Timestamps {
		ts := fmt.Sprintf("%-31s", core.Timestamp())
		format = ts + " " + format
	}
	fmt.Fprintf(s.Out, format, args...)
}

// WriteResult writes a Result to s.Out.
func (s *Stdio) WriteResult(r *Result) {
	if s.JSON {
		s.printf("result", "%s\n", JS(r))
		return
	}
	if r.Intro != "" {
		s.printf("say", "%s\n", r.Intro)
	}
	for _, st := range r.Strides {
		if s.PrintDiag {
			s.printf("diag", "%s\n", JShort(st))
		}
		for _, line := range st.Output {
			s.printf("say", "%s\n", line)
		}
		if st.Suggestion != "" {
			hint := fmt.Sprintf("(did you mean %q?)", st.Suggestion)
			if s.Color {
				hint = color.CyanString(hint)
			}
			s.printf("hint", "%s\n", hint)
		}
	}
	if r.Err != "" {
		msg := "error: " + r.Err
		if s.Color {
			msg = color.RedString(msg)
		}
		s.printf("error", "%s\n", msg)
	}
}

// IO returns channels for reading from stdin and writing to stdout.
func (s *Stdio) IO(ctx context.Context) (chan *Input, chan *Result, chan bool, error) {
	in := make(chan *Input)
	done := make(chan bool)

	s.WG.Add(1)
	go func() {
		defer s.WG.Done()
		stdin := bufio.NewReader(s.In)
		for {
			select {
			case <-ctx.Done():
				return
			default:
				line, err := stdin.ReadString('\n')
				if (err == io.EOF && line == "") || strings.TrimSpace(line) == "quit" {
					close(done)
					close(s.InputEOF)
					return
				}
				if err != nil && err != io.EOF {
					log.Printf("stdin error %s", err)
					return
				}
				if s.EchoInput {
					s.printf("input", "%s\n", strings.TrimRight(line, "\n"))
				}
				if strings.HasPrefix(line, "#") || len(strings.TrimSpace(line)) == 0 {
					continue
				}
				if s.ShellExpand {
					if line, err = ShellExpand(line); err != nil {
						log.Printf("stdin error %s", err)
						return
					}
				}

				x, err := ParseInput(line)
				if err != nil {
					fmt.Fprintf(os.Stderr, "bad input: %s\n", err)
					continue
				}

				select {
				case <-ctx.Done():
					return
				case in <- x:
				}
			}
		}
	}()

	out := make(chan *Result)

	s.WG.Add(1)
	go func() {
		defer s.WG.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case r := <-out:
				if r == nil {
					return
				}
				s.WriteResult(r)
				if err := s.Update(r); err != nil {
					log.Printf("stdio update error %s", err)
				}
				if s.WriteStatePerMsg {
					if err := s.WriteState(ctx); err != nil {
						log.Printf("stdio write error %s", err)
					}
				}
			}
		}
	}()

	return in, out, done, nil
}
