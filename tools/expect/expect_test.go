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

package expect

import (
	"context"
	"errors"
	"io/ioutil"
	"os/exec"
	"testing"

	"github.com/Comcast/parley/core"
	"github.com/Comcast/parley/interpreters"

	"github.com/jsccast/yaml"
)

func readSession(t *testing.T) *Session {
	bs, err := ioutil.ReadFile("../../games/cellar.test.yaml")
	if err != nil {
		t.Fatal(err)
	}
	var s *Session
	if err := yaml.Unmarshal(bs, &s); err != nil {
		t.Fatal(err)
	}
	s.Interpreters = interpreters.Standard()
	return s
}

// TestExpectGame runs games/cellar.test.yaml in-process.
func TestExpectGame(t *testing.T) {
	s := readSession(t)
	if err := s.RunFile(context.Background(), "../../games"); err != nil {
		t.Fatal(err)
	}
	if got := s.IOs[0].OutputSet[1].Line; got != "You take the brass lamp." {
		t.Fatal(got)
	}
}

func TestExpectFailure(t *testing.T) {
	s := readSession(t)
	s.IOs = s.IOs[:1]
	s.IOs[0].OutputSet = append(s.IOs[0].OutputSet, Output{
		Pattern:  "You take the *",
		Inverted: true,
	})
	err := s.RunFile(context.Background(), "../../games")
	var f *Failure
	if !errors.As(err, &f) {
		t.Fatalf("expected a Failure, not %v", err)
	}
	if f.IO != 0 {
		t.Fatal(f.IO)
	}
}

func TestExpectGuard(t *testing.T) {
	s := readSession(t)
	s.IOs = s.IOs[:1]
	s.IOs[0].OutputSet = []Output{
		{
			Pattern:     "You take the %text%.",
			GuardSource: &core.Source{
				Interpreter: "goja",
				Source:      `return _.refs.text === "brass lamp";`,
			},
		},
	}
	if err := s.RunFile(context.Background(), "../../games"); err != nil {
		t.Fatal(err)
	}
	s.IOs[0].OutputSet[0].GuardSource.Source = `return _.refs.text === "lamp";`
	if err := s.RunFile(context.Background(), "../../games"); err == nil {
		t.Fatal("guard should have failed")
	}
}

// TestExpectSubprocess runs games/cellar.test.yaml with a real sio
// process.
//
// Requires a current sio in the path.
func TestExpectSubprocess(t *testing.T) {
	if _, err := exec.LookPath("sio"); err != nil {
		t.Skip(err)
	}

	s := readSession(t)
	// Only output checks make sense for a subprocess.
	for i := range s.IOs {
		s.IOs[i].Vars = nil
		s.IOs[i].Room = ""
	}

	if err := s.Run(context.Background(), "../..", "sio", "-game", "games/cellar.yaml", "-state-output-filename", ""); err != nil {
		t.Fatal(err)
	}
}
