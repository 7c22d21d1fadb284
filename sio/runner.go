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
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"

	"github.com/Comcast/parley/game"
	"github.com/Comcast/parley/match"
	"github.com/Comcast/parley/storage"

	"github.com/edwingeng/deque"
)

// DefaultSession is the session for Input without a session id.
var DefaultSession = "default"

// RunnerConf provides some basic Runner parameters.
type RunnerConf struct {
	// HaltOnInputEOF stops the Loop when the input coupling is
	// exhausted.
	HaltOnInputEOF bool `json:"haltOnInputEOF,omitempty" yaml:"haltOnInputEOF,omitempty"`

	// HistorySize is the number of recent Results to remember.
	HistorySize int `json:"historySize,omitempty" yaml:"historySize,omitempty"`

	// Debug turns on session logging.
	Debug bool `json:"debug,omitempty" yaml:"debug,omitempty"`
}

// DefaultRunnerConf is used when NewRunner gets a nil RunnerConf.
var DefaultRunnerConf = &RunnerConf{
	HaltOnInputEOF: true,
	HistorySize:    32,
}

// Changed represents changes to a session after processing input.
type Changed struct {
	State   *game.State `json:"state,omitempty"`
	Deleted bool        `json:"deleted,omitempty"`
}

// Result represents all visible output from processing an Input.
type Result struct {
	Session string `json:"session"`

	// Intro is the game's introduction when the session is new.
	Intro string `json:"intro,omitempty"`

	// Strides reports on each command in the input line.
	Strides []*game.Stride `json:"strides,omitempty"`

	// Err is the processing error, if any.
	Err string `json:"err,omitempty"`

	// Changed represents all session changes.
	Changed map[string]*Changed `json:"changed,omitempty"`
}

// Output gathers all the text the player should see.
func (r *Result) Output() []string {
	acc := make([]string, 0, 8)
	if r.Intro != "" {
		acc = append(acc, r.Intro)
	}
	for _, st := range r.Strides {
		acc = append(acc, st.Output...)
	}
	if r.Err != "" {
		acc = append(acc, "error: "+r.Err)
	}
	return acc
}

// Runner represents a collection of sessions of one game with I/O
// coupled via two channels (in and out).
type Runner struct {
	Game *game.Game

	// Sessions are the current sessions.
	Sessions map[string]*game.Session

	Conf *RunnerConf `json:"conf"`

	// Matcher is given to every session.
	Matcher *match.Matcher

	// Storage, if not nil, receives every change and provides
	// sessions not in memory.
	Storage storage.Storage

	// Verbose turns on logging.
	Verbose bool

	// changed accumulates session changes during processing.
	changed map[string]*Changed

	// previous is a cache of (JSON) session states prior to
	// processing.  Used to compute net changes.
	previous map[string]string

	// history holds recent Results.
	history deque.Deque

	in   chan *Input
	out  chan *Result
	done chan bool

	sync.Mutex
}

// NewRunner makes a Runner for a compiled game.
//
// The coupling's IO() method is called to obtain the runner's in/out
// channels.
func NewRunner(ctx context.Context, g *game.Game, conf *RunnerConf, couplings Couplings) (*Runner, error) {
	in, out, done, err := couplings.IO(ctx)
	if err != nil {
		return nil, err
	}
	r := newRunner(g, conf)
	r.in, r.out, r.done = in, out, done
	return r, nil
}

func newRunner(g *game.Game, conf *RunnerConf) *Runner {
	if conf == nil {
		conf = DefaultRunnerConf
	}
	return &Runner{
		Game:     g,
		Conf:     conf,
		Sessions: make(map[string]*game.Session, 8),
		changed:  make(map[string]*Changed, 8),
		previous: make(map[string]string, 8),
		history:  deque.NewDeque(),
	}
}

// Logf logs if r.Verbose.
func (r *Runner) Logf(format string, args ...interface{}) {
	if !r.Verbose {
		return
	}
	log.Printf(format, args...)
}

func (r *Runner) change(sid string) *Changed {
	ch, have := r.changed[sid]
	if !have {
		ch = &Changed{}
		r.changed[sid] = ch
	}
	return ch
}

func (r *Runner) gid() string {
	if r.Game.Name == "" {
		return "game"
	}
	return r.Game.Name
}

// SetSession creates or replaces a session.  A nil state starts the
// game from the beginning.
func (r *Runner) SetSession(ctx context.Context, sid string, st *game.State) (*game.Session, error) {
	s, err := r.Game.NewSession(r.Matcher)
	if err != nil {
		return nil, err
	}
	s.Debug = r.Conf.Debug
	if st != nil {
		if err = s.Restore(st); err != nil {
			return nil, err
		}
	}
	r.Sessions[sid] = s
	r.change(sid).State = s.State()
	return s, nil
}

// DeleteSession removes a session.
//
// No error is returned if the session doesn't exist.
func (r *Runner) DeleteSession(ctx context.Context, sid string) error {
	delete(r.Sessions, sid)
	ch := r.change(sid)
	ch.Deleted = true
	ch.State = nil
	return nil
}

// session finds the session or makes one, trying Storage first.
func (r *Runner) session(ctx context.Context, sid string) (*game.Session, bool, error) {
	if s, have := r.Sessions[sid]; have {
		return s, false, nil
	}
	var st *game.State
	if r.Storage != nil {
		var err error
		if st, err = storage.Load(ctx, r.Storage, r.gid(), sid); err != nil {
			return nil, false, err
		}
	}
	s, err := r.SetSession(ctx, sid, st)
	return s, st == nil, err
}

// ProcessInput processes the given input and returns the results,
// which can then be processed by the runner's Result coupling.
func (r *Runner) ProcessInput(ctx context.Context, in *Input) (*Result, error) {
	r.Logf("ProcessInput %s", JS(in))

	r.Lock()
	defer r.Unlock()

	sid := in.Session
	if sid == "" {
		sid = DefaultSession
	}
	res := &Result{
		Session: sid,
	}

	if err := r.processInput(ctx, sid, in, res); err != nil {
		res.Err = err.Error()
	}

	changed, err := r.getChanged(ctx)
	if err != nil {
		return nil, err
	}
	res.Changed = changed

	if err = r.persist(ctx, changed); err != nil {
		return nil, err
	}

	r.remember(res)

	return res, nil
}

func (r *Runner) processInput(ctx context.Context, sid string, in *Input, res *Result) error {
	if in.Delete {
		return r.DeleteSession(ctx, sid)
	}
	if in.Reset {
		if _, err := r.SetSession(ctx, sid, nil); err != nil {
			return err
		}
	}
	s, fresh, err := r.session(ctx, sid)
	if err != nil {
		return err
	}
	if fresh || in.Reset {
		res.Intro = s.Intro()
	}
	if in.Line == "" {
		return nil
	}
	strides, err := s.Step(ctx, in.Line)
	res.Strides = strides
	r.change(sid).State = s.State()
	return err
}

// getChanged computes the net session changes since this method was
// previously called.
func (r *Runner) getChanged(ctx context.Context) (map[string]*Changed, error) {
	changed := make(map[string]*Changed, len(r.changed))

	for sid, ch := range r.changed {
		delete(r.changed, sid)
		if ch.Deleted {
			delete(r.previous, sid)
			changed[sid] = &Changed{
				Deleted: true,
			}
			continue
		}
		js, err := json.Marshal(ch)
		if err != nil {
			return nil, err
		}
		current := string(js)
		if previous, have := r.previous[sid]; have && previous == current {
			continue
		}
		r.previous[sid] = current
		changed[sid] = ch
	}

	return changed, nil
}

func (r *Runner) persist(ctx context.Context, changed map[string]*Changed) error {
	if r.Storage == nil || len(changed) == 0 {
		return nil
	}
	ss := make([]*storage.SessionState, 0, len(changed))
	for sid, ch := range changed {
		ss = append(ss, &storage.SessionState{
			Sid:     sid,
			State:   ch.State,
			Deleted: ch.Deleted,
		})
	}
	if err := r.Storage.WriteState(ctx, r.gid(), ss); err != nil {
		return fmt.Errorf("persist: %w", err)
	}
	return nil
}

func (r *Runner) remember(res *Result) {
	n := r.Conf.HistorySize
	if n <= 0 {
		return
	}
	r.history.PushBack(res)
	for n < r.history.Len() {
		r.history.PopFront()
	}
}

// History returns the recent Results, oldest first.
func (r *Runner) History() []*Result {
	r.Lock()
	defer r.Unlock()

	n := r.history.Len()
	acc := make([]*Result, 0, n)
	for i := 0; i < n; i++ {
		x := r.history.PopFront()
		acc = append(acc, x.(*Result))
		r.history.PushBack(x)
	}
	return acc
}

// Errorf sends an error Result and writes a log line with "ERROR"
// prepended.
func (r *Runner) Errorf(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	log.Println("ERROR " + msg)
	r.out <- &Result{
		Err: msg,
	}
}

// Loop starts the input processing loop in the current goroutine.
//
// This loop calls ProcessInput on each Input that arrives via the
// input coupling, and the loop halts when ctx.Done().
func (r *Runner) Loop(ctx context.Context) error {
	r.Logf("Runner.Loop starting")
LOOP:
	for {
		select {
		case <-r.done:
			if r.Conf.HaltOnInputEOF {
				r.Logf("Runner.Loop shutting down (r.done)")
				break LOOP
			}
			r.done = nil
		case <-ctx.Done():
			r.Logf("Runner.Loop shutting down (ctx.Done)")
			break LOOP
		case in := <-r.in:
			if in == nil {
				break LOOP
			}
			res, err := r.ProcessInput(ctx, in)
			if err != nil {
				r.Errorf("Runner.Loop ProcessInput %s", err)
				continue
			}
			select {
			case <-ctx.Done():
			case r.out <- res:
			}
		}
	}

	r.Logf("Runner.Loop done")
	return nil
}
