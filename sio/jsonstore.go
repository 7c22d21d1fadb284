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
	"io/ioutil"
	"sync"

	"github.com/Comcast/parley/game"
)

// JSONStore is a primitive facility to store session state as JSON
// in a file.
//
// Not glamorous or efficient.
type JSONStore struct {
	// StateOutputFilename, if not empty, will be the filename
	// writing state as JSON.
	StateOutputFilename string

	// StateInputFilename optionally gives a filename that
	// contains state to return when Read is called.
	StateInputFilename string

	State map[string]*game.State

	WG sync.WaitGroup

	sync.Mutex
}

func NewJSONStore() *JSONStore {
	return &JSONStore{
		StateOutputFilename: "state.json",
	}
}

// Start does nothing.
func (s *JSONStore) Start(ctx context.Context) error {
	return nil
}

// Stop writes out the state if requested by StateOutputFilename.
//
// This function first waits for s.WG if told to.
func (s *JSONStore) Stop(ctx context.Context, wait bool) error {
	if wait {
		s.WG.Wait()
	}
	return s.WriteState(ctx)
}

// Read reads s.StateInputFilename, which should contain a JSON
// representation of the sessions' states.
func (s *JSONStore) Read(ctx context.Context) (map[string]*game.State, error) {
	s.Lock()
	defer s.Unlock()
	if s.StateInputFilename != "" {
		js, err := ioutil.ReadFile(s.StateInputFilename)
		if err != nil {
			return nil, err
		}
		if err = json.Unmarshal(js, &s.State); err != nil {
			return nil, err
		}
		return s.State, nil

	}
	return make(map[string]*game.State), nil
}

// WriteState writes all sessions as JSON.
func (s *JSONStore) WriteState(ctx context.Context) error {
	s.Lock()
	defer s.Unlock()
	if s.State != nil && s.StateOutputFilename != "" {
		js, err := json.MarshalIndent(&s.State, "", "  ")
		if err != nil {
			return err
		}
		if err = ioutil.WriteFile(s.StateOutputFilename, js, 0644); err != nil {
			return err
		}
	}
	return nil
}

// Update records the changes in a Result.
func (s *JSONStore) Update(r *Result) error {
	s.Lock()
	defer s.Unlock()
	if s.State == nil {
		s.State = make(map[string]*game.State)
	}
	for sid, ch := range r.Changed {
		if ch.Deleted {
			delete(s.State, sid)
		} else if ch.State != nil {
			s.State[sid] = ch.State
		}
	}
	return nil
}
