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
	"strings"

	"github.com/Comcast/parley/game"
)

// Input is a line of player input for a session.
type Input struct {
	// Session is the session id.  Empty means the Runner's
	// default session.
	Session string `json:"session,omitempty"`

	// Line is what the player typed.
	Line string `json:"line,omitempty"`

	// Reset starts the session over.
	Reset bool `json:"reset,omitempty"`

	// Delete ends the session.
	Delete bool `json:"delete,omitempty"`
}

// ParseInput accepts either a JSON Input or a plain line of text
// (for the default session).
func ParseInput(s string) (*Input, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "{") {
		var in Input
		if err := json.Unmarshal([]byte(s), &in); err != nil {
			return nil, err
		}
		return &in, nil
	}
	return &Input{
		Line: s,
	}, nil
}

// Couplings provide channels for input, results output, and
// persistence.
//
// For example, an implementation could couple a Runner to an MQTT
// broker (for IO) and BoltDB (for persistence).
type Couplings interface {
	// Start initializes the Couplings.
	Start(context.Context) error

	// IO returns the input and result channels, along with a
	// channel that's closed when input is exhausted.
	IO(context.Context) (chan *Input, chan *Result, chan bool, error)

	// Read (optionally) returns an initial set of sessions.
	Read(context.Context) (map[string]*game.State, error)

	// Stop shuts down the Couplings.
	Stop(context.Context) error
}
