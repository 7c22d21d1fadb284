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

// Package storage persists game sessions.
package storage

import (
	"context"
	"sort"
	"sync"

	"github.com/Comcast/parley/game"
)

// SessionState is a session's state as stored in a Storage system.
type SessionState struct {
	// Sid is the id for the session.
	Sid string `json:"id,omitempty" yaml:"id,omitempty"`

	State *game.State `json:"state" yaml:"state"`

	// Deleted indicates that this session should be removed.
	Deleted bool `json:"-" yaml:"-"`
}

// Storage is a persistence interface for sessions, which are grouped
// by game.
type Storage interface {
	Open(ctx context.Context) error

	Close(ctx context.Context) error

	MakeGame(ctx context.Context, gid string) error

	RemGame(ctx context.Context, gid string) error

	// GetSessions returns the stored sessions (in Sid order) or
	// nil if there aren't any.
	GetSessions(ctx context.Context, gid string) ([]*SessionState, error)

	WriteState(ctx context.Context, gid string, ss []*SessionState) error
}

// Save writes one session's state.
func Save(ctx context.Context, s Storage, gid, sid string, st *game.State) error {
	return s.WriteState(ctx, gid, []*SessionState{
		{
			Sid:   sid,
			State: st,
		},
	})
}

// Load finds one session's state.  Returns nil if there isn't any.
func Load(ctx context.Context, s Storage, gid, sid string) (*game.State, error) {
	ss, err := s.GetSessions(ctx, gid)
	if err != nil {
		return nil, err
	}
	for _, x := range ss {
		if x.Sid == sid {
			return x.State, nil
		}
	}
	return nil, nil
}

// MemStorage is an in-memory Storage.
type MemStorage struct {
	sync.Mutex
	games map[string]map[string]*game.State
}

func NewMemStorage() *MemStorage {
	return &MemStorage{
		games: make(map[string]map[string]*game.State),
	}
}

func (s *MemStorage) Open(ctx context.Context) error {
	return nil
}

func (s *MemStorage) Close(ctx context.Context) error {
	return nil
}

func (s *MemStorage) MakeGame(ctx context.Context, gid string) error {
	s.Lock()
	defer s.Unlock()
	if _, have := s.games[gid]; !have {
		s.games[gid] = make(map[string]*game.State)
	}
	return nil
}

func (s *MemStorage) RemGame(ctx context.Context, gid string) error {
	s.Lock()
	delete(s.games, gid)
	s.Unlock()
	return nil
}

func (s *MemStorage) GetSessions(ctx context.Context, gid string) ([]*SessionState, error) {
	s.Lock()
	defer s.Unlock()
	sessions := s.games[gid]
	if len(sessions) == 0 {
		return nil, nil
	}
	acc := make([]*SessionState, 0, len(sessions))
	for sid, st := range sessions {
		acc = append(acc, &SessionState{
			Sid:   sid,
			State: st,
		})
	}
	sort.Slice(acc, func(i, j int) bool {
		return acc[i].Sid < acc[j].Sid
	})
	return acc, nil
}

func (s *MemStorage) WriteState(ctx context.Context, gid string, ss []*SessionState) error {
	s.Lock()
	defer s.Unlock()
	sessions, have := s.games[gid]
	if !have {
		sessions = make(map[string]*game.State)
		s.games[gid] = sessions
	}
	for _, x := range ss {
		if x.Deleted {
			delete(sessions, x.Sid)
		} else {
			sessions[x.Sid] = x.State
		}
	}
	return nil
}
