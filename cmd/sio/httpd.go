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

package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io/ioutil"
	"log"
	"net/http"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/Comcast/parley/game"
	"github.com/Comcast/parley/sio"
)

// HTTPDCouplings implements an sio.Couplings based on a HTTP service.
// The HTTP service accepts player input and can forward results.
//
// The HTTP API supports synchronous processing of input, which
// returns the Result for that input.
//
// The HTTP API also supports long-polling to obtain results
// asychronously.
type HTTPDCouplings struct {
	Port string

	sio.JSONStore

	in   chan *sio.Input
	out  chan *sio.Result
	done chan bool

	runner *sio.Runner
}

// NewHTTPDCouplings parses the command-line flags to generate an HTTPDCouplings.
//
// To help with command-line usage reportnig, this function also
// returns the flag.FlagSet used to process the command-line args.
func NewHTTPDCouplings(args []string) (*HTTPDCouplings, *flag.FlagSet) {
	c := &HTTPDCouplings{}
	fs := flag.NewFlagSet("httpd", flag.ExitOnError)
	fs.StringVar(&c.Port, "port", "localhost:8080", "Port (host:port) for HTTP service")
	if args == nil {
		return nil, fs
	}
	fs.Parse(args)
	return c, fs
}

// Start creates the HTTP service and starts processing it.
func (c *HTTPDCouplings) Start(ctx context.Context) error {

	c.in = make(chan *sio.Input)
	c.out = make(chan *sio.Result)
	c.done = make(chan bool)
	hist := NewHistory(1024)

	mux := http.NewServeMux()

	mux.HandleFunc("/ping", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, "\"pong\"\n")
	})

	puntf := func(w http.ResponseWriter, format string, args ...interface{}) {
		s := fmt.Sprintf(format, args...)
		log.Println(s)

		msg := map[string]interface{}{
			"error": s,
		}
		js, err := json.Marshal(&msg)
		if err != nil {
			// Better than nothing?
			js = []byte(s)
		}
		fmt.Fprintf(w, "%s\n", js)
	}

	mux.HandleFunc("/history", func(w http.ResponseWriter, r *http.Request) {
		var since int64
		if n, err := strconv.ParseInt(r.FormValue("since"), 10, 64); err == nil {
			since = n
		}

		timeout, err := time.ParseDuration(r.FormValue("timeout"))
		if err != nil {
			timeout = 10 * time.Second
		}

		msgs := hist.Get(ctx, since, timeout, r.FormValue("session"))

		js, err := json.Marshal(&msgs)
		if err != nil {
			puntf(w, "Marshal error %v on %#v", err, msgs)
			return
		}
		fmt.Fprintf(w, "%s\n", js)
	})

	// The game's verbs, which a client can offer for completion.
	mux.HandleFunc("/verbs", func(w http.ResponseWriter, r *http.Request) {
		js, err := json.Marshal(c.runner.Game.Verbs())
		if err != nil {
			puntf(w, "Marshal error %v", err)
			return
		}
		fmt.Fprintf(w, "%s\n", js)
	})

	// A session's current state (or null).
	mux.HandleFunc("/state", func(w http.ResponseWriter, r *http.Request) {
		sid := r.FormValue("session")
		if sid == "" {
			sid = sio.DefaultSession
		}
		var st *game.State
		c.runner.Lock()
		if s, have := c.runner.Sessions[sid]; have {
			st = s.State()
		}
		c.runner.Unlock()

		js, err := json.Marshal(st)
		if err != nil {
			puntf(w, "Marshal error %v on %#v", err, st)
			return
		}
		fmt.Fprintf(w, "%s\n", js)
	})

	mux.HandleFunc("/in", func(w http.ResponseWriter, r *http.Request) {
		body, err := ioutil.ReadAll(r.Body)
		if err != nil {
			puntf(w, "ReadAll error %v\n", err)
			return
		}

		in, err := sio.ParseInput(string(body))
		if err != nil {
			puntf(w, "Parse error %v on %s\n", err, body)
			return
		}
		if sid := r.FormValue("session"); sid != "" {
			in.Session = sid
		}

		if r.FormValue("sync") == "true" {
			pr, err := c.runner.ProcessInput(ctx, in)
			if err != nil {
				puntf(w, "ProcessInput error %v\n", err)
				return
			}

			js, err := json.Marshal(map[string]interface{}{
				"session": pr.Session,
				"output":  pr.Output(),
				"strides": pr.Strides,
			})
			if err != nil {
				puntf(w, "Marshal error %v on %#v\n", err, pr)
				return
			}

			fmt.Fprintf(w, "%s\n", js)

			// Forward the result to support persistence.
			c.out <- pr
			return
		}

		c.in <- in
		fmt.Fprintf(w, "{}\n")
	})

	s := &http.Server{
		Addr:           c.Port,
		Handler:        mux,
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   10 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	go func() {
		log.Printf("Starting HTTP service on %s", c.Port)
		if err := s.ListenAndServe(); err != nil {
			log.Printf("ListenAndServe error %v", err)
			os.Exit(1)
		}
	}()

	// Listen for results and accumulate them for clients who want
	// to get them asynchronously.
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case r := <-c.out:
				if r == nil {
					return
				}
				hist.Add(r)
				if err := c.Update(r); err != nil {
					E(err, "Update")
					return
				}
			}
		}
	}()

	return nil
}

// IO just returns the channels that Start() initialized.
func (c *HTTPDCouplings) IO(ctx context.Context) (chan *sio.Input, chan *sio.Result, chan bool, error) {
	return c.in, c.out, c.done, nil
}

// Read reads the JSONStore to return sessions' states.
func (c *HTTPDCouplings) Read(ctx context.Context) (map[string]*game.State, error) {
	return c.JSONStore.Read(ctx)
}

// Stop terminates the HTTP service.
func (c *HTTPDCouplings) Stop(ctx context.Context) error {
	log.Printf("Disconnecting")
	close(c.done)
	return c.JSONStore.WriteState(ctx)
}

// Nothings is a channel of nothing.
//
// A Nothings can be used as a semaphore.
type Nothings chan struct{}

// Signals is sort of sequence of semaphors that can be used to report
// when a new result has arrived.
type Signals struct {
	sync.Mutex
	c Nothings
}

func NewSignals() *Signals {
	return &Signals{
		c: make(Nothings),
	}
}

// Signal tells the Signals that something has happened.
func (s *Signals) Signal() {
	s.Lock()
	close(s.c)
	s.c = make(Nothings)
	s.Unlock()
}

// C returns a channel that is closed upon a Signal().
func (s *Signals) C() Nothings {
	s.Lock()
	c := s.c
	s.Unlock()
	return c
}

// History is a result buffer.
//
// Each result is assigned a sequence number.
type History struct {
	sync.RWMutex
	sigs   *Signals
	last   int64
	limit  int
	buffer []HistoryMsg
}

func NewHistory(size int) *History {
	return &History{
		limit:  size,
		sigs:   NewSignals(),
		buffer: make([]HistoryMsg, 0, size),
	}
}

// HistoryMsg associates a number with a result.
type HistoryMsg struct {
	N   int64       `json:"n"`
	Msg *sio.Result `json:"msg"`
}

// Wait returns a channel that's closed when the History receives a
// new result.
func (h *History) Wait() Nothings {
	return h.sigs.C()
}

// Add does what you'd expect.
//
// This method also signals the arrival of a new result to the method
// Get().
func (h *History) Add(msg *sio.Result) {
	h.Lock()
	if h.limit <= len(h.buffer) {
		copy(h.buffer, h.buffer[1:])
		h.buffer = h.buffer[0 : h.limit-1]
	}
	h.last++
	hm := HistoryMsg{
		N:   h.last,
		Msg: msg,
	}
	h.buffer = append(h.buffer, hm)
	h.Unlock()
	h.sigs.Signal()
}

// get returns results after the given sequence number, optionally
// only for one session.
func (h *History) get(since int64, sid string) []HistoryMsg {
	h.RLock()

	var (
		have        = int64(len(h.buffer))
		startSeqNum = h.last - have
	)

	if since < startSeqNum {
		since = startSeqNum
	}
	if h.last < since {
		since = h.last
	}
	offset := since - startSeqNum

	msgs := make([]HistoryMsg, 0, len(h.buffer)-int(offset))
	for _, hm := range h.buffer[offset:] {
		if sid == "" || hm.Msg.Session == sid {
			msgs = append(msgs, hm)
		}
	}

	h.RUnlock()

	return msgs
}

// Get obtains results from the history.
//
// When no results are available, this method blocks, with the given
// timeout, until a new one arrives.
func (h *History) Get(ctx context.Context, since int64, timeout time.Duration, sid string) []HistoryMsg {
	msgs := h.get(since, sid)

	if len(msgs) == 0 {
		timer := time.NewTimer(timeout)
		select {
		case <-ctx.Done():
		case <-timer.C:
		case <-h.Wait():
			msgs = h.get(since, sid)
		}
	}

	return msgs

}
