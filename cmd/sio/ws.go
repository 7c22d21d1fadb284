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
	"log"
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/Comcast/parley/game"
	"github.com/Comcast/parley/sio"

	"github.com/gorilla/websocket"
)

// WebSocketCouplings serves players over WebSockets.
//
// Each connection is a session.  The session id is the "session"
// query parameter or, if that's missing, a generated one.  Each text
// message is a line of input (or a JSON sio.Input), and each result
// goes back (as JSON) to the connection for its session.
type WebSocketCouplings struct {
	Port string
	Path string
	sio.JSONStore

	in    chan *sio.Input
	out   chan *sio.Result
	done  chan bool
	count int64

	sync.Mutex
	conns map[string]*websocket.Conn
}

func NewWebSocketCouplings(args []string) (*WebSocketCouplings, *flag.FlagSet) {
	c := &WebSocketCouplings{}
	fs := flag.NewFlagSet("ws", flag.ExitOnError)
	fs.StringVar(&c.Port, "port", "localhost:8080", "Port (host:port) for the WebSocket service")
	fs.StringVar(&c.Path, "path", "/play", "Path for the WebSocket service")
	if args == nil {
		return nil, fs
	}
	fs.Parse(args)
	return c, fs
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

func (c *WebSocketCouplings) conn(sid string) *websocket.Conn {
	c.Lock()
	defer c.Unlock()
	return c.conns[sid]
}

func (c *WebSocketCouplings) serve(ctx context.Context, w http.ResponseWriter, r *http.Request) {
	sid := r.FormValue("session")
	if sid == "" {
		sid = fmt.Sprintf("ws-%d", atomic.AddInt64(&c.count, 1))
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		E(err, "Upgrade")
		return
	}

	c.Lock()
	if old, have := c.conns[sid]; have {
		old.Close()
	}
	c.conns[sid] = conn
	c.Unlock()

	defer func() {
		c.Lock()
		if c.conns[sid] == conn {
			delete(c.conns, sid)
		}
		c.Unlock()
		conn.Close()
	}()

	log.Println("wsconnect", sid)

	// An empty line gets the intro (or nothing for a restored
	// session).
	select {
	case <-ctx.Done():
		return
	case c.in <- &sio.Input{Session: sid}:
	}

	for {
		_, bs, err := conn.ReadMessage()
		if err != nil {
			E(err, "ReadMessage")
			return
		}
		if len(bs) == 0 {
			continue
		}
		log.Println("heard", sid, string(bs))

		in, err := sio.ParseInput(string(bs))
		if err != nil {
			E(err, "ParseInput", string(bs))
			continue
		}
		in.Session = sid

		select {
		case <-ctx.Done():
			return
		case c.in <- in:
		}
	}
}

// Start creates the WebSocket service and starts processing it.
func (c *WebSocketCouplings) Start(ctx context.Context) error {
	c.in = make(chan *sio.Input)
	c.out = make(chan *sio.Result)
	c.done = make(chan bool)
	c.conns = make(map[string]*websocket.Conn)

	mux := http.NewServeMux()
	mux.HandleFunc(c.Path, func(w http.ResponseWriter, r *http.Request) {
		c.serve(ctx, w, r)
	})

	go func() {
		log.Printf("Starting WebSocket service on %s%s", c.Port, c.Path)
		if err := http.ListenAndServe(c.Port, mux); err != nil {
			E(err, "ListenAndServe")
		}
	}()

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case r := <-c.out:
				if r == nil {
					return
				}
				if err := c.Update(r); err != nil {
					E(err, "Update")
					return
				}
				conn := c.conn(r.Session)
				if conn == nil {
					continue
				}
				js, err := json.Marshal(map[string]interface{}{
					"output":  r.Output(),
					"strides": r.Strides,
				})
				if err != nil {
					E(err, "Marshal")
					continue
				}
				if err = conn.WriteMessage(websocket.TextMessage, js); err != nil {
					E(err, "WriteMessage")
				}
			}
		}
	}()

	return nil
}

// IO just returns the channels that Start() initialized.
func (c *WebSocketCouplings) IO(ctx context.Context) (chan *sio.Input, chan *sio.Result, chan bool, error) {
	return c.in, c.out, c.done, nil
}

func (c *WebSocketCouplings) Read(ctx context.Context) (map[string]*game.State, error) {
	return c.JSONStore.Read(ctx)
}

// Stop closes all connections.
func (c *WebSocketCouplings) Stop(ctx context.Context) error {
	log.Printf("Disconnecting")
	c.Lock()
	for _, conn := range c.conns {
		conn.Close()
	}
	c.Unlock()
	close(c.done)
	return c.JSONStore.WriteState(ctx)
}
