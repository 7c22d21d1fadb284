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

// Package main runs a game for one or more players.  Input comes
// from stdin, an MQTT broker, WebSockets, or HTTP.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/Comcast/parley/game"
	"github.com/Comcast/parley/interpreters"
	"github.com/Comcast/parley/match"
	"github.com/Comcast/parley/sio"
	"github.com/Comcast/parley/storage"
	"github.com/Comcast/parley/storage/bolt"
	"github.com/Comcast/parley/util"
)

func main() {

	var (
		coupling            = flag.String("io", "std", `IO protocol: "std", "mq", "ws", or "httpd"`)
		stateInputFilename  = flag.String("state-input-filename", "", "Optional name for input JSON state file")
		stateOutputFilename = flag.String("state-output-filename", "state.json", "Optional name for output JSON state file")

		gameFile = flag.String("game", "games/cellar.yaml", "Game filename")
		dbFile   = flag.String("db", "", "Optional BoltDB filename for session storage")
		history  = flag.Int("history", 32, "Number of recent results to remember")

		wait      = flag.Duration("wait", time.Second, "Wait this long before shutting down couplings")
		haltOnEOF = flag.Bool("halt-on-eof", false, "Stop on input EOF")
		debug     = flag.Bool("debug", false, "Log session processing")
		verbose   = flag.Bool("v", false, "Verbose")
		help      = flag.Bool("h", false, "Get usage")
	)

	flag.Parse()

	if *help {
		flag.PrintDefaults()

		{
			fmt.Fprintf(os.Stderr, "\n-io std (default):\n\n")
			_, fs := NewStdCouplings(nil)
			fs.PrintDefaults()
		}

		{
			fmt.Fprintf(os.Stderr, "\n-io mq:\n\n")
			_, fs := NewMQTTCouplings(nil)
			fs.PrintDefaults()
		}

		{
			fmt.Fprintf(os.Stderr, "\n-io ws:\n\n")
			_, fs := NewWebSocketCouplings(nil)
			fs.PrintDefaults()
		}

		{
			fmt.Fprintf(os.Stderr, "\n-io httpd:\n\n")
			_, fs := NewHTTPDCouplings(nil)
			fs.PrintDefaults()
		}

		os.Exit(0)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var cio sio.Couplings
	var store *sio.JSONStore
	switch *coupling {
	case "std":
		c, _ := NewStdCouplings(flag.Args())
		store = &c.JSONStore
		cio = c
	case "mq", "mqtt":
		c, _ := NewMQTTCouplings(flag.Args())
		store = c.JSONStore
		cio = c
	case "ws":
		c, _ := NewWebSocketCouplings(flag.Args())
		store = &c.JSONStore
		cio = c
	case "httpd", "http":
		c, _ := NewHTTPDCouplings(flag.Args())
		store = &c.JSONStore
		// But see hack below to set the runner.
		cio = c
	default:
		panic(fmt.Errorf("unknown io: '%s'", *coupling))
	}

	if store != nil {
		if *stateInputFilename != "" {
			store.StateInputFilename = *stateInputFilename
		}
		if *stateOutputFilename != "" {
			store.StateOutputFilename = *stateOutputFilename
		}
	}

	g, err := game.ReadGame(*gameFile)
	if err != nil {
		panic(err)
	}
	util.Logging = *debug

	m := match.NewMatcher()
	if err = g.Compile(ctx, interpreters.Standard(), m, false); err != nil {
		panic(err)
	}

	conf := &sio.RunnerConf{
		HaltOnInputEOF: *haltOnEOF,
		HistorySize:    *history,
		Debug:          *debug,
	}

	if err := cio.Start(ctx); err != nil {
		panic(err)
	}

	r, err := sio.NewRunner(ctx, g, conf, cio)
	if err != nil {
		panic(err)
	}
	r.Verbose = *verbose
	r.Matcher = m

	var db storage.Storage = &storage.NoopStorage{}
	if *dbFile != "" {
		if db, err = bolt.NewStorage(*dbFile); err != nil {
			panic(err)
		}
	}
	if err = db.Open(ctx); err != nil {
		panic(err)
	}
	defer db.Close(context.Background())
	if err = db.MakeGame(ctx, g.Name); err != nil {
		panic(err)
	}
	r.Storage = db

	// Hack to set runner.
	if h, is := cio.(*HTTPDCouplings); is {
		h.runner = r
	}

	ss, err := cio.Read(ctx)
	if err != nil {
		panic(err)
	}

	for sid, st := range ss {
		if _, err := r.SetSession(ctx, sid, st); err != nil {
			panic(err)
		}
	}

	go func() {
		if std, is := cio.(*sio.Stdio); is {
			<-std.InputEOF
			log.Printf("input EOF (waiting %v)", *wait)
			time.Sleep(*wait)
			cancel()
		}
	}()

	if err := r.Loop(ctx); err != nil {
		panic(err)
	}
	cancel()

	if err = cio.Stop(context.Background()); err != nil {
		log.Printf("error from io.Stop: %v", err)
	}
}

func E(err error, args ...interface{}) error {
	log.Printf("error %s: %v", err, args)
	return err
}
