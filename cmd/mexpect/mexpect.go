package main

import (
	"context"
	"flag"
	"io/ioutil"
	"log"
	"path/filepath"
	"time"

	"github.com/Comcast/parley/interpreters"
	"github.com/Comcast/parley/tools/expect"

	"github.com/jsccast/yaml"
)

type Opts struct {
	InputFilename string
	Dir           string
	ShowStderr    bool
	Timeout       time.Duration
	Subprocess    bool
	Verbose       bool
}

func main() {

	opts := &Opts{}

	flag.StringVar(&opts.InputFilename, "f", "games/cellar.test.yaml", "filename for test session")
	flag.StringVar(&opts.Dir, "d", "", "working directory (defaults to the test file's directory)")
	flag.BoolVar(&opts.ShowStderr, "e", true, "show subprocess stderr")
	flag.DurationVar(&opts.Timeout, "t", 10*time.Second, "main timeout")
	flag.BoolVar(&opts.Subprocess, "sub", false, "play through a 'sio' subprocess rather than in-process")
	flag.BoolVar(&opts.Verbose, "v", false, "verbose")

	flag.Parse()

	if err := opts.run(); err != nil {
		panic(err)
	}
}

func (opts *Opts) run() error {
	bs, err := ioutil.ReadFile(opts.InputFilename)
	if err != nil {
		return err
	}

	var s expect.Session
	if err = yaml.Unmarshal(bs, &s); err != nil {
		return err
	}

	s.Interpreters = interpreters.Standard()
	s.ShowStderr = opts.ShowStderr
	s.Verbose = s.Verbose || opts.Verbose

	dir := opts.Dir
	if dir == "" {
		dir = filepath.Dir(opts.InputFilename)
	}

	ctx, cancel := context.WithTimeout(context.Background(), opts.Timeout)
	defer cancel()

	if opts.Subprocess {
		err = s.Run(ctx, dir, "sio", "-game", s.Game, "-state-output-filename", "")
	} else {
		err = s.RunFile(ctx, dir)
	}
	if err != nil {
		return err
	}

	log.Printf("%s: %d IOs passed", opts.InputFilename, len(s.IOs))

	return nil
}
