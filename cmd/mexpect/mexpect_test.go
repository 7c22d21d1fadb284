package main

import (
	"testing"
	"time"
)

func TestMain(t *testing.T) {
	opts := &Opts{
		InputFilename: "../../games/cellar.test.yaml",
		Timeout:       10 * time.Second,
	}
	if err := opts.run(); err != nil {
		t.Fatal(err)
	}
}
