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

package main

import (
	"bytes"
	"context"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Comcast/parley/core"

	"github.com/fatih/color"
)

func do(t *testing.T, h *Host, buf *bytes.Buffer, line string) string {
	buf.Reset()
	if err := h.Do(context.Background(), line); err != nil {
		t.Fatal(err)
	}
	return buf.String()
}

func TestMain(t *testing.T) {
	color.NoColor = true

	var (
		buf bytes.Buffer
		h   = NewHost(&buf)
	)

	if out := do(t, h, &buf, "run look"); !strings.Contains(out, "no game loaded") {
		t.Fatal(out)
	}

	if out := do(t, h, &buf, "load ../../games/cellar.yaml"); !strings.Contains(out, "8 commands") {
		t.Fatal(out)
	}

	if out := do(t, h, &buf, "run take lamp"); !strings.Contains(out, "take") {
		t.Fatal(out)
	}
	if h.Session.World.Objects[0].Room != core.Carried {
		t.Fatal(h.Session.World.Objects[0].Room)
	}

	if out := do(t, h, &buf, "print score"); !strings.Contains(out, "score = 1") {
		t.Fatal(out)
	}

	if out := do(t, h, &buf, "> drop it"); !strings.Contains(out, `as "drop brass lamp"`) {
		t.Fatal(out)
	}

	if out := do(t, h, &buf, "pronouns"); !strings.Contains(out, "brass lamp") {
		t.Fatal(out)
	}

	do(t, h, &buf, "set score 7")
	if out := do(t, h, &buf, "eval %score% * 2"); !strings.Contains(out, "# 14") {
		t.Fatal(out)
	}

	if out := do(t, h, &buf, `text "n" + str(%score%)`); !strings.Contains(out, `"n 7"`) {
		t.Fatal(out)
	}

	if out := do(t, h, &buf, "match {get/take} %object% :: take lamp"); !strings.Contains(out, "matched") {
		t.Fatal(out)
	}
	if out := do(t, h, &buf, "match {get/take} %object% :: take key"); !strings.Contains(out, "no match") {
		t.Fatal(out)
	}

	do(t, h, &buf, "goto cellar")
	if out := do(t, h, &buf, "world"); !strings.Contains(out, "iron key") {
		t.Fatal(out)
	}

	if out := do(t, h, &buf, "history"); !strings.Contains(out, "1. drop it") {
		t.Fatal(out)
	}

	if out := do(t, h, &buf, "lod ../../games/cellar.yaml"); !strings.Contains(out, "did you mean 'load'") {
		t.Fatal(out)
	}
}

func TestQueue(t *testing.T) {
	color.NoColor = true

	var (
		buf bytes.Buffer
		h   = NewHost(&buf)
	)

	do(t, h, &buf, "load ../../games/cellar.yaml")
	do(t, h, &buf, "queue take lamp")
	do(t, h, &buf, "queue score")
	do(t, h, &buf, "queue xyzzy")

	if out := do(t, h, &buf, "printqueue"); !strings.Contains(out, "2. xyzzy") {
		t.Fatal(out)
	}
	if out := do(t, h, &buf, "pop"); !strings.Contains(out, "processing take lamp") {
		t.Fatal(out)
	}
	if v, _ := h.Session.Vars.Get("score"); v.Int != 1 {
		t.Fatal(v)
	}
	if out := do(t, h, &buf, "drop"); !strings.Contains(out, "1 lines") {
		t.Fatal(out)
	}
	if out := do(t, h, &buf, "pop"); !strings.Contains(out, "not understood") {
		t.Fatal(out)
	}
	if out := do(t, h, &buf, "pop"); !strings.Contains(out, "queue is empty") {
		t.Fatal(out)
	}
}

func TestSaveRestore(t *testing.T) {
	color.NoColor = true

	dir, err := ioutil.TempDir("", "mdb")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(dir)
	filename := filepath.Join(dir, "state.json")

	var (
		buf bytes.Buffer
		h   = NewHost(&buf)
	)

	do(t, h, &buf, "load ../../games/cellar.yaml")
	do(t, h, &buf, "run take lamp. d")
	if out := do(t, h, &buf, "save "+filename); !strings.Contains(out, "saved") {
		t.Fatal(out)
	}

	do(t, h, &buf, "restart")
	if h.Session.World.PlayerRoom != "kitchen" {
		t.Fatal(h.Session.World.PlayerRoom)
	}

	if out := do(t, h, &buf, "restore "+filename); !strings.Contains(out, "turn 2") {
		t.Fatal(out)
	}
	if h.Session.World.PlayerRoom != "cellar" {
		t.Fatal(h.Session.World.PlayerRoom)
	}
}
