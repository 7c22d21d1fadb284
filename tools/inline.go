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

package tools

import (
	"bytes"
	"io/ioutil"
	"path/filepath"
	"regexp"

	"github.com/Comcast/parley/game"
)

var inlineDirective = regexp.MustCompile(`%inline *\("([^"]*)"\)`)

// Inline replaces '%inline("NAME")' with f(NAME).
//
// Every line of the replacement after the first is indented like the
// line the directive is on, so a directive in a YAML block scalar
// stays in that scalar.
func Inline(bs []byte, f func(string) ([]byte, error)) ([]byte, error) {
	acc := make([]byte, 0, len(bs))
	for {
		loc := inlineDirective.FindSubmatchIndex(bs)
		if loc == nil {
			return append(acc, bs...), nil
		}
		acc = append(acc, bs[:loc[0]]...)

		replacement, err := f(string(bs[loc[2]:loc[3]]))
		if err != nil {
			return nil, err
		}
		replacement = bytes.TrimRight(replacement, "\n")

		lineStart := bytes.LastIndexByte(acc, '\n') + 1
		indent := acc[lineStart:]
		indent = indent[:len(indent)-len(bytes.TrimLeft(indent, " \t"))]
		if 0 < len(indent) {
			sep := append([]byte{'\n'}, indent...)
			replacement = bytes.Replace(replacement, []byte{'\n'}, sep, -1)
		}

		acc = append(acc, replacement...)
		bs = bs[loc[1]:]
	}
}

// ReadFileWithInlines is a replacement for ioutil.ReadFile that
// Inline()s files relative to the filename's directory.
func ReadFileWithInlines(filename string) ([]byte, error) {
	bs, err := ioutil.ReadFile(filename)
	if err != nil {
		return nil, err
	}

	dir := filepath.Dir(filename)
	f := func(name string) ([]byte, error) {
		return ioutil.ReadFile(filepath.Join(dir, name))
	}

	return Inline(bs, f)
}

// ReadGame reads a game file, which can inline other files (usually
// scripts) with '%inline("NAME")'.
func ReadGame(filename string) (*game.Game, error) {
	bs, err := ReadFileWithInlines(filename)
	if err != nil {
		return nil, err
	}
	return game.ParseGame(bs)
}
