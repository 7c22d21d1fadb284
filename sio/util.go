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
	"bytes"
	"encoding/json"
	"fmt"
	"os/exec"
	"regexp"
	"strings"
)

// JS renders its argument as JSON or as '%#v'.
func JS(x interface{}) string {
	if x == nil {
		return "null"
	}
	js, err := json.Marshal(&x)
	if err != nil {
		return fmt.Sprintf("%#v", x)
	}
	return string(js)
}

// ShortLimit is the number of bytes JShort keeps.
var ShortLimit = 70

// JShort renders its argument as JS() truncated to ShortLimit bytes
// (plus "...").
func JShort(x interface{}) string {
	js := JS(x)
	if ShortLimit < len(js) {
		js = js[:ShortLimit] + "..."
	}
	return js
}

var shell = regexp.MustCompile(`<<(.*?)>>`)

// ShellExpand replaces each '<<cmd>>' in a line of player input
// with the trimmed output of 'bash -c cmd'.  Handy for scripted
// play ("count to <<echo $RANDOM>>").  Use at your own risk.
func ShellExpand(line string) (string, error) {
	literals := shell.Split(line, -1)
	acc := literals[0]
	for i, s := range shell.FindAllStringSubmatch(line, -1) {
		var out bytes.Buffer
		cmd := exec.Command("bash", "-c", s[1])
		cmd.Stdout = &out
		if err := cmd.Run(); err != nil {
			return "", fmt.Errorf("shell error %s on %s", err, s[1])
		}
		acc += strings.TrimSpace(out.String()) + literals[i+1]
	}
	return acc, nil
}
