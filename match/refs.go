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

package match

import (
	"strings"

	"github.com/Comcast/parley/core"
)

// Articles are skipped at the start of names and of subject text.
var Articles = []string{"a", "an", "the", "some"}

// names lists the ways an entity can be named, in the order they're
// tried: prefixed name, name, then each alias prefixed and bare.
func names(e *core.Entity) []string {
	acc := make([]string, 0, 2+2*len(e.Aliases))
	add := func(s string) {
		if e.Prefix != "" {
			acc = append(acc, e.Prefix+" "+s)
		}
		acc = append(acc, s)
	}
	add(e.Name)
	for _, alias := range e.Aliases {
		add(alias)
	}
	return acc
}

func isWordChar(c byte) bool {
	return ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z') || isDigit(c) || c == '\'' || c == '-'
}

// skipArticle returns the offset just past a leading article and
// the whitespace after it, or at if there isn't one.
func skipArticle(s string, at int) int {
	for _, a := range Articles {
		end := at + len(a)
		if end < len(s) && isSpace(s[end]) && strings.EqualFold(s[at:end], a) {
			for end < len(s) && isSpace(s[end]) {
				end++
			}
			return end
		}
	}
	return at
}

// matchName compares a name against the subject at the given offset.
//
// Leading articles on either side are ignored, runs of whitespace
// match runs of whitespace, letters compare case-insensitively, and
// the match has to end at a word boundary.  Returns the number of
// subject bytes matched or zero.
func matchName(subject string, at int, name string) int {
	name = strings.TrimSpace(name)
	j := skipArticle(name, 0)
	if j == len(name) {
		return 0
	}
	i := skipArticle(subject, at)

	for j < len(name) {
		if len(subject) <= i {
			return 0
		}
		if isSpace(name[j]) {
			if !isSpace(subject[i]) {
				return 0
			}
			for j < len(name) && isSpace(name[j]) {
				j++
			}
			for i < len(subject) && isSpace(subject[i]) {
				i++
			}
			continue
		}
		if lower(name[j]) != lower(subject[i]) {
			return 0
		}
		i++
		j++
	}

	if i < len(subject) && isWordChar(subject[i]) {
		return 0
	}
	return i - at
}
