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

package game

import (
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

// MaxSuggestionDistance bounds the edit distance between a
// misspelled verb and a suggestion.
var MaxSuggestionDistance = 2

// Suggest finds the verb that the first word of the command most
// resembles.  Returns "" if nothing is close or if the word is
// already a verb.
//
// A word that's an abbreviation of a verb ("tak" for "take") is
// preferred, and then a small edit distance.
func Suggest(command string, verbs []string) string {
	fields := strings.Fields(command)
	if len(fields) == 0 || len(verbs) == 0 {
		return ""
	}
	word := strings.ToLower(fields[0])
	for _, v := range verbs {
		if v == word {
			return ""
		}
	}

	if 1 < len(word) {
		ranks := fuzzy.RankFindNormalizedFold(word, verbs)
		sort.Stable(ranks)
		for _, r := range ranks {
			if strings.HasPrefix(r.Target, word[:1]) {
				return r.Target
			}
		}
	}

	best, min := "", MaxSuggestionDistance+1
	for _, v := range verbs {
		if d := fuzzy.LevenshteinDistance(word, v); d < min {
			best, min = v, d
		}
	}
	return best
}
