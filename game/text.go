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
	"strings"

	"github.com/Comcast/parley/core"
)

// Render substitutes %name% references in a response template.
//
// %character% and %object% become the full name of the last
// referenced entity.  Other names are looked up in vars (so
// %number% and %text% work too).  Anything that doesn't resolve,
// including a lone "%", is left alone.
func Render(template string, vars core.VarStore, reg core.Registry) string {
	if strings.IndexByte(template, '%') < 0 {
		return template
	}

	var refs core.Refs
	if rr, is := vars.(core.RefReader); is {
		refs = rr.References()
	} else {
		refs = core.NoRefs()
	}

	var b strings.Builder
	for {
		i := strings.IndexByte(template, '%')
		if i < 0 {
			break
		}
		j := strings.IndexByte(template[i+1:], '%')
		if j < 0 {
			break
		}
		j += i + 1
		name := template[i+1 : j]

		s, ok := lookup(name, vars, reg, refs)
		if !ok {
			// Keep the first '%' and try again from the
			// second one, which might open a reference.
			b.WriteString(template[:j])
			template = template[j:]
			continue
		}
		b.WriteString(template[:i])
		b.WriteString(s)
		template = template[j+1:]
	}
	b.WriteString(template)

	return b.String()
}

func lookup(name string, vars core.VarStore, reg core.Registry, refs core.Refs) (string, bool) {
	if name == "" || strings.ContainsAny(name, " \t\n") {
		return "", false
	}
	switch strings.ToLower(name) {
	case "character":
		return entityName(reg, core.Characters, refs.Character)
	case "object":
		return entityName(reg, core.Objects, refs.Object)
	}
	if vars == nil {
		return "", false
	}
	v, have := vars.Get(name)
	if !have {
		return "", false
	}
	return v.String(), true
}

func entityName(reg core.Registry, class core.Class, i int) (string, bool) {
	if reg == nil || i < 0 {
		return "", false
	}
	e := reg.Entity(class, i)
	if e == nil {
		return "", false
	}
	return e.FullName(), true
}
