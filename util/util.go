// Package util has a little shared plumbing.
package util

import "log"

// Logging turns on the low-level tracing done with Logf (pattern
// cache evictions, pronoun bindings).  The command-line tools set it
// with their debug switches.
var Logging = false

// Logf calls log.Printf if Logging is true.
func Logf(format string, args ...interface{}) {
	if !Logging {
		return
	}
	log.Printf(format, args...)
}
