package core

// These errors are user errors, not internal errors.

import (
	"errors"
	"strconv"
)

// UnknownEntity occurs when an index doesn't name an entity.
type UnknownEntity struct {
	Class Class
	Index int
}

func (e *UnknownEntity) Error() string {
	return "no " + e.Class.String() + " at index " + strconv.Itoa(e.Index)
}

// ErrNoRegistry is returned by operations that need a Registry but
// didn't get one.
var ErrNoRegistry = errors.New("no registry")
