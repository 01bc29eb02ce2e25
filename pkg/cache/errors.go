package cache

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNoCachedConfig = errors.New("no cached configuration")
	ErrInvalidValue   = errors.New("invalid configuration value")
)

// Conflict is a field supplied explicitly that disagrees with its cached value.
type Conflict struct {
	Field    string
	Cached   Value
	Provided Value
}

// ConflictError lists every conflicting field of one resolution.
type ConflictError struct {
	Kind      Kind
	Conflicts []Conflict
}

func (e *ConflictError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s options conflict with the cached configuration:", e.Kind)
	for _, c := range e.Conflicts {
		fmt.Fprintf(&b, "\n  %s: cached=%s, provided=%s", c.Field, c.Cached, c.Provided)
	}
	return b.String()
}

// Fields returns the names of the conflicting fields in schema order.
func (e *ConflictError) Fields() []string {
	names := make([]string, len(e.Conflicts))
	for i, c := range e.Conflicts {
		names[i] = c.Field
	}
	return names
}

// PersistError is returned when a resolved configuration could not be saved.
// It never invalidates the command that produced the configuration.
type PersistError struct {
	Path string
	Err  error
}

func (e *PersistError) Error() string {
	return fmt.Sprintf("saving cached configuration to %s: %v", e.Path, e.Err)
}

func (e *PersistError) Unwrap() error {
	return e.Err
}
