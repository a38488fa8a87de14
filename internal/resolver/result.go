// Package resolver turns user and country IDs into display names.
//
// Every lookup produces a Result. A failed lookup is not an error for the
// run: it yields a Fallback result whose name is the ID itself.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Outcome tells whether a name came from the API or is the ID fallback.
type Outcome int

const (
	Resolved Outcome = iota
	Fallback
)

func (o Outcome) String() string {
	switch o {
	case Resolved:
		return "resolved"
	case Fallback:
		return "fallback"
	default:
		return fmt.Sprintf("Outcome(%d)", int(o))
	}
}

// ErrEmptyName is returned by lookups whose response has no usable name.
var ErrEmptyName = errors.New("empty name in response")

// Result is the outcome of resolving one ID.
type Result struct {
	ID      string
	Name    string
	Outcome Outcome

	// Err is the lookup failure behind a Fallback.
	Err error
}

// Lookup fetches the display name for id.
type Lookup func(ctx context.Context, id string) (string, error)

// Resolve runs lookup for id and never fails: any error, including an empty
// name, becomes a Fallback carrying the ID as its name.
func Resolve(ctx context.Context, lookup Lookup, id string) Result {
	name, err := lookup(ctx, id)
	if err == nil && strings.TrimSpace(name) == "" {
		err = ErrEmptyName
	}
	if err != nil {
		return Result{ID: id, Name: id, Outcome: Fallback, Err: err}
	}
	return Result{ID: id, Name: name, Outcome: Resolved}
}
