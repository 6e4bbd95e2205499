// Package repository holds the data-access layer. Sentinel errors defined
// here let handlers distinguish failure scenarios without inspecting SQL
// errors themselves.
package repository

import (
	"errors"

	"github.com/doug-martin/goqu/v9"
)

// ErrNotFound is returned when a lookup matches no row. Handlers translate
// it into 404.
var ErrNotFound = errors.New("not found")

// ErrEmptyRecord is returned by Create when no columns were supplied.
var ErrEmptyRecord = errors.New("no data provided to create")

// ErrForbidden is returned when the caller acts on a resource owned by
// someone else.
var ErrForbidden = errors.New("forbidden")

// ErrConflict signals a state conflict, such as an overlapping slot.
var ErrConflict = errors.New("conflict")

func goquIn(col string, vals []string) goqu.Ex {
	in := make([]any, len(vals))
	for i, v := range vals {
		in[i] = v
	}
	return goqu.Ex{col: in}
}

func isNotFound(err error) bool { return errors.Is(err, ErrNotFound) }
