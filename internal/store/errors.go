// Package store implements the task record store: the mutation engine and
// lifecycle transitions on top of the record codec, the content-hash
// conflict gate every mutating operation passes through, the archive-time
// reference sanitizer, and the document/decision sibling stores.
package store

import (
	"errors"
	"fmt"
)

// ErrNotFound indicates a record id with no backing file. It is always
// surfaced to the caller and never retried.
var ErrNotFound = errors.New("record not found")

// ErrReadOnly indicates a mutation attempt against a snapshot that is not
// from the local checkout.
var ErrReadOnly = errors.New("record is read-only")

// ConflictError is returned by a checked write when the caller's expected
// state token no longer matches the file content. It carries the competing
// content and its token so the caller can offer reload, overwrite, or diff.
type ConflictError struct {
	Path string
	// ExpectedToken is the token the caller based its edit on.
	ExpectedToken string
	// CurrentToken identifies the content that won the race.
	CurrentToken string
	// CurrentContent is the competing content found on disk.
	CurrentContent string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("conflict on %s: expected token %.12s, found %.12s", e.Path, e.ExpectedToken, e.CurrentToken)
}

// IsConflict reports whether err is (or wraps) a ConflictError, returning
// it when so.
func IsConflict(err error) (*ConflictError, bool) {
	var ce *ConflictError
	if errors.As(err, &ce) {
		return ce, true
	}
	return nil, false
}
