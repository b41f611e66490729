package store

import "errors"

// ErrNotFound is returned by deletes that matched no row. Lookups return a
// nil record and a nil error instead.
var ErrNotFound = errors.New("not found")
