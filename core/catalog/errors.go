package catalog

import "errors"

// ErrBeatNotFound is returned when a requested beat id does not exist.
var ErrBeatNotFound = errors.New("beat not found")

// ErrStorage wraps catalog store backend failures. Not recoverable here;
// callers may retry.
var ErrStorage = errors.New("catalog storage error")
