package application

import "errors"

// Store-level sentinels. Provider and rate-limit failures use the typed
// errors in the domain package instead.
var ErrNotFound = errors.New("not found")
var ErrConflict = errors.New("conflict")
