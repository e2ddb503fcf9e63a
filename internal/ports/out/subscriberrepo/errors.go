package subscriberrepo

import "errors"

// ErrNotFound indicates no subscriber exists for the canonical email.
var ErrNotFound = errors.New("subscriber not found")

// ErrIDConflict indicates an insert collided with an existing record ID.
var ErrIDConflict = errors.New("subscriber id already in use")
