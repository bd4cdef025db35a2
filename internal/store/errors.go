package store

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound is returned by lookups that miss. A miss is an expected
// outcome, not a failure to surface to users.
var ErrNotFound = errors.New("store: item not found")

// ErrDuplicateName is returned when a group name collides with an existing
// group. The caller picks a new name.
var ErrDuplicateName = errors.New("store: group name already exists")

// ErrStorage is returned after the bounded busy-retry is exhausted or the
// backing file fails outright. Callers treat it as non-fatal and skip the
// operation for the current cycle.
var ErrStorage = errors.New("store: storage failure")

// storageErr wraps err so that errors.Is(_, ErrStorage) holds while the
// underlying cause stays inspectable.
func storageErr(op string, err error) error {
	return fmt.Errorf("store: %s: %w", op, errors.Join(ErrStorage, err))
}

// isUniqueViolation reports whether err is a UNIQUE constraint failure.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
