package reservation

import (
	"errors"
	"fmt"

	"salon-booking-backend/internal/store"
)

var (
	// ErrConflict means the slot is held by another session or already booked.
	ErrConflict = errors.New("this slot is no longer available, please choose another")
	// ErrNotFound means the hold being converted no longer exists or its lease elapsed.
	ErrNotFound = errors.New("your hold has expired, please reselect a time")
	// ErrValidation means the request was malformed or referred to an unknown
	// or inactive staff member or service, or to a slot outside working hours.
	ErrValidation = errors.New("invalid reservation request")
)

// StoreError is a persistence failure. Err is the underlying error, unchanged.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store: %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// storeErr wraps a store failure once. Constraint violations mean a
// concurrent writer claimed the same key and surface as ErrConflict.
func storeErr(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, store.ErrConstraint) {
		return ErrConflict
	}
	return &StoreError{Op: op, Err: err}
}

// txErr classifies what a transaction returned: engine errors pass through,
// anything else (begin or commit failures) becomes a StoreError.
func txErr(op string, err error) error {
	if err == nil {
		return nil
	}
	var se *StoreError
	if errors.Is(err, ErrConflict) || errors.Is(err, ErrNotFound) || errors.Is(err, ErrValidation) || errors.As(err, &se) {
		return err
	}
	return storeErr(op, err)
}
