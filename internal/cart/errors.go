package cart

import (
	"errors"
	"fmt"
)

var ErrInvalidSession = errors.New("session id is required")

// DecodeError reports a stored cart record that exists but cannot be used.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode cart record: %v", e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// StorageWriteError reports a failed best-effort write of the cart record.
type StorageWriteError struct {
	Key string
	Err error
}

func (e *StorageWriteError) Error() string {
	return fmt.Sprintf("write cart record %q: %v", e.Key, e.Err)
}

func (e *StorageWriteError) Unwrap() error { return e.Err }
