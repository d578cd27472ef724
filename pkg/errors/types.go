package errors

import (
	"fmt"
)

// MissingFieldError represents a missing required field.
type MissingFieldError struct {
	Field string
}

func (err MissingFieldError) Error() string {
	return fmt.Sprintf("missing required field: %s", err.Field)
}

// LockDenied is returned when the lock on a file is held by another client.
type LockDenied struct {
	Filename string
	Reason   string
}

func (err LockDenied) Error() string {
	return fmt.Sprintf("lock on %q denied: %s", err.Filename, err.Reason)
}

// NotAuthorized is returned when a client stores a file without holding its
// lock.
type NotAuthorized struct {
	Filename string
	Reason   string
}

func (err NotAuthorized) Error() string {
	return fmt.Sprintf("store %q not authorized: %s", err.Filename, err.Reason)
}

// FileNotFound represents when we were unable to access a file
// because the path didn't exist.
type FileNotFound struct {
	Path string
}

func (err FileNotFound) Error() string {
	return fmt.Sprintf("%q does not exist", err.Path)
}

// InvalidFilename is returned for names that can't be stored in the flat
// shared directory.
type InvalidFilename struct {
	Name string
}

func (err InvalidFilename) Error() string {
	return fmt.Sprintf("invalid filename %q", err.Name)
}

// IOFailure is a local or server-side read or write failure.
type IOFailure struct {
	Op  string
	Err error
}

func (err IOFailure) Error() string {
	return fmt.Sprintf("%s: %s", err.Op, err.Err)
}

func (err IOFailure) Unwrap() error {
	return err.Err
}

// NetworkFailure is a transport level failure while talking to the server.
type NetworkFailure struct {
	Op  string
	Err error
}

func (err NetworkFailure) Error() string {
	return fmt.Sprintf("%s: network failure: %s", err.Op, err.Err)
}

func (err NetworkFailure) Unwrap() error {
	return err.Err
}

// IsRetryable returns whether the operation that returned `err` may succeed
// if retried unchanged. Only network failures qualify.
func IsRetryable(err error) bool {
	var networkErr NetworkFailure
	return As(err, &networkErr)
}
