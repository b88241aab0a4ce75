package store

import "errors"

var (
	// ErrUnavailable means the shared storage area could not be
	// opened. Fatal at startup; nothing works without it.
	ErrUnavailable = errors.New("storage area unavailable")

	// ErrNotFound means neither the primary area nor the mirror has
	// a value for the key.
	ErrNotFound = errors.New("key not found")

	// ErrVerification means the read-back byte comparison failed on
	// every attempt.
	ErrVerification = errors.New("write verification failed")

	// ErrTimeout means the operation watchdog fired. The abandoned
	// write may still land later, which is safe: writes are
	// byte-for-byte idempotent.
	ErrTimeout = errors.New("store operation timed out")
)
