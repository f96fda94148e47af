// Package common defines shared constants and sentinel errors used across
// the note store components. Callers should use errors.Is to match these
// values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrNotFound       = errors.New("not found")
	ErrAlreadyExists  = errors.New("already exists")
	ErrNotInitialized = errors.New("not initialized")

	// Crypto and local-storage errors. These are fatal: callers must
	// surface them, never fall back to plaintext or default data.
	ErrEncryptionFailure   = errors.New("encryption failure")
	ErrMalformedCiphertext = errors.New("malformed ciphertext")
	ErrInitialization      = errors.New("initialization failure")

	// Remote mirroring errors. The only class with a local recovery
	// path: the failed operation is queued for replay, then the error
	// is re-raised.
	ErrRemoteOperation = errors.New("remote operation failure")
	ErrSyncInProgress  = errors.New("sync already in progress")
)
