// Package secrets abstracts the platform secure credential vault: opaque
// get/set/delete of a named secret. The crypto vault stores one symmetric
// key per logical store id behind this interface.
package secrets

import "context"

// Store is an opaque named-secret store.
type Store interface {
	// Get returns the secret value for name, or found=false if no such
	// secret exists.
	Get(ctx context.Context, name string) (value []byte, found bool, err error)

	// Set writes the secret value under name, replacing any previous
	// value.
	Set(ctx context.Context, name string, value []byte) error

	// Delete removes the secret under name. Deleting an absent secret
	// is not an error.
	Delete(ctx context.Context, name string) error
}
