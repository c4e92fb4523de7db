// Package systemflags persists one-shot markers such as "bootstrap done".
package systemflags

import "context"

type Repository interface {
	Has(ctx context.Context, name string) (bool, error)
	// Set returns common.ErrorAlreadyExists when the flag is already present.
	Set(ctx context.Context, name string) error
}
