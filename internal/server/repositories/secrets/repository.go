// Package secrets stores the passphrase that unlocks secret feedback
// messages. There is exactly one passphrase for the whole installation.
package secrets

import "context"

type Repository interface {
	// SetPassphrase replaces the stored passphrase.
	SetPassphrase(ctx context.Context, passphrase string) error
	// GetPassphrase returns common.ErrorNotFound when none was ever set.
	GetPassphrase(ctx context.Context) (string, error)
}
