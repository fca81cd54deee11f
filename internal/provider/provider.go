// Package provider defines the interfaces for draft hand-off backends.
package provider

import (
	"context"

	"github.com/shineum/email-composer-lite/internal/email"
)

// Provider is the interface that draft hand-off backends must implement.
// Each provider takes a normalized draft and gives it to something that
// can compose it (the desktop mail client, a hosted mailbox, stdout).
type Provider interface {
	// Open hands the draft off. It does not send the message.
	Open(ctx context.Context, d *email.Draft) error

	// HasClient reports whether a client for app is available. app is a
	// resolved identifier or "mailto:".
	HasClient(ctx context.Context, app string) (bool, error)

	// Name returns the human-readable name of this provider.
	Name() string
}

// AccountChecker reports whether a usable mail account is configured.
type AccountChecker interface {
	HasAccount(ctx context.Context) (bool, error)
}
