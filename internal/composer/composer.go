// Package composer is the entry point embedding applications use: it
// normalizes option bags, resolves app aliases and hands finished drafts
// to the configured provider.
package composer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/shineum/email-composer-lite/internal/alias"
	"github.com/shineum/email-composer-lite/internal/email"
	"github.com/shineum/email-composer-lite/internal/options"
	"github.com/shineum/email-composer-lite/internal/provider"
)

// ErrNoProvider is returned by New when no provider is configured.
var ErrNoProvider = errors.New("composer: no provider configured")

// Config holds the dependencies of a Composer.
type Config struct {
	// Registry defaults to the built-in aliases of the browser platform.
	Registry *alias.Registry
	// Defaults fill options the caller leaves out. A zero value means
	// options.Defaults(). Defaults.App may be an alias.
	Defaults email.Draft
	Provider provider.Provider
	// Accounts is optional; without it HasAccount asks the provider for
	// a mailto client.
	Accounts provider.AccountChecker
}

// Composer is safe for concurrent use.
type Composer struct {
	registry *alias.Registry
	defaults email.Draft
	provider provider.Provider
	accounts provider.AccountChecker
}

// New creates a Composer.
func New(cfg Config) (*Composer, error) {
	if cfg.Provider == nil {
		return nil, ErrNoProvider
	}

	reg := cfg.Registry
	if reg == nil {
		reg = alias.NewRegistry(alias.Browser)
	}

	defaults := cfg.Defaults
	if defaults.App == "" {
		base := options.Defaults()
		base.IsHTML = defaults.IsHTML
		if defaults.ChooserHeader != "" {
			base.ChooserHeader = defaults.ChooserHeader
		}
		defaults = base
	}

	return &Composer{
		registry: reg,
		defaults: defaults.Clone(),
		provider: cfg.Provider,
		accounts: cfg.Accounts,
	}, nil
}

// AddAlias registers or replaces an app alias. An empty identifier marks
// the alias as unsupported on this platform.
func (c *Composer) AddAlias(name, identifier string) {
	c.registry.Register(name, identifier)
}

// Aliases returns a snapshot of the alias table.
func (c *Composer) Aliases() map[string]string {
	return c.registry.Aliases()
}

// Normalize returns the canonical draft for raw.
func (c *Composer) Normalize(raw map[string]any) email.Draft {
	return options.Normalize(raw, c.resolvedDefaults(), c.registry)
}

// Open normalizes raw and hands the draft to the provider once. The
// normalized draft is returned so callers can inspect what was opened.
func (c *Composer) Open(ctx context.Context, raw map[string]any) (email.Draft, error) {
	d := c.Normalize(raw)

	slog.Info("opening draft",
		"provider", c.provider.Name(),
		"app", d.App,
		"recipients", len(d.To)+len(d.Cc)+len(d.Bcc),
		"attachments", len(d.Attachments),
		"is_html", d.IsHTML,
	)

	if err := c.provider.Open(ctx, &d); err != nil {
		return d, fmt.Errorf("failed to open draft: %w", err)
	}
	return d, nil
}

// HasClient reports whether a client for app is available. app may be an
// alias; an alias the platform cannot serve reports false. An empty app
// asks about the mailto handler.
func (c *Composer) HasClient(ctx context.Context, app string) (bool, error) {
	if app == "" {
		app = email.MailtoScheme
	}

	id, ok := c.registry.Resolve(app)
	if !ok {
		slog.Debug("alias unsupported on this platform", "app", app)
		return false, nil
	}

	has, err := c.provider.HasClient(ctx, id)
	if err != nil {
		return false, fmt.Errorf("failed to check client %q: %w", id, err)
	}
	return has, nil
}

// HasAccount reports whether an account that can send the draft exists.
func (c *Composer) HasAccount(ctx context.Context) (bool, error) {
	if c.accounts == nil {
		return c.HasClient(ctx, email.MailtoScheme)
	}

	has, err := c.accounts.HasAccount(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to check account: %w", err)
	}
	return has, nil
}

// resolvedDefaults resolves an aliased default app against the current
// alias table; an unsupported default falls back to mailto.
func (c *Composer) resolvedDefaults() email.Draft {
	d := c.defaults
	if d.App == email.MailtoScheme {
		return d
	}

	id, ok := c.registry.Resolve(d.App)
	if !ok || id == "" {
		id = email.MailtoScheme
	}
	d.App = id
	return d
}
