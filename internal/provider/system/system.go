// Package system implements a Provider that hands drafts to the desktop's
// default mail client through the operating system's URL opener.
package system

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/shineum/email-composer-lite/internal/alias"
	"github.com/shineum/email-composer-lite/internal/attachment"
	"github.com/shineum/email-composer-lite/internal/draft"
	"github.com/shineum/email-composer-lite/internal/email"
)

// tempFolder is created under the temp dir to hold generated EML files.
const tempFolder = "email_composer"

// Runner executes an external command and returns its standard output.
type Runner func(ctx context.Context, name string, args ...string) ([]byte, error)

// Config holds the configuration for creating a Provider.
type Config struct {
	// Platform selects the opener; GOOS values are accepted.
	Platform string
	// TempDir defaults to os.TempDir().
	TempDir string
	// Attachments resolves locators when an EML draft carries files.
	Attachments attachment.Loader
	// Run defaults to running the command with os/exec.
	Run Runner
	// LookPath defaults to exec.LookPath.
	LookPath func(file string) (string, error)
}

// Provider opens mailto URIs and EML drafts with the OS opener.
type Provider struct {
	platform alias.Platform
	dir      string
	loader   attachment.Loader
	run      Runner
	lookPath func(string) (string, error)

	// mu serializes writes to and removal of dir.
	mu sync.Mutex
}

// New creates a new system Provider.
func New(cfg Config) *Provider {
	tmp := cfg.TempDir
	if tmp == "" {
		tmp = os.TempDir()
	}
	run := cfg.Run
	if run == nil {
		run = execRunner
	}
	lookPath := cfg.LookPath
	if lookPath == nil {
		lookPath = exec.LookPath
	}

	return &Provider{
		platform: alias.ParsePlatform(cfg.Platform),
		dir:      filepath.Join(tmp, tempFolder),
		loader:   cfg.Attachments,
		run:      run,
		lookPath: lookPath,
	}
}

// Open hands d to the desktop. Drafts with markup or attachments are
// written as an unsent EML file and opened with the associated mail app;
// everything else is launched as a mailto or app compose URI.
func (p *Provider) Open(ctx context.Context, d *email.Draft) error {
	strategy := draft.SelectStrategy(draft.Capabilities{EML: true}, *d)

	target, err := p.target(strategy, d)
	if err != nil {
		return err
	}

	name, args := p.opener(target)
	slog.Debug("opening draft",
		"provider", p.Name(),
		"strategy", string(strategy),
		"command", name,
	)

	if _, err := p.run(ctx, name, args...); err != nil {
		return fmt.Errorf("failed to open draft with %s: %w", name, err)
	}
	return nil
}

func (p *Provider) target(strategy draft.Strategy, d *email.Draft) (string, error) {
	if strategy == draft.StrategyEML {
		return p.writeEML(d)
	}

	var uri draft.Mailto
	if isScheme(d.App) {
		uri = draft.BuildAppURI(*d)
	} else {
		if !d.UsesMailto() {
			slog.Warn("app cannot be launched on this platform, using mailto",
				"app", d.App,
				"platform", string(p.platform),
			)
		}
		uri = draft.BuildMailto(*d)
	}

	if uri.DegradedToPlainText {
		slog.Warn("html body degraded to plain text", "provider", p.Name())
	}
	return uri.URI, nil
}

// writeEML stores d under the temp folder and returns the file path.
// Attachments require a multipart message.
func (p *Provider) writeEML(d *email.Draft) (string, error) {
	var data []byte
	if len(d.Attachments) > 0 {
		atts, err := p.loader.LoadAll(d.Attachments)
		if err != nil {
			return "", fmt.Errorf("failed to load attachments: %w", err)
		}
		data, err = draft.BuildMIME(*d, atts)
		if err != nil {
			return "", fmt.Errorf("failed to build EML: %w", err)
		}
	} else {
		data = []byte(draft.BuildEML(*d).Text)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if err := os.MkdirAll(p.dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create temp folder: %w", err)
	}

	path := filepath.Join(p.dir, uuid.NewString()+".eml")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", fmt.Errorf("failed to write EML: %w", err)
	}
	return path, nil
}

// HasClient reports whether the desktop can open app. On Linux the scheme
// handler registered with xdg-mime is consulted; elsewhere the opener
// binary must exist. Android package ids never resolve on a desktop.
func (p *Provider) HasClient(ctx context.Context, app string) (bool, error) {
	scheme := "mailto"
	switch {
	case app == "" || app == email.MailtoScheme:
	case isScheme(app):
		scheme, _, _ = strings.Cut(app, ":")
	default:
		return false, nil
	}

	if p.platform == alias.Linux {
		out, err := p.run(ctx, "xdg-mime", "query", "default", "x-scheme-handler/"+scheme)
		if err != nil {
			slog.Debug("xdg-mime query failed", "scheme", scheme, "error", err)
			return false, nil
		}
		return strings.TrimSpace(string(out)) != "", nil
	}

	name, _ := p.opener("")
	if _, err := p.lookPath(name); err != nil {
		return false, nil
	}
	return true, nil
}

// Cleanup removes every EML file the provider has written.
func (p *Provider) Cleanup() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := os.RemoveAll(p.dir); err != nil {
		return fmt.Errorf("failed to remove temp folder: %w", err)
	}
	return nil
}

// Name returns the provider name.
func (p *Provider) Name() string {
	return "system"
}

// opener returns the command that opens target on the platform.
func (p *Provider) opener(target string) (string, []string) {
	switch p.platform {
	case alias.OSX:
		return "open", []string{target}
	case alias.Windows:
		return "rundll32", []string{"url.dll,FileProtocolHandler", target}
	default:
		return "xdg-open", []string{target}
	}
}

// isScheme reports whether app is a compose URL such as "googlegmail://co".
func isScheme(app string) bool {
	return strings.Contains(app, "://")
}

func execRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).Output()
}
