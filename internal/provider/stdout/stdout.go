// Package stdout implements a Provider that prints drafts to standard output.
package stdout

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/shineum/email-composer-lite/internal/draft"
	"github.com/shineum/email-composer-lite/internal/email"
)

// Provider prints drafts in a human-readable format along with the mailto
// URI a desktop client would be launched with.
type Provider struct {
	// writer is the output destination, defaulting to os.Stdout.
	writer io.Writer
}

// New creates a new stdout Provider that writes to os.Stdout.
func New() *Provider {
	return &Provider{writer: os.Stdout}
}

// NewWithWriter creates a new stdout Provider that writes to the given writer.
// This is useful for testing.
func NewWithWriter(w io.Writer) *Provider {
	return &Provider{writer: w}
}

// Open prints the draft summary. It always returns nil (success).
func (p *Provider) Open(_ context.Context, d *email.Draft) error {
	mailto := draft.BuildMailto(*d)
	if mailto.DegradedToPlainText {
		slog.Warn("html body degraded to plain text for mailto", "provider", p.Name())
	}

	var b strings.Builder

	b.WriteString("========================================\n")
	fmt.Fprintf(&b, "App: %s\n", d.App)
	if d.From != "" {
		fmt.Fprintf(&b, "From: %s\n", d.From)
	}
	fmt.Fprintf(&b, "To: %s\n", strings.Join(d.To, ", "))

	if len(d.Cc) > 0 {
		fmt.Fprintf(&b, "Cc: %s\n", strings.Join(d.Cc, ", "))
	}
	if len(d.Bcc) > 0 {
		fmt.Fprintf(&b, "Bcc: %s\n", strings.Join(d.Bcc, ", "))
	}

	fmt.Fprintf(&b, "Subject: %s\n", d.Subject)
	fmt.Fprintf(&b, "Body (%s):\n", draft.ContentType(*d))
	b.WriteString(d.Body + "\n")

	if len(d.Attachments) > 0 {
		fmt.Fprintf(&b, "Attachments: %s\n", strings.Join(describeAttachments(d.Attachments), ", "))
	}

	fmt.Fprintf(&b, "Mailto: %s\n", mailto.URI)
	b.WriteString("========================================\n")

	if _, err := fmt.Fprint(p.writer, b.String()); err != nil {
		// stdout hand-off conceptually always succeeds
		slog.Debug("failed to write draft to stdout", "error", err)
	}

	return nil
}

// HasClient always reports true; stdout can display any draft.
func (p *Provider) HasClient(_ context.Context, _ string) (bool, error) {
	return true, nil
}

// Name returns the provider name.
func (p *Provider) Name() string {
	return "stdout"
}

// describeAttachments names each locator, with its size when the payload
// is inline.
func describeAttachments(refs []string) []string {
	out := make([]string, 0, len(refs))
	for _, ref := range refs {
		loc := email.ParseLocator(ref)
		if loc.Kind == email.LocatorBase64 {
			out = append(out, fmt.Sprintf("%s (%s)", loc.Name, formatSize(len(loc.Data)*3/4)))
			continue
		}
		out = append(out, fmt.Sprintf("%s [%s]", loc.Name, loc.Kind))
	}
	return out
}

// formatSize formats a byte count into a human-readable string.
func formatSize(bytes int) string {
	const (
		kb = 1024
		mb = kb * 1024
	)

	switch {
	case bytes >= mb:
		return fmt.Sprintf("%.1f MB", float64(bytes)/float64(mb))
	case bytes >= kb:
		return fmt.Sprintf("%.1f KB", float64(bytes)/float64(kb))
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}
