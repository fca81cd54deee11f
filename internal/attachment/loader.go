// Package attachment resolves attachment locators to their content.
package attachment

import (
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"mime"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/shineum/email-composer-lite/internal/email"
)

// defaultContentType is used when the extension gives no hint.
const defaultContentType = "application/octet-stream"

// ErrUnsupportedLocator is returned for references that cannot be read
// from the local file system.
var ErrUnsupportedLocator = errors.New("unsupported attachment locator")

// Loader resolves locators against the application's directories.
type Loader struct {
	// AssetDir is the root for file:// references to bundled assets.
	AssetDir string
	// ResourceDir is the root for res:// references.
	ResourceDir string
	// AppDir is the root for app:// references.
	AppDir string
}

// Load resolves a single locator.
func (l Loader) Load(ref string) (*email.Attachment, error) {
	loc := email.ParseLocator(ref)

	switch loc.Kind {
	case email.LocatorBase64:
		return decodeBase64(loc)
	case email.LocatorAbsolute:
		return readFile(loc.Path, loc.Name)
	case email.LocatorAsset:
		return l.readUnder(l.AssetDir, loc)
	case email.LocatorResource:
		return l.readUnder(l.ResourceDir, loc)
	case email.LocatorAppData:
		return l.readUnder(l.AppDir, loc)
	default:
		if filepath.IsAbs(loc.Path) {
			return readFile(loc.Path, loc.Name)
		}
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedLocator, ref)
	}
}

// LoadAll resolves every locator, stopping at the first failure.
func (l Loader) LoadAll(refs []string) ([]email.Attachment, error) {
	out := make([]email.Attachment, 0, len(refs))
	for _, ref := range refs {
		att, err := l.Load(ref)
		if err != nil {
			return nil, err
		}
		out = append(out, *att)
	}
	return out, nil
}

func (l Loader) readUnder(root string, loc email.Locator) (*email.Attachment, error) {
	if root == "" {
		return nil, fmt.Errorf("%w: no %s directory configured", ErrUnsupportedLocator, loc.Kind)
	}

	// Clean against "/" so the path cannot climb out of root.
	rel := path.Clean("/" + loc.Path)
	return readFile(filepath.Join(root, filepath.FromSlash(rel)), loc.Name)
}

func readFile(p, name string) (*email.Attachment, error) {
	data, err := os.ReadFile(p)
	if err != nil {
		slog.Warn("attachment not found", "path", p, "error", err)
		return nil, fmt.Errorf("failed to read attachment: %w", err)
	}
	return &email.Attachment{
		Filename:    name,
		ContentType: contentTypeFor(name),
		Content:     data,
	}, nil
}

func decodeBase64(loc email.Locator) (*email.Attachment, error) {
	cleaned := strings.NewReplacer("\r", "", "\n", "").Replace(loc.Data)
	data, err := base64.StdEncoding.DecodeString(cleaned)
	if err != nil {
		data, err = base64.RawStdEncoding.DecodeString(cleaned)
		if err != nil {
			return nil, fmt.Errorf("invalid base64 attachment %q: %w", loc.Name, err)
		}
	}

	name := loc.Name
	if name == "" {
		name = "attachment"
	}
	return &email.Attachment{
		Filename:    name,
		ContentType: contentTypeFor(name),
		Content:     data,
	}, nil
}

func contentTypeFor(name string) string {
	if ct := mime.TypeByExtension(filepath.Ext(name)); ct != "" {
		return ct
	}
	return defaultContentType
}
