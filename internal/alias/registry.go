// Package alias maps short mail app names such as "gmail" to the
// identifier each platform uses to address that app.
package alias

import (
	"strings"
	"sync"
)

// Platform names a host operating system family.
type Platform string

// Supported platforms.
const (
	Android Platform = "android"
	IOS     Platform = "ios"
	OSX     Platform = "osx"
	Windows Platform = "windows"
	Linux   Platform = "linux"
	Browser Platform = "browser"
)

// ParsePlatform maps a loose platform string (including Go's GOOS values)
// onto a Platform. Unknown values map to Browser.
func ParsePlatform(s string) Platform {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "android":
		return Android
	case "ios":
		return IOS
	case "osx", "macos", "darwin":
		return OSX
	case "windows":
		return Windows
	case "linux", "freebsd", "openbsd", "netbsd":
		return Linux
	default:
		return Browser
	}
}

// Registry is a mutable alias table. An entry with an empty identifier is
// a known alias the platform cannot serve.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]string
}

// NewRegistry returns a registry seeded with the built-in aliases for the
// given platform.
func NewRegistry(p Platform) *Registry {
	r := &Registry{entries: make(map[string]string)}

	if p == Android {
		r.entries["gmail"] = "com.google.android.gm"
		r.entries["outlook"] = "com.microsoft.office.outlook"
		r.entries["hub"] = "com.blackberry.hub"
		return r
	}

	r.entries["gmail"] = "googlegmail://co"
	r.entries["outlook"] = "ms-outlook://compose"
	r.entries["hub"] = ""
	return r
}

// Register inserts or overwrites an alias. Last write wins. An empty
// identifier marks the alias as unsupported.
func (r *Registry) Register(alias, identifier string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[alias] = identifier
}

// maxHops bounds alias chains so a cycle cannot loop forever.
const maxHops = 8

// Resolve looks up alias by exact, case-sensitive match. Unknown aliases
// are returned unchanged with ok=true so raw schemes and package ids pass
// through. A known alias without an identifier returns ok=false. An alias
// whose identifier names another alias is followed until the value stops
// changing, so resolving a resolved value is a no-op.
func (r *Registry) Resolve(alias string) (identifier string, ok bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	cur := alias
	for i := 0; i < maxHops; i++ {
		id, known := r.entries[cur]
		if !known {
			return cur, true
		}
		if id == "" {
			return "", false
		}
		if id == cur {
			return id, true
		}
		cur = id
	}
	return cur, true
}

// Known reports whether alias has an entry, supported or not.
func (r *Registry) Known(alias string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.entries[alias]
	return ok
}

// Aliases returns a snapshot of all entries.
func (r *Registry) Aliases() map[string]string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]string, len(r.entries))
	for k, v := range r.entries {
		out[k] = v
	}
	return out
}
