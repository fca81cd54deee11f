package email

import (
	"path"
	"strings"
)

// LocatorKind identifies where an attachment's content lives.
type LocatorKind int

const (
	// LocatorOpaque is anything without a recognized prefix.
	LocatorOpaque LocatorKind = iota
	// LocatorAbsolute is an absolute file reference (file:///...).
	LocatorAbsolute
	// LocatorAsset is a file bundled with the application (file://...).
	LocatorAsset
	// LocatorResource is a platform resource (res://...).
	LocatorResource
	// LocatorAppData is a file inside the application's data directory (app://...).
	LocatorAppData
	// LocatorBase64 is an inline payload tagged with a filename (base64:name//DATA).
	LocatorBase64
)

func (k LocatorKind) String() string {
	switch k {
	case LocatorAbsolute:
		return "absolute"
	case LocatorAsset:
		return "asset"
	case LocatorResource:
		return "resource"
	case LocatorAppData:
		return "app"
	case LocatorBase64:
		return "base64"
	default:
		return "opaque"
	}
}

// Locator is a parsed attachment reference.
type Locator struct {
	Kind LocatorKind
	// Path is the file path for file-backed kinds, relative to the kind's
	// root except for LocatorAbsolute and LocatorOpaque.
	Path string
	// Name is the file name the attachment should carry.
	Name string
	// Data is the still-encoded payload of a LocatorBase64.
	Data string
}

// ParseLocator classifies an attachment reference. Order matters:
// "file:///" must be checked before "file://".
func ParseLocator(ref string) Locator {
	switch {
	case strings.HasPrefix(ref, "res://"):
		p := strings.TrimPrefix(ref, "res://")
		return Locator{Kind: LocatorResource, Path: p, Name: path.Base(p)}
	case strings.HasPrefix(ref, "app://"):
		p := strings.TrimPrefix(ref, "app://")
		return Locator{Kind: LocatorAppData, Path: p, Name: path.Base(p)}
	case strings.HasPrefix(ref, "file:///"):
		p := strings.TrimPrefix(ref, "file://")
		return Locator{Kind: LocatorAbsolute, Path: p, Name: path.Base(p)}
	case strings.HasPrefix(ref, "file://"):
		p := strings.TrimPrefix(ref, "file://")
		return Locator{Kind: LocatorAsset, Path: p, Name: path.Base(p)}
	case strings.HasPrefix(ref, "base64:"):
		rest := strings.TrimPrefix(ref, "base64:")
		name, data, found := strings.Cut(rest, "//")
		if !found {
			return Locator{Kind: LocatorBase64, Data: rest}
		}
		return Locator{Kind: LocatorBase64, Name: name, Data: data}
	default:
		return Locator{Kind: LocatorOpaque, Path: ref, Name: path.Base(ref)}
	}
}

// Base64Locator builds a "base64:name//DATA" reference.
func Base64Locator(name, data string) string {
	return "base64:" + name + "//" + data
}
