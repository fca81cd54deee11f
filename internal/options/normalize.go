// Package options turns a loosely-typed option bag supplied by the
// embedding application into a canonical email.Draft.
package options

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/shineum/email-composer-lite/internal/alias"
	"github.com/shineum/email-composer-lite/internal/email"
)

// Option keys accepted by Normalize.
const (
	KeyApp           = "app"
	KeyFrom          = "from"
	KeySubject       = "subject"
	KeyBody          = "body"
	KeyTo            = "to"
	KeyCc            = "cc"
	KeyBcc           = "bcc"
	KeyAttachments   = "attachments"
	KeyIsHTML        = "isHtml"
	KeyChooserHeader = "chooserHeader"

	// legacyKeyIsHTML is the older spelling, still honored.
	legacyKeyIsHTML = "isHTML"
)

// DefaultChooserHeader labels the app picker shown when several clients
// can handle the draft.
const DefaultChooserHeader = "Open with"

// Defaults returns the documented default option set.
func Defaults() email.Draft {
	return email.Draft{
		App:           email.MailtoScheme,
		To:            []string{},
		Cc:            []string{},
		Bcc:           []string{},
		Attachments:   []string{},
		IsHTML:        false,
		ChooserHeader: DefaultChooserHeader,
	}
}

// Normalize fills raw against defaults and returns a new draft. It never
// fails: malformed or missing values fall back to defaults. Neither raw
// nor defaults is modified, and the result shares no slices with either.
// A nil registry skips alias resolution.
func Normalize(raw map[string]any, defaults email.Draft, reg *alias.Registry) email.Draft {
	isHTML, hasIsHTML := raw[KeyIsHTML]
	if legacy, ok := raw[legacyKeyIsHTML]; ok {
		isHTML, hasIsHTML = legacy, true
	}

	app := stringify(raw[KeyApp])
	if app != "" && reg != nil {
		if id, ok := reg.Resolve(app); ok {
			app = id
		} else {
			// known alias this platform cannot serve; fall back to mailto
			app = ""
		}
	}

	d := email.Draft{
		App:           orDefault(app, defaults.App),
		From:          orDefault(stringify(raw[KeyFrom]), defaults.From),
		Subject:       orDefault(stringify(raw[KeySubject]), defaults.Subject),
		Body:          orDefault(joinBody(raw[KeyBody]), defaults.Body),
		ChooserHeader: orDefault(stringify(raw[KeyChooserHeader]), defaults.ChooserHeader),
		To:            listOrDefault(raw[KeyTo], defaults.To),
		Cc:            listOrDefault(raw[KeyCc], defaults.Cc),
		Bcc:           listOrDefault(raw[KeyBcc], defaults.Bcc),
		Attachments:   listOrDefault(raw[KeyAttachments], defaults.Attachments),
		IsHTML:        defaults.IsHTML,
	}

	if d.App == "" {
		d.App = email.MailtoScheme
	}
	if hasIsHTML && isHTML != nil {
		d.IsHTML = truthy(isHTML)
	}

	return d
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

// joinBody accepts a body given as a list of lines.
func joinBody(v any) string {
	switch b := v.(type) {
	case []string:
		return strings.Join(b, "\n")
	case []any:
		lines := make([]string, len(b))
		for i, line := range b {
			lines[i] = stringify(line)
		}
		return strings.Join(lines, "\n")
	default:
		return stringify(v)
	}
}

func listOrDefault(v any, def []string) []string {
	if l := toList(v); l != nil {
		return l
	}
	out := make([]string, len(def))
	copy(out, def)
	return out
}

// toList returns nil when v is absent so the default applies.
func toList(v any) []string {
	switch l := v.(type) {
	case nil:
		return nil
	case string:
		if l == "" {
			return nil
		}
		return []string{l}
	case []string:
		out := make([]string, len(l))
		copy(out, l)
		return out
	case []any:
		out := make([]string, len(l))
		for i, item := range l {
			out[i] = stringify(item)
		}
		return out
	default:
		return []string{stringify(v)}
	}
}

// stringify converts v to a string the way a script runtime would: nil
// becomes empty and lists are comma-joined.
func stringify(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case bool:
		return strconv.FormatBool(s)
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(s), 'f', -1, 32)
	case []string:
		return strings.Join(s, ",")
	case []any:
		parts := make([]string, len(s))
		for i, item := range s {
			parts[i] = stringify(item)
		}
		return strings.Join(parts, ",")
	default:
		return fmt.Sprint(v)
	}
}

func truthy(v any) bool {
	switch b := v.(type) {
	case nil:
		return false
	case bool:
		return b
	case string:
		if parsed, err := strconv.ParseBool(strings.TrimSpace(b)); err == nil {
			return parsed
		}
		return b != ""
	case int:
		return b != 0
	case int64:
		return b != 0
	case int32:
		return b != 0
	case uint:
		return b != 0
	case uint64:
		return b != 0
	case float64:
		return b != 0 && !math.IsNaN(b)
	case float32:
		return b != 0 && !math.IsNaN(float64(b))
	default:
		return true
	}
}
