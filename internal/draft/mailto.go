// Package draft encodes a normalized email.Draft into the forms the OS
// hand-off primitives consume: a mailto URI, an EML document or a
// multipart MIME message.
package draft

import (
	"net/url"
	"strings"

	"github.com/shineum/email-composer-lite/internal/email"
	"github.com/shineum/email-composer-lite/internal/plaintext"
)

// Mailto is a launchable mailto URI.
type Mailto struct {
	URI string
	// DegradedToPlainText is set when an HTML body had to be converted
	// because mailto cannot carry markup.
	DegradedToPlainText bool
}

// BuildMailto encodes d as a mailto URI. Recipients in the path stay
// literal; query values are percent-encoded. The body goes last so that a
// client truncating long URIs only loses body text. d is not modified.
func BuildMailto(d email.Draft) Mailto {
	params, degraded := queryParams(d)

	uri := email.MailtoScheme + strings.Join(d.To, ",")
	if len(params) > 0 {
		uri += "?" + strings.Join(params, "&")
	}

	return Mailto{URI: uri, DegradedToPlainText: degraded}
}

// BuildAppURI encodes d against an app's compose URL such as
// "googlegmail://co". Recipients move into a "to" query parameter ahead
// of the mailto parameters. A mailto app yields the mailto URI.
func BuildAppURI(d email.Draft) Mailto {
	if d.UsesMailto() {
		return BuildMailto(d)
	}

	params, degraded := queryParams(d)
	params = appendParam(nil, "to", strings.Join(d.To, ","), params...)

	uri := d.App
	if len(params) > 0 {
		sep := "?"
		if strings.Contains(uri, "?") {
			sep = "&"
		}
		uri += sep + strings.Join(params, "&")
	}

	return Mailto{URI: uri, DegradedToPlainText: degraded}
}

// queryParams returns the encoded subject, cc, bcc and body parameters in
// that order, degrading an HTML body to plain text.
func queryParams(d email.Draft) ([]string, bool) {
	body := d.Body
	degraded := false
	if d.IsHTML {
		body, _ = plaintext.ToPlainText(d.Body)
		degraded = true
	}

	var params []string
	params = appendParam(params, "subject", d.Subject)
	params = appendParam(params, "cc", strings.Join(d.Cc, ","))
	params = appendParam(params, "bcc", strings.Join(d.Bcc, ","))
	params = appendParam(params, "body", body)
	return params, degraded
}

func appendParam(params []string, name, value string, rest ...string) []string {
	if value != "" {
		params = append(params, name+"="+encodeComponent(value))
	}
	return append(params, rest...)
}

// componentMarks undoes the query escaping of the characters
// encodeURIComponent leaves literal, and spells spaces as %20.
var componentMarks = strings.NewReplacer(
	"+", "%20",
	"%21", "!",
	"%27", "'",
	"%28", "(",
	"%29", ")",
	"%2A", "*",
)

// encodeComponent escapes like encodeURIComponent.
func encodeComponent(s string) string {
	return componentMarks.Replace(url.QueryEscape(s))
}
