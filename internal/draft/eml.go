package draft

import (
	"strings"

	"github.com/shineum/email-composer-lite/internal/email"
)

// EMLContentType is the media type of an EML document.
const EMLContentType = "message/rfc822"

// EML is a draft serialized as a message/rfc822 document.
type EML struct {
	Text        string
	ContentType string
}

// ContentType returns the body media type of d.
func ContentType(d email.Draft) string {
	if d.IsHTML {
		return "text/html"
	}
	return "text/plain"
}

// FullContentType returns the body media type with its charset, telling
// clients how to decode the body and whether to open an HTML draft.
func FullContentType(d email.Draft) string {
	return ContentType(d) + "; charset=utf-8"
}

// BuildEML serializes d as an unsent EML draft. Empty headers are left
// out; list headers are folded one address per line.
func BuildEML(d email.Draft) EML {
	var b strings.Builder

	writeHeader(&b, "Content-Type", FullContentType(d))
	writeHeader(&b, "X-Unsent", "1")
	writeHeader(&b, "Subject", d.Subject)
	writeHeader(&b, "To", strings.Join(d.To, ",\n "))
	writeHeader(&b, "Cc", strings.Join(d.Cc, ",\n "))
	writeHeader(&b, "Bcc", strings.Join(d.Bcc, ",\n "))
	b.WriteString("\n")

	if d.IsHTML {
		b.WriteString("<html>\n")
		b.WriteString("<body>\n")
		b.WriteString(d.Body + "\n")
		b.WriteString("</body>\n")
		b.WriteString("</html>")
	} else {
		b.WriteString(d.Body)
	}

	return EML{Text: b.String(), ContentType: EMLContentType}
}

func writeHeader(b *strings.Builder, name, value string) {
	if value == "" {
		return
	}
	b.WriteString(name + ": " + value + "\n")
}
